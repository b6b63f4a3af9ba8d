// Package services orchestrates writes across the document store, the owner
// ledgers, the accounts snapshot cache and ledger events.
package services

import (
	"time"

	"haulbook/internal/core"
	"haulbook/internal/metrics"
	"haulbook/internal/storage"
)

// Options configures New. Zero values are valid.
type Options struct {
	Events          EventPublisher
	Metrics         *metrics.Metrics
	CacheTTL        time.Duration
	LabourSelfNames []string
}

// Set is every service the API serves, sharing one repository.
type Set struct {
	Trips           *TripService
	Payments        *PaymentService
	Owners          *OwnerService
	Parties         *Resource[core.Party, *core.Party]
	Brokers         *Resource[core.Broker, *core.Broker]
	Labours         *Resource[core.Labour, *core.Labour]
	ProductReceives *Resource[core.ProductReceive, *core.ProductReceive]
	Accounts        *AccountsService
	Reconcile       *ReconcileService
}

func New(repo *storage.Repository, opts Options) *Set {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	selfNames := opts.LabourSelfNames
	if len(selfNames) == 0 {
		selfNames = core.DefaultSelfNames
	}

	accounts := NewAccountsService(repo, ttl)
	reconcile := NewReconcileService(repo, opts.Metrics)
	opts.Metrics.RegisterCache("accounts", accounts.Cache().Stats)

	return &Set{
		Trips:    NewTripService(repo, reconcile, accounts, opts.Events, opts.Metrics),
		Payments: NewPaymentService(repo, reconcile, accounts, opts.Events, opts.Metrics),
		Owners:   NewOwnerService(repo, reconcile, accounts, opts.Events, opts.Metrics),
		Parties: NewResource(repo.Parties,
			WithOnChange[core.Party](accounts.Invalidate),
			WithMetrics[core.Party](opts.Metrics)),
		Brokers: NewResource(repo.Brokers,
			WithOnChange[core.Broker](accounts.Invalidate),
			WithMetrics[core.Broker](opts.Metrics)),
		Labours: NewResource(repo.Labours,
			WithCheck(func(l *core.Labour) error { return l.CheckSelfName(selfNames) }),
			WithMetrics[core.Labour](opts.Metrics)),
		ProductReceives: NewResource(repo.ProductReceives,
			WithMetrics[core.ProductReceive](opts.Metrics)),
		Accounts:  accounts,
		Reconcile: reconcile,
	}
}
