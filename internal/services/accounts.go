package services

import (
	"context"
	"fmt"
	"time"

	"haulbook/internal/cache"
	"haulbook/internal/core"
	"haulbook/internal/ledger"
	"haulbook/internal/storage"

	"golang.org/x/sync/errgroup"
)

const bookKey = "book"

// Book is a snapshot of everything the ledger reads.
type Book struct {
	Trips    []core.Trip
	Parties  []core.Party
	Brokers  []core.Broker
	Owners   []core.Owner
	Payments []core.Payment
}

// AccountsService serves the derived views (summary, dashboard, statements)
// from a cached Book. Any write in the book must call Invalidate.
type AccountsService struct {
	repo  *storage.Repository
	cache *cache.LRUCache[*Book]
}

func NewAccountsService(repo *storage.Repository, ttl time.Duration) *AccountsService {
	return &AccountsService{
		repo:  repo,
		cache: cache.NewLRUCache[*Book](1, ttl),
	}
}

// Cache exposes the snapshot cache for registration with a cache.Manager.
func (s *AccountsService) Cache() *cache.LRUCache[*Book] { return s.cache }

// Invalidate drops the cached snapshot.
func (s *AccountsService) Invalidate(context.Context) {
	s.cache.Purge()
}

// Book returns the cached snapshot, loading the collections concurrently on
// a miss. Callers must not modify the returned slices.
func (s *AccountsService) Book(ctx context.Context) (*Book, error) {
	return s.cache.GetOrLoad(bookKey, func() (*Book, error) {
		return LoadBook(ctx, s.repo)
	})
}

// LoadBook reads every ledger input from the repository.
func LoadBook(ctx context.Context, repo *storage.Repository) (*Book, error) {
	var b Book
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		b.Trips, err = repo.Trips.List(gctx)
		if err == nil {
			ledger.SortTrips(b.Trips)
		}
		return err
	})
	g.Go(func() (err error) { b.Parties, err = repo.Parties.List(gctx); return err })
	g.Go(func() (err error) { b.Brokers, err = repo.Brokers.List(gctx); return err })
	g.Go(func() (err error) { b.Owners, err = repo.Owners.List(gctx); return err })
	g.Go(func() (err error) { b.Payments, err = repo.Payments.List(gctx); return err })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	return &b, nil
}

func (s *AccountsService) Summary(ctx context.Context) (ledger.Summary, error) {
	b, err := s.Book(ctx)
	if err != nil {
		return ledger.Summary{}, err
	}
	return ledger.Summarize(b.Parties, b.Brokers, b.Trips, b.Payments), nil
}

func (s *AccountsService) Dashboard(ctx context.Context) (ledger.DashboardStats, error) {
	b, err := s.Book(ctx)
	if err != nil {
		return ledger.DashboardStats{}, err
	}
	return ledger.Dashboard(b.Trips, b.Parties, b.Brokers, b.Payments), nil
}

// PartyStatement looks the party up directly so an unknown id is a not-found
// error even while the snapshot is stale.
func (s *AccountsService) PartyStatement(ctx context.Context, id string) (ledger.Statement, core.Party, error) {
	party, err := s.repo.Parties.Get(ctx, id)
	if err != nil {
		return ledger.Statement{}, party, err
	}
	b, err := s.Book(ctx)
	if err != nil {
		return ledger.Statement{}, party, err
	}
	return ledger.PartyStatement(party, b.Trips, b.Payments), party, nil
}

func (s *AccountsService) BrokerStatement(ctx context.Context, id string) (ledger.Statement, error) {
	broker, err := s.repo.Brokers.Get(ctx, id)
	if err != nil {
		return ledger.Statement{}, err
	}
	b, err := s.Book(ctx)
	if err != nil {
		return ledger.Statement{}, err
	}
	return ledger.BrokerStatement(broker, b.Trips, b.Payments), nil
}

func (s *AccountsService) OwnerStatement(ctx context.Context, id string) (ledger.Statement, error) {
	owner, err := s.repo.Owners.Get(ctx, id)
	if err != nil {
		return ledger.Statement{}, err
	}
	b, err := s.Book(ctx)
	if err != nil {
		return ledger.Statement{}, err
	}
	return ledger.OwnerStatement(owner, b.Trips, b.Payments), nil
}
