package ledger

import (
	"cmp"
	"slices"

	"haulbook/internal/core"

	"github.com/shopspring/decimal"
)

// ChartLimit and TopPartiesLimit bound the dashboard lists.
const (
	ChartLimit      = 10
	TopPartiesLimit = 5
)

type ChartPoint struct {
	SerialNumber int             `json:"serialNumber"`
	Date         string          `json:"date"`
	Revenue      decimal.Decimal `json:"revenue"`
	Expenses     decimal.Decimal `json:"expenses"`
}

// DashboardStats backs the landing page.
type DashboardStats struct {
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	TotalExpenses      decimal.Decimal `json:"totalExpenses"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
	TripCount          int             `json:"tripCount"`
	PartyCount         int             `json:"partyCount"`
	BrokerCount        int             `json:"brokerCount"`
	Chart              []ChartPoint    `json:"chart"`
	TopParties         []Receivable    `json:"topParties"`
}

// Dashboard aggregates revenue and expenses over trips. trips are expected
// newest first; the chart covers the first ChartLimit of them.
func Dashboard(trips []core.Trip, parties []core.Party, brokers []core.Broker, payments []core.Payment) DashboardStats {
	d := DashboardStats{
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
		TripCount:     len(trips),
		PartyCount:    len(parties),
		BrokerCount:   len(brokers),
		Chart:         make([]ChartPoint, 0, ChartLimit),
	}
	for i := range trips {
		d.TotalRevenue = d.TotalRevenue.Add(trips[i].Freight)
		d.TotalExpenses = d.TotalExpenses.Add(trips[i].Expenses())
		if i < ChartLimit {
			d.Chart = append(d.Chart, ChartPoint{
				SerialNumber: trips[i].SerialNumber,
				Date:         trips[i].Date,
				Revenue:      trips[i].Freight,
				Expenses:     trips[i].Expenses(),
			})
		}
	}

	receivables := Receivables(parties, trips, payments)
	d.OutstandingBalance = decimal.Zero
	for _, r := range receivables {
		d.OutstandingBalance = d.OutstandingBalance.Add(r.Outstanding)
	}
	slices.SortStableFunc(receivables, func(a, b Receivable) int {
		return b.Outstanding.Cmp(a.Outstanding)
	})
	if len(receivables) > TopPartiesLimit {
		receivables = receivables[:TopPartiesLimit]
	}
	d.TopParties = receivables
	return d
}

// Statement is the trip and payment history of one party, broker or owner.
type Statement struct {
	EntityType string          `json:"entityType"`
	EntityName string          `json:"entityName"`
	Trips      []core.Trip     `json:"trips"`
	Payments   []core.Payment  `json:"payments"`
	Totals     StatementTotals `json:"totals"`
}

type StatementTotals struct {
	Trips          int             `json:"trips"`
	Freight        decimal.Decimal `json:"freight"`
	PartyBalance   decimal.Decimal `json:"partyBalance"`
	PartyReceived  decimal.Decimal `json:"partyReceived"`
	Commission     decimal.Decimal `json:"brokerageCommission"`
	VehicleFare    decimal.Decimal `json:"vehicleFare"`
	VehicleBalance decimal.Decimal `json:"vehicleBalance"`
	Payments       decimal.Decimal `json:"payments"`
	Outstanding    decimal.Decimal `json:"outstanding"`
}

// newStatement collects the entity's trips and payments. Totals.Payments only
// counts payments of settleType, the direction that reduces Outstanding.
func newStatement(entityType, settleType, name string, trips []core.Trip, payments []core.Payment, match func(core.Trip) bool) Statement {
	s := Statement{
		EntityType: entityType,
		EntityName: name,
		Trips:      make([]core.Trip, 0),
		Payments:   make([]core.Payment, 0),
	}
	for _, t := range trips {
		if match(t) {
			s.Trips = append(s.Trips, t)
		}
	}
	SortTrips(s.Trips)

	tot := StatementTotals{Trips: len(s.Trips)}
	for _, t := range s.Trips {
		tot.Freight = tot.Freight.Add(t.Freight)
		tot.PartyBalance = tot.PartyBalance.Add(t.PartyBalance)
		tot.PartyReceived = tot.PartyReceived.Add(t.PartyReceived)
		tot.Commission = tot.Commission.Add(t.BrokerageCommission)
		tot.VehicleFare = tot.VehicleFare.Add(t.VehicleFare)
		tot.VehicleBalance = tot.VehicleBalance.Add(t.VehicleBalance)
	}
	for _, p := range payments {
		if p.EntityType == entityType && p.EntityName == name {
			s.Payments = append(s.Payments, p)
			if p.Settles(settleType, entityType, name) {
				tot.Payments = tot.Payments.Add(p.Amount)
			}
		}
	}
	slices.SortStableFunc(s.Payments, func(a, b core.Payment) int {
		return cmp.Compare(b.Date, a.Date)
	})
	s.Totals = tot
	return s
}

// PartyStatement lists the party's trips and payments; Outstanding is the
// party's receivable.
func PartyStatement(party core.Party, trips []core.Trip, payments []core.Payment) Statement {
	s := newStatement(core.EntityParty, core.PaymentReceived, party.Name, trips, payments, func(t core.Trip) bool {
		return t.PartyName == party.Name
	})
	s.Totals.Outstanding = PartyReceivable(party, trips, payments).Outstanding
	return s
}

// BrokerStatement lists the broker's trips and payments; Outstanding is the
// commission still payable.
func BrokerStatement(broker core.Broker, trips []core.Trip, payments []core.Payment) Statement {
	s := newStatement(core.EntityBroker, core.PaymentPaid, broker.Name, trips, payments, func(t core.Trip) bool {
		return t.BrokerName == broker.Name
	})
	s.Totals.Outstanding = BrokerPayable(broker, trips, payments).Outstanding
	return s
}

// OwnerStatement lists trips run by the owner's trucks; Outstanding is the
// replayed owner balance.
func OwnerStatement(owner core.Owner, trips []core.Trip, payments []core.Payment) Statement {
	s := newStatement(core.EntityOwner, core.PaymentPaid, owner.Name, trips, payments, func(t core.Trip) bool {
		return owner.OwnsVehicle(t.VehicleNumber)
	})
	s.Totals.Outstanding = RecomputeOwner(owner, trips, payments).OutstandingBalance
	return s
}
