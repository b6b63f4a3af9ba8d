// Package ledger derives every financial position in the book from the raw
// trips and payments. Nothing here keeps running totals: each figure is a
// replay over the inputs, so recomputing after an edit, clone or delete always
// lands on the same answer.
package ledger

import (
	"haulbook/internal/core"

	"github.com/shopspring/decimal"
)

// SerialBase is the serial number the first trip counts up from.
const SerialBase = 1000

// NextSerial returns the serial number following the largest one in use.
func NextSerial(max int) int {
	if max < SerialBase {
		return SerialBase + 1
	}
	return max + 1
}

// Payable is what the business owes a broker in commission.
type Payable struct {
	BrokerID       string          `json:"brokerId"`
	BrokerName     string          `json:"brokerName"`
	Station        string          `json:"station"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
	TripsCount     int             `json:"tripsCount"`
	Gross          decimal.Decimal `json:"grossCommission"`
	Settled        decimal.Decimal `json:"paid"`
	Outstanding    decimal.Decimal `json:"outstanding"`
}

// Receivable is what a party owes the business.
type Receivable struct {
	PartyID     string          `json:"partyId"`
	PartyName   string          `json:"partyName"`
	Contact     string          `json:"contact"`
	TripsCount  int             `json:"tripsCount"`
	Opening     decimal.Decimal `json:"openingBalance"`
	Gross       decimal.Decimal `json:"gross"`
	Settled     decimal.Decimal `json:"received"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// Summary is the accounts overview across every broker and party.
type Summary struct {
	Payables         []Payable       `json:"payables"`
	Receivables      []Receivable    `json:"receivables"`
	TotalPayables    decimal.Decimal `json:"totalPayables"`
	TotalReceivables decimal.Decimal `json:"totalReceivables"`
	NetPosition      decimal.Decimal `json:"netPosition"`
	CashFlow         string          `json:"cashFlow"`
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func settled(payments []core.Payment, typ, entityType, name string) decimal.Decimal {
	total := decimal.Zero
	for i := range payments {
		if payments[i].Settles(typ, entityType, name) {
			total = total.Add(payments[i].Amount)
		}
	}
	return total
}

// BrokerPayable computes a single broker's commission position.
func BrokerPayable(b core.Broker, trips []core.Trip, payments []core.Payment) Payable {
	p := Payable{
		BrokerID:       b.ID,
		BrokerName:     b.Name,
		Station:        b.Station,
		CommissionRate: b.Commission,
		Gross:          decimal.Zero,
	}
	for i := range trips {
		if trips[i].BrokerName == b.Name {
			p.TripsCount++
			p.Gross = p.Gross.Add(trips[i].BrokerageCommission)
		}
	}
	p.Settled = settled(payments, core.PaymentPaid, core.EntityBroker, b.Name)
	p.Outstanding = floorZero(p.Gross.Sub(p.Settled))
	return p
}

// PartyReceivable computes a single party's position, starting from its
// opening balance.
func PartyReceivable(party core.Party, trips []core.Trip, payments []core.Payment) Receivable {
	r := Receivable{
		PartyID:   party.ID,
		PartyName: party.Name,
		Contact:   party.Contact,
		Opening:   party.OutstandingBalance,
		Gross:     party.OutstandingBalance,
	}
	for i := range trips {
		if trips[i].PartyName == party.Name {
			r.TripsCount++
			r.Gross = r.Gross.Add(trips[i].PartyBalance)
		}
	}
	r.Settled = settled(payments, core.PaymentReceived, core.EntityParty, party.Name)
	r.Outstanding = floorZero(r.Gross.Sub(r.Settled))
	return r
}

// Payables returns the commission position of every broker.
func Payables(brokers []core.Broker, trips []core.Trip, payments []core.Payment) []Payable {
	out := make([]Payable, 0, len(brokers))
	for _, b := range brokers {
		out = append(out, BrokerPayable(b, trips, payments))
	}
	return out
}

// Receivables returns the position of every party.
func Receivables(parties []core.Party, trips []core.Trip, payments []core.Payment) []Receivable {
	out := make([]Receivable, 0, len(parties))
	for _, p := range parties {
		out = append(out, PartyReceivable(p, trips, payments))
	}
	return out
}

// Summarize builds the accounts overview.
func Summarize(parties []core.Party, brokers []core.Broker, trips []core.Trip, payments []core.Payment) Summary {
	s := Summary{
		Payables:         Payables(brokers, trips, payments),
		Receivables:      Receivables(parties, trips, payments),
		TotalPayables:    decimal.Zero,
		TotalReceivables: decimal.Zero,
	}
	for _, p := range s.Payables {
		s.TotalPayables = s.TotalPayables.Add(p.Outstanding)
	}
	for _, r := range s.Receivables {
		s.TotalReceivables = s.TotalReceivables.Add(r.Outstanding)
	}
	s.NetPosition = s.TotalReceivables.Sub(s.TotalPayables)
	s.CashFlow = "positive"
	if s.NetPosition.IsNegative() {
		s.CashFlow = "negative"
	}
	return s
}
