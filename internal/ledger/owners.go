package ledger

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"haulbook/internal/core"

	"github.com/shopspring/decimal"
)

// OwnerTrips returns the trips run by any of the owner's trucks, newest first.
func OwnerTrips(owner core.Owner, trips []core.Trip) []core.Trip {
	out := make([]core.Trip, 0)
	for _, t := range trips {
		if owner.OwnsVehicle(t.VehicleNumber) {
			out = append(out, t)
		}
	}
	SortTrips(out)
	return out
}

// RecomputeOwner replays the owner's trips and payments into a fresh ledger.
//
// A positive vehicle balance is still owed to the owner (debit); a negative
// one means the owner was overpaid and owes it back (credit).
func RecomputeOwner(owner core.Owner, trips []core.Trip, payments []core.Payment) core.OwnerLedger {
	l := core.OwnerLedger{
		Debit:         decimal.Zero,
		Credit:        decimal.Zero,
		TotalEarnings: decimal.Zero,
	}
	for _, t := range trips {
		if !owner.OwnsVehicle(t.VehicleNumber) {
			continue
		}
		l.TotalTrips++
		l.TotalEarnings = l.TotalEarnings.Add(t.VehicleFare)
		switch {
		case t.VehicleBalance.IsPositive():
			l.Debit = l.Debit.Add(t.VehicleBalance)
		case t.VehicleBalance.IsNegative():
			l.Credit = l.Credit.Add(t.VehicleBalance.Abs())
		}
	}
	l.TotalPayments = settled(payments, core.PaymentPaid, core.EntityOwner, owner.Name)
	l.OutstandingBalance = l.Credit.Sub(l.Debit).Add(l.TotalPayments)
	return l
}

// OwnersOf returns the owners holding any of the given vehicles.
func OwnersOf(owners []core.Owner, vehicles ...string) []core.Owner {
	var out []core.Owner
	for _, o := range owners {
		for _, v := range vehicles {
			if v != "" && o.OwnsVehicle(v) {
				out = append(out, o)
				break
			}
		}
	}
	return out
}

// Drift lists the ledger fields where stored differs from want.
func Drift(stored, want core.OwnerLedger) []string {
	var out []string
	check := func(name string, a, b decimal.Decimal) {
		if !a.Equal(b) {
			out = append(out, fmt.Sprintf("%s: stored %s, expected %s", name, a, b))
		}
	}
	check("debit", stored.Debit, want.Debit)
	check("credit", stored.Credit, want.Credit)
	check("outstandingBalance", stored.OutstandingBalance, want.OutstandingBalance)
	check("totalEarnings", stored.TotalEarnings, want.TotalEarnings)
	check("totalPayments", stored.TotalPayments, want.TotalPayments)
	if stored.TotalTrips != want.TotalTrips {
		out = append(out, fmt.Sprintf("totalTrips: stored %d, expected %d", stored.TotalTrips, want.TotalTrips))
	}
	return out
}

// CloneTrip copies src as a new, unsaved trip dated today.
func CloneTrip(src core.Trip, today string) core.Trip {
	c := src
	c.Model = core.Model{}
	c.SerialNumber = 0
	c.Date = today
	c.AdditionalDetails = strings.TrimSpace(fmt.Sprintf("(Cloned from S.No: %d) %s", src.SerialNumber, src.AdditionalDetails))
	return c
}

// SortTrips orders trips by date, newest first, then by serial number.
func SortTrips(trips []core.Trip) {
	slices.SortStableFunc(trips, func(a, b core.Trip) int {
		if c := cmp.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.SerialNumber, a.SerialNumber)
	})
}
