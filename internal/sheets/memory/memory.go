// Package memory is an in-process trip register used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"haulbook/internal/core"
	"haulbook/internal/sheets"
)

var _ sheets.TripRegister = (*Register)(nil)

type Register struct {
	mu   sync.Mutex
	rows map[int][]any
}

func New() *Register {
	return &Register{rows: make(map[int][]any)}
}

// UpsertTrip stores the trip's row and returns a synthetic row reference.
func (r *Register) UpsertTrip(_ context.Context, t core.Trip) (string, error) {
	if t.SerialNumber <= 0 {
		return "", fmt.Errorf("trip %s has no serial number", t.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[t.SerialNumber] = sheets.TripRow(t)
	return fmt.Sprintf("mem:%d", t.SerialNumber), nil
}

func (r *Register) RemoveTrip(_ context.Context, serial int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, serial)
	return nil
}

// Row returns a copy of the row for serial.
func (r *Register) Row(serial int) ([]any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[serial]
	return slices.Clone(row), ok
}

// Serials lists the registered serial numbers in ascending order.
func (r *Register) Serials() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.rows))
	for s := range r.rows {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
