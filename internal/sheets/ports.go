package sheets

import (
	"context"

	"haulbook/internal/core"
)

// Ports for outbound adapters.
type (
	// TripRegister mirrors trips into an external spreadsheet, one row per
	// serial number.
	TripRegister interface {
		// UpsertTrip writes the trip's row, replacing any row with the same
		// serial number.
		UpsertTrip(ctx context.Context, t core.Trip) (rowRef string, err error)
		// RemoveTrip clears the row for serial. A missing row is not an error.
		RemoveTrip(ctx context.Context, serial int) error
	}
)
