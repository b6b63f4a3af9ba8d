// Package backend assembles the document store, the ledger event client and
// the trip register from configuration.
package backend

import (
	"context"
	"errors"

	"haulbook/internal/amqp"
	"haulbook/internal/services"
	"haulbook/internal/sheets"
	"haulbook/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds everything a process needs to read and write the book.
// Events is nil when no broker is configured or reachable.
type BackendResult struct {
	Repository *storage.Repository
	Events     *amqp.Client
	Cleanup    CleanupFunc
}

// Publisher returns Events as a services.EventPublisher, or a nil interface
// when there is no client.
func (r *BackendResult) Publisher() services.EventPublisher {
	if r == nil || r.Events == nil {
		return nil
	}
	return r.Events
}

// Close runs Cleanup once it is set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the document store and, when configured, the AMQP client.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateRegister returns the Google Sheets trip register, or an in-memory
	// one when no spreadsheet is configured.
	CreateRegister(ctx context.Context, config Config) (sheets.TripRegister, error)
}

// ErrNoBroker is returned when a component needs AMQP and none is configured.
var ErrNoBroker = errors.New("AMQP_URL is not configured")

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	// Ledger events, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Trip register, optional
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
