package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"haulbook/internal/amqp"
	"haulbook/internal/sheets"
	gsheet "haulbook/internal/sheets/google"
	"haulbook/internal/sheets/memory"
	"haulbook/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	dial   func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		dial:   amqp.NewClient,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var store storage.DocStore
	switch config.Type {
	case SQLiteBackend:
		s, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		store = s
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store = storage.NewMemoryStore()
		f.logger.InfoContext(ctx, "Initialized memory backend; data is lost on restart")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	repo := storage.NewRepository(store)
	result := &BackendResult{Repository: repo}

	// AMQP is optional: a broker that is down at startup leaves the API
	// serving without events.
	if config.AMQPURL != "" {
		client, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without ledger events", "error", err)
		} else {
			result.Events = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if result.Events != nil {
			errs = append(errs, result.Events.Close())
		}
		errs = append(errs, repo.Close())
		return errors.Join(errs...)
	}
	return result, nil
}

// CreateRegister implements Factory.CreateRegister
func (f *DefaultFactory) CreateRegister(ctx context.Context, config Config) (sheets.TripRegister, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.InfoContext(ctx, "No spreadsheet configured, using in-memory trip register")
		return memory.New(), nil
	}

	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets trip register",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"sheet", config.GoogleSheetName)
	return cli, nil
}
