package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"haulbook/internal/core"
	ports "haulbook/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client keeps a trip register sheet in step with the book.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

// Ensure interface conformance
var _ ports.TripRegister = (*Client)(nil)

// Options selects the spreadsheet and the service account used to reach it.
// CredentialsJSON wins over CredentialsFile when both are set.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string

	// ClientOptions are appended after the credentials, mostly for tests.
	ClientOptions []goption.ClientOption
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = "Trips"
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	clientOpts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}

	switch {
	case len(opts.ClientOptions) > 0:
		// caller supplied auth, e.g. WithoutAuthentication against a fake endpoint
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		clientOpts = append(clientOpts, goption.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	case strings.TrimSpace(opts.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", opts.CredentialsFile)
		raw, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(raw))
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	service, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// UpsertTrip overwrites the row holding t's serial number, or writes a new
// row below the last one. An empty sheet gets the header first.
func (c *Client) UpsertTrip(ctx context.Context, t core.Trip) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if t.SerialNumber <= 0 {
		return "", fmt.Errorf("trip %s has no serial number", t.ID)
	}

	serials, err := c.serialColumn(ctx)
	if err != nil {
		return "", err
	}

	row, found := findSerialRow(serials, t.SerialNumber)
	if !found {
		if len(serials) == 0 {
			if err := c.writeRow(ctx, 1, ports.HeaderRow()); err != nil {
				return "", fmt.Errorf("write header: %w", err)
			}
			serials = [][]any{{ports.Header[0]}}
		}
		row = len(serials) + 1
	}

	if err := c.writeRow(ctx, row, ports.TripRow(t)); err != nil {
		return "", fmt.Errorf("write trip %d: %w", t.SerialNumber, err)
	}
	return c.rowRange(row), nil
}

// RemoveTrip clears the row for serial, leaving the blank row in place so
// other row references stay valid.
func (c *Client) RemoveTrip(ctx context.Context, serial int) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	serials, err := c.serialColumn(ctx)
	if err != nil {
		return err
	}
	row, found := findSerialRow(serials, serial)
	if !found {
		return nil
	}
	rng := c.rowRange(row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

func (c *Client) serialColumn(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) writeRow(ctx context.Context, row int, cells []any) error {
	rng := c.rowRange(row)
	vr := &gsheet.ValueRange{Values: [][]any{cells}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheet, row, ports.LastColumn, row)
}
