package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"haulbook/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheet serves the three values endpoints the client uses over an
// in-memory grid keyed by 1-based row.
type fakeSheet struct {
	mu   sync.Mutex
	rows map[int][]any
}

func rowOf(t *testing.T, rng string) int {
	t.Helper()
	_, cells, ok := strings.Cut(rng, "!A")
	require.True(t, ok, "range %q", rng)
	digits, _, _ := strings.Cut(cells, ":")
	n, err := strconv.Atoi(digits)
	require.NoError(t, err, "range %q", rng)
	return n
}

func (f *fakeSheet) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		_, rng, ok := strings.Cut(r.URL.Path, "/values/")
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet:
			last := 0
			for n := range f.rows {
				last = max(last, n)
			}
			values := make([][]any, last)
			for i := range values {
				if row := f.rows[i+1]; len(row) > 0 {
					values[i] = []any{row[0]}
				} else {
					values[i] = []any{}
				}
			}
			_ = json.NewEncoder(w).Encode(gsheet.ValueRange{Range: rng, Values: values})
		case r.Method == http.MethodPut:
			var vr gsheet.ValueRange
			require.NoError(t, json.NewDecoder(r.Body).Decode(&vr))
			f.rows[rowOf(t, rng)] = vr.Values[0]
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodPost && strings.HasSuffix(rng, ":clear"):
			delete(f.rows, rowOf(t, strings.TrimSuffix(rng, ":clear")))
			_, _ = w.Write([]byte(`{}`))
		default:
			http.Error(w, "unexpected request", http.StatusBadRequest)
		}
	})
}

func newTestClient(t *testing.T) (*Client, *fakeSheet) {
	t.Helper()
	fake := &fakeSheet{rows: make(map[int][]any)}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-id",
		SheetName:     "Trips",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
		},
	})
	require.NoError(t, err)
	return c, fake
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "x", CredentialsFile: t.TempDir() + "/missing.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestUpsertTrip(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	trip := core.Trip{SerialNumber: 1001, Date: "2023-10-26", VehicleNumber: "TR-12345", Freight: decimal.NewFromInt(120000)}
	ref, err := c.UpsertTrip(ctx, trip)
	require.NoError(t, err)
	assert.Equal(t, "Trips!A2:R2", ref)
	assert.Equal(t, "S.No", fake.rows[1][0], "empty sheet gets a header row")

	second := core.Trip{SerialNumber: 1002, Date: "2023-10-27"}
	ref, err = c.UpsertTrip(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "Trips!A3:R3", ref)

	trip.Freight = decimal.NewFromInt(90000)
	ref, err = c.UpsertTrip(ctx, trip)
	require.NoError(t, err)
	assert.Equal(t, "Trips!A2:R2", ref, "existing serial is overwritten in place")
	assert.Equal(t, "90000", fake.rows[2][8])
	assert.Len(t, fake.rows, 3)
}

func TestRemoveTrip(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	_, err := c.UpsertTrip(ctx, core.Trip{SerialNumber: 1001})
	require.NoError(t, err)
	_, err = c.UpsertTrip(ctx, core.Trip{SerialNumber: 1002})
	require.NoError(t, err)

	require.NoError(t, c.RemoveTrip(ctx, 1001))
	_, still := fake.rows[2]
	assert.False(t, still)
	assert.Equal(t, "1002", fake.rows[3][0])

	require.NoError(t, c.RemoveTrip(ctx, 4242), "unknown serial is a no-op")
}

func TestUpsertTripRequiresSerial(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.UpsertTrip(context.Background(), core.Trip{})
	assert.Error(t, err)
}

func TestFindSerialRow(t *testing.T) {
	values := [][]any{{"S.No"}, {"1001"}, {}, {" 1003 "}}

	row, ok := findSerialRow(values, 1003)
	assert.True(t, ok)
	assert.Equal(t, 4, row)

	_, ok = findSerialRow(values, 1002)
	assert.False(t, ok)
}
