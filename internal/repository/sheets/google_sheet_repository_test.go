package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/mamadbah2/hatchery/internal/config"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

func testSeries(t *testing.T) trajectory.WeightSeries {
	t.Helper()
	series, err := trajectory.NewSeries(trajectory.SeriesParams{
		InitialWeight:  60,
		IncubationDays: 2,
		StartDate:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return series
}

func TestRows(t *testing.T) {
	rows := Rows(testSeries(t))
	require.Len(t, rows, 4)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []interface{}{0, "2025-03-01", 60.0, 60.0, false}, rows[1])
	assert.Equal(t, []interface{}{2, "2025-03-03", "", 52.8, false}, rows[3])
}

func TestQuoteTab(t *testing.T) {
	assert.Equal(t, "'Blue Orpington'", quoteTab("Blue Orpington"))
	assert.Equal(t, "'Bob''s egg'", quoteTab("Bob's egg"))
}

type fakeSheets struct {
	mu      sync.Mutex
	calls   []string
	written [][]interface{}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		w.Write([]byte(`{"sheets":[{"properties":{"title":"Existing"}}]}`))
	case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		w.Write([]byte(`{}`))
	case strings.HasSuffix(r.URL.Path, ":clear"):
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPut:
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.written = body.Values
		w.Write([]byte(`{}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestExporter(t *testing.T, fake *fakeSheets) *GoogleSheetRepository {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	repo, err := NewGoogleSheetRepository(context.Background(), config.SheetsConfig{SpreadsheetID: "sheet-1"}, nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return repo
}

func TestExportSeries_CreatesMissingTab(t *testing.T) {
	fake := &fakeSheets{}
	repo := newTestExporter(t, fake)

	sheetRange, rows, err := repo.ExportSeries(context.Background(), "Marans", testSeries(t))
	require.NoError(t, err)
	assert.Equal(t, "'Marans'!A:E", sheetRange)
	assert.Equal(t, 3, rows)

	require.Len(t, fake.calls, 4)
	assert.Equal(t, "GET /v4/spreadsheets/sheet-1", fake.calls[0])
	assert.Equal(t, "POST /v4/spreadsheets/sheet-1:batchUpdate", fake.calls[1])
	assert.True(t, strings.HasSuffix(fake.calls[2], ":clear"))
	assert.True(t, strings.HasPrefix(fake.calls[3], "PUT "))
	require.Len(t, fake.written, 4)
	assert.Equal(t, "Day", fake.written[0][0])
}

func TestExportSeries_ExistingTab(t *testing.T) {
	fake := &fakeSheets{}
	repo := newTestExporter(t, fake)

	_, _, err := repo.ExportSeries(context.Background(), "Existing", testSeries(t))
	require.NoError(t, err)
	assert.Len(t, fake.calls, 3)

	_, _, err = repo.ExportSeries(context.Background(), "  ", testSeries(t))
	assert.Error(t, err)
}
