package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/hatchery/internal/config"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

var header = []interface{}{"Day", "Date", "Weight (g)", "Target (g)", "Interpolated"}

// SeriesExporter writes a weight series to a spreadsheet tab.
type SeriesExporter interface {
	ExportSeries(ctx context.Context, tab string, series trajectory.WeightSeries) (string, int, error)
}

// GoogleSheetRepository implements SeriesExporter using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

var _ SeriesExporter = (*GoogleSheetRepository)(nil)

// NewGoogleSheetRepository builds a Google Sheets backed exporter. Extra
// client options are appended after the credentials file option.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// ExportSeries replaces the content of tab with one row per day, creating the
// tab when it does not exist. It returns the written range and the number of
// day rows.
func (r *GoogleSheetRepository) ExportSeries(ctx context.Context, tab string, series trajectory.WeightSeries) (string, int, error) {
	tab = strings.TrimSpace(tab)
	if tab == "" {
		return "", 0, errors.New("tab must not be empty")
	}
	if err := r.ensureTab(ctx, tab); err != nil {
		return "", 0, err
	}

	sheetRange := quoteTab(tab) + "!A:E"
	if _, err := r.service.Spreadsheets.Values.Clear(r.spreadsheetID, sheetRange, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return "", 0, fmt.Errorf("clear range %s: %w", sheetRange, err)
	}

	payload := &sheetsapi.ValueRange{Values: Rows(series)}
	call := r.service.Spreadsheets.Values.Update(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("RAW").
		Context(ctx)
	if _, err := call.Do(); err != nil {
		return "", 0, fmt.Errorf("write range %s: %w", sheetRange, err)
	}

	r.logger.Debug("series exported to sheet", zap.String("range", sheetRange), zap.Int("rows", len(series)))
	return sheetRange, len(series), nil
}

func (r *GoogleSheetRepository) ensureTab(ctx context.Context, tab string) error {
	spreadsheet, err := r.service.Spreadsheets.Get(r.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("load spreadsheet: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == tab {
			return nil
		}
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{Requests: []*sheetsapi.Request{{
		AddSheet: &sheetsapi.AddSheetRequest{Properties: &sheetsapi.SheetProperties{Title: tab}},
	}}}
	if _, err := r.service.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", tab, err)
	}
	r.logger.Info("sheet tab created", zap.String("tab", tab))
	return nil
}

// Rows renders a series as sheet rows, header first.
func Rows(series trajectory.WeightSeries) [][]interface{} {
	rows := make([][]interface{}, 0, len(series)+1)
	rows = append(rows, header)
	for _, rec := range series {
		var weight interface{} = ""
		if rec.Weight != nil {
			weight = *rec.Weight
		}
		rows = append(rows, []interface{}{rec.Day, rec.Date, weight, rec.TargetWeight, rec.Interpolated})
	}
	return rows
}

func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
