package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/hjmsindangan/stockbook/internal/config"
)

// Store defines the persistence operations the inventory core needs from the
// spreadsheet backend. Read returns the whole sheet, Overwrite replaces it,
// and Append adds one row; the backend offers no transactions and no locking.
type Store interface {
	Read(ctx context.Context, sheet string) ([][]interface{}, error)
	Overwrite(ctx context.Context, sheet string, rows [][]interface{}) error
	Append(ctx context.Context, sheet string, row []interface{}) error
}

// GoogleSheetStore implements Store using the official Google Sheets API.
type GoogleSheetStore struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetStore builds a Google Sheets backed store instance.
func NewGoogleSheetStore(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetStore{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// Read fetches every row of the named sheet.
func (s *GoogleSheetStore) Read(ctx context.Context, sheet string) ([][]interface{}, error) {
	if sheet == "" {
		return nil, fmt.Errorf("sheet name must not be empty")
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	return resp.Values, nil
}

// Overwrite replaces the sheet's entire contents with the provided rows. The
// sheet is cleared first so a shrinking table leaves no stale trailing rows.
func (s *GoogleSheetStore) Overwrite(ctx context.Context, sheet string, rows [][]interface{}) error {
	if sheet == "" {
		return fmt.Errorf("sheet name must not be empty")
	}

	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, sheet, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}

	payload := &sheetsapi.ValueRange{Values: rows}
	call := s.service.Spreadsheets.Values.Update(s.spreadsheetID, sheet+"!A1", payload).
		ValueInputOption("USER_ENTERED").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("overwrite sheet %s: %w", sheet, err)
	}

	s.logger.Debug("sheet overwritten", zap.String("sheet", sheet), zap.Int("rows", len(rows)))
	return nil
}

// Append adds the provided values as a new row at the bottom of the sheet.
func (s *GoogleSheetStore) Append(ctx context.Context, sheet string, row []interface{}) error {
	if sheet == "" {
		return fmt.Errorf("sheet name must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{row}}

	call := s.service.Spreadsheets.Values.Append(s.spreadsheetID, sheet, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into sheet %s: %w", sheet, err)
	}

	s.logger.Debug("row appended to sheet", zap.String("sheet", sheet))
	return nil
}
