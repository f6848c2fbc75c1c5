package api

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleSheets appends booking rows to a spreadsheet tab.
type GoogleSheets struct {
	srv       *sheets.Service
	sheetID   string
	sheetName string
}

// NewGoogleSheets creates the Sheets client. Callers pass option.WithCredentialsFile for a
// service account; tests point it at a local endpoint instead.
func NewGoogleSheets(ctx context.Context, sheetID, sheetName string, opts ...option.ClientOption) (*GoogleSheets, error) {
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	return &GoogleSheets{srv: srv, sheetID: sheetID, sheetName: sheetName}, nil
}

// Append writes rec as a new row after the last filled one.
func (g *GoogleSheets) Append(ctx context.Context, rec models.BookingRecord) error {
	values := &sheets.ValueRange{Values: [][]interface{}{rec.Row()}}

	resp, err := g.srv.Spreadsheets.Values.
		Append(g.sheetID, g.sheetName+"!A:E", values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append booking row: %w", err)
	}
	if resp.Updates != nil {
		logrus.WithField("range", resp.Updates.UpdatedRange).Debug("Booking row appended")
	}
	return nil
}
