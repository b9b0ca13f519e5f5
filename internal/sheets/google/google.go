// Package google mirrors the ledger into a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"stipendi/internal/core"
	"stipendi/internal/log"
	ports "stipendi/internal/sheets"
)

const DefaultSheetName = "Stipendi"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var (
	_ ports.LedgerMirror = (*Client)(nil)
	_ ports.GridReader   = (*Client)(nil)
)

// NewFromEnv creates a Sheets client from service account credentials.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Stipendi").
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return New(svc, spreadsheetID, os.Getenv("GOOGLE_SHEET_NAME"), logger), nil
}

// New wraps an existing service. An empty sheetName selects DefaultSheetName.
func New(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     strings.TrimSpace(sheetName),
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func credentialsFromEnv() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

func (c *Client) fullRange() string {
	return ports.A1(c.sheetName, "A:"+ports.ColumnLetter(ports.Columns))
}

// Mirror clears the sheet and writes the grid for state.
func (c *Client) Mirror(ctx context.Context, state core.LedgerState) (ports.MirrorResult, error) {
	if c.svc == nil {
		return ports.MirrorResult{}, errors.New("sheets service not initialized")
	}
	grid := ports.BuildGrid(state)

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.fullRange(), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return ports.MirrorResult{}, fmt.Errorf("clear %s: %w", c.sheetName, err)
	}

	rng := ports.A1(c.sheetName, fmt.Sprintf("A1:%s%d", ports.ColumnLetter(ports.Columns), len(grid)))
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: grid}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return ports.MirrorResult{}, fmt.Errorf("update %s: %w", rng, err)
	}

	res := ports.MirrorResult{Range: rng, Years: len(grid) - 1, Cells: int(resp.UpdatedCells)}
	if resp.UpdatedRange != "" {
		res.Range = resp.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Ledger mirrored to sheet",
		log.FieldOperation, log.OpMirror, "range", res.Range, "years", res.Years, "cells", res.Cells)
	return res, nil
}

// ReadGrid reads the mirrored salaries back from the sheet.
func (c *Client) ReadGrid(ctx context.Context) (core.Salaries, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.fullRange()).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.sheetName, err)
	}
	return ports.ParseGrid(resp.Values)
}
