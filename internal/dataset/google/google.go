// Package google reads the dashboard table from a Google Sheets range.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"superdash/internal/core"
)

// DefaultRange reads every column of the first sheet.
const DefaultRange = "A:ZZ"

// Config locates the spreadsheet and its credentials. Credentials are taken
// from CredentialsJSON, then CredentialsFile, then
// GOOGLE_APPLICATION_CREDENTIALS.
type Config struct {
	SpreadsheetID   string
	Range           string
	CredentialsJSON string
	CredentialsFile string
}

// Source reads the configured range on every Load.
type Source struct {
	svc           *gsheet.Service
	spreadsheetID string
	readRange     string
}

// New creates a read-only Sheets client for cfg.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Source, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	rng := strings.TrimSpace(cfg.Range)
	if rng == "" {
		rng = DefaultRange
	}

	if len(opts) == 0 {
		creds, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsReadonlyScope),
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Source{svc: svc, spreadsheetID: id, readRange: rng}, nil
}

func credentials(cfg Config) ([]byte, error) {
	if js := strings.TrimSpace(cfg.CredentialsJSON); js != "" {
		return []byte(js), nil
	}
	file := strings.TrimSpace(cfg.CredentialsFile)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

func (s *Source) Name() string { return "sheets:" + s.spreadsheetID + "!" + s.readRange }

// Load fetches the range with unformatted values so numbers arrive without
// locale formatting.
func (s *Source) Load(ctx context.Context) (*core.Table, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", s.readRange, err)
	}
	header, rows, err := parseValues(resp.Values)
	if err != nil {
		return nil, err
	}
	return core.NewTable(header, rows)
}
