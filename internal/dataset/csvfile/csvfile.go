// Package csvfile reads the dashboard table from a comma-delimited file
// whose first record is the header.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"superdash/internal/core"
)

// ErrEmpty is returned for input without a header record.
var ErrEmpty = errors.New("csv input has no header row")

const bom = "\ufeff"

// Source reads a CSV file on every Load.
type Source struct {
	path string
}

func New(path string) *Source { return &Source{path: path} }

func (s *Source) Name() string { return "csv:" + s.path }

// Load opens the file and parses it with Read.
func (s *Source) Load(ctx context.Context) (*core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses CSV records from r. Record length is checked by
// core.NewTable, which reports the offending row.
func Read(r io.Reader) (*core.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return core.NewTable(header, rows)
}
