// Package export serialises a record table for download.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"superdash/internal/core"
)

// Format is a download file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatXLSX}

// DefaultBaseName is the download file name without extension.
const DefaultBaseName = "filtered_data"

// SheetName is the worksheet holding the rows in XLSX downloads.
const SheetName = "data"

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat maps a request value to a Format. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Payload is a ready-to-send download.
type Payload struct {
	FileName    string
	ContentType string
	Format      Format
	Rows        int
	Data        []byte
}

// Encode serialises every row of t, header first, in load order.
func Encode(t *core.Table, f Format) (*Payload, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatCSV:
		data, err = CSV(t)
	case FormatXLSX:
		data, err = XLSX(t)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f, err)
	}
	return &Payload{
		FileName:    DefaultBaseName + "." + string(f),
		ContentType: f.ContentType(),
		Format:      f,
		Rows:        t.Len(),
		Data:        data,
	}, nil
}

// CSV writes t as comma-separated text with a header row.
func CSV(t *core.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header()); err != nil {
		return nil, err
	}
	err := t.EachRow(func(_ int, row []string) error {
		return w.Write(row)
	})
	if err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// XLSX writes t into a single-sheet workbook. Metric columns are stored as
// numbers, blank metrics as empty cells, everything else as text.
func XLSX(t *core.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := t.Header()
	metricCol := make([]bool, len(header))
	for i, name := range header {
		metricCol[i] = slices.Contains(core.MetricFields, name)
	}

	headerCells := make([]interface{}, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerCells); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	err := t.EachRow(func(i int, row []string) error {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
			if !metricCol[j] {
				continue
			}
			n, err := t.Metric(i, header[j])
			if err != nil {
				return err
			}
			if math.IsNaN(n) {
				cells[j] = nil
			} else {
				cells[j] = n
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		return f.SetSheetRow(SheetName, cell, &cells)
	})
	if err != nil {
		return nil, fmt.Errorf("write rows: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
