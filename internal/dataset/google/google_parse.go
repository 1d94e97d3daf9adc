package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoHeader is returned for a range with no rows.
var ErrNoHeader = errors.New("sheet range has no header row")

// parseValues splits a Sheets values matrix into header and rows. The API
// drops trailing empty cells, so short rows are padded to the header width.
// Fully empty rows are skipped.
func parseValues(values [][]interface{}) ([]string, [][]string, error) {
	if len(values) == 0 {
		return nil, nil, ErrNoHeader
	}
	header := toStrings(values[0])
	for len(header) > 0 && strings.TrimSpace(header[len(header)-1]) == "" {
		header = header[:len(header)-1]
	}
	if len(header) == 0 {
		return nil, nil, ErrNoHeader
	}

	rows := make([][]string, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := toStrings(raw)
		if isBlank(row) {
			continue
		}
		for len(row) < len(header) {
			row = append(row, "")
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
