package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"superdash/internal/core"
)

func sampleTable(t *testing.T) *core.Table {
	t.Helper()
	tbl, err := core.NewTable(
		[]string{"Order.ID", "Category", "Sales", "Region", "Sub.Category", "Profit"},
		[][]string{
			{"A-1", "Tech", "100", "West", "Phones", "12.5"},
			{"A-2", "Tech", "50", "West", "Phones, Cases", ""},
			{"A-3", "Office", "30", "East", "Paper", "-3"},
		},
	)
	require.NoError(t, err)
	return tbl
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{" xlsx ", FormatXLSX, false},
		{"excel", FormatXLSX, false},
		{"parquet", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownFormat, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestEncodeCSV(t *testing.T) {
	tbl := sampleTable(t)
	p, err := Encode(tbl, FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "filtered_data.csv", p.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", p.ContentType)
	assert.Equal(t, 3, p.Rows)

	records, err := csv.NewReader(bytes.NewReader(p.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, tbl.Len()+1)
	assert.Equal(t, tbl.Header(), records[0])
	assert.Equal(t, "Phones, Cases", records[2][4], "quoted cells survive")
	assert.Equal(t, "", records[2][5])
}

func TestEncodeXLSX(t *testing.T) {
	tbl := sampleTable(t)
	p, err := Encode(tbl, FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "filtered_data.xlsx", p.FileName)

	f, err := excelize.OpenReader(bytes.NewReader(p.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, tbl.Len()+1)
	assert.Equal(t, tbl.Header(), rows[0])
	assert.Equal(t, "A-3", rows[3][0])
	assert.Equal(t, "-3", rows[3][5])

	typ, err := f.GetCellType(SheetName, "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "metrics are stored as numbers")
}

func TestEncodeUnknown(t *testing.T) {
	_, err := Encode(sampleTable(t), Format("pdf"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
