// Package memory serves a table held in process memory.
package memory

import (
	"context"
	"sync"

	"superdash/internal/core"
)

// Source validates its rows on the first Load and returns the same table
// afterwards.
type Source struct {
	header []string
	rows   [][]string

	once  sync.Once
	table *core.Table
	err   error
}

// New copies header and rows.
func New(header []string, rows [][]string) *Source {
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	return &Source{header: append([]string(nil), header...), rows: cp}
}

func (s *Source) Name() string { return "memory" }

func (s *Source) Load(ctx context.Context) (*core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.once.Do(func() {
		s.table, s.err = core.NewTable(s.header, s.rows)
	})
	return s.table, s.err
}

// Sample returns a small built-in superstore extract for demos and local
// runs without a data file.
func Sample() *Source {
	return New(
		[]string{"Row.ID", "Order.ID", "Category", "Sub.Category", "Region", "Sales", "Profit"},
		[][]string{
			{"1", "CA-2014-AB10015", "Technology", "Phones", "West", "2309.65", "762.18"},
			{"2", "CA-2014-AB10015", "Technology", "Phones", "West", "1200.50", "240.10"},
			{"3", "IN-2014-JR16210", "Furniture", "Chairs", "Oceania", "3709.40", "-288.77"},
			{"4", "IN-2014-CR12730", "Technology", "Copiers", "Oceania", "5175.17", "919.97"},
			{"5", "ES-2014-KM16375", "Technology", "Phones", "Central", "2892.51", "-96.54"},
			{"6", "SG-2014-RH9495", "Technology", "Machines", "Africa", "2832.96", "311.52"},
			{"7", "IN-2014-JM15655", "Furniture", "Tables", "Oceania", "2862.68", "763.28"},
			{"8", "IN-2013-TS21340", "Technology", "Phones", "North Asia", "1822.08", "564.84"},
			{"9", "CA-2014-AB10015", "Office Supplies", "Binders", "West", "62.81", "21.20"},
			{"10", "ES-2012-AB10015", "Office Supplies", "Paper", "Central", "33.20", "15.60"},
			{"11", "ID-2013-BH11710", "Furniture", "Bookcases", "Oceania", "1337.22", "-120.53"},
			{"12", "CA-2013-PO18865", "Office Supplies", "Storage", "West", "422.90", ""},
			{"13", "IT-2014-DW13585", "Technology", "Accessories", "Central", "305.64", "42.72"},
			{"14", "MX-2012-BS11590", "Furniture", "Chairs", "West", "512.88", "48.60"},
		},
	)
}
