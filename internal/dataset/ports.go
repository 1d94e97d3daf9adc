// Package dataset defines where the dashboard table comes from and opens
// the configured source.
package dataset

import (
	"context"

	"superdash/internal/core"
)

// Source loads the whole table in one call. Implementations validate
// through core.NewTable, so a returned table always has the required
// columns.
type Source interface {
	Load(ctx context.Context) (*core.Table, error)
	Name() string
}

// Kind selects a Source implementation.
type Kind string

const (
	KindCSV    Kind = "csv"
	KindSQLite Kind = "sqlite"
	KindSheets Kind = "sheets"
	KindMemory Kind = "memory"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindCSV, KindSQLite, KindSheets, KindMemory}

// IsValid reports whether k is a supported kind.
func (k Kind) IsValid() bool {
	for _, v := range Kinds {
		if k == v {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }
