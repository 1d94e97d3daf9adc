package dashboard

import (
	"superdash/internal/export"
)

// Export is the download callback. A non-positive click count means the
// button was never pressed and yields no payload. Otherwise the whole
// unfiltered table is serialised, regardless of the current selection.
func (s *State) Export(clicks int, format export.Format) (*export.Payload, error) {
	if clicks <= 0 {
		return nil, nil
	}
	return export.Encode(s.table, format)
}
