package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"superdash/internal/dashboard"
	"superdash/internal/export"
	"superdash/internal/log"
)

// firstValues flattens a query or form to its first value per key. Values
// are passed through untouched: the filter compares them byte for byte.
func firstValues(q url.Values) map[string]string {
	out := make(map[string]string, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// selectionFrom reads a selection from either the dropdown keys
// ("category-dropdown.value") or the short ones ("category").
func selectionFrom(q url.Values) dashboard.Selection {
	pick := func(keys ...string) string {
		for _, k := range keys {
			if q.Has(k) {
				return q.Get(k)
			}
		}
		return ""
	}
	return dashboard.Selection{
		Category: pick(dashboard.IDCategoryDropdown+".value", "category"),
		Region:   pick(dashboard.IDRegionDropdown+".value", "region"),
	}
}

// isClientError reports whether err was caused by request input.
func isClientError(err error) bool {
	for _, target := range []error{
		dashboard.ErrInvalidSelection,
		dashboard.ErrMissingInput,
		export.ErrUnknownFormat,
		strconv.ErrSyntax,
		strconv.ErrRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeJSON encodes v before touching the response so an encoding failure
// can still answer 500.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.structured.LogError(r.Context(), "JSON encoding failed", err, log.OpRender,
			log.NewFields().WithComponent(log.ComponentHTTP))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"response could not be encoded"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func (s *Server) writeJSONError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.writeJSON(w, r, status, map[string]string{"error": err.Error()})
}
