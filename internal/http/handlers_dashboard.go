package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"superdash/internal/core"
	"superdash/internal/dashboard"
	"superdash/internal/log"
	"superdash/internal/render"
)

// handleUpdatePartial runs the filter callback and returns the HTML that
// replaces the scroll container's children.
func (s *Server) handleUpdatePartial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	values := firstValues(q)
	initial := q.Get("initial") == "1"

	res, err := s.registry.Dispatch(ctx, dashboard.OutputDistribution.String(), values, initial)
	if err != nil {
		s.callbackError(w, r, err, log.OpUpdate)
		return
	}
	if res.Node == nil {
		NoContent().Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "node", *res.Node); err != nil {
		s.structured.LogError(ctx, "Partial template execution failed", err, log.OpRender,
			log.NewFields().WithComponent(log.ComponentTemplate))
		InternalServerError("Could not render the chart").Write(w)
		return
	}

	s.metrics.updates.Add(1)
	points := 0
	if g, ok := res.Node.Find(dashboard.IDDistributionGraph); ok && g.Figure != nil {
		points = len(g.Figure.Points)
	}
	sel := selectionFrom(q)
	s.structured.LogUpdate(ctx, sel.Category, sel.Region, points)

	NewHTMXResponse().
		TriggerChartUpdated(dashboard.IDScrollTarget).
		BodyHTML(buf.Bytes()).
		Write(w)
}

// handleUpdateJSON returns the distribution chart description.
func (s *Server) handleUpdateJSON(w http.ResponseWriter, r *http.Request) {
	fig, err := s.state.Chart(selectionFrom(r.URL.Query()))
	if err != nil {
		status := http.StatusInternalServerError
		if isClientError(err) {
			status = http.StatusBadRequest
		}
		s.writeJSONError(w, r, status, err)
		return
	}
	s.metrics.updates.Add(1)
	s.writeJSON(w, r, http.StatusOK, fig)
}

func (s *Server) handleChartJSON(w http.ResponseWriter, r *http.Request) {
	fig, err := s.state.StaticChart(r.PathValue("id"))
	if err != nil {
		s.writeJSONError(w, r, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, fig)
}

// handleChartPNG serves /charts/{id}.png. Static charts are rendered once
// and cached; the distribution chart is drawn per request.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		http.NotFound(w, r)
		return
	}

	if id == dashboard.ChartSalesDistribution {
		fig, err := s.state.Chart(selectionFrom(r.URL.Query()))
		if err != nil {
			if isClientError(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			s.structured.LogError(ctx, "Distribution chart failed", err, log.OpAggregate, nil)
			http.Error(w, "chart error", http.StatusInternalServerError)
			return
		}
		img, err := s.renderPNG(ctx, id, fig)
		if err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
			return
		}
		writePNG(w, img, false)
		return
	}

	if img, ok := s.chartCache.Get(id); ok {
		writePNG(w, img, true)
		return
	}
	fig, err := s.state.StaticChart(id)
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownChart) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "chart error", http.StatusInternalServerError)
		return
	}
	img, err := s.renderPNG(ctx, id, fig)
	if err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	s.chartCache.Set(id, img)
	writePNG(w, img, true)
}

func (s *Server) renderPNG(ctx context.Context, id string, fig core.Chart) ([]byte, error) {
	img, err := render.PNG(fig)
	if err != nil {
		s.structured.LogError(ctx, "Chart render failed", err, log.OpRender,
			log.NewFields().WithComponent(log.ComponentRender))
		return nil, err
	}
	s.metrics.chartRenders.Add(1)
	log.FromContext(ctx).DebugContext(ctx, "Chart rendered",
		log.FieldChartID, id,
		log.FieldPoints, len(fig.Points),
		log.FieldBytes, len(img))
	return img, nil
}

func writePNG(w http.ResponseWriter, img []byte, cacheable bool) {
	w.Header().Set("Content-Type", "image/png")
	if cacheable {
		w.Header().Set("Cache-Control", "public, max-age=300")
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// callbackError maps a callback failure to an HTMX error fragment.
func (s *Server) callbackError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if isClientError(err) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected callback input",
			log.FieldError, err.Error(),
			log.FieldOperation, op)
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.structured.LogError(r.Context(), "Callback failed", err, op, log.NewFields().WithComponent(log.ComponentDashboard))
	InternalServerError("Something went wrong").Write(w)
}
