package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"superdash/internal/dashboard"
	"superdash/internal/log"
	"superdash/internal/ui"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Title string
		Root  ui.Node
	}{
		Title: dashboard.PageTitle,
		Root:  s.state.Layout(),
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.structured.LogError(r.Context(), "Index template execution failed", err, log.OpRender,
			log.NewFields().WithComponent(log.ComponentTemplate))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	NewHTMXResponse().BodyHTML(buf.Bytes()).Write(w)
}

// handleHealth is a liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady checks that the page can be served.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	code := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil || s.templates.Lookup("node") == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	checks["dataset"] = map[string]any{
		"rows":       s.state.Table().Len(),
		"categories": len(s.state.Categories()),
		"regions":    len(s.state.Regions()),
	}

	if s.publisher == nil {
		checks["export_events"] = "not_configured"
	} else {
		checks["export_events"] = "ok"
	}

	checks["cache"] = map[string]any{
		"chart_entries":    s.chartCache.Size(),
		"download_entries": s.payloadCache.Size(),
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients()}

	s.writeJSON(w, r, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in a Prometheus-like text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.trace.GetMetrics()
	limitMetrics := s.limiter.Metrics()
	charts := s.chartCache.Stats()
	payloads := s.payloadCache.Stats()

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_requests_failed_total", "counter", "HTTP requests answered with a 5xx status", traceMetrics.FailedRequests)
	metric("http_response_time_avg_microseconds", "gauge", "Mean response time", traceMetrics.AverageResponseTime)
	metric("dashboard_updates_total", "counter", "Distribution charts rebuilt", s.metrics.updates.Load())
	metric("chart_renders_total", "counter", "Chart images rendered", s.metrics.chartRenders.Load())
	metric("downloads_total", "counter", "Dataset downloads delivered", s.metrics.downloads.Load())
	metric("export_publish_errors_total", "counter", "Export events that could not be published", s.metrics.publishErrors.Load())

	fmt.Fprintf(w, "# HELP cache_hits_total Total cache hits\n# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total{cache=\"charts\"} %d\ncache_hits_total{cache=\"downloads\"} %d\n\n", charts.Hits, payloads.Hits)
	fmt.Fprintf(w, "# HELP cache_misses_total Total cache misses\n# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total{cache=\"charts\"} %d\ncache_misses_total{cache=\"downloads\"} %d\n\n", charts.Misses, payloads.Misses)
	fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{cache=\"charts\"} %d\ncache_entries{cache=\"downloads\"} %d\n\n", charts.Entries, payloads.Entries)

	metric("rate_limit_rejected_total", "counter", "Downloads rejected by the rate limiter", limitMetrics.Rejected)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", limitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Requests matching probe patterns", s.detector.SuspiciousCount())
	metric("dataset_rows", "gauge", "Rows in the loaded dataset", s.state.Table().Len())
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.metrics.started).Seconds()))
}
