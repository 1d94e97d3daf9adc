package http

import (
	"context"
	"net/http"

	"superdash/internal/amqp"
	"superdash/internal/dashboard"
	"superdash/internal/export"
	"superdash/internal/log"
	"superdash/internal/middleware/trace"
)

// formatInput is optional; an absent format means the configured default.
var formatInput = dashboard.IDDownloadData + ".format"

// handleDownload runs the download callback. Zero clicks answer 204 so the
// browser stays on the page.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form").Write(w)
		return
	}

	values := firstValues(r.PostForm)
	if _, ok := values[formatInput]; !ok {
		values[formatInput] = ""
	}
	res, err := s.registry.Dispatch(ctx, dashboard.OutputDownload.String(), values, false)
	if err != nil {
		s.callbackError(w, r, err, log.OpExport)
		return
	}
	if res.Download == nil {
		NoContent().Write(w)
		return
	}

	p := res.Download
	NewHTMXResponse().Attachment(p.FileName, p.ContentType, p.Data).Write(w)

	s.metrics.downloads.Add(1)
	s.structured.LogExport(ctx, string(p.Format), p.FileName, p.Rows, len(p.Data))
	s.publishExport(ctx, p)
}

// publishExport announces a delivered download. Failures are logged only.
func (s *Server) publishExport(ctx context.Context, p *export.Payload) {
	if s.publisher == nil {
		return
	}
	ev := amqp.NewExportEvent(string(p.Format), p.FileName, p.Rows, len(p.Data))
	ev.RequestID = trace.GetRequestID(ctx)
	if err := s.publisher.PublishExport(ctx, ev); err != nil {
		s.metrics.publishErrors.Add(1)
		s.structured.LogError(ctx, "Export event publish failed", err, log.OpPublish,
			log.NewFields().WithComponent(log.ComponentAMQP))
	}
}
