// Package logger provides slog handlers shared by the catalog binaries.
package logger

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

// Extractor pulls attributes out of a context. It returns nothing when the
// context does not carry the value.
type Extractor func(ctx context.Context) []slog.Attr

// ContextHandler decorates every record with the attributes its extractors find in
// the record's context.
type ContextHandler struct {
	slog.Handler
	extractors []Extractor
}

// NewContextHandler wraps handler. Without explicit extractors it adds request_id,
// trace_id and span_id.
func NewContextHandler(handler slog.Handler, extractors ...Extractor) *ContextHandler {
	if len(extractors) == 0 {
		extractors = []Extractor{RequestID, Trace}
	}
	return &ContextHandler{Handler: handler, extractors: extractors}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, extract := range h.extractors {
		r.AddAttrs(extract(ctx)...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs), extractors: h.extractors}
}

func (h *ContextHandler) WithGroup(group string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(group), extractors: h.extractors}
}

// RequestID extracts the id stored by the chi request id middleware.
func RequestID(ctx context.Context) []slog.Attr {
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		return []slog.Attr{slog.String("request_id", reqID)}
	}
	return nil
}

// Trace extracts the ids of the active OpenTelemetry span.
func Trace(ctx context.Context) []slog.Attr {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []slog.Attr{
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	}
}
