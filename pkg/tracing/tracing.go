// Package tracing provides the per-query span helper internal/db/pgxdb
// and internal/persistence wrap every statement in: no OTel SDK is
// wired in this codebase's lineage (see pkg/logger's package doc), so a
// span is a structured log record carrying OTel's conventional field
// names (otel.name, otel.status_code) plus the operation tag and
// rows_returned/rows_affected count the data access layer is required
// to record on completion.
package tracing

import (
	"time"

	"go.uber.org/zap"

	"github.com/turahe/mediacore/pkg/logger"
)

// Span tracks one in-flight database operation from Start to End.
type Span struct {
	operation string
	start     time.Time
	fields    []zap.Field
}

// Start opens a span for operation, e.g. "media_file.upsert" or
// "saved_search.update_for_catalog". Extra fields (catalog, entity
// count, ...) are attached to both the start-of-operation context and
// the eventual End record.
func Start(operation string, fields ...zap.Field) *Span {
	return &Span{operation: operation, start: time.Now(), fields: fields}
}

// End closes the span, recording rows (rows_returned for a query,
// rows_affected for a write) and err using the otel.status_code
// convention. A nil logger (tests that never call logger.Init) makes
// this a no-op, matching every other call site in this codebase that
// checks logger.Log before using it.
func (s *Span) End(rows int64, err error) {
	if logger.Log == nil {
		return
	}

	fields := append([]zap.Field{
		zap.String("otel.name", s.operation),
		zap.Duration("otel.duration", time.Since(s.start)),
		zap.Int64("rows", rows),
	}, s.fields...)

	if err != nil {
		fields = append(fields, zap.String("otel.status_code", "Error"), zap.Error(err))
		logger.Log.Error("db.query", fields...)
		return
	}
	fields = append(fields, zap.String("otel.status_code", "Ok"))
	logger.Log.Debug("db.query", fields...)
}
