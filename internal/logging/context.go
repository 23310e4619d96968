package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldIndex is the dataset index requested by the caller.
	FieldIndex = "index"
	// FieldResolvedIndex is the store position actually read after modulo or retry.
	FieldResolvedIndex = "resolved_index"
	// FieldAttempt is the 1-based retry attempt inside Dataset.Get.
	FieldAttempt = "attempt"
	// FieldSplit names the dataset split (train, val, test).
	FieldSplit = "split"
	// FieldWitIdx identifies the source WIT record.
	FieldWitIdx = "wit_idx"
	// FieldVideoID identifies the selected YouTube candidate.
	FieldVideoID = "youtube_video_id"
	// FieldEventType classifies warnings for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for an operator.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries failures.Kind of a logged error.
	FieldErrorKind = "error_kind"
)

type contextKey int

const (
	sessionKey contextKey = iota
	indexKey
	attemptKey
)

// WithSession tags ctx with a session identifier.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// WithIndex tags ctx with the requested dataset index.
func WithIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, indexKey, index)
}

// WithAttempt tags ctx with the current retry attempt.
func WithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey, attempt)
}

// SessionFromContext returns the session identifier, if any.
func SessionFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(sessionKey).(string)
	return v, ok && v != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := SessionFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if idx, ok := ctx.Value(indexKey).(int); ok {
		fields = append(fields, slog.Int(FieldIndex, idx))
	}
	if attempt, ok := ctx.Value(attemptKey).(int); ok {
		fields = append(fields, slog.Int(FieldAttempt, attempt))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
