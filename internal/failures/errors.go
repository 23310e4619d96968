package failures

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMediaDecode       = errors.New("media decode error")
	ErrMissingField      = errors.New("missing field")
	ErrResampleExhausted = errors.New("resample attempts exhausted")
	ErrConfiguration     = errors.New("configuration error")
	ErrStore             = errors.New("record store error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrMediaDecode
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the dataset layer should resample a different
// index after err. Configuration problems and cancellation fail every index
// alike, so retrying them only burns attempts.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrConfiguration):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

// Kind returns a short classification label used in logs and CLI summaries.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMediaDecode):
		return "media_decode"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrResampleExhausted):
		return "resample_exhausted"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrStore):
		return "store"
	default:
		return "unknown"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
