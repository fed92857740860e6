package analysis

import (
	"errors"

	"ETFDesk/internal/model"
)

// Kind classifies a pipeline failure for the presentation boundary.
type Kind string

const (
	KindNone                Kind = ""
	KindInvalidCode         Kind = "invalid_code"
	KindNetwork             Kind = "network"
	KindUpstreamFormat      Kind = "upstream_format"
	KindInsufficientHistory Kind = "insufficient_history"
	KindInternal            Kind = "internal"
)

// KindOf maps err onto the error taxonomy.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, model.ErrInvalidCode):
		return KindInvalidCode
	case errors.Is(err, model.ErrNetwork):
		return KindNetwork
	case errors.Is(err, model.ErrUpstreamFormat):
		return KindUpstreamFormat
	case errors.Is(err, model.ErrInsufficientHistory):
		return KindInsufficientHistory
	default:
		return KindInternal
	}
}

// ErrorMessage returns the user-facing text for err.
func ErrorMessage(err error) string {
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindInvalidCode:
		return "Unknown or malformed fund code. Enter a 6-digit code such as 510300 or 159915."
	case KindNetwork:
		return "The market data service could not be reached. Requests may be too frequent; try again shortly."
	case KindUpstreamFormat:
		return "The market data service returned data in an unexpected format. Try again later."
	case KindInsufficientHistory:
		return "Not enough trading history to compute the bands for this fund yet."
	default:
		return "Analysis failed: " + err.Error()
	}
}

// Outcome is the metrics label for err.
func Outcome(err error) string {
	if k := KindOf(err); k != KindNone {
		return string(k)
	}
	return "ok"
}
