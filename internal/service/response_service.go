package service

import (
	"time"

	"homedash/internal/models"
)

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "LAMP", "SETTINGS", "HOME_BOUND"
}

// LookupResult is the answer to a point-in-time search. Found is false when
// no measurement exists at or before Target; that is a state, not an error.
type LookupResult struct {
	Target string            `json:"target"`
	Found  bool              `json:"found"`
	Point  models.GraphPoint `json:"point"`
}

// HistoryOptions bounds the history subscription.
type HistoryOptions struct {
	Limit     int // last N measurements fetched
	MaxPoints int // downsampling budget
}

const (
	defaultHistoryLimit     = 200
	defaultHistoryMaxPoints = 200
	// requested sizes are capped at this multiple of the configured ones
	historyCapFactor = 10
)

// withDefaults resolves requested sizes: zero or negative falls back to the
// configured value, anything above historyCapFactor times it is capped.
func (o HistoryOptions) withDefaults(limit, maxPoints int) (int, int) {
	return bounded(limit, o.Limit, defaultHistoryLimit), bounded(maxPoints, o.MaxPoints, defaultHistoryMaxPoints)
}

func bounded(requested, configured, fallback int) int {
	if configured <= 0 {
		configured = fallback
	}
	switch {
	case requested <= 0:
		return configured
	case requested > configured*historyCapFactor:
		return configured * historyCapFactor
	}
	return requested
}
