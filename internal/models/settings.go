package models

// Bounds for homes/{homeId}/settings/logPeriodSec.
const (
	MinLogPeriodSec     = 1
	MaxLogPeriodSec     = 3600
	DefaultLogPeriodSec = 60
)

// HomeSettings is the stored value of homes/{homeId}/settings.
type HomeSettings struct {
	LogPeriodSec any `json:"logPeriodSec,omitempty"`
}
