package models

const (
	LampOn  = "ON"
	LampOff = "OFF"
)

// LampCommand is the stored value of homes/{homeId}/commands/lamp.
type LampCommand struct {
	State     string `json:"state"`               // ON | OFF
	Timestamp string `json:"timestamp,omitempty"` // KeyLayout, UTC
}

// Flip returns the opposite lamp state. Anything but ON counts as OFF.
func Flip(state string) string {
	if state == LampOn {
		return LampOff
	}
	return LampOn
}
