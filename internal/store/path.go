package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for empty segments or reserved characters.
var ErrInvalidPath = errors.New("invalid store path")

const reservedChars = ".#$[]"

// Join builds a store path from segments, validating each one.
func Join(segments ...string) (string, error) {
	for _, s := range segments {
		if err := validSegment(s); err != nil {
			return "", err
		}
	}
	return strings.Join(segments, "/"), nil
}

// ValidatePath checks every segment of p.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	for _, s := range strings.Split(p, "/") {
		if err := validSegment(s); err != nil {
			return err
		}
	}
	return nil
}

func validSegment(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty segment", ErrInvalidPath)
	}
	if strings.ContainsAny(s, reservedChars+"/") {
		return fmt.Errorf("%w: segment %q", ErrInvalidPath, s)
	}
	return nil
}

// Layout of the home tree.

func UserHomePath(uid string) (string, error) { return Join("users", uid, "homeId") }

func MeasurementsPath(homeID string) (string, error) {
	return Join("homes", homeID, "measurements")
}

// MeasurementPath addresses one measurement by its timestamp key.
func MeasurementPath(homeID, key string) (string, error) {
	return Join("homes", homeID, "measurements", key)
}

func LogPeriodPath(homeID string) (string, error) {
	return Join("homes", homeID, "settings", "logPeriodSec")
}

func LampPath(homeID string) (string, error) {
	return Join("homes", homeID, "commands", "lamp")
}

// related reports whether a write to written can change what is visible at watched.
func related(watched, written string) bool {
	return watched == written ||
		strings.HasPrefix(written, watched+"/") ||
		strings.HasPrefix(watched, written+"/")
}
