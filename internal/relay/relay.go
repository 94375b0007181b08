// Package relay forwards actuator commands and settings to devices over MQTT.
package relay

import (
	"encoding/json"
	"time"

	"homedash/internal/models"
)

// Publisher pushes home commands to the devices of a home.
type Publisher interface {
	// PublishLamp sends the lamp command. Errors are reported, never fatal.
	PublishLamp(homeID string, cmd models.LampCommand) error

	// PublishSettings sends the logging interval.
	PublishSettings(homeID string, logPeriodSec int) error

	// Close disconnects from the broker.
	Close() error
}

// LampTopic returns the retained topic carrying a home's lamp command.
func LampTopic(prefix, homeID string) string {
	return prefix + "/" + homeID + "/commands/lamp"
}

// SettingsTopic returns the retained topic carrying a home's settings.
func SettingsTopic(prefix, homeID string) string {
	return prefix + "/" + homeID + "/settings"
}

// LampPayload is the MQTT body for a lamp command.
type LampPayload struct {
	State     string `json:"state"`
	Timestamp string `json:"timestamp"`
}

// SettingsPayload is the MQTT body for a settings change.
type SettingsPayload struct {
	LogPeriodSec int    `json:"logPeriodSec"`
	Timestamp    string `json:"timestamp"`
}

// FormatLampPayload creates the JSON payload for a lamp command.
func FormatLampPayload(cmd models.LampCommand) ([]byte, error) {
	return json.Marshal(LampPayload{State: cmd.State, Timestamp: cmd.Timestamp})
}

// FormatSettingsPayload creates the JSON payload for a settings change.
func FormatSettingsPayload(logPeriodSec int, at time.Time) ([]byte, error) {
	return json.Marshal(SettingsPayload{LogPeriodSec: logPeriodSec, Timestamp: models.FormatKey(at)})
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishLamp(string, models.LampCommand) error { return nil }
func (NopPublisher) PublishSettings(string, int) error            { return nil }
func (NopPublisher) Close() error                                 { return nil }
