package relay

import (
	"sync"

	"homedash/internal/models"
)

// Message is one publication recorded by FakePublisher.
type Message struct {
	Topic   string
	Payload []byte
}

// FakePublisher records publications for test assertions.
type FakePublisher struct {
	mu     sync.Mutex
	prefix string

	// Messages contains every payload that was published, in order.
	Messages []Message

	// PublishError, if set, is returned by every publish call.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher using the given topic prefix.
func NewFakePublisher(prefix string) *FakePublisher {
	return &FakePublisher{prefix: prefix}
}

func (f *FakePublisher) PublishLamp(homeID string, cmd models.LampCommand) error {
	payload, err := FormatLampPayload(cmd)
	if err != nil {
		return err
	}
	return f.record(LampTopic(f.prefix, homeID), payload)
}

func (f *FakePublisher) PublishSettings(homeID string, logPeriodSec int) error {
	payload, err := FormatSettingsPayload(logPeriodSec, timeNow())
	if err != nil {
		return err
	}
	return f.record(SettingsTopic(f.prefix, homeID), payload)
}

func (f *FakePublisher) record(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Messages = append(f.Messages, Message{Topic: topic, Payload: payload})
	return nil
}

// Published returns a copy of the recorded messages.
func (f *FakePublisher) Published() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.Messages...)
}

func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
