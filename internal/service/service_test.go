package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"homedash/internal/logger"
	"homedash/internal/models"
	"homedash/internal/relay"
	"homedash/internal/repository"
	"homedash/internal/store"
)

func newTestStore() *store.Realtime {
	return store.NewRealtime(repository.NewMemoryNodes(), logger.Nop())
}

// newTestService wires every service over an in-memory store.
func newTestService(t *testing.T) (*Service, *store.Realtime, *fakeEventRepo, *relay.FakePublisher) {
	t.Helper()
	st := newTestStore()
	events := &fakeEventRepo{}
	pub := relay.NewFakePublisher("homedash")
	repos := &repository.Repository{
		Nodes:     repository.NewMemoryNodes(),
		EventRepo: events,
		Auth:      &mockAuthRepo{},
		Tokens:    newFakeTokens(),
	}
	svc := NewService(repos, st, pub, NopMailer{}, Options{
		Auth:    AuthOptions{SigningKey: testSigningKey},
		History: HistoryOptions{Limit: 200, MaxPoints: 200},
	}, logger.Nop())
	return svc, st, events, pub
}

// putMeasurement writes a raw measurement document under key.
func putMeasurement(t *testing.T, st store.Store, homeID, key, doc string) {
	t.Helper()
	p, err := store.MeasurementPath(homeID, key)
	if err != nil {
		t.Fatalf("MeasurementPath: %v", err)
	}
	if err := st.Write(context.Background(), p, json.RawMessage(doc)); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
}

func temps(inside, outside float64) string {
	b, _ := json.Marshal(models.MeasurementNode{
		Inside:  &models.SensorNode{Temperature: inside, Humidity: 40.0},
		Outside: &models.SensorNode{Temperature: outside, Humidity: 70.0},
	})
	return string(b)
}

func recvWithin[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func temp0() models.MeasurementNode {
	return models.MeasurementNode{Inside: &models.SensorNode{Temperature: 0.0}}
}

// recvUntil reads values until ok accepts one. Subscriptions may repeat a
// value when writes race the initial fetch.
func recvUntil[T any](t *testing.T, ch <-chan T, ok func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, open := <-ch:
			if !open {
				t.Fatal("channel closed")
			}
			if ok(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for value")
		}
	}
}
