package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"homedash/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Realtime {
	return NewRealtime(repository.NewMemoryNodes(), nil)
}

func recv(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

func TestRealtime_ReadAssemblesSubtree(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Write(ctx, "homes/h1/settings/logPeriodSec", 30))

	snap, err := s.Read(ctx, "homes/h1/settings")
	require.NoError(t, err)
	require.True(t, snap.Exists)
	assert.JSONEq(t, `{"logPeriodSec":30}`, string(snap.Value))

	missing, err := s.Read(ctx, "homes/h2/settings")
	require.NoError(t, err)
	assert.False(t, missing.Exists)
}

func TestRealtime_WriteNilDeletes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Write(ctx, "users/u1/homeId", "homeA"))
	require.NoError(t, s.Write(ctx, "users/u1/homeId", nil))

	snap, err := s.Read(ctx, "users/u1/homeId")
	require.NoError(t, err)
	assert.False(t, snap.Exists)
}

func TestRealtime_QueryAssemblesFieldWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Write(ctx, "homes/h1/measurements/2024-01-01T09:00:00Z", map[string]any{"inside": map[string]any{"temperature": 19}}))
	require.NoError(t, s.Write(ctx, "homes/h1/measurements/2024-01-01T10:00:00Z/inside/temperature", 21.5))
	require.NoError(t, s.Write(ctx, "homes/h1/measurements/2024-01-01T10:00:00Z/inside/humidity", 40))

	snap, err := s.Query(ctx, "homes/h1/measurements", Query{LimitToLast: 1})
	require.NoError(t, err)
	require.Len(t, snap.Children, 1)
	assert.Equal(t, "2024-01-01T10:00:00Z", snap.Children[0].Key)
	assert.JSONEq(t, `{"inside":{"temperature":21.5,"humidity":40}}`, string(snap.Children[0].Value))

	snap, err = s.Query(ctx, "homes/h1/measurements", Query{})
	require.NoError(t, err)
	require.Len(t, snap.Children, 2)
	assert.Equal(t, "2024-01-01T09:00:00Z", snap.Children[0].Key)
}

func TestRealtime_QueryEndAtLimitToLast(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	for _, k := range []string{"2024-01-01T10:00:00Z", "2024-01-01T12:00:00Z", "2024-01-01T09:00:00Z"} {
		require.NoError(t, s.Write(ctx, "homes/h/measurements/"+k, map[string]any{"inside": map[string]any{"temperature": 20}}))
	}

	snap, err := s.Query(ctx, "homes/h/measurements", Query{EndAt: "2024-01-01T11:30:59Z", LimitToLast: 1})
	require.NoError(t, err)
	c, ok := snap.First()
	require.True(t, ok)
	assert.Equal(t, "2024-01-01T10:00:00Z", c.Key)

	snap, err = s.Query(ctx, "homes/h/measurements", Query{LimitToLast: 2})
	require.NoError(t, err)
	require.Len(t, snap.Children, 2)
	assert.Equal(t, "2024-01-01T10:00:00Z", snap.Children[0].Key)
	assert.Equal(t, "2024-01-01T12:00:00Z", snap.Children[1].Key)

	snap, err = s.Query(ctx, "homes/h/measurements", Query{EndAt: "2024-01-01T08:00:00Z", LimitToLast: 1})
	require.NoError(t, err)
	_, ok = snap.First()
	assert.False(t, ok)
}

func TestRealtime_InvalidPath(t *testing.T) {
	s := newTestStore()
	err := s.Write(context.Background(), "homes/bad.id/settings", 1)
	assert.True(t, errors.Is(err, ErrInvalidPath))
	_, err = s.Read(context.Background(), "homes//x")
	assert.True(t, errors.Is(err, ErrInvalidPath))
}

func TestRealtime_SubscribeDeliversInitialAndUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestStore()

	ch, err := s.Subscribe(ctx, "homes/h/commands/lamp", nil)
	require.NoError(t, err)

	first := recv(t, ch)
	assert.False(t, first.Exists)

	require.NoError(t, s.Write(ctx, "homes/h/commands/lamp", map[string]string{"state": "ON"}))
	next := recv(t, ch)
	require.True(t, next.Exists)
	var got map[string]string
	require.NoError(t, json.Unmarshal(next.Value, &got))
	assert.Equal(t, "ON", got["state"])
}

func TestRealtime_SubscribeQueryIgnoresUnrelatedWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestStore()

	q := &Query{LimitToLast: 1}
	ch, err := s.Subscribe(ctx, "homes/h/measurements", q)
	require.NoError(t, err)
	recv(t, ch)

	require.NoError(t, s.Write(ctx, "homes/other/measurements/2024-01-01T00:00:00Z", map[string]any{}))
	select {
	case snap := <-ch:
		t.Fatalf("unexpected delivery: %+v", snap)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, s.Write(ctx, "homes/h/measurements/2024-01-01T00:00:00Z", map[string]any{}))
	snap := recv(t, ch)
	c, ok := snap.First()
	require.True(t, ok)
	assert.Equal(t, "2024-01-01T00:00:00Z", c.Key)
}

func TestRealtime_TeardownClosesAndUnregisters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newTestStore()

	ch, err := s.Subscribe(ctx, "users/u1/homeId", nil)
	require.NoError(t, err)
	recv(t, ch)
	assert.Equal(t, 1, s.Subscribers())

	cancel()
	require.NoError(t, s.Write(context.Background(), "users/u1/homeId", "homeA"))

	// drained channel must close without delivering the post-teardown write
	for snap := range ch {
		t.Fatalf("delivery after teardown: %+v", snap)
	}
	assert.Eventually(t, func() bool { return s.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestRelated(t *testing.T) {
	assert.True(t, related("homes/h/settings", "homes/h/settings/logPeriodSec"))
	assert.True(t, related("homes/h/settings/logPeriodSec", "homes/h/settings"))
	assert.True(t, related("homes/h/measurements", "homes/h/measurements/2024"))
	assert.False(t, related("homes/h", "homes/h2/settings"))
}
