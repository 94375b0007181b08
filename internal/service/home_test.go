package service

import (
	"context"
	"testing"
	"time"

	"homedash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHomeID(t *testing.T) {
	cases := []struct {
		id string
		ok bool
	}{
		{"ab", false},
		{"abc", true},
		{"home_A-1", true},
		{"home A", false},
		{"home.A", false},
		{"", false},
		{"a23456789012345678901234567890123", false},
		{"a2345678901234567890123456789012", true},
	}
	for _, c := range cases {
		err := ValidateHomeID(c.id)
		if c.ok {
			assert.NoError(t, err, c.id)
		} else {
			assert.ErrorIs(t, err, ErrInvalidHomeID, c.id)
		}
	}
}

func TestHomeService_Associate(t *testing.T) {
	svc, _, events, _ := newTestService(t)
	ctx := context.Background()

	home, err := svc.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, home)

	_, err = svc.Associate(ctx, "u1", "ab")
	require.ErrorIs(t, err, ErrInvalidHomeID)

	home, err = svc.Associate(ctx, "u1", "  home_A-1 ")
	require.NoError(t, err)
	assert.Equal(t, "home_A-1", home)

	home, err = svc.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "home_A-1", home)

	// re-submitting the same id changes nothing
	home, err = svc.Associate(ctx, "u1", "home_A-1")
	require.NoError(t, err)
	assert.Equal(t, "home_A-1", home)

	_, err = svc.Associate(ctx, "u1", "otherHome")
	require.ErrorIs(t, err, ErrHomeAlreadyBound)

	home, err = svc.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "home_A-1", home)

	got := events.appendedEvents()
	require.Len(t, got, 1)
	assert.Equal(t, models.EventHomeBound, got[0].Type)
	assert.Equal(t, "home_A-1", got[0].HomeID)
}

func TestHomeService_WatchHome(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := svc.WatchHome(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "", recvWithin(t, ch))

	_, err = svc.Associate(context.Background(), "u1", "homeA")
	require.NoError(t, err)
	recvUntil(t, ch, func(id string) bool { return id == "homeA" })

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}
