package service

import (
	"context"
	"encoding/json"
	"testing"

	"homedash/internal/models"
	"homedash/internal/relay"
	"homedash/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogPeriod(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"0", 1},
		{"-5", 1},
		{"99999", 3600},
		{" 30 ", 30},
		{"12.6", 13},
		{"1e3", 1000},
	}
	for _, c := range cases {
		got, err := ParseLogPeriod(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	for _, bad := range []string{"abc", "", "NaN", "Inf", "10s"} {
		_, err := ParseLogPeriod(bad)
		assert.ErrorIs(t, err, ErrInvalidLogPeriod, bad)
	}
}

func TestSettingsService_SetLogPeriod(t *testing.T) {
	svc, _, events, pub := newTestService(t)
	ctx := context.Background()

	sec, err := svc.SetLogPeriod(ctx, "homeA", "99999")
	require.NoError(t, err)
	assert.Equal(t, 3600, sec)

	got, err := svc.LogPeriod(ctx, "homeA")
	require.NoError(t, err)
	assert.Equal(t, 3600, got)

	sec, err = svc.SetLogPeriod(ctx, "homeA", "0")
	require.NoError(t, err)
	assert.Equal(t, 1, sec)

	msgs := pub.Published()
	require.Len(t, msgs, 2)
	assert.Equal(t, relay.SettingsTopic("homedash", "homeA"), msgs[1].Topic)
	var payload relay.SettingsPayload
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &payload))
	assert.Equal(t, 1, payload.LogPeriodSec)

	require.Len(t, events.appendedEvents(), 2)
	assert.Equal(t, models.EventSettings, events.appendedEvents()[0].Type)
}

func TestSettingsService_InvalidInputWritesNothing(t *testing.T) {
	svc, _, events, pub := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetLogPeriod(ctx, "homeA", "abc")
	require.ErrorIs(t, err, ErrInvalidLogPeriod)

	got, err := svc.LogPeriod(ctx, "homeA")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLogPeriodSec, got)
	assert.Empty(t, pub.Published())
	assert.Empty(t, events.appendedEvents())
}

func TestSettingsService_RelayFailureKeepsWrite(t *testing.T) {
	svc, _, _, pub := newTestService(t)
	pub.PublishError = assert.AnError

	sec, err := svc.SetLogPeriod(context.Background(), "homeA", "45")
	require.NoError(t, err)
	assert.Equal(t, 45, sec)
}

func TestSettingsService_LogPeriodCoercesStoredValue(t *testing.T) {
	svc, st, _, _ := newTestService(t)
	ctx := context.Background()
	p, err := store.LogPeriodPath("homeA")
	require.NoError(t, err)

	require.NoError(t, st.Write(ctx, p, "29.6"))
	got, err := svc.LogPeriod(ctx, "homeA")
	require.NoError(t, err)
	assert.Equal(t, 30, got)

	require.NoError(t, st.Write(ctx, p, "garbage"))
	got, err = svc.LogPeriod(ctx, "homeA")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLogPeriodSec, got)
}
