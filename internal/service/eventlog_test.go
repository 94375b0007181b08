package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"homedash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventRepo is a minimal stub that satisfies the repository.EventRepo interface.
type fakeEventRepo struct {
	mu sync.Mutex

	// captured inputs
	gotHome string
	gotFrom time.Time
	gotTo   time.Time
	gotType string

	// configured outputs
	events    []models.HomeEvent
	err       error
	appendErr error

	calls    int
	appended []models.HomeEvent
}

func (f *fakeEventRepo) List(ctx context.Context, homeID string, from, to time.Time, typ string) ([]models.HomeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotHome = homeID
	f.gotFrom = from
	f.gotTo = to
	f.gotType = typ
	return f.events, f.err
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.HomeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, e)
	return f.appendErr
}

func (f *fakeEventRepo) appendedEvents() []models.HomeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.HomeEvent(nil), f.appended...)
}

func TestLogFilter_Normalize(t *testing.T) {
	paris := time.FixedZone("UTC+2", 2*3600)
	tests := []struct {
		name    string
		in      LogFilter
		want    LogFilter
		wantErr error
	}{
		{
			name: "open range stays open",
			in:   LogFilter{},
			want: LogFilter{},
		},
		{
			name: "bounds converted to UTC, type canonical",
			in: LogFilter{
				From: time.Date(2025, 9, 10, 10, 0, 0, 0, paris),
				To:   time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC),
				Type: " lamp ",
			},
			want: LogFilter{
				From: time.Date(2025, 9, 10, 8, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC),
				Type: models.EventLamp,
			},
		},
		{
			name:    "reversed range",
			in:      LogFilter{From: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), To: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name:    "unknown type",
			in:      LogFilter{Type: "door_open"},
			wantErr: ErrUnknownEventType,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.in.normalize()
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.From.Equal(tc.want.From), "from %v", got.From)
			assert.True(t, got.To.Equal(tc.want.To), "to %v", got.To)
			assert.Equal(t, tc.want.Type, got.Type)
			if !got.From.IsZero() {
				assert.Equal(t, time.UTC, got.From.Location())
			}
		})
	}
}

func TestEventLogService_List(t *testing.T) {
	repo := &fakeEventRepo{events: []models.HomeEvent{{EventID: "1", HomeID: "homeA"}}}
	svc := NewEventLogService(repo)

	out, err := svc.List(context.Background(), "homeA", LogFilter{
		From: time.Date(2025, 10, 1, 10, 0, 0, 0, time.FixedZone("UTC+5", 5*3600)),
		Type: "settings",
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "homeA", repo.gotHome)
	assert.True(t, repo.gotFrom.Equal(time.Date(2025, 10, 1, 5, 0, 0, 0, time.UTC)))
	assert.True(t, repo.gotTo.IsZero())
	assert.Equal(t, models.EventSettings, repo.gotType)
}

func TestEventLogService_List_Rejects(t *testing.T) {
	repo := &fakeEventRepo{}
	svc := NewEventLogService(repo)

	_, err := svc.List(context.Background(), "x", LogFilter{})
	assert.ErrorIs(t, err, ErrInvalidHomeID)

	_, err = svc.List(context.Background(), "homeA", LogFilter{Type: "bogus"})
	assert.ErrorIs(t, err, ErrUnknownEventType)

	assert.Equal(t, 0, repo.calls, "repo must not be queried on invalid input")
}

func TestEventLogService_List_RepoError(t *testing.T) {
	repo := &fakeEventRepo{err: errors.New("db down")}
	_, err := NewEventLogService(repo).List(context.Background(), "homeA", LogFilter{})
	assert.ErrorIs(t, err, repo.err)
}

func TestRecordEvent_FillsIDAndTime(t *testing.T) {
	repo := &fakeEventRepo{}
	recordEvent(context.Background(), repo, nil, models.HomeEvent{HomeID: "homeA", Type: models.EventLamp})

	got := repo.appendedEvents()
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].EventID)
	assert.False(t, got[0].OccurredAt.IsZero())

	// append failures are swallowed
	repo.appendErr = errors.New("disk full")
	recordEvent(context.Background(), repo, nil, models.HomeEvent{HomeID: "homeA"})
	recordEvent(context.Background(), nil, nil, models.HomeEvent{HomeID: "homeA"})
	assert.Len(t, repo.appendedEvents(), 2)
}
