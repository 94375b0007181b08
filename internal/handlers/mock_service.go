package handlers

import (
	"context"
	"net/http"
	"time"

	"homedash/internal/models"
	"homedash/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      string
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       string
	parseErr      error
	uids          map[string]string // token -> uid; when set, other tokens are invalid
	signOutErr    error
	resetErr      error
	confirmErr    error

	lastSignUpEmail    string
	lastSignUpPassword string
	lastGenEmail       string
	lastGenPassword    string
	lastParseToken     string
	signedOut          []string
	resetEmails        []string
}

func (m *mockAuth) SignUp(email, password string) (string, error) {
	m.lastSignUpEmail = email
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(email, password string) (string, error) {
	m.lastGenEmail = email
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(_ context.Context, token string) (string, error) {
	m.lastParseToken = token
	if m.uids != nil {
		if uid, ok := m.uids[token]; ok {
			return uid, nil
		}
		return "", service.ErrInvalidToken
	}
	return m.parseID, m.parseErr
}
func (m *mockAuth) SignOut(_ context.Context, token string) error {
	m.signedOut = append(m.signedOut, token)
	return m.signOutErr
}
func (m *mockAuth) ResetPassword(_ context.Context, email string) error {
	m.resetEmails = append(m.resetEmails, email)
	return m.resetErr
}
func (m *mockAuth) ConfirmReset(_ context.Context, token, password string) error {
	return m.confirmErr
}

type mockHomes struct {
	homeID       string
	resolveErr   error
	associateErr error
	associated   []string
}

func (m *mockHomes) Resolve(_ context.Context, uid string) (string, error) {
	return m.homeID, m.resolveErr
}
func (m *mockHomes) Associate(_ context.Context, uid, raw string) (string, error) {
	m.associated = append(m.associated, raw)
	if m.associateErr != nil {
		return "", m.associateErr
	}
	m.homeID = raw
	return raw, nil
}
func (m *mockHomes) WatchHome(ctx context.Context, uid string) (<-chan string, error) {
	return closedAfter(ctx, m.homeID), nil
}

type mockReadings struct {
	latest      models.GraphPoint
	found       bool
	history     []models.GraphPoint
	lookup      service.LookupResult
	err         error
	lookupErr   error
	lastLimit   int
	lastPoints  int
	lastInput   string
	lastLoc     *time.Location
	lookupCalls int
}

func (m *mockReadings) Latest(context.Context, string) (models.GraphPoint, bool, error) {
	return m.latest, m.found, m.err
}
func (m *mockReadings) WatchLatest(ctx context.Context, _ string) (<-chan models.GraphPoint, error) {
	return closedAfter(ctx, m.latest), nil
}
func (m *mockReadings) History(_ context.Context, _ string, limit, maxPoints int) ([]models.GraphPoint, error) {
	m.lastLimit, m.lastPoints = limit, maxPoints
	return m.history, m.err
}
func (m *mockReadings) WatchHistory(ctx context.Context, _ string, _, _ int) (<-chan []models.GraphPoint, error) {
	return closedAfter(ctx, m.history), nil
}
func (m *mockReadings) LookupAt(_ context.Context, _ string, input string, loc *time.Location) (service.LookupResult, error) {
	m.lookupCalls++
	m.lastInput, m.lastLoc = input, loc
	return m.lookup, m.lookupErr
}
func (m *mockReadings) Record(context.Context, string, time.Time, models.MeasurementNode) (string, error) {
	return "", m.err
}

type mockActuator struct {
	state     models.LampCommand
	toggleErr error
	toggles   int
	// block, if set, holds Toggle until it is closed.
	block chan struct{}
}

func (m *mockActuator) Toggle(context.Context, string) (models.LampCommand, error) {
	if m.block != nil {
		<-m.block
	}
	m.toggles++
	if m.toggleErr != nil {
		return models.LampCommand{}, m.toggleErr
	}
	m.state = models.LampCommand{State: models.Flip(m.state.State), Timestamp: "2024-01-01T10:00:00Z"}
	return m.state, nil
}
func (m *mockActuator) State(context.Context, string) (models.LampCommand, error) {
	if m.state.State == "" {
		return models.LampCommand{State: models.LampOff}, nil
	}
	return m.state, nil
}
func (m *mockActuator) WatchLamp(ctx context.Context, _ string) (<-chan models.LampCommand, error) {
	return closedAfter(ctx, m.state), nil
}

type mockSettings struct {
	period  int
	setErr  error
	lastRaw string
}

func (m *mockSettings) SetLogPeriod(_ context.Context, _ string, raw string) (int, error) {
	m.lastRaw = raw
	if m.setErr != nil {
		return 0, m.setErr
	}
	return m.period, nil
}
func (m *mockSettings) LogPeriod(context.Context, string) (int, error) { return m.period, nil }
func (m *mockSettings) WatchLogPeriod(ctx context.Context, _ string) (<-chan int, error) {
	return closedAfter(ctx, m.period), nil
}

type mockEventLog struct {
	resp     []models.HomeEvent
	err      error
	lastHome string
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, homeID string, f service.LogFilter) ([]models.HomeEvent, error) {
	m.lastHome = homeID
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// closedAfter emits v once and closes when ctx is done.
func closedAfter[T any](ctx context.Context, v T) <-chan T {
	ch := make(chan T)
	go func() {
		defer close(ch)
		select {
		case ch <- v:
		case <-ctx.Done():
			return
		}
		<-ctx.Done()
	}()
	return ch
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, Options{})
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
