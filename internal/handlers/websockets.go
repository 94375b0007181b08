package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"homedash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 250 * time.Millisecond
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
	wsQueueSize      = 256
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type       string      `json:"type"`
	Generation uint64      `json:"generation,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// wsClientMessage is what clients may send: {"type":"auth","token":"..."}
// switches the identity of the connection; an empty token signs out.
type wsClientMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// Upgrader for HTTP -> WebSocket.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins once the dashboard has a fixed public host
}

// @Summary      Live feed
// @Description  WebSocket pushing identity, home, reading, history, lamp and settings envelopes. Auth via bearer header, ?token= or the session cookie; clients may send {"type":"auth","token":"..."} to switch user. Updates of one type are coalesced over ?interval (default 250ms, max 10s).
// @Tags         live
// @Param        interval     query  string  false  "Coalescing window, Go duration"  example(500ms)
// @Param        interval_ms  query  int     false  "Coalescing window in ms"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	uid := ""
	if token := h.requestToken(c); token != "" {
		var err error
		uid, err = h.services.ParseToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates := make(chan service.Update, wsQueueSize)
	push := func(u service.Update) {
		select {
		case updates <- u:
		default:
			// client too slow to keep up; drop the connection
			cancel()
		}
	}
	session := service.NewSession(ctx, h.services, push).WithHistory(h.opts.HistoryLimit, h.opts.MaxPoints)
	defer session.Close()

	// Reader goroutine handles auth messages and control frames.
	done := make(chan struct{})
	go h.startReader(ctx, conn, session, push, done)

	session.SetIdentity(uid)

	flush := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		flush.Stop()
		ping.Stop()
	}()

	var pending coalescer
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case u := <-updates:
			switch u.Type {
			case service.UpdateIdentity, service.UpdateError:
				if u.Type == service.UpdateIdentity {
					pending.reset()
				}
				if err := writeUpdate(conn, u); err != nil {
					h.wsWriteFailed(err)
					return
				}
			default:
				pending.add(u)
			}
		case <-flush.C:
			for _, u := range pending.drain() {
				if err := writeUpdate(conn, u); err != nil {
					h.wsWriteFailed(err)
					return
				}
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		}
	}
}

// Helper: parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
}

// Helper: startReader drains incoming messages, applies auth switches and
// detects closure.
func (h *Handler) startReader(ctx context.Context, conn *websocket.Conn, session *service.Session, push func(service.Update), done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}

		var msg wsClientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "auth" {
			push(service.Update{Type: service.UpdateError, Data: "unsupported message"})
			continue
		}
		if msg.Token == "" {
			session.SetIdentity("")
			continue
		}
		uid, err := h.services.ParseToken(ctx, msg.Token)
		if err != nil {
			push(service.Update{Type: service.UpdateError, Data: "invalid or expired token"})
			continue
		}
		session.SetIdentity(uid)
	}
}

func (h *Handler) wsWriteFailed(err error) {
	if h.log != nil {
		h.log.Infow("ws_write_failed", "err", err)
	}
}

func writeUpdate(conn *websocket.Conn, u service.Update) error {
	env := wsEnvelope{Type: u.Type, Generation: u.Generation, Data: u.Data}
	if u.Type == service.UpdateError {
		env.Data = nil
		env.Error, _ = u.Data.(string)
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}

// coalescer keeps the newest update per type, in first-arrival order.
type coalescer struct {
	order  []string
	latest map[string]service.Update
}

func (q *coalescer) add(u service.Update) {
	if q.latest == nil {
		q.latest = make(map[string]service.Update)
	}
	if _, seen := q.latest[u.Type]; !seen {
		q.order = append(q.order, u.Type)
	}
	q.latest[u.Type] = u
}

func (q *coalescer) drain() []service.Update {
	out := make([]service.Update, 0, len(q.order))
	for _, typ := range q.order {
		out = append(out, q.latest[typ])
	}
	q.reset()
	return out
}

func (q *coalescer) reset() {
	q.order = q.order[:0]
	clear(q.latest)
}
