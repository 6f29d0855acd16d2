package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/app"
	"github.com/dkeye/Banter/internal/app/orch"
	"github.com/dkeye/Banter/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type ChatWSController struct {
	Orch       *orch.Orchestrator
	Limiter    *app.SendRateLimiter
	ReadLimit  int64
	SendBuffer int
	PingPeriod time.Duration
}

func NewChatWSController(o *orch.Orchestrator, limiter *app.SendRateLimiter, readLimit int64, sendBuffer int, pingPeriod time.Duration) *ChatWSController {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &ChatWSController{
		Orch:       o,
		Limiter:    limiter,
		ReadLimit:  readLimit,
		SendBuffer: sendBuffer,
		PingPeriod: pingPeriod,
	}
}

type WsChatConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsChatConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsChatConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleChat upgrades the request and runs the connection's pumps. The
// connection identifier is minted here, is unique per connection and is
// never reused; a reconnect always starts over with a fresh one.
func (ctl *ChatWSController) HandleChat(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).
		Str("client_token", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsChatConn{
		conn: ws,
		send: make(chan core.Frame, ctl.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, sid, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
