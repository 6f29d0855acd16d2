package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/core"
	"github.com/dkeye/Banter/internal/domain"
)

const writeDeadline = 5 * time.Second

func (ctl *ChatWSController) writePump(ctx context.Context, sid core.SessionID, c *WsChatConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *ChatWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, c *WsChatConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		ctl.Orch.Disconnect(sid)
		ctl.Limiter.Forget(sid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.handleEvent(ctx, sid, c, data)
		}
	}
}

// handleEvent is the single dispatch point for inbound frames. A handler
// failure only affects its own connection; every branch isolates its errors.
func (ctl *ChatWSController) handleEvent(ctx context.Context, sid core.SessionID, c *WsChatConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "user_join":
		ctl.handleUserJoin(sid, c, data)
	case "send_message":
		ctl.handleSendMessage(ctx, sid, c, data)
	case "private_message":
		ctl.handlePrivateMessage(ctx, sid, c, data)
	case "typing":
		ctl.handleTyping(sid, c, data)
	case "react_to_message":
		ctl.handleReact(ctx, sid, c, data)
	case "message_read":
		ctl.handleMessageRead(ctx, sid, c, data)
	case "edit_message":
		ctl.handleEditMessage(ctx, sid, c, data)
	case "delete_message":
		ctl.handleDeleteMessage(ctx, sid, c, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *ChatWSController) sendJSON(c *WsChatConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

type ackEvent struct {
	Type    string          `json:"type"`
	AckID   string          `json:"ackId"`
	Status  string          `json:"status"`
	Message *domain.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// sendAck answers a request-correlated acknowledgment on the caller's own
// socket. Frames without an ackId get no ack. On success the ack carries
// the final persisted form of the message, never the client's draft.
func (ctl *ChatWSController) sendAck(c *WsChatConn, ackID, status string, msg *domain.Message, errMsg string) {
	if ackID == "" {
		return
	}
	ctl.sendJSON(c, ackEvent{Type: "ack", AckID: ackID, Status: status, Message: msg, Error: errMsg})
}
