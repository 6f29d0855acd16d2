package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/app/orch"
	"github.com/dkeye/Banter/internal/core"
	"github.com/dkeye/Banter/internal/domain"
)

const (
	ackOK    = "ok"
	ackError = "error"
)

// ackReason maps an error to what the caller gets to see. Validation
// failures are the caller's own doing and are spelled out; anything else
// stays an opaque internal failure.
func ackReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrNoRecipient),
		errors.Is(err, orch.ErrNotJoined):
		return err.Error()
	default:
		return "internal"
	}
}

func (ctl *ChatWSController) handleSendMessage(
	ctx context.Context,
	sid core.SessionID,
	conn *WsChatConn,
	data []byte,
) {
	type sendPayload struct {
		Type     string `json:"type"`
		AckID    string `json:"ackId"`
		Message  string `json:"message"`
		FileURL  string `json:"fileUrl"`
		FileType string `json:"fileType"`
	}
	var p sendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad send payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	if !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("send rate limited")
		ctl.sendAck(conn, p.AckID, ackError, nil, "rate_limited")
		return
	}

	msg, err := ctl.Orch.SendPublic(ctx, sid, p.Message, p.FileURL, p.FileType)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("send failed")
		ctl.sendAck(conn, p.AckID, ackError, nil, ackReason(err))
		return
	}
	ctl.sendAck(conn, p.AckID, ackOK, msg, "")
}

func (ctl *ChatWSController) handlePrivateMessage(
	ctx context.Context,
	sid core.SessionID,
	conn *WsChatConn,
	data []byte,
) {
	type privatePayload struct {
		Type     string `json:"type"`
		AckID    string `json:"ackId"`
		To       string `json:"to"`
		Message  string `json:"message"`
		FileURL  string `json:"fileUrl"`
		FileType string `json:"fileType"`
	}
	var p privatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad private payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	if !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("send rate limited")
		ctl.sendAck(conn, p.AckID, ackError, nil, "rate_limited")
		return
	}

	msg, err := ctl.Orch.SendPrivate(ctx, sid, p.To, p.Message, p.FileURL, p.FileType)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("private send failed")
		ctl.sendAck(conn, p.AckID, ackError, nil, ackReason(err))
		return
	}
	ctl.sendAck(conn, p.AckID, ackOK, msg, "")
}
