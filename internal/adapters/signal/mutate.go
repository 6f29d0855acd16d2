package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/core"
)

// Mutation events carry no ack channel; failures are logged and swallowed.
// Ownership and not-found checks happen in the orchestrator and come back
// as silent no-ops.

func (ctl *ChatWSController) handleReact(
	ctx context.Context,
	sid core.SessionID,
	conn *WsChatConn,
	data []byte,
) {
	type reactPayload struct {
		Type      string `json:"type"`
		MessageID string `json:"messageId"`
		Emoji     string `json:"emoji"`
	}
	var p reactPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad react payload")
		return
	}
	if p.MessageID == "" || p.Emoji == "" {
		return
	}
	_ = ctl.Orch.React(ctx, sid, p.MessageID, p.Emoji)
}

func (ctl *ChatWSController) handleMessageRead(
	ctx context.Context,
	sid core.SessionID,
	conn *WsChatConn,
	data []byte,
) {
	type readPayload struct {
		Type      string `json:"type"`
		MessageID string `json:"messageId"`
	}
	var p readPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad read payload")
		return
	}
	if p.MessageID == "" {
		return
	}
	_ = ctl.Orch.MarkRead(ctx, sid, p.MessageID)
}

func (ctl *ChatWSController) handleEditMessage(
	ctx context.Context,
	sid core.SessionID,
	conn *WsChatConn,
	data []byte,
) {
	type editPayload struct {
		Type       string `json:"type"`
		MessageID  string `json:"messageId"`
		NewContent string `json:"newContent"`
	}
	var p editPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad edit payload")
		return
	}
	if p.MessageID == "" {
		return
	}
	_ = ctl.Orch.Edit(ctx, sid, p.MessageID, p.NewContent)
}

func (ctl *ChatWSController) handleDeleteMessage(
	ctx context.Context,
	sid core.SessionID,
	conn *WsChatConn,
	data []byte,
) {
	type deletePayload struct {
		Type      string `json:"type"`
		MessageID string `json:"messageId"`
	}
	var p deletePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad delete payload")
		return
	}
	if p.MessageID == "" {
		return
	}
	_ = ctl.Orch.Delete(ctx, sid, p.MessageID)
}
