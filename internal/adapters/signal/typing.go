package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/core"
)

// Typing is fire-and-forget: nothing is persisted, nobody awaits a result,
// so a failure here is logged and swallowed.
func (ctl *ChatWSController) handleTyping(
	sid core.SessionID,
	conn *WsChatConn,
	data []byte,
) {
	type typingPayload struct {
		Type        string `json:"type"`
		IsTyping    bool   `json:"isTyping"`
		RecipientID string `json:"recipientId"`
	}
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad typing payload")
		return
	}
	ctl.Orch.Typing(sid, p.IsTyping, p.RecipientID)
}
