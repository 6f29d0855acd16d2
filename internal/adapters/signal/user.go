package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/core"
)

func (ctl *ChatWSController) handleUserJoin(
	sid core.SessionID,
	conn *WsChatConn,
	data []byte,
) {
	type joinPayload struct {
		Type       string `json:"type"`
		Username   string `json:"username"`
		ExternalID string `json:"externalId"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	if _, err := ctl.Orch.Join(sid, p.Username, p.ExternalID, conn); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join rejected")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": err.Error(),
		})
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("username", p.Username).Msg("join")
}
