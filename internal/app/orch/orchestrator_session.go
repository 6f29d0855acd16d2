package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/app"
	"github.com/dkeye/Banter/internal/core"
	"github.com/dkeye/Banter/internal/domain"
)

// Join completes the handshake for a connection. If another live session
// already holds the display name, that session is evicted and its departure
// is announced before the new arrival — so presence never shows duplicates
// after a page refresh.
func (o *Orchestrator) Join(sid core.SessionID, username, externalID string, conn core.SignalConnection) (*app.Session, error) {
	user, err := domain.NewUser(username, externalID)
	if err != nil {
		return nil, err
	}

	sess, evicted := o.Registry.Add(sid, user, conn)
	if evicted != nil {
		o.Rooms.LeaveAll(evicted.ID)
		o.Dispatch.ToRoom(domain.PublicRoom, "", userLeft(evicted.User.Username, evicted.ID))
	}

	o.Dispatch.ToRoom(domain.PublicRoom, "", userList(o.Registry.Snapshot()))
	o.Dispatch.ToRoom(domain.PublicRoom, "", userJoined(user.Username, sid))
	log.Info().Str("module", "orch").Str("sid", string(sid)).
		Str("username", user.Username).Msg("user joined")
	return sess, nil
}

// Disconnect tears down whatever state the connection left behind. A
// connection that closed before completing its join, or that was superseded
// by a dedup eviction, is a no-op.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	o.Rooms.LeaveAll(sid)
	sess, ok := o.Registry.Remove(sid)
	if !ok {
		return
	}
	o.Dispatch.ToRoom(domain.PublicRoom, "", userLeft(sess.User.Username, sid))
	log.Info().Str("module", "orch").Str("sid", string(sid)).
		Str("username", sess.User.Username).Msg("user left")
}
