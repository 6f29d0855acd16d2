package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/core"
	"github.com/dkeye/Banter/internal/domain"
)

// Dispatcher fans domain events out to live connections. It marshals each
// event once and delivers it best-effort: a full or closed consumer never
// blocks delivery to the others.
type Dispatcher struct {
	Registry *Registry
	Rooms    *Rooms
	Policy   Policy
}

func NewDispatcher(reg *Registry, rooms *Rooms, policy Policy) *Dispatcher {
	if policy == nil {
		policy = DropPolicy{}
	}
	return &Dispatcher{Registry: reg, Rooms: rooms, Policy: policy}
}

// ToRoom broadcasts v to every connection currently in the room, skipping
// exclude when non-empty. The public room means every live session.
func (d *Dispatcher) ToRoom(key domain.RoomKey, exclude core.SessionID, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatch").Msg("marshal event")
		return
	}

	if key == domain.PublicRoom {
		for _, sess := range d.Registry.All() {
			if sess.ID == exclude {
				continue
			}
			d.deliver(sess, frame)
		}
		return
	}

	for _, sid := range d.Rooms.MembersOf(key) {
		if sid == exclude {
			continue
		}
		sess, ok := d.Registry.Lookup(sid)
		if !ok {
			continue
		}
		d.deliver(sess, frame)
	}
}

// ToSession sends v to a single connection. Reports delivery.
func (d *Dispatcher) ToSession(sid core.SessionID, v any) bool {
	sess, ok := d.Registry.Lookup(sid)
	if !ok {
		return false
	}
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatch").Msg("marshal event")
		return false
	}
	return d.deliver(sess, frame)
}

func (d *Dispatcher) deliver(sess *Session, frame core.Frame) bool {
	if err := sess.Conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.dispatch").
			Str("sid", string(sess.ID)).Msg("send failed")
		if d.Policy.OnBackpressure(sess.ID) == KickSession {
			sess.Conn.Close()
		}
		return false
	}
	return true
}
