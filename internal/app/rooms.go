package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/core"
	"github.com/dkeye/Banter/internal/domain"
)

// Rooms tracks which connections have joined which private rooms. The public
// room is not tracked here: every live session is implicitly a member.
// A room is just a fan-out target; it disappears when its last member leaves.
type Rooms struct {
	mu      sync.RWMutex
	members map[domain.RoomKey]map[core.SessionID]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{members: make(map[domain.RoomKey]map[core.SessionID]struct{})}
}

// EnsureJoined idempotently adds sid to the room's live membership. Joining
// happens lazily, on the first typing event or message in a conversation.
func (r *Rooms) EnsureJoined(sid core.SessionID, key domain.RoomKey) {
	if key == domain.PublicRoom {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[key]
	if !ok {
		set = make(map[core.SessionID]struct{})
		r.members[key] = set
	}
	if _, ok := set[sid]; !ok {
		set[sid] = struct{}{}
		log.Debug().Str("module", "app.rooms").Str("sid", string(sid)).
			Str("room", string(key)).Msg("joined room")
	}
}

// LeaveAll drops sid from every room it joined. Called on disconnect.
func (r *Rooms) LeaveAll(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, set := range r.members {
		if _, ok := set[sid]; !ok {
			continue
		}
		delete(set, sid)
		if len(set) == 0 {
			delete(r.members, key)
		}
	}
}

// MembersOf returns a snapshot of the room's current membership. Broadcast
// fan-out works off this snapshot; a connection joining mid-broadcast may
// miss that event.
func (r *Rooms) MembersOf(key domain.RoomKey) []core.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.members[key]
	if !ok {
		return nil
	}
	out := make([]core.SessionID, 0, len(set))
	for sid := range set {
		out = append(out, sid)
	}
	return out
}
