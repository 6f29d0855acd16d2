package app

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/core"
	"github.com/dkeye/Banter/internal/domain"
)

// Session is the live in-memory record for one connection. It exists only
// between a completed join handshake and the disconnect; nothing here is
// persisted.
type Session struct {
	ID       core.SessionID
	User     *domain.User
	Conn     core.SignalConnection
	JoinedAt time.Time
}

// PresenceEntry is the read-only view of a session used in presence
// snapshots (no transport fields).
type PresenceEntry struct {
	ID         core.SessionID `json:"id"`
	Username   string         `json:"username"`
	ExternalID string         `json:"externalId"`
}

// Registry owns all live sessions. Every mutation is serialized behind the
// mutex; no two sessions may hold the same display name at the same time.
type Registry struct {
	mu     sync.RWMutex
	byID   map[core.SessionID]*Session
	byName map[string]core.SessionID
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[core.SessionID]*Session),
		byName: make(map[string]core.SessionID),
	}
}

// Add installs a session for sid. If another session already holds the same
// display name it is evicted first (a stale connection from a page refresh)
// and returned so the caller can announce its departure before announcing
// the new arrival.
func (r *Registry) Add(sid core.SessionID, user *domain.User, conn core.SignalConnection) (sess, evicted *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// a repeated join on the same connection may rename; release its old
	// name claim so it cannot later evict an unrelated session
	if prev, ok := r.byID[sid]; ok && prev.User.Username != user.Username {
		if r.byName[prev.User.Username] == sid {
			delete(r.byName, prev.User.Username)
		}
	}

	if oldSID, ok := r.byName[user.Username]; ok && oldSID != sid {
		// evict only a live session that still holds the name; anything
		// else is a stale index entry and is simply overwritten below
		if old, live := r.byID[oldSID]; live && old.User.Username == user.Username {
			evicted = old
			delete(r.byID, oldSID)
			log.Info().Str("module", "app.registry").Str("sid", string(oldSID)).
				Str("username", user.Username).Msg("evicted stale session")
		}
	}

	sess = &Session{ID: sid, User: user, Conn: conn, JoinedAt: time.Now()}
	r.byID[sid] = sess
	r.byName[user.Username] = sid
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).
		Str("username", user.Username).Msg("session added")
	return sess, evicted
}

// Remove deletes the session for sid, returning it and whether it existed.
// Removing an unknown sid is a no-op: a connection that closed before its
// join handshake, or one superseded by a dedup eviction.
func (r *Registry) Remove(sid core.SessionID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byID[sid]
	if !ok {
		return nil, false
	}
	delete(r.byID, sid)
	if r.byName[sess.User.Username] == sid {
		delete(r.byName, sess.User.Username)
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("session removed")
	return sess, true
}

func (r *Registry) Lookup(sid core.SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byID[sid]
	return sess, ok
}

// All returns a snapshot of every live session, oldest join first.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

// Snapshot builds the presence list broadcast to clients.
func (r *Registry) Snapshot() []PresenceEntry {
	sessions := r.All()
	out := make([]PresenceEntry, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, PresenceEntry{ID: s.ID, Username: s.User.Username, ExternalID: s.User.ExternalID})
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
