package orch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dkeye/Banter/internal/core"
	"github.com/dkeye/Banter/internal/domain"
)

// ErrNotJoined means the connection tried to act before completing its join
// handshake.
var ErrNotJoined = errors.New("connection has no session")

const unknownRecipient = "Unknown"

// SendPublic persists a public message and fans it out to every other live
// session. The returned message is the persisted form, for the sender's ack.
func (o *Orchestrator) SendPublic(ctx context.Context, sid core.SessionID, body, fileURL, fileType string) (*domain.Message, error) {
	sess, ok := o.Registry.Lookup(sid)
	if !ok {
		return nil, ErrNotJoined
	}

	msg := &domain.Message{
		Body:             body,
		FileURL:          fileURL,
		FileType:         fileType,
		Sender:           sess.User.Username,
		SenderID:         string(sid),
		SenderExternalID: sess.User.ExternalID,
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	saved, err := o.Store.Persist(sctx, msg)
	if err != nil {
		return nil, err
	}

	o.Dispatch.ToRoom(domain.PublicRoom, sid, receiveMessage(saved))
	return saved, nil
}

// SendPrivate persists a private message for the pair (sid, to) and fans it
// out to the pair room, sender excluded. When the recipient is not currently
// connected the message still persists — they will see it via a history
// fetch — but no live broadcast can reach them.
func (o *Orchestrator) SendPrivate(ctx context.Context, sid core.SessionID, to, body, fileURL, fileType string) (*domain.Message, error) {
	sess, ok := o.Registry.Lookup(sid)
	if !ok {
		return nil, ErrNotJoined
	}

	msg := &domain.Message{
		Body:             body,
		FileURL:          fileURL,
		FileType:         fileType,
		Sender:           sess.User.Username,
		SenderID:         string(sid),
		SenderExternalID: sess.User.ExternalID,
		IsPrivate:        true,
		RecipientID:      to,
		RecipientName:    unknownRecipient,
	}
	recipient, connected := o.Registry.Lookup(core.SessionID(to))
	if connected {
		msg.RecipientName = recipient.User.Username
		msg.RecipientExternalID = recipient.User.ExternalID
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	saved, err := o.Store.Persist(sctx, msg)
	if err != nil {
		return nil, err
	}

	room := domain.PrivateRoomKey(string(sid), to)
	o.Rooms.EnsureJoined(sid, room)
	if connected {
		o.Rooms.EnsureJoined(recipient.ID, room)
	}
	o.Dispatch.ToRoom(room, sid, privateMessage(saved))
	return saved, nil
}

// Typing relays a typing state change to the relevant room, sender excluded.
// Nothing is persisted and no stop timeout is enforced server-side; the
// state is passed on verbatim. A private conversation's pair room is joined
// lazily on the first typing event.
func (o *Orchestrator) Typing(sid core.SessionID, isTyping bool, recipientID string) {
	sess, ok := o.Registry.Lookup(sid)
	if !ok {
		return
	}

	room := domain.PublicRoom
	if recipientID != "" {
		room = domain.PrivateRoomKey(string(sid), recipientID)
		o.Rooms.EnsureJoined(sid, room)
		if recipient, connected := o.Registry.Lookup(core.SessionID(recipientID)); connected {
			o.Rooms.EnsureJoined(recipient.ID, room)
		}
	}
	o.Dispatch.ToRoom(room, sid, typingUsers(sess.User.Username, isTyping))
}

// Latest returns the most recent messages, oldest first.
func (o *Orchestrator) Latest(ctx context.Context, limit int) ([]*domain.Message, error) {
	return o.History(ctx, time.Now().UTC(), limit)
}

// History returns up to limit messages strictly older than before, oldest
// first — the shape clients prepend when paginating upwards.
func (o *Orchestrator) History(ctx context.Context, before time.Time, limit int) ([]*domain.Message, error) {
	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	msgs, err := o.Store.FindBefore(sctx, before, limit)
	if err != nil {
		return nil, err
	}
	return lo.Reverse(msgs), nil
}

// Search runs a relevance-ranked full-text query, restricted to what the
// given external identity is allowed to see.
func (o *Orchestrator) Search(ctx context.Context, term, externalID string, limit int) ([]*domain.Message, error) {
	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	return o.Store.SearchText(sctx, term, externalID, limit)
}

// ChattedWith lists the distinct private-conversation partners of the given
// external identity.
func (o *Orchestrator) ChattedWith(ctx context.Context, externalID string) ([]domain.User, error) {
	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	return o.Store.ChattedWith(sctx, externalID)
}

func logStoreErr(err error, op string, sid core.SessionID) {
	log.Error().Err(err).Str("module", "orch").Str("op", op).
		Str("sid", string(sid)).Msg("store call failed")
}
