package orch

import (
	"context"
	"errors"

	"github.com/dkeye/Banter/internal/core"
	"github.com/dkeye/Banter/internal/domain"
)

// Mutations follow the same shape: resolve the acting session, load the
// message under its lock, apply the change, write it back, then broadcast
// the full updated record to the room derived from the message's stored
// participants. Unknown connections, missing messages and failed ownership
// checks are all silent no-ops — a probing client learns nothing about
// which messages exist.

// React toggles the (emoji, identity) pair on the message's reaction set.
func (o *Orchestrator) React(ctx context.Context, sid core.SessionID, messageID, emoji string) error {
	sess, ok := o.Registry.Lookup(sid)
	if !ok {
		return nil
	}

	unlock := o.lockMessage(messageID)
	defer unlock()

	sctx, cancel := o.storeCtx(ctx)
	defer cancel()

	msg, err := o.Store.FindByID(sctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		logStoreErr(err, "react", sid)
		return err
	}

	msg.ToggleReaction(emoji, sess.User.ExternalID)
	updated, err := o.Store.Update(sctx, msg)
	if err != nil {
		logStoreErr(err, "react", sid)
		return err
	}

	o.Dispatch.ToRoom(updated.Room(), "", messageUpdated(updated))
	return nil
}

// MarkRead records a read receipt. Only meaningful for private messages;
// an already-read message produces no write and no broadcast.
func (o *Orchestrator) MarkRead(ctx context.Context, sid core.SessionID, messageID string) error {
	sess, ok := o.Registry.Lookup(sid)
	if !ok {
		return nil
	}

	unlock := o.lockMessage(messageID)
	defer unlock()

	sctx, cancel := o.storeCtx(ctx)
	defer cancel()

	msg, err := o.Store.FindByID(sctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		logStoreErr(err, "mark_read", sid)
		return err
	}
	if !msg.IsPrivate {
		return nil
	}
	if !msg.MarkRead(sess.User.ExternalID) {
		return nil
	}

	updated, err := o.Store.Update(sctx, msg)
	if err != nil {
		logStoreErr(err, "mark_read", sid)
		return err
	}

	o.Dispatch.ToRoom(updated.Room(), "", messageUpdated(updated))
	return nil
}

// Edit replaces the body of a message the caller authored.
func (o *Orchestrator) Edit(ctx context.Context, sid core.SessionID, messageID, newBody string) error {
	sess, ok := o.Registry.Lookup(sid)
	if !ok {
		return nil
	}

	unlock := o.lockMessage(messageID)
	defer unlock()

	sctx, cancel := o.storeCtx(ctx)
	defer cancel()

	msg, err := o.Store.FindByID(sctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		logStoreErr(err, "edit", sid)
		return err
	}
	if !msg.OwnedBy(sess.User.ExternalID) {
		return nil
	}

	msg.ApplyEdit(newBody)
	// an edit must not strip the record below the send-path invariant:
	// a message keeps a body or an attachment
	if msg.Validate() != nil {
		return nil
	}
	updated, err := o.Store.Update(sctx, msg)
	if err != nil {
		logStoreErr(err, "edit", sid)
		return err
	}

	o.Dispatch.ToRoom(updated.Room(), "", messageUpdated(updated))
	return nil
}

// Delete removes a message the caller authored and tells the room to drop
// it from view. No tombstone is kept.
func (o *Orchestrator) Delete(ctx context.Context, sid core.SessionID, messageID string) error {
	sess, ok := o.Registry.Lookup(sid)
	if !ok {
		return nil
	}

	unlock := o.lockMessage(messageID)
	defer unlock()

	sctx, cancel := o.storeCtx(ctx)
	defer cancel()

	msg, err := o.Store.FindByID(sctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		logStoreErr(err, "delete", sid)
		return err
	}
	if !msg.OwnedBy(sess.User.ExternalID) {
		return nil
	}

	if err := o.Store.DeleteByID(sctx, messageID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		logStoreErr(err, "delete", sid)
		return err
	}

	o.Dispatch.ToRoom(msg.Room(), "", messageDeleted(messageID))
	return nil
}
