package domain

import (
	"errors"
	"time"
)

var (
	ErrEmptyMessage = errors.New("message needs a body or an attachment")
	ErrNoRecipient  = errors.New("private message needs a recipient")
	ErrNotFound     = errors.New("message not found")
)

// Reaction is one (emoji, identity) pair on a message. At most one entry per
// pair exists; re-submitting the same pair toggles it off.
type Reaction struct {
	Emoji string `json:"emoji"`
	By    string `json:"by"` // external identity of the reacting user
}

// Message is the durable chat record. Once persisted, sender fields and
// CreatedAt are immutable; only Body, IsEdited, Reactions and ReadBy may
// change, and only through the mutation paths that enforce ownership.
type Message struct {
	ID                  string     `json:"id"`
	Body                string     `json:"message,omitempty"`
	FileURL             string     `json:"fileUrl,omitempty"`
	FileType            string     `json:"fileType,omitempty"`
	Sender              string     `json:"sender"`
	SenderID            string     `json:"senderId"`
	SenderExternalID    string     `json:"senderExternalId"`
	IsPrivate           bool       `json:"isPrivate"`
	RecipientID         string     `json:"recipientId,omitempty"`
	RecipientExternalID string     `json:"recipientExternalId,omitempty"`
	RecipientName       string     `json:"recipientName,omitempty"`
	Reactions           []Reaction `json:"reactions"`
	ReadBy              []string   `json:"readBy"`
	IsEdited            bool       `json:"isEdited"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// Validate checks the invariants a message must satisfy before persistence.
func (m *Message) Validate() error {
	if m.Body == "" && m.FileURL == "" {
		return ErrEmptyMessage
	}
	if m.IsPrivate && m.RecipientID == "" {
		return ErrNoRecipient
	}
	return nil
}

// OwnedBy reports whether the given external identity authored the message.
func (m *Message) OwnedBy(externalID string) bool {
	return externalID != "" && m.SenderExternalID == externalID
}

// Room resolves the broadcast scope this message belongs to. For private
// messages the key is derived from the participant connection identifiers
// captured at creation time, not from anyone's current membership.
func (m *Message) Room() RoomKey {
	if m.IsPrivate {
		return PrivateRoomKey(m.SenderID, m.RecipientID)
	}
	return PublicRoom
}

// ToggleReaction adds the (emoji, by) pair if absent and removes it if
// present. It reports whether the pair was added.
func (m *Message) ToggleReaction(emoji, by string) bool {
	for i, r := range m.Reactions {
		if r.Emoji == emoji && r.By == by {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return false
		}
	}
	m.Reactions = append(m.Reactions, Reaction{Emoji: emoji, By: by})
	return true
}

// MarkRead records that the given external identity has read the message.
// The read-set only grows; re-reading reports no change.
func (m *Message) MarkRead(externalID string) bool {
	for _, id := range m.ReadBy {
		if id == externalID {
			return false
		}
	}
	m.ReadBy = append(m.ReadBy, externalID)
	return true
}

// ApplyEdit replaces the body and flags the message as edited.
func (m *Message) ApplyEdit(newBody string) {
	m.Body = newBody
	m.IsEdited = true
}
