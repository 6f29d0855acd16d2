package orch

import (
	"github.com/dkeye/Banter/internal/app"
	"github.com/dkeye/Banter/internal/core"
	"github.com/dkeye/Banter/internal/domain"
)

// Outbound event envelopes. Every frame carries a type discriminator so
// clients can dispatch on it.

type userListEvent struct {
	Type  string              `json:"type"`
	Users []app.PresenceEntry `json:"users"`
}

type userEvent struct {
	Type     string         `json:"type"`
	Username string         `json:"username"`
	ID       core.SessionID `json:"id"`
}

type messageEvent struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message"`
}

type typingEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type messageDeletedEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
}

func userList(users []app.PresenceEntry) userListEvent {
	return userListEvent{Type: "user_list", Users: users}
}

func userJoined(username string, id core.SessionID) userEvent {
	return userEvent{Type: "user_joined", Username: username, ID: id}
}

func userLeft(username string, id core.SessionID) userEvent {
	return userEvent{Type: "user_left", Username: username, ID: id}
}

func receiveMessage(m *domain.Message) messageEvent {
	return messageEvent{Type: "receive_message", Message: m}
}

func privateMessage(m *domain.Message) messageEvent {
	return messageEvent{Type: "private_message", Message: m}
}

func messageUpdated(m *domain.Message) messageEvent {
	return messageEvent{Type: "message_updated", Message: m}
}

func messageDeleted(id string) messageDeletedEvent {
	return messageDeletedEvent{Type: "message_deleted", MessageID: id}
}

func typingUsers(username string, isTyping bool) typingEvent {
	return typingEvent{Type: "typing_users", Username: username, IsTyping: isTyping}
}
