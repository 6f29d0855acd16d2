package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr error
	}{
		{
			name: "body only",
			msg:  Message{Body: "hi"},
		},
		{
			name: "attachment only",
			msg:  Message{FileURL: "/uploads/a.png", FileType: "image/png"},
		},
		{
			name:    "neither body nor attachment",
			msg:     Message{},
			wantErr: ErrEmptyMessage,
		},
		{
			name:    "private without recipient",
			msg:     Message{Body: "psst", IsPrivate: true},
			wantErr: ErrNoRecipient,
		},
		{
			name: "private with recipient",
			msg:  Message{Body: "psst", IsPrivate: true, RecipientID: "conn-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMessage_ToggleReaction(t *testing.T) {
	req := require.New(t)
	msg := Message{Body: "hi"}

	added := msg.ToggleReaction("👍", "ext-x")
	req.True(added)
	req.Equal([]Reaction{{Emoji: "👍", By: "ext-x"}}, msg.Reactions)

	// same pair again toggles it off
	added = msg.ToggleReaction("👍", "ext-x")
	req.False(added)
	req.Empty(msg.Reactions)

	// distinct identities and emojis coexist
	msg.ToggleReaction("👍", "ext-x")
	msg.ToggleReaction("👍", "ext-y")
	msg.ToggleReaction("🎉", "ext-x")
	req.Len(msg.Reactions, 3)

	msg.ToggleReaction("👍", "ext-x")
	req.Equal([]Reaction{{Emoji: "👍", By: "ext-y"}, {Emoji: "🎉", By: "ext-x"}}, msg.Reactions)
}

func TestMessage_MarkRead(t *testing.T) {
	req := require.New(t)
	msg := Message{Body: "hi", IsPrivate: true, RecipientID: "conn-2"}

	req.True(msg.MarkRead("ext-a"))
	req.True(msg.MarkRead("ext-b"))
	// the read-set only grows and never duplicates
	req.False(msg.MarkRead("ext-a"))
	req.Equal([]string{"ext-a", "ext-b"}, msg.ReadBy)
}

func TestMessage_OwnedBy(t *testing.T) {
	req := require.New(t)
	msg := Message{Body: "hi", SenderExternalID: "ext-a"}

	req.True(msg.OwnedBy("ext-a"))
	req.False(msg.OwnedBy("ext-b"))
	req.False(msg.OwnedBy(""))

	unowned := Message{Body: "hi"}
	req.False(unowned.OwnedBy(""))
}

func TestMessage_Room(t *testing.T) {
	req := require.New(t)

	public := Message{Body: "hi", SenderID: "conn-a"}
	req.Equal(PublicRoom, public.Room())

	private := Message{Body: "hi", IsPrivate: true, SenderID: "conn-b", RecipientID: "conn-a"}
	req.Equal(PrivateRoomKey("conn-a", "conn-b"), private.Room())
}

func TestMessage_ApplyEdit(t *testing.T) {
	req := require.New(t)
	msg := Message{Body: "hello"}

	msg.ApplyEdit("hello!")
	req.Equal("hello!", msg.Body)
	req.True(msg.IsEdited)
}
