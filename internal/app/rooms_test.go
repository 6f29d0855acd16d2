package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Banter/internal/domain"
)

func TestRooms_EnsureJoinedIdempotent(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	key := domain.PrivateRoomKey("sid-1", "sid-2")

	rooms.EnsureJoined("sid-1", key)
	rooms.EnsureJoined("sid-1", key)
	rooms.EnsureJoined("sid-2", key)

	req.ElementsMatch([]string{"sid-1", "sid-2"}, asStrings(rooms.MembersOf(key)))
}

func TestRooms_PublicRoomIsImplicit(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()

	rooms.EnsureJoined("sid-1", domain.PublicRoom)
	req.Empty(rooms.MembersOf(domain.PublicRoom))
}

func TestRooms_LeaveAll(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	keyAB := domain.PrivateRoomKey("sid-a", "sid-b")
	keyAC := domain.PrivateRoomKey("sid-a", "sid-c")

	rooms.EnsureJoined("sid-a", keyAB)
	rooms.EnsureJoined("sid-b", keyAB)
	rooms.EnsureJoined("sid-a", keyAC)

	rooms.LeaveAll("sid-a")
	req.ElementsMatch([]string{"sid-b"}, asStrings(rooms.MembersOf(keyAB)))
	req.Empty(rooms.MembersOf(keyAC))
}

func asStrings[T ~string](in []T) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, string(v))
	}
	return out
}
