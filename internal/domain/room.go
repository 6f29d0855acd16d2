package domain

import (
	"sort"
	"strings"
)

// RoomKey names a live broadcast scope. Rooms are fan-out targets only;
// membership is derived, never persisted.
type RoomKey string

// PublicRoom is the single room every connected session belongs to.
const PublicRoom RoomKey = "global"

const privateRoomSep = "-"

// PrivateRoomKey derives the canonical key for a pairwise conversation by
// sorting the two connection identifiers, so both participants compute the
// identical key regardless of who initiates.
func PrivateRoomKey(a, b string) RoomKey {
	pair := []string{a, b}
	sort.Strings(pair)
	return RoomKey(strings.Join(pair, privateRoomSep))
}
