package orch

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Banter/internal/app"
	"github.com/dkeye/Banter/internal/core"
	"github.com/dkeye/Banter/internal/domain"
	"github.com/dkeye/Banter/internal/store"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(fr, &ev))
		out = append(out, ev)
	}
	return out
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func typesOf(evs []map[string]any) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev["type"].(string))
	}
	return out
}

func firstOfType(evs []map[string]any, typ string) map[string]any {
	for _, ev := range evs {
		if ev["type"] == typ {
			return ev
		}
	}
	return nil
}

func payloadMessage(t *testing.T, ev map[string]any) map[string]any {
	t.Helper()
	require.NotNil(t, ev)
	msg, ok := ev["message"].(map[string]any)
	require.True(t, ok)
	return msg
}

func newTestOrch(t *testing.T) *Orchestrator {
	t.Helper()
	s, err := store.Open(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	reg := app.NewRegistry()
	rooms := app.NewRooms()
	return New(reg, rooms, app.NewDispatcher(reg, rooms, nil), s, time.Second)
}

func join(t *testing.T, o *Orchestrator, sid core.SessionID, username, externalID string) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	_, err := o.Join(sid, username, externalID, conn)
	require.NoError(t, err)
	return conn
}

func resetAll(conns ...*fakeConn) {
	for _, c := range conns {
		c.reset()
	}
}

func TestJoin_BroadcastsPresenceAndArrival(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)

	alice := join(t, o, "sid-a", "alice", "ext-a")
	req.Equal([]string{"user_list", "user_joined"}, typesOf(alice.events(t)))

	alice.reset()
	join(t, o, "sid-b", "bob", "ext-b")

	evs := alice.events(t)
	req.Equal([]string{"user_list", "user_joined"}, typesOf(evs))
	req.Equal("bob", firstOfType(evs, "user_joined")["username"])

	users := firstOfType(evs, "user_list")["users"].([]any)
	req.Len(users, 2)
}

func TestJoin_Validation(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)

	_, err := o.Join("sid-a", "", "ext-a", &fakeConn{})
	req.ErrorIs(err, domain.ErrUsernameEmpty)

	_, err = o.Join("sid-a", "alice", "", &fakeConn{})
	req.ErrorIs(err, domain.ErrExternalIDEmpty)
}

func TestJoin_DedupAnnouncesDepartureFirst(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)

	join(t, o, "sid-old", "alice", "ext-a")
	bob := join(t, o, "sid-b", "bob", "ext-b")
	bob.reset()

	join(t, o, "sid-new", "alice", "ext-a")

	evs := bob.events(t)
	left := firstOfType(evs, "user_left")
	joined := firstOfType(evs, "user_joined")
	req.NotNil(left)
	req.NotNil(joined)
	req.Equal("sid-old", left["id"])
	req.Equal("sid-new", joined["id"])

	// the departure of the superseded connection precedes the new arrival
	req.Equal([]string{"user_left", "user_list", "user_joined"}, typesOf(evs))

	// bob plus a single alice remain live
	req.Equal(2, o.Registry.Count())
	users := firstOfType(evs, "user_list")["users"].([]any)
	req.Len(users, 2)

	// the stale connection closing afterwards announces nothing
	bob.reset()
	o.Disconnect("sid-old")
	req.Empty(bob.events(t))
}

func TestDisconnect_AnnouncesDeparture(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)

	alice := join(t, o, "sid-a", "alice", "ext-a")
	join(t, o, "sid-b", "bob", "ext-b")
	alice.reset()

	o.Disconnect("sid-b")
	evs := alice.events(t)
	req.Equal([]string{"user_left"}, typesOf(evs))
	req.Equal("bob", evs[0]["username"])

	// a connection that never joined disconnects silently
	alice.reset()
	o.Disconnect("sid-ghost")
	req.Empty(alice.events(t))
}

func TestSendPublic_FanOutAndAck(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)

	alice := join(t, o, "sid-a", "alice", "ext-a")
	bob := join(t, o, "sid-b", "bob", "ext-b")
	carol := join(t, o, "sid-c", "carol", "ext-c")
	resetAll(alice, bob, carol)

	msg, err := o.SendPublic(context.Background(), "sid-a", "hi", "", "")
	req.NoError(err)
	req.NotEmpty(msg.ID)
	req.False(msg.CreatedAt.IsZero())
	req.Equal("alice", msg.Sender)
	req.Equal("hi", msg.Body)
	req.False(msg.IsPrivate)

	// everyone except the sender gets the persisted form
	req.Empty(alice.events(t))
	for _, c := range []*fakeConn{bob, carol} {
		evs := c.events(t)
		req.Equal([]string{"receive_message"}, typesOf(evs))
		got := payloadMessage(t, evs[0])
		req.Equal("hi", got["message"])
		req.Equal("alice", got["sender"])
		req.Equal(msg.ID, got["id"])
	}
}

func TestSendPublic_Validation(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)
	join(t, o, "sid-a", "alice", "ext-a")

	_, err := o.SendPublic(context.Background(), "sid-a", "", "", "")
	req.ErrorIs(err, domain.ErrEmptyMessage)

	// an attachment alone is enough
	msg, err := o.SendPublic(context.Background(), "sid-a", "", "/uploads/cat.png", "image/png")
	req.NoError(err)
	req.Equal("/uploads/cat.png", msg.FileURL)

	_, err = o.SendPublic(context.Background(), "sid-unknown", "hi", "", "")
	req.ErrorIs(err, ErrNotJoined)
}

func TestSendPrivate_OnlyPairReceives(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)

	alice := join(t, o, "sid-a", "alice", "ext-a")
	bob := join(t, o, "sid-b", "bob", "ext-b")
	carol := join(t, o, "sid-c", "carol", "ext-c")
	resetAll(alice, bob, carol)

	msg, err := o.SendPrivate(context.Background(), "sid-a", "sid-b", "secret", "", "")
	req.NoError(err)
	req.True(msg.IsPrivate)
	req.Equal("bob", msg.RecipientName)
	req.Equal("ext-b", msg.RecipientExternalID)

	evs := bob.events(t)
	req.Equal([]string{"private_message"}, typesOf(evs))
	req.Equal("secret", payloadMessage(t, evs[0])["message"])

	// the sender relies on the ack return; a third user sees nothing
	req.Empty(alice.events(t))
	req.Empty(carol.events(t))
}

func TestSendPrivate_OfflineRecipientStillPersists(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)

	alice := join(t, o, "sid-a", "alice", "ext-a")
	bob := join(t, o, "sid-b", "bob", "ext-b")
	resetAll(alice, bob)

	msg, err := o.SendPrivate(context.Background(), "sid-a", "sid-ghost", "anyone there?", "", "")
	req.NoError(err)
	req.Equal("Unknown", msg.RecipientName)
	req.Empty(msg.RecipientExternalID)

	stored, err := o.Store.FindByID(context.Background(), msg.ID)
	req.NoError(err)
	req.Equal("anyone there?", stored.Body)

	// nobody is live in that pair room
	req.Empty(alice.events(t))
	req.Empty(bob.events(t))
}

func TestReact_ToggleAndBroadcast(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)
	ctx := context.Background()

	alice := join(t, o, "sid-a", "alice", "ext-a")
	bob := join(t, o, "sid-b", "bob", "ext-b")
	msg, err := o.SendPublic(ctx, "sid-a", "hi", "", "")
	req.NoError(err)
	resetAll(alice, bob)

	req.NoError(o.React(ctx, "sid-b", msg.ID, "👍"))
	stored, err := o.Store.FindByID(ctx, msg.ID)
	req.NoError(err)
	req.Equal([]domain.Reaction{{Emoji: "👍", By: "ext-b"}}, stored.Reactions)

	// the full updated record reaches the room, reactor included
	for _, c := range []*fakeConn{alice, bob} {
		evs := c.events(t)
		req.Equal([]string{"message_updated"}, typesOf(evs))
	}

	// the identical pair toggles back off
	req.NoError(o.React(ctx, "sid-b", msg.ID, "👍"))
	stored, err = o.Store.FindByID(ctx, msg.ID)
	req.NoError(err)
	req.Empty(stored.Reactions)
}

func TestReact_UnknownMessageIsSilent(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)

	alice := join(t, o, "sid-a", "alice", "ext-a")
	alice.reset()

	req.NoError(o.React(context.Background(), "sid-a", "no-such-id", "👍"))
	req.Empty(alice.events(t))
}

func TestMarkRead_OnlyBroadcastsOnChange(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)
	ctx := context.Background()

	alice := join(t, o, "sid-a", "alice", "ext-a")
	bob := join(t, o, "sid-b", "bob", "ext-b")
	carol := join(t, o, "sid-c", "carol", "ext-c")
	msg, err := o.SendPrivate(ctx, "sid-a", "sid-b", "secret", "", "")
	req.NoError(err)
	resetAll(alice, bob, carol)

	req.NoError(o.MarkRead(ctx, "sid-b", msg.ID))
	stored, err := o.Store.FindByID(ctx, msg.ID)
	req.NoError(err)
	req.Equal([]string{"ext-b"}, stored.ReadBy)

	// both participants observe the receipt; outsiders do not
	req.Equal([]string{"message_updated"}, typesOf(alice.events(t)))
	req.Equal([]string{"message_updated"}, typesOf(bob.events(t)))
	req.Empty(carol.events(t))

	// re-reading changes nothing and stays quiet
	resetAll(alice, bob)
	req.NoError(o.MarkRead(ctx, "sid-b", msg.ID))
	req.Empty(alice.events(t))
	req.Empty(bob.events(t))
}

func TestMarkRead_PublicMessageIsIgnored(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)
	ctx := context.Background()

	alice := join(t, o, "sid-a", "alice", "ext-a")
	bob := join(t, o, "sid-b", "bob", "ext-b")
	msg, err := o.SendPublic(ctx, "sid-a", "hi", "", "")
	req.NoError(err)
	resetAll(alice, bob)

	req.NoError(o.MarkRead(ctx, "sid-b", msg.ID))
	stored, err := o.Store.FindByID(ctx, msg.ID)
	req.NoError(err)
	req.Empty(stored.ReadBy)
	req.Empty(alice.events(t))
}

func TestEdit_OwnerOnly(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)
	ctx := context.Background()

	alice := join(t, o, "sid-a", "alice", "ext-a")
	carol := join(t, o, "sid-c", "carol", "ext-c")
	msg, err := o.SendPublic(ctx, "sid-a", "hello", "", "")
	req.NoError(err)
	resetAll(alice, carol)

	// the author edits
	req.NoError(o.Edit(ctx, "sid-a", msg.ID, "hello!"))
	stored, err := o.Store.FindByID(ctx, msg.ID)
	req.NoError(err)
	req.Equal("hello!", stored.Body)
	req.True(stored.IsEdited)
	req.Equal([]string{"message_updated"}, typesOf(carol.events(t)))

	// a non-owner attempt: no change, no broadcast, no error surfaced
	resetAll(alice, carol)
	req.NoError(o.Edit(ctx, "sid-c", msg.ID, "hijacked"))
	stored, err = o.Store.FindByID(ctx, msg.ID)
	req.NoError(err)
	req.Equal("hello!", stored.Body)
	req.True(stored.IsEdited)
	req.Empty(alice.events(t))
	req.Empty(carol.events(t))
}

func TestEdit_NeverStripsLastContent(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)
	ctx := context.Background()

	alice := join(t, o, "sid-a", "alice", "ext-a")
	bob := join(t, o, "sid-b", "bob", "ext-b")

	textOnly, err := o.SendPublic(ctx, "sid-a", "hello", "", "")
	req.NoError(err)
	withFile, err := o.SendPublic(ctx, "sid-a", "look", "/uploads/cat.png", "image/png")
	req.NoError(err)
	resetAll(alice, bob)

	// emptying a text-only message would leave nothing to show; dropped
	req.NoError(o.Edit(ctx, "sid-a", textOnly.ID, ""))
	stored, err := o.Store.FindByID(ctx, textOnly.ID)
	req.NoError(err)
	req.Equal("hello", stored.Body)
	req.False(stored.IsEdited)
	req.Empty(bob.events(t))

	// the attachment carries a message on its own, so its caption may go
	req.NoError(o.Edit(ctx, "sid-a", withFile.ID, ""))
	stored, err = o.Store.FindByID(ctx, withFile.ID)
	req.NoError(err)
	req.Empty(stored.Body)
	req.True(stored.IsEdited)
	req.Equal([]string{"message_updated"}, typesOf(bob.events(t)))
}

func TestDelete_OwnerOnly(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)
	ctx := context.Background()

	alice := join(t, o, "sid-a", "alice", "ext-a")
	carol := join(t, o, "sid-c", "carol", "ext-c")
	msg, err := o.SendPublic(ctx, "sid-a", "going", "", "")
	req.NoError(err)
	resetAll(alice, carol)

	req.NoError(o.Delete(ctx, "sid-c", msg.ID))
	_, err = o.Store.FindByID(ctx, msg.ID)
	req.NoError(err)
	req.Empty(carol.events(t))

	req.NoError(o.Delete(ctx, "sid-a", msg.ID))
	_, err = o.Store.FindByID(ctx, msg.ID)
	req.ErrorIs(err, domain.ErrNotFound)

	evs := carol.events(t)
	req.Equal([]string{"message_deleted"}, typesOf(evs))
	req.Equal(msg.ID, evs[0]["messageId"])
}

func TestTyping_PublicExcludesSender(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)

	alice := join(t, o, "sid-a", "alice", "ext-a")
	bob := join(t, o, "sid-b", "bob", "ext-b")
	resetAll(alice, bob)

	o.Typing("sid-a", true, "")
	req.Empty(alice.events(t))

	evs := bob.events(t)
	req.Equal([]string{"typing_users"}, typesOf(evs))
	req.Equal("alice", evs[0]["username"])
	req.Equal(true, evs[0]["isTyping"])
}

func TestTyping_PrivateLazilyJoinsPair(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)

	alice := join(t, o, "sid-a", "alice", "ext-a")
	bob := join(t, o, "sid-b", "bob", "ext-b")
	carol := join(t, o, "sid-c", "carol", "ext-c")
	resetAll(alice, bob, carol)

	o.Typing("sid-a", true, "sid-b")

	req.Equal([]string{"typing_users"}, typesOf(bob.events(t)))
	req.Empty(alice.events(t))
	req.Empty(carol.events(t))

	// the first typing event joined both participants to the pair room
	members := o.Rooms.MembersOf(domain.PrivateRoomKey("sid-a", "sid-b"))
	req.ElementsMatch([]core.SessionID{"sid-a", "sid-b"}, members)
}

func TestTyping_UnjoinedConnectionIsSilent(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)

	alice := join(t, o, "sid-a", "alice", "ext-a")
	alice.reset()

	o.Typing("sid-ghost", true, "")
	req.Empty(alice.events(t))
}

// Mutation broadcasts target the pairing captured at creation time. A
// participant who reconnected since holds a new connection identifier and a
// new pair room, so live updates to pre-reconnect messages no longer reach
// them until the pair interacts again.
func TestMutationRoom_PinnedToCreationPairing(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)
	ctx := context.Background()

	alice := join(t, o, "sid-a", "alice", "ext-a")
	join(t, o, "sid-b1", "bob", "ext-b")
	msg, err := o.SendPrivate(ctx, "sid-a", "sid-b1", "secret", "", "")
	req.NoError(err)

	o.Disconnect("sid-b1")
	bob2 := join(t, o, "sid-b2", "bob", "ext-b")
	resetAll(alice, bob2)

	req.NoError(o.React(ctx, "sid-a", msg.ID, "👍"))

	req.Equal([]string{"message_updated"}, typesOf(alice.events(t)))
	req.Empty(bob2.events(t))
}

func TestHistory_OldestFirstWithExhaustion(t *testing.T) {
	req := require.New(t)
	o := newTestOrch(t)
	ctx := context.Background()

	join(t, o, "sid-a", "alice", "ext-a")
	var stamps []time.Time
	for _, body := range []string{"m1", "m2", "m3", "m4"} {
		msg, err := o.SendPublic(ctx, "sid-a", body, "", "")
		req.NoError(err)
		stamps = append(stamps, msg.CreatedAt)
		time.Sleep(time.Millisecond)
	}

	page, err := o.History(ctx, stamps[3], 2)
	req.NoError(err)
	req.Len(page, 2)
	req.Equal("m2", page[0].Body)
	req.Equal("m3", page[1].Body)

	// fewer than limit means nothing older remains
	page, err = o.History(ctx, stamps[1], 20)
	req.NoError(err)
	req.Len(page, 1)
	req.Equal("m1", page[0].Body)

	latest, err := o.Latest(ctx, 3)
	req.NoError(err)
	req.Len(latest, 3)
	req.Equal("m2", latest[0].Body)
	req.Equal("m4", latest[2].Body)
}
