package gameserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sm64js/realtime-server/wire"
)

// Connect → Join → Move → Disconnect (spec.md §8 scenario 1): after three
// Mario frames, room 1000's next snapshot carries exactly one Mario entry
// at the last reported position; after disconnect, no players remain.
func TestScenarioConnectJoinMoveDisconnect(t *testing.T) {
	s, _ := newTestServer()

	sess := connectTestClient(s, 42, "1.2.3.4")
	reply := s.SendJoinGame(sess.SocketID(), wire.JoinGameMsg{Level: 1000, Name: "Alice"})
	require.True(t, reply.Accepted)

	for _, pos := range []wire.Vec3{{X: 0, Y: 0, Z: 0}, {X: 100, Y: 0, Z: 0}, {X: 200, Y: 0, Z: 0}} {
		s.SetData(sess.SocketID(), wire.MarioMsg{Pos: pos})
	}

	_, ok := s.rooms.Get(1000)
	require.True(t, ok)

	require.NoError(t, s.Tick(context.Background()))

	snapshot := decodeSnapshot(t, s, sess.SocketID())
	require.Len(t, snapshot.List.Marios, 1)
	assert.Equal(t, sess.SocketID(), snapshot.List.Marios[0].SocketID)
	assert.Equal(t, wire.Vec3{X: 200, Y: 0, Z: 0}, snapshot.List.Marios[0].Pos)

	s.Disconnect(sess.SocketID())
	assert.Empty(t, s.GetPlayers())
}

// Grab then drop-via-attack (spec.md §8 scenario 2).
func TestScenarioGrabThenAttackDrops(t *testing.T) {
	s, _ := newTestServer()

	flagPos := wire.Vec3{X: 9380, Y: 7657, Z: -8980}

	a := connectTestClient(s, 1, "1.1.1.1")
	replyA := s.SendJoinGame(a.SocketID(), wire.JoinGameMsg{Level: 1000, Name: "Alice"})
	require.True(t, replyA.Accepted)
	s.SetData(a.SocketID(), wire.MarioMsg{Pos: flagPos})
	s.SendGrab(a.SocketID(), wire.GrabMsg{FlagID: 0, Pos: flagPos})

	r, ok := s.rooms.Get(1000)
	require.True(t, ok)
	flags := r.Flags()
	require.NotEmpty(t, flags)
	assert.True(t, flags[0].LinkedToPlayer)
	assert.Equal(t, a.SocketID(), flags[0].SocketID)

	b := connectTestClient(s, 2, "2.2.2.2")
	replyB := s.SendJoinGame(b.SocketID(), wire.JoinGameMsg{Level: 1000, Name: "Bob"})
	require.True(t, replyB.Accepted)
	attackerPos := wire.Vec3{X: 9000, Y: 7657, Z: -9000}
	s.SendAttack(b.SocketID(), wire.AttackMsg{FlagID: 0, AttackerPos: attackerPos, TargetSocketID: a.SocketID()})

	flagsAfter := r.Flags()
	assert.False(t, flagsAfter[0].LinkedToPlayer)
	assert.InDelta(t, attackerPos.Y+600, flagsAfter[0].Pos.Y, 0.001)
}

// Disconnect-while-holding (spec.md §8 scenario 3): leaving the room while
// carrying a flag drops it relative to the flag's own stored position
// (here the carrier's grab position), through the same Attack path as an
// attack-triggered drop.
func TestScenarioDisconnectWhileHoldingDropsFlag(t *testing.T) {
	s, _ := newTestServer()

	carrierPos := wire.Vec3{X: 9380, Y: 7657, Z: -8980}

	a := connectTestClient(s, 7, "3.3.3.3")
	reply := s.SendJoinGame(a.SocketID(), wire.JoinGameMsg{Level: 1000, Name: "Carrier"})
	require.True(t, reply.Accepted)
	s.SetData(a.SocketID(), wire.MarioMsg{Pos: carrierPos})
	s.SendGrab(a.SocketID(), wire.GrabMsg{FlagID: 0, Pos: carrierPos})

	r, ok := s.rooms.Get(1000)
	require.True(t, ok)
	require.True(t, r.Flags()[0].LinkedToPlayer)

	s.Disconnect(a.SocketID())

	flagsAfter := r.Flags()
	assert.False(t, flagsAfter[0].LinkedToPlayer)
	assert.InDelta(t, carrierPos.Y+600, flagsAfter[0].Pos.Y, 0.001)
	assert.Empty(t, s.GetPlayers())
}

func decodeSnapshot(t *testing.T, s *Server, socketID uint32) *wire.Sm64JsMsg {
	t.Helper()
	cs, ok := s.clients[socketID]
	require.True(t, ok)
	select {
	case frame := <-cs.sess.Outbound():
		msg, err := wire.Decode(frame)
		require.NoError(t, err)
		require.NotNil(t, msg.List)
		return msg
	default:
		t.Fatal("expected a queued snapshot frame")
		return nil
	}
}
