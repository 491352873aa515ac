// Package room implements the per-level container described in spec.md
// §4.2: it owns a level's flags and the set of players currently in it,
// assembles and broadcasts per-tick snapshots, and arbitrates flag
// grab/attack requests.
package room

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sm64js/realtime-server/flag"
	"github.com/sm64js/realtime-server/player"
	"github.com/sm64js/realtime-server/wire"
)

// Go has no equivalent of Rust's Weak<T>: instead of a weak pointer, a Room
// stores only a player's socket_id and re-resolves the live *player.Player
// through this callback into the Server's authoritative player table on
// every use. A lookup miss is the "failed to upgrade" case and is treated
// identically: the slot is skipped (and opportunistically reaped).
type PlayerLookup func(socketID uint32) (*player.Player, bool)

// Sender delivers an already-framed wire message to one connected socket.
// The Server supplies this; Room never talks to a Session directly.
type Sender func(socketID uint32, frame []byte)

// MaxFieldValueBytes and MaxEmbedBytes bound the moderation webhook's
// player-list embed: a single room's field value, and the total payload of
// all rooms' fields combined (enforced by gameserver.Server.SendPlayerList,
// which aggregates every room's field).
const (
	MaxFieldValueBytes = 1024
	MaxEmbedBytes      = 6000
)

// Room is a named level: its flags, and the players currently in it.
type Room struct {
	mu sync.RWMutex

	id    uint32
	name  string
	flags []*flag.Flag

	// players stores presence only (the weak-reference simulation
	// described above) — never a *player.Player.
	players map[uint32]struct{}
}

// New returns an empty Room. Exported mainly for tests; production code
// goes through LoadStaticRooms.
func New(id uint32, name string, flagSpots []flagSpot) *Room {
	r := &Room{
		id:      id,
		name:    name,
		players: make(map[uint32]struct{}),
	}
	for _, s := range flagSpots {
		r.flags = append(r.flags, flag.New(wire.Vec3{X: s.x, Y: s.y, Z: s.z}))
	}
	return r
}

// Registry is the set of every Room in the game, keyed by level id.
type Registry struct {
	mu    sync.RWMutex
	rooms map[uint32]*Room
}

// LoadStaticRooms builds the fixed startup-time level table.
func LoadStaticRooms() *Registry {
	reg := &Registry{rooms: make(map[uint32]*Room, len(staticRooms))}
	for _, sr := range staticRooms {
		reg.rooms[sr.id] = New(sr.id, sr.name, sr.flagSpots)
	}
	return reg
}

// Get returns the Room for levelID, if one exists.
func (reg *Registry) Get(levelID uint32) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[levelID]
	return r, ok
}

// Each calls fn for every Room in the registry. fn must not mutate the
// registry itself.
func (reg *Registry) Each(fn func(*Room)) {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()
	for _, r := range rooms {
		fn(r)
	}
}

// ID returns the room's level id.
func (r *Room) ID() uint32 { return r.id }

// Name returns the room's display name.
func (r *Room) Name() string { return r.name }

// HasPlayer reports whether socketID's weak reference is present and still
// resolves to a live Player.
func (r *Room) HasPlayer(socketID uint32, lookup PlayerLookup) bool {
	r.mu.RLock()
	_, present := r.players[socketID]
	r.mu.RUnlock()
	if !present {
		return false
	}
	_, ok := lookup(socketID)
	return ok
}

// AddPlayer inserts or replaces socketID's slot in the room.
func (r *Room) AddPlayer(socketID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[socketID] = struct{}{}
}

// RemovePlayer drops socketID's slot, e.g. on disconnect or level change.
func (r *Room) RemovePlayer(socketID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, socketID)
}

// Flags returns the wire form of every flag in the room, in index order
// (the index doubles as each flag's flag_id for Grab/Attack requests).
func (r *Room) Flags() []wire.FlagMsg {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]wire.FlagMsg, 0, len(r.flags))
	for _, f := range r.flags {
		out = append(out, f.Msg())
	}
	return out
}

// ProcessFlags applies one tick of idle/falling state to every flag in the
// room.
func (r *Room) ProcessFlags() {
	r.mu.RLock()
	flags := r.flags
	r.mu.RUnlock()
	for _, f := range flags {
		f.Tick()
	}
}

// livePlayers returns the currently-resolvable players, reaping any slot
// whose weak reference failed to upgrade.
func (r *Room) livePlayers(lookup PlayerLookup) []*player.Player {
	r.mu.Lock()
	ids := make([]uint32, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	live := make([]*player.Player, 0, len(ids))
	var dead []uint32
	for _, id := range ids {
		if p, ok := lookup(id); ok {
			live = append(live, p)
		} else {
			dead = append(dead, id)
		}
	}
	if len(dead) > 0 {
		r.mu.Lock()
		for _, id := range dead {
			delete(r.players, id)
		}
		r.mu.Unlock()
	}
	return live
}

// BroadcastSnapshot collects every live player's latest frame and every
// flag's wire form into one MarioList message, zlib-compresses it, and
// enqueues delivery to every live player's session via send.
func (r *Room) BroadcastSnapshot(lookup PlayerLookup, send Sender) error {
	live := r.livePlayers(lookup)

	marios := make([]wire.MarioMsg, 0, len(live))
	for _, p := range live {
		if f, ok := p.GetFrame(); ok {
			marios = append(marios, f)
		}
	}

	r.mu.RLock()
	flagMsgs := make([]wire.FlagMsg, 0, len(r.flags))
	for _, f := range r.flags {
		flagMsgs = append(flagMsgs, f.Msg())
	}
	r.mu.RUnlock()

	msg := &wire.Sm64JsMsg{List: &wire.MarioListMsg{Flags: flagMsgs, Marios: marios}}
	frame, err := wire.EncodeCompressed(msg)
	if err != nil {
		return fmt.Errorf("room %d: encoding snapshot: %w", r.id, err)
	}

	for _, p := range live {
		send(p.SocketID(), frame)
	}
	return nil
}

// BroadcastSkinUpdates sends one uncompressed Skin message per player whose
// skin changed since the last call, and clears that player's dirty flag.
func (r *Room) BroadcastSkinUpdates(lookup PlayerLookup, send Sender) {
	live := r.livePlayers(lookup)
	for _, p := range live {
		skinData, ok := p.TakeUpdatedSkin()
		if !ok {
			continue
		}
		msg := &wire.Sm64JsMsg{Skin: &wire.SkinMsg{
			SocketID:   p.SocketID(),
			SkinData:   skinData,
			PlayerName: p.DisplayName(),
		}}
		frame := wire.EncodeUncompressed(msg)
		for _, dest := range live {
			send(dest.SocketID(), frame)
		}
	}
}

// EmitValidPlayers returns this room's ValidPlayers listing and broadcasts
// it to every live player in the room.
func (r *Room) EmitValidPlayers(lookup PlayerLookup, send Sender) wire.ValidPlayersMsg {
	live := r.livePlayers(lookup)
	ids := make([]uint32, 0, len(live))
	for _, p := range live {
		ids = append(ids, p.SocketID())
	}
	listing := wire.ValidPlayersMsg{LevelID: r.id, SocketIDs: ids}

	frame := wire.EncodeUncompressed(&wire.Sm64JsMsg{PlayerLists: &wire.PlayerListsMsg{
		Games: []wire.ValidPlayersMsg{listing},
	}})
	for _, p := range live {
		send(p.SocketID(), frame)
	}
	return listing
}

// LivePlayerIDs returns the socket ids of every currently-resolvable player
// in the room, for callers (chat broadcast, announcements) that need the
// destination set without a full snapshot broadcast.
func (r *Room) LivePlayerIDs(lookup PlayerLookup) []uint32 {
	live := r.livePlayers(lookup)
	ids := make([]uint32, 0, len(live))
	for _, p := range live {
		ids = append(ids, p.SocketID())
	}
	return ids
}

// ProcessAttack delegates to the flag rules in spec.md §4.1: knocks the
// flag loose from targetID if it's currently the carrier.
func (r *Room) ProcessAttack(flagID int, attackerPos wire.Vec3, targetID uint32) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if flagID < 0 || flagID >= len(r.flags) {
		return
	}
	r.flags[flagID].Attack(targetID, attackerPos)
}

// ProcessGrab delegates to the flag rules in spec.md §4.1. Returns whether
// the grab succeeded.
func (r *Room) ProcessGrab(flagID int, pos wire.Vec3, requesterID uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if flagID < 0 || flagID >= len(r.flags) {
		return false
	}
	return r.flags[flagID].Grab(requesterID, pos)
}

// DropFlagIfHolding releases any flag socketID is currently carrying,
// called by the Server on disconnect. The drop origin is the flag's own
// stored position, not the player's last reported Mario frame, which may
// have drifted since the grab.
func (r *Room) DropFlagIfHolding(socketID uint32) {
	r.mu.RLock()
	flags := r.flags
	r.mu.RUnlock()
	for _, f := range flags {
		f.Attack(socketID, f.Pos())
	}
}

// GetAllSkinData returns a Skin message for every live player carrying
// cosmetic data, for RequestCosmetics replies.
func (r *Room) GetAllSkinData(lookup PlayerLookup) []wire.SkinMsg {
	var out []wire.SkinMsg
	for _, p := range r.livePlayers(lookup) {
		skinData, ok := p.SkinData()
		if !ok {
			continue
		}
		out = append(out, wire.SkinMsg{
			SkinData:   skinData,
			PlayerName: p.DisplayName(),
		})
	}
	return out
}

// PlayerListField returns a (player count, field name, field value) triple
// describing this room's current occupants for the moderation webhook's
// rich-embed player list, or ok=false for an empty room. The value is
// truncated to MaxFieldValueBytes.
func (r *Room) PlayerListField(lookup PlayerLookup) (count int, name, value string, ok bool) {
	live := r.livePlayers(lookup)
	if len(live) == 0 {
		return 0, "", "", false
	}
	names := make([]string, 0, len(live))
	for _, p := range live {
		names = append(names, p.DisplayName())
	}
	value = strings.Join(names, ", ")
	if len(value) > MaxFieldValueBytes {
		value = value[:MaxFieldValueBytes]
	}
	return len(live), r.name, value, true
}
