// Package player holds the in-game presence bound to a session once it has
// accepted a JoinGame request. See spec.md §4.3.
package player

import (
	"sync"

	"github.com/sm64js/realtime-server/wire"
)

// Player is one connected client's in-game state: display name, chosen
// level, most recent world-state frame, and cosmetic skin data. Created on
// JoinGame acceptance and destroyed alongside its Session.
type Player struct {
	mu sync.RWMutex

	socketID    uint32
	levelID     uint32
	displayName string

	frame     *wire.MarioMsg
	skinData  []byte
	skinDirty bool
}

// New returns a Player bound to socketID, in levelID, under displayName.
func New(socketID, levelID uint32, displayName string) *Player {
	return &Player{
		socketID:    socketID,
		levelID:     levelID,
		displayName: displayName,
	}
}

// SocketID returns the socket this Player is bound to.
func (p *Player) SocketID() uint32 {
	return p.socketID
}

// LevelID returns the level (Room) this Player currently occupies.
func (p *Player) LevelID() uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.levelID
}

// DisplayName returns the name this Player is shown under.
func (p *Player) DisplayName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.displayName
}

// SetFrame stores the player's latest reported world-state frame, as
// forwarded by the Server on every Mario message.
func (p *Player) SetFrame(f wire.MarioMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame = &f
}

// GetFrame returns the last stored world-state frame, if any has arrived
// yet.
func (p *Player) GetFrame() (wire.MarioMsg, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.frame == nil {
		return wire.MarioMsg{}, false
	}
	return *p.frame, true
}

// SetSkin stores skinData and marks it dirty so the next skin-update
// broadcast picks it up.
func (p *Player) SetSkin(skinData []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skinData = skinData
	p.skinDirty = true
}

// SkinData returns the player's current skin bytes, for RequestCosmetics
// replies.
func (p *Player) SkinData() ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.skinData == nil {
		return nil, false
	}
	return p.skinData, true
}

// TakeUpdatedSkin returns the player's skin data and clears the dirty flag,
// iff it has changed since the last call. Used by the periodic
// broadcast-skin-updates pass so each change is announced exactly once.
func (p *Player) TakeUpdatedSkin() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.skinDirty {
		return nil, false
	}
	p.skinDirty = false
	return p.skinData, true
}
