// Package flag implements a single capture-the-flag object's state machine:
// resting at its start position, carried by a player, falling after being
// knocked loose, or sitting idle somewhere off its start position waiting to
// reset. See spec.md §4.1.
package flag

import (
	"math"
	"math/rand"
	"sync"

	"github.com/sm64js/realtime-server/wire"
)

const (
	// grabRadius is the maximum XZ distance (strictly less than) a grab
	// request may be from the flag's current position to succeed.
	grabRadius = 50.0

	// idleResetTicks is the number of idle ticks (fired the tick *after*
	// reaching this count) before an un-carried, off-start flag resets to
	// its start position.
	idleResetTicks = 3000

	// fallFloor is the Y coordinate a falling flag stops descending past.
	fallFloor = -10000.0

	// fallRate is how far a falling flag drops per tick.
	fallRate = 2.0

	// dropJitterRange is the half-width of the uniform XZ jitter applied
	// when a flag is knocked loose by an attack.
	dropJitterRange = 500.0

	// dropHeightOffset is how far above the attacker's position a dropped
	// flag reappears.
	dropHeightOffset = 600.0

	// heightBeforeFallDefault is the wire value reported for a flag that
	// has never fallen.
	heightBeforeFallDefault = 20000.0
)

// Flag is one pickup-able flag object within a Room. Every exported method
// is safe for concurrent use; callers never need to hold an external lock.
type Flag struct {
	mu sync.Mutex

	pos     wire.Vec3
	startPos wire.Vec3

	carrier         uint32
	hasCarrier      bool
	atStartPosition bool
	idleTicks       uint16
	falling         bool
	heightBeforeFall float32
}

// New returns a Flag resting at pos.
func New(pos wire.Vec3) *Flag {
	return &Flag{
		pos:              pos,
		startPos:         pos,
		atStartPosition:  true,
		heightBeforeFall: heightBeforeFallDefault,
	}
}

// Tick advances falling and idle-reset state by one game tick. Called once
// per tick by the owning Room's game loop pass.
func (f *Flag) Tick() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processFalling()
	f.processIdle()
}

func (f *Flag) processFalling() {
	if f.falling && f.pos.Y > fallFloor {
		f.pos.Y -= fallRate
	}
}

func (f *Flag) processIdle() {
	if f.hasCarrier || f.atStartPosition {
		return
	}
	f.idleTicks++
	if f.idleTicks > idleResetTicks {
		f.pos = f.startPos
		f.falling = false
		f.atStartPosition = true
		f.idleTicks = 0
	}
}

// Grab attempts to pick up the flag for socketID from pos. It succeeds only
// if the flag is currently uncarried and pos is strictly within grabRadius
// of the flag's current position (XZ plane only).
func (f *Flag) Grab(socketID uint32, pos wire.Vec3) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.hasCarrier {
		return false
	}
	dx := pos.X - f.pos.X
	dz := pos.Z - f.pos.Z
	dist := math.Sqrt(float64(dx*dx + dz*dz))
	if dist >= grabRadius {
		return false
	}

	f.carrier = socketID
	f.hasCarrier = true
	f.falling = false
	f.atStartPosition = false
	f.idleTicks = 0
	return true
}

// Attack knocks the flag loose from targetID if targetID is currently
// carrying it, dropping it near attackerPos with randomized jitter. Attacks
// against a flag not held by targetID (including an uncarried flag) are
// silently ignored, matching spec.md's invariant that the target must equal
// the current carrier.
func (f *Flag) Attack(targetID uint32, attackerPos wire.Vec3) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.hasCarrier || f.carrier != targetID {
		return
	}
	f.drop(attackerPos)
}

func (f *Flag) drop(attackerPos wire.Vec3) {
	f.hasCarrier = false
	f.carrier = 0
	f.falling = true
	f.pos = wire.Vec3{
		X: attackerPos.X + jitter(),
		Y: attackerPos.Y + dropHeightOffset,
		Z: attackerPos.Z + jitter(),
	}
	f.heightBeforeFall = f.pos.Y
}

func jitter() float32 {
	return float32(rand.Float64()*2*dropJitterRange - dropJitterRange)
}

// Msg returns the flag's current state as its wire representation.
func (f *Flag) Msg() wire.FlagMsg {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg := wire.FlagMsg{
		Pos:              f.pos,
		LinkedToPlayer:   f.hasCarrier,
		HeightBeforeFall: f.heightBeforeFall,
	}
	if f.hasCarrier {
		msg.SocketID = f.carrier
	}
	return msg
}

// Carrier reports the socket ID currently holding the flag, if any.
func (f *Flag) Carrier() (socketID uint32, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.carrier, f.hasCarrier
}

// Pos returns the flag's own stored position, independent of any carrying
// player's last reported Mario frame.
func (f *Flag) Pos() wire.Vec3 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}
