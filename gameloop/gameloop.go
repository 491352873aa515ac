// Package gameloop runs the fixed-rate worker described in spec.md §4.7: a
// ~30 Hz ticker driving per-room flag processing and snapshot broadcast,
// with slower cadences for skin/lobby broadcasts and the moderation
// webhook.
package gameloop

import (
	"context"
	"log"
	"time"
)

const tickInterval = 33 * time.Millisecond

// skinAndLobbyCadence is expressed in ticks and webhookCadence in firings
// of that 30-tick cadence, matching spec.md §4.7: "every 30 ticks" for
// skins/lobby, and "every 300 (1s cadence) subticks" (~5 minutes) for the
// moderation webhook.
const (
	skinAndLobbyCadence = 30
	webhookCadence       = 300
)

// Coordinator is the subset of gameserver.Server the loop drives.
type Coordinator interface {
	Tick(ctx context.Context) error
	BroadcastSkinsAndLobby()
	SendPlayerList(ctx context.Context) error
}

// Loop drives a Coordinator at a fixed 30Hz cadence.
type Loop struct {
	coord                     Coordinator
	enablePlayerListBroadcast bool
}

// New returns a Loop over coord. enablePlayerListBroadcast gates the
// moderation webhook cadence, per spec.md §4.7 ("only when the ...
// feature is enabled").
func New(coord Coordinator, enablePlayerListBroadcast bool) *Loop {
	return &Loop{coord: coord, enablePlayerListBroadcast: enablePlayerListBroadcast}
}

// Run ticks until ctx is canceled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx, tick)
			tick++
		}
	}
}

func (l *Loop) tick(ctx context.Context, tick uint64) {
	if err := l.coord.Tick(ctx); err != nil {
		log.Printf("gameloop: tick error: %v", err)
	}

	if tick%skinAndLobbyCadence != 0 {
		return
	}
	l.coord.BroadcastSkinsAndLobby()

	oneSecondTick := tick / skinAndLobbyCadence
	if l.enablePlayerListBroadcast && oneSecondTick%webhookCadence == 0 {
		if err := l.coord.SendPlayerList(ctx); err != nil {
			log.Printf("gameloop: player list webhook: %v", err)
		}
	}
}
