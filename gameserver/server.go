// Package gameserver implements the single-actor coordinator described in
// spec.md §4.5: it owns every connected Session, every joined Player, the
// Room registry, and the Chat History, and serializes every state mutation
// through one request queue.
package gameserver

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sm64js/realtime-server/accounts"
	"github.com/sm64js/realtime-server/chat"
	"github.com/sm64js/realtime-server/player"
	"github.com/sm64js/realtime-server/room"
	"github.com/sm64js/realtime-server/session"
	"github.com/sm64js/realtime-server/wire"
)

// PlayerListField is one Room's contribution to the moderation webhook's
// player-list embed.
type PlayerListField struct {
	RoomName string
	Count    int
	Value    string
}

// WebhookSink delivers the assembled moderation player-list embed.
// moderation.Webhook implements this; Server never imports moderation, so
// there's no import cycle.
type WebhookSink interface {
	Send(ctx context.Context, fields []PlayerListField) error
}

// PlayerSnapshot is one connected player's state, for the moderation
// GetPlayers API.
type PlayerSnapshot struct {
	SocketID    uint32
	AccountID   int64
	DisplayName string
	LevelID     uint32
	IP          string
}

type clientState struct {
	sess      *session.Session
	accountID int64
	ip        string
	identity  accounts.Identity
	levelID   uint32
	joined    bool
}

// Server is the single-actor coordinator. All state below is only ever
// touched from inside Run, which processes one request closure at a time —
// this is what makes the Server a "single logical actor" per spec.md §4.5
// rather than a struct full of independently-locked fields.
type Server struct {
	reqCh chan func()

	rooms   *room.Registry
	chat    *chat.History
	store   accounts.Store
	webhook WebhookSink
	baseURL string

	clients      map[uint32]*clientState
	accountIndex map[int64]uint32
	players      map[uint32]*player.Player
	rng          *rand.Rand
}

// New returns a Server over rooms, backed by store for auth/mute/ban
// lookups. webhook may be nil (SendPlayerList becomes a no-op). baseURL is
// used only to render the moderation webhook's per-player account links
// (spec.md §6); it may be empty when no webhook is configured.
func New(rooms *room.Registry, store accounts.Store, webhook WebhookSink, baseURL string) *Server {
	return &Server{
		reqCh:        make(chan func()),
		rooms:        rooms,
		chat:         chat.NewHistory(),
		store:        store,
		webhook:      webhook,
		baseURL:      baseURL,
		clients:      make(map[uint32]*clientState),
		accountIndex: make(map[int64]uint32),
		players:      make(map[uint32]*player.Player),
		rng:          rand.New(rand.NewSource(0xC0FFEE)),
	}
}

// Run processes requests until ctx is canceled.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.reqCh:
			fn()
		}
	}
}

// exec runs fn inside the actor loop and blocks until it completes,
// so callers observe a strictly-serialized, completed state mutation.
func (s *Server) exec(fn func()) {
	done := make(chan struct{})
	s.reqCh <- func() {
		fn()
		close(done)
	}
	<-done
}

// Connect registers sess under identity, kicking any existing session for
// the same account first. Returns the freshly assigned socket id.
//
// The wire protocol has no Kick message variant, so "the older Session
// receives a Kick message and terminates" (spec.md §4.5) is implemented by
// forcibly closing the older session's socket directly; its readPump exit
// then drives the normal Disconnect path for it.
func (s *Server) Connect(sess *session.Session, ip string, identity accounts.Identity) uint32 {
	var socketID uint32
	s.exec(func() {
		if oldID, ok := s.accountIndex[identity.AccountID]; ok {
			if old, ok := s.clients[oldID]; ok {
				old.sess.Close()
				s.removeClientLocked(oldID)
			}
		}

		socketID = s.freshSocketIDLocked()
		sess.SetSocketID(socketID)
		s.clients[socketID] = &clientState{
			sess:      sess,
			accountID: identity.AccountID,
			ip:        ip,
			identity:  identity,
		}
		s.accountIndex[identity.AccountID] = socketID
	})
	return socketID
}

func (s *Server) freshSocketIDLocked() uint32 {
	for {
		id := s.rng.Uint32()
		if id == 0 {
			continue
		}
		if _, taken := s.clients[id]; !taken {
			return id
		}
	}
}

// Disconnect removes every record for socketID, dropping any flag the
// player was holding in their room.
func (s *Server) Disconnect(socketID uint32) {
	s.exec(func() {
		s.removeClientLocked(socketID)
	})
}

func (s *Server) removeClientLocked(socketID uint32) {
	cs, ok := s.clients[socketID]
	if !ok {
		return
	}
	if p, ok := s.players[socketID]; ok {
		if r, ok := s.rooms.Get(p.LevelID()); ok {
			r.DropFlagIfHolding(socketID)
			r.RemovePlayer(socketID)
		}
	}
	delete(s.players, socketID)
	delete(s.clients, socketID)
	if s.accountIndex[cs.accountID] == socketID {
		delete(s.accountIndex, cs.accountID)
	}
}

// lookup resolves socketID to its live Player, satisfying room.PlayerLookup.
func (s *Server) lookup(socketID uint32) (*player.Player, bool) {
	p, ok := s.players[socketID]
	return p, ok
}

// send delivers frame to socketID's session, if still connected.
// Satisfies room.Sender.
func (s *Server) send(socketID uint32, frame []byte) {
	if cs, ok := s.clients[socketID]; ok {
		cs.sess.Enqueue(frame)
	}
}

// SetData stores socketID's latest world-state frame.
func (s *Server) SetData(socketID uint32, frame wire.MarioMsg) {
	s.exec(func() {
		p, ok := s.players[socketID]
		if !ok {
			return
		}
		frame.SocketID = socketID
		p.SetFrame(frame)
	})
}

// SendAttack delegates to the sender's Room.
func (s *Server) SendAttack(socketID uint32, msg wire.AttackMsg) {
	s.exec(func() {
		p, ok := s.players[socketID]
		if !ok {
			return
		}
		r, ok := s.rooms.Get(p.LevelID())
		if !ok {
			return
		}
		r.ProcessAttack(int(msg.FlagID), msg.AttackerPos, msg.TargetSocketID)
	})
}

// SendGrab delegates to the sender's Room.
func (s *Server) SendGrab(socketID uint32, msg wire.GrabMsg) {
	s.exec(func() {
		p, ok := s.players[socketID]
		if !ok {
			return
		}
		r, ok := s.rooms.Get(p.LevelID())
		if !ok {
			return
		}
		r.ProcessGrab(int(msg.FlagID), msg.Pos, socketID)
	})
}

// SendJoinGame validates and applies a JoinGame request.
func (s *Server) SendJoinGame(socketID uint32, req wire.JoinGameMsg) wire.InitGameDataMsg {
	reject := wire.InitGameDataMsg{Accepted: false, SocketID: socketID}
	var result wire.InitGameDataMsg
	s.exec(func() {
		cs, ok := s.clients[socketID]
		if !ok {
			result = reject
			return
		}
		if req.Level == 0 {
			result = reject
			return
		}
		r, ok := s.rooms.Get(req.Level)
		if !ok {
			result = reject
			return
		}
		if _, already := s.players[socketID]; already {
			result = reject
			return
		}

		name := req.Name
		if req.UseDiscordName && cs.identity.DisplayName != "" {
			name = cs.identity.DisplayName
		}
		if !chat.ValidName(name) {
			result = reject
			return
		}

		p := player.New(socketID, req.Level, name)
		s.players[socketID] = p
		r.AddPlayer(socketID)
		cs.levelID = req.Level
		cs.joined = true

		result = wire.InitGameDataMsg{Accepted: true, Level: req.Level, Name: name, SocketID: socketID}
	})
	return result
}

// SendChat runs text through the chat pipeline (or the command parser, for
// "/"-prefixed text) and returns a private reply to deliver only to the
// sender, or nil when the message was broadcast (or silently dropped).
func (s *Server) SendChat(ctx context.Context, socketID uint32, text string) *wire.ChatMsg {
	var reply *wire.ChatMsg
	s.exec(func() {
		p, ok := s.players[socketID]
		if !ok {
			return
		}
		cs := s.clients[socketID]

		if strings.HasPrefix(text, "/") {
			if pc, ok := chat.ParseCommand(text); ok {
				s.runCommandLocked(pc, p, cs)
			}
			return
		}

		r, ok := s.rooms.Get(p.LevelID())
		if !ok {
			return
		}

		res := s.chat.AddMessage(ctx, text, cs.accountID, p.DisplayName(), r.Name(), cs.ip, s.store)
		if res.Notice != "" {
			reply = &wire.ChatMsg{Message: res.Notice, Sender: "[Server]", SocketID: socketID, IsServer: true}
			return
		}
		if res.IsSpam || res.Accepted == "" {
			return
		}

		frame := wire.EncodeUncompressed(&wire.Sm64JsMsg{Chat: &wire.ChatMsg{
			Message:  res.Accepted,
			Sender:   p.DisplayName(),
			SocketID: socketID,
			IsAdmin:  cs.identity.IsAdmin,
		}})
		for _, dest := range r.LivePlayerIDs(s.lookup) {
			s.send(dest, frame)
		}
	})
	return reply
}

func (s *Server) runCommandLocked(pc chat.ParsedCommand, p *player.Player, cs *clientState) {
	caps := make([]chat.Capability, 0, len(cs.identity.Capabilities))
	for _, c := range cs.identity.Capabilities {
		caps = append(caps, chat.Capability(c))
	}
	if !chat.HasCapability(caps, pc.Command.Capability) {
		return
	}
	switch pc.Command.Name {
	case "ANNOUNCEMENT":
		r, ok := s.rooms.Get(p.LevelID())
		if !ok {
			return
		}
		frame := wire.EncodeUncompressed(&wire.Sm64JsMsg{Announcement: &wire.AnnouncementMsg{
			Message: pc.Arg,
			Timer:   300,
		}})
		for _, dest := range r.LivePlayerIDs(s.lookup) {
			s.send(dest, frame)
		}
	}
}

// SendSkin stores skinData on socketID's Player.
func (s *Server) SendSkin(socketID uint32, msg wire.SkinMsg) {
	s.exec(func() {
		p, ok := s.players[socketID]
		if !ok {
			return
		}
		p.SetSkin(msg.SkinData)
	})
}

// SendRequestCosmetics returns every skin currently set in the sender's
// Room.
func (s *Server) SendRequestCosmetics(socketID uint32) []wire.SkinMsg {
	var out []wire.SkinMsg
	s.exec(func() {
		p, ok := s.players[socketID]
		if !ok {
			return
		}
		r, ok := s.rooms.Get(p.LevelID())
		if !ok {
			return
		}
		out = r.GetAllSkinData(s.lookup)
	})
	return out
}

// BroadcastLobbyData pushes frame to every connected client that hasn't
// joined a level yet.
func (s *Server) BroadcastLobbyData(frame []byte) {
	s.exec(func() {
		for id, cs := range s.clients {
			if !cs.joined {
				s.send(id, frame)
			}
		}
	})
}

// accountLink renders the "[<name>](<base-url>/api/account?account_id=<id>)"
// entry format from spec.md §6, prefixed with a star for in-game admins.
func accountLink(baseURL, name string, accountID int64, isAdmin bool) string {
	var b strings.Builder
	if isAdmin {
		b.WriteString("🌟 ")
	}
	fmt.Fprintf(&b, "[%s](%s/api/account?account_id=%d)", name, baseURL, accountID)
	return b.String()
}

// Tick runs one game-loop iteration: process_flags then broadcast_snapshot
// for every Room, in parallel, per spec.md §4.7 ("safe to run in parallel
// across rooms"). gameloop.Loop calls this once per ~33ms tick.
func (s *Server) Tick(ctx context.Context) error {
	var err error
	s.exec(func() {
		g, _ := errgroup.WithContext(ctx)
		s.rooms.Each(func(r *room.Room) {
			g.Go(func() error {
				r.ProcessFlags()
				return r.BroadcastSnapshot(s.lookup, s.send)
			})
		})
		err = g.Wait()
	})
	return err
}

// BroadcastSkinsAndLobby runs the game loop's ~1s cadence: per-room skin
// updates, plus a single lobby-wide PlayerLists broadcast (every room's
// ValidPlayers listing) to every session that hasn't joined a level yet.
func (s *Server) BroadcastSkinsAndLobby() {
	s.exec(func() {
		var games []wire.ValidPlayersMsg
		s.rooms.Each(func(r *room.Room) {
			r.BroadcastSkinUpdates(s.lookup, s.send)
			games = append(games, r.EmitValidPlayers(s.lookup, s.send))
		})

		frame := wire.EncodeUncompressed(&wire.Sm64JsMsg{PlayerLists: &wire.PlayerListsMsg{Games: games}})
		for id, cs := range s.clients {
			if !cs.joined {
				s.send(id, frame)
			}
		}
	})
}

// KickByAccountId closes accountID's session, if connected. Returns
// whether a session was found.
func (s *Server) KickByAccountId(accountID int64) bool {
	var found bool
	s.exec(func() {
		id, ok := s.accountIndex[accountID]
		if !ok {
			return
		}
		found = true
		s.clients[id].sess.Close()
		s.removeClientLocked(id)
	})
	return found
}

// KickByIp closes every session connected from ip. Returns the count
// kicked.
func (s *Server) KickByIp(ip string) int {
	count := 0
	s.exec(func() {
		var matched []uint32
		for id, cs := range s.clients {
			if cs.ip == ip {
				matched = append(matched, id)
			}
		}
		for _, id := range matched {
			s.clients[id].sess.Close()
			s.removeClientLocked(id)
			count++
		}
	})
	return count
}

// GetPlayers snapshots every currently-connected player.
func (s *Server) GetPlayers() []PlayerSnapshot {
	var out []PlayerSnapshot
	s.exec(func() {
		out = make([]PlayerSnapshot, 0, len(s.players))
		for id, p := range s.players {
			cs := s.clients[id]
			out = append(out, PlayerSnapshot{
				SocketID:    id,
				AccountID:   cs.accountID,
				DisplayName: p.DisplayName(),
				LevelID:     p.LevelID(),
				IP:          cs.ip,
			})
		}
	})
	return out
}

// SendPlayerList assembles the moderation-webhook player-list embed from
// every non-empty Room and hands it to the configured WebhookSink,
// enforcing the field-count and embed-size caps from spec.md §4.2 /
// server.rs's SendPlayerList handler (25 fields, 6000 embed bytes, with a
// 100-byte headroom reserved for title/author).
func (s *Server) SendPlayerList(ctx context.Context) error {
	if s.webhook == nil {
		return nil
	}
	var fields []PlayerListField
	s.exec(func() {
		sum := 100
		fieldCount := 0
		s.rooms.Each(func(r *room.Room) {
			if fieldCount >= 25 || sum >= room.MaxEmbedBytes {
				return
			}
			ids := r.LivePlayerIDs(s.lookup)
			if len(ids) == 0 {
				return
			}

			lines := make([]string, 0, len(ids))
			for _, id := range ids {
				p, ok := s.players[id]
				if !ok {
					continue
				}
				cs := s.clients[id]
				lines = append(lines, accountLink(s.baseURL, p.DisplayName(), cs.accountID, cs.identity.IsAdmin))
			}
			value := strings.Join(lines, "\n")
			if len(value) > room.MaxFieldValueBytes {
				value = value[:room.MaxFieldValueBytes]
			}

			cost := len(r.Name()) + len(value)
			if sum+cost > room.MaxEmbedBytes {
				return
			}
			sum += cost
			fieldCount++
			fields = append(fields, PlayerListField{RoomName: r.Name(), Count: len(ids), Value: value})
		})
	})
	if err := s.webhook.Send(ctx, fields); err != nil {
		return fmt.Errorf("gameserver: send player list: %w", err)
	}
	return nil
}

