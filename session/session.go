// Package session implements one WebSocket connection's read/write pumps,
// heartbeat/AFK bookkeeping, and inbound-message dispatch, per spec.md
// §4.4 and §4.8.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sm64js/realtime-server/wire"
)

// Heartbeat/AFK timeouts, per spec.md §4.4. These supersede the original
// Rust implementation's much shorter 5s/10s intervals.
const (
	PongTimeout     = 120 * time.Second
	FrameTimeout    = 120 * time.Second
	MovementTimeout = 300 * time.Second

	watchdogInterval = 5 * time.Second
	writeTimeout     = 10 * time.Second
	pingInterval     = 54 * time.Second
	sendBuffer       = 256

	// movementSampleInterval is how many inbound Mario frames pass between
	// AFK movement samples (~once per second at the ~30 Hz tick rate), so
	// per-frame jitter can't mask a stuck player.
	movementSampleInterval = 30
)

// Conn is the subset of *websocket.Conn this package depends on. Exported
// so callers outside this package (and its own tests) can substitute a
// fake connection, e.g. for deterministic gameserver tests that don't need
// a live socket.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Handler dispatches decoded inbound messages and close notifications.
// gameserver.Server implements this.
type Handler interface {
	HandleMessage(sess *Session, msg *wire.Sm64JsMsg)
	HandleClose(sess *Session)
}

// Session is one connected client's transport: WebSocket framing, outbound
// queue, and AFK/heartbeat tracking. A Session has no socket id until the
// owning Handler assigns one via SetSocketID (gameserver.Server.Connect
// does so at connect time, before any JoinGame).
type Session struct {
	conn      Conn
	AccountID int64
	IP        string

	send   chan []byte
	closed chan struct{}
	once   sync.Once

	mu            sync.RWMutex
	socketID      uint32
	lastPong      time.Time
	lastFrame     time.Time
	lastMovement  time.Time
	lastPos       wire.Vec3
	havePos       bool
	marioFrameNum uint32
}

// New wraps conn for accountID connecting from ip.
func New(conn *websocket.Conn, accountID int64, ip string) *Session {
	return NewWithConn(conn, accountID, ip)
}

// NewWithConn is New generalized over the Conn interface, for tests that
// substitute a fake connection.
func NewWithConn(conn Conn, accountID int64, ip string) *Session {
	now := time.Now()
	return &Session{
		conn:         conn,
		AccountID:    accountID,
		IP:           ip,
		send:         make(chan []byte, sendBuffer),
		closed:       make(chan struct{}),
		lastPong:     now,
		lastFrame:    now,
		lastMovement: now,
	}
}

// SocketID returns the session's assigned socket id, or 0 before one has
// been assigned.
func (s *Session) SocketID() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.socketID
}

// SetSocketID assigns the socket id the Server allocated for this session.
func (s *Session) SetSocketID(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.socketID = id
}

// Enqueue queues frame for delivery to the client. If the outbound buffer
// is full the frame is dropped and a warning logged, matching the
// teacher's broadcast-channel-full behavior rather than blocking the
// caller indefinitely.
func (s *Session) Enqueue(frame []byte) {
	select {
	case s.send <- frame:
	default:
		log.Printf("session: outbound buffer full for socket %d, dropping frame", s.SocketID())
	}
}

// Close shuts the session down; safe to call multiple times and from any
// goroutine.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}

// Done reports when the session has closed.
func (s *Session) Done() <-chan struct{} {
	return s.closed
}

// Outbound exposes the session's send queue directly, for tests that need
// to inspect a specific enqueued frame without running the write pump.
func (s *Session) Outbound() <-chan []byte {
	return s.send
}

// Serve runs the read pump, write pump, and heartbeat watchdog until the
// connection closes or ctx is canceled. It blocks until all three exit.
func (s *Session) Serve(ctx context.Context, handler Handler) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		s.readPump(handler)
	}()
	go func() {
		defer wg.Done()
		s.writePump()
	}()
	go func() {
		defer wg.Done()
		s.watchdog(ctx)
	}()

	wg.Wait()
	handler.HandleClose(s)
}

func (s *Session) readPump(handler Handler) {
	defer s.Close()

	s.conn.SetReadDeadline(time.Now().Add(PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.mu.Lock()
		s.lastPong = time.Now()
		s.mu.Unlock()
		s.conn.SetReadDeadline(time.Now().Add(PongTimeout))
		return nil
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("session: read error on socket %d: %v", s.SocketID(), err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		s.mu.Lock()
		s.lastFrame = time.Now()
		s.mu.Unlock()

		msg, err := wire.Decode(data)
		if err != nil {
			log.Printf("session: decode error on socket %d: %v", s.SocketID(), err)
			continue
		}

		if msg.Ping != nil {
			s.Enqueue(data)
			continue
		}

		if msg.Mario != nil {
			s.noteMovement(msg.Mario.Pos)
		}

		handler.HandleMessage(s, msg)
	}
}

// noteMovement samples at most once every movementSampleInterval inbound
// Mario frames, refreshing lastMovement only when the reported position
// actually differs from the last sampled one, so standing still (even
// while sending frames every tick) counts toward the AFK timeout and
// per-frame jitter can't keep resetting it.
func (s *Session) noteMovement(pos wire.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marioFrameNum++
	if s.marioFrameNum%movementSampleInterval != 0 {
		return
	}
	if !s.havePos || pos != s.lastPos {
		s.lastMovement = time.Now()
		s.lastPos = pos
		s.havePos = true
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.closed:
			return
		}
	}
}

func (s *Session) watchdog(ctx context.Context) {
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.closed:
			return
		case <-ticker.C:
			if s.timedOut(time.Now()) {
				s.Close()
				return
			}
		}
	}
}

// timedOut reports whether, as of now, the session has exceeded any of the
// three heartbeat/AFK limits.
func (s *Session) timedOut(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastPong) > PongTimeout ||
		now.Sub(s.lastFrame) > FrameTimeout ||
		now.Sub(s.lastMovement) > MovementTimeout
}
