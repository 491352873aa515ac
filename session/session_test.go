package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sm64js/realtime-server/wire"
)

type fakeConn struct {
	mu       sync.Mutex
	inbound  [][]byte
	readPos  int
	closed   bool
	written  [][]byte
	pongFunc func(string) error
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.readPos >= len(f.inbound) && !f.closed {
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
		f.mu.Lock()
	}
	if f.closed && f.readPos >= len(f.inbound) {
		return 0, nil, errClosed
	}
	msg := f.inbound[f.readPos]
	f.readPos++
	return 2, msg, nil // websocket.BinaryMessage == 2
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(h func(string) error) {
	f.pongFunc = h
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }

const errClosed = errString("fake conn closed")

type recordingHandler struct {
	mu       sync.Mutex
	messages []*wire.Sm64JsMsg
	closed   bool
}

func (h *recordingHandler) HandleMessage(_ *Session, msg *wire.Sm64JsMsg) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

func (h *recordingHandler) HandleClose(*Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func TestSocketIDAssignment(t *testing.T) {
	s := NewWithConn(&fakeConn{}, 1, "127.0.0.1")
	assert.Equal(t, uint32(0), s.SocketID())
	s.SetSocketID(42)
	assert.Equal(t, uint32(42), s.SocketID())
}

func TestTimedOutPongExpiry(t *testing.T) {
	s := NewWithConn(&fakeConn{}, 1, "127.0.0.1")
	now := time.Now()
	assert.False(t, s.timedOut(now))
	assert.True(t, s.timedOut(now.Add(PongTimeout+time.Second)))
}

func TestTimedOutMovementExpiryIndependentOfFrames(t *testing.T) {
	s := NewWithConn(&fakeConn{}, 1, "127.0.0.1")
	now := time.Now()

	s.mu.Lock()
	s.lastFrame = now
	s.lastPong = now
	s.lastMovement = now.Add(-(MovementTimeout + time.Second))
	s.mu.Unlock()

	assert.True(t, s.timedOut(now))
}

// sampleMovement drives noteMovement through a full movementSampleInterval
// worth of frames at pos, so only the last call actually samples.
func sampleMovement(s *Session, pos wire.Vec3) {
	for i := 0; i < movementSampleInterval; i++ {
		s.noteMovement(pos)
	}
}

func TestNoteMovementSamplesOnceWithinAnInterval(t *testing.T) {
	s := NewWithConn(&fakeConn{}, 1, "127.0.0.1")
	s.mu.Lock()
	s.lastMovement = time.Time{}
	s.mu.Unlock()

	s.noteMovement(wire.Vec3{X: 1, Y: 2, Z: 3})

	s.mu.RLock()
	unchanged := s.lastMovement
	s.mu.RUnlock()
	assert.True(t, unchanged.IsZero(), "a single frame within the sample interval must not refresh lastMovement")

	for i := 1; i < movementSampleInterval; i++ {
		s.noteMovement(wire.Vec3{X: 1, Y: 2, Z: 3})
	}

	s.mu.RLock()
	sampled := s.lastMovement
	s.mu.RUnlock()
	assert.False(t, sampled.IsZero(), "the movementSampleInterval-th frame must sample")
}

func TestNoteMovementOnlyUpdatesOnPositionChange(t *testing.T) {
	s := NewWithConn(&fakeConn{}, 1, "127.0.0.1")
	sampleMovement(s, wire.Vec3{X: 1, Y: 2, Z: 3})

	s.mu.RLock()
	first := s.lastMovement
	s.mu.RUnlock()

	time.Sleep(5 * time.Millisecond)
	sampleMovement(s, wire.Vec3{X: 1, Y: 2, Z: 3})

	s.mu.RLock()
	second := s.lastMovement
	s.mu.RUnlock()

	assert.Equal(t, first, second, "identical position must not refresh lastMovement")

	time.Sleep(5 * time.Millisecond)
	sampleMovement(s, wire.Vec3{X: 9, Y: 9, Z: 9})

	s.mu.RLock()
	third := s.lastMovement
	s.mu.RUnlock()
	assert.True(t, third.After(second))
}

func TestEnqueueDropsWhenBufferFull(t *testing.T) {
	s := NewWithConn(&fakeConn{}, 1, "127.0.0.1")
	for i := 0; i < sendBuffer; i++ {
		s.Enqueue([]byte{byte(i)})
	}
	// One more over capacity must not block.
	done := make(chan struct{})
	go func() {
		s.Enqueue([]byte("overflow"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked instead of dropping")
	}
}

func TestReadPumpEchoesPingAndDispatchesMario(t *testing.T) {
	pingFrame := wire.EncodeUncompressed(&wire.Sm64JsMsg{Ping: &wire.PingMsg{}})
	marioFrame := wire.EncodeUncompressed(&wire.Sm64JsMsg{Mario: &wire.MarioMsg{SocketID: 7}})

	conn := &fakeConn{inbound: [][]byte{pingFrame, marioFrame}}
	s := NewWithConn(conn, 1, "127.0.0.1")
	h := &recordingHandler{}

	go s.readPump(h)

	require.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return conn.readPos >= 2
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.messages) == 1
	}, time.Second, time.Millisecond)

	select {
	case frame := <-s.send:
		assert.Equal(t, pingFrame, frame)
	case <-time.After(time.Second):
		t.Fatal("ping echo was never enqueued")
	}

	conn.Close()
}
