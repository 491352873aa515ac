package player

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sm64js/realtime-server/wire"
)

func TestNewPlayerHasNoFrameOrSkinYet(t *testing.T) {
	p := New(1, 9, "Mario")
	_, ok := p.GetFrame()
	assert.False(t, ok)
	_, ok = p.SkinData()
	assert.False(t, ok)
	_, ok = p.TakeUpdatedSkin()
	assert.False(t, ok)
}

func TestSetFrameThenGetFrame(t *testing.T) {
	p := New(1, 9, "Mario")
	p.SetFrame(wire.MarioMsg{SocketID: 1, Pos: wire.Vec3{X: 1, Y: 2, Z: 3}})
	f, ok := p.GetFrame()
	assert.True(t, ok)
	assert.Equal(t, float32(1), f.Pos.X)
}

func TestSetSkinMarksDirtyOnce(t *testing.T) {
	p := New(1, 9, "Mario")
	p.SetSkin([]byte{1, 2, 3})

	data, ok := p.TakeUpdatedSkin()
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)

	_, ok = p.TakeUpdatedSkin()
	assert.False(t, ok, "dirty flag must clear after being taken")

	// SkinData() always reflects the latest skin, dirty or not.
	data, ok = p.SkinData()
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)
}
