package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFromCookieUnknownReturnsErrNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.AuthFromCookie(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthFromCookieSeeded(t *testing.T) {
	s := NewMemoryStore()
	s.Seed("abc", Identity{AccountID: 7, DisplayName: "Mario"})

	id, err := s.AuthFromCookie(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.AccountID)
	assert.Equal(t, "Mario", id.DisplayName)
}

func TestIsBannedReflectsBan(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	banned, err := s.IsBanned(ctx, 1)
	require.NoError(t, err)
	assert.False(t, banned)

	s.Ban(1)
	banned, err = s.IsBanned(ctx, 1)
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestMuteAccountExpires(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.MuteAccount(ctx, 1, 50*time.Millisecond))
	muted, err := s.IsMuted(ctx, 1)
	require.NoError(t, err)
	assert.True(t, muted)

	time.Sleep(75 * time.Millisecond)
	muted, err = s.IsMuted(ctx, 1)
	require.NoError(t, err)
	assert.False(t, muted)
}

func TestAppendChatRecordsEntries(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.AppendChat(ctx, ChatLogEntry{AccountID: 1, Message: "hi"}))
	require.NoError(t, s.AppendChat(ctx, ChatLogEntry{AccountID: 1, Message: "there"}))

	log := s.ChatLog()
	require.Len(t, log, 2)
	assert.Equal(t, "hi", log[0].Message)
	assert.Equal(t, "there", log[1].Message)
}
