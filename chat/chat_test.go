package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMuter struct {
	mutedAccount int64
	mutedFor     time.Duration
	called       bool
}

func (m *fakeMuter) MuteAccount(_ context.Context, accountID int64, duration time.Duration) error {
	m.called = true
	m.mutedAccount = accountID
	m.mutedFor = duration
	return nil
}

func TestSanitizeStripsDisallowedCharacters(t *testing.T) {
	assert.Equal(t, "hello world", sanitize("hello world"))
	assert.Equal(t, "hello", sanitize("hello\x00\x01"))
}

func TestCensorMasksWholeWordsNotSubstrings(t *testing.T) {
	assert.Equal(t, "****", censor("damn"))
	assert.Equal(t, "hello", censor("hello"), "must not mask inside unrelated words like \"hell\"+\"o\"")
}

func TestAddMessagePlainTextAccepted(t *testing.T) {
	h := NewHistory()
	res := h.AddMessage(context.Background(), "hello room", 1, "Mario", "Lobby", "1.2.3.4", nil)
	assert.Equal(t, "hello room", res.Accepted)
	assert.False(t, res.IsSpam)
	assert.Empty(t, res.Notice)
}

func TestAddMessageSpamDetectedAtThreshold(t *testing.T) {
	h := NewHistory()
	ctx := context.Background()
	for i := 0; i < SpamThreshold; i++ {
		h.AddMessage(ctx, "msg", 1, "Mario", "Lobby", "1.2.3.4", nil)
	}
	res := h.AddMessage(ctx, "one too many", 1, "Mario", "Lobby", "1.2.3.4", nil)
	assert.Equal(t, noticeSpam, res.Notice)
	assert.Empty(t, res.Accepted)
}

func TestAddMessageDifferentAccountsDontInterfere(t *testing.T) {
	h := NewHistory()
	ctx := context.Background()
	for i := 0; i < SpamThreshold; i++ {
		h.AddMessage(ctx, "msg", 1, "Mario", "Lobby", "1.2.3.4", nil)
	}
	res := h.AddMessage(ctx, "hi", 2, "Luigi", "Lobby", "1.2.3.5", nil)
	assert.Empty(t, res.Notice)
	assert.Equal(t, "hi", res.Accepted)
}

func TestAddMessageExcessiveSpamMutesAccount(t *testing.T) {
	h := NewHistory()
	ctx := context.Background()
	muter := &fakeMuter{}
	for i := 0; i < ExcessiveSpamThreshold; i++ {
		h.AddMessage(ctx, "msg", 1, "Mario", "Lobby", "1.2.3.4", muter)
	}
	res := h.AddMessage(ctx, "one more", 1, "Mario", "Lobby", "1.2.3.4", muter)
	require.True(t, muter.called)
	assert.Equal(t, int64(1), muter.mutedAccount)
	assert.Equal(t, ExcessiveSpamMuteFor, muter.mutedFor)
	assert.Equal(t, noticeExcessiveSpam, res.Notice)
}

func TestAddMessageScreamingDetected(t *testing.T) {
	h := NewHistory()
	res := h.AddMessage(context.Background(), "THIS IS VERY LOUD", 1, "Mario", "Lobby", "1.2.3.4", nil)
	assert.Equal(t, noticeScreaming, res.Notice)
}

func TestAddMessageShortUppercaseIsNotScreaming(t *testing.T) {
	h := NewHistory()
	res := h.AddMessage(context.Background(), "HI", 1, "Mario", "Lobby", "1.2.3.4", nil)
	assert.Empty(t, res.Notice)
	assert.Equal(t, "HI", res.Accepted)
}

func TestGetReturnsOldestFirstWithinLimit(t *testing.T) {
	h := NewHistory()
	ctx := context.Background()
	h.AddMessage(ctx, "one", 1, "Mario", "Lobby", "1.2.3.4", nil)
	h.AddMessage(ctx, "two", 1, "Mario", "Lobby", "1.2.3.4", nil)
	h.AddMessage(ctx, "three", 1, "Mario", "Lobby", "1.2.3.4", nil)

	out := h.Get(Query{Limit: 2})
	require.Len(t, out, 2)
	assert.Equal(t, "two", out[0].Text)
	assert.Equal(t, "three", out[1].Text)
}

func TestParseCommandKnownAndUnknown(t *testing.T) {
	pc, ok := ParseCommand("/ANNOUNCEMENT server restarting soon")
	require.True(t, ok)
	assert.Equal(t, "ANNOUNCEMENT", pc.Command.Name)
	assert.Equal(t, "server restarting soon", pc.Arg)

	_, ok = ParseCommand("/unknowncommand arg")
	assert.False(t, ok)

	_, ok = ParseCommand("not a command")
	assert.False(t, ok)
}

func TestValidNameLengthBoundaries(t *testing.T) {
	assert.False(t, ValidName("ab"), "2 chars is below the 3-char minimum")
	assert.True(t, ValidName("abc"), "3 chars is the minimum")
	assert.True(t, ValidName("abcdefghijklmn"), "14 chars is the maximum")
	assert.False(t, ValidName("abcdefghijklmno"), "15 chars is above the maximum")
}

func TestValidNameRejectsServerToken(t *testing.T) {
	assert.False(t, ValidName("SeRvEr"))
	assert.False(t, ValidName("xSERVERx"))
}

func TestValidNameRejectsProfanityOrDisallowedChars(t *testing.T) {
	assert.False(t, ValidName("shit"), "censoring would change the name")
	assert.False(t, ValidName("na\x00me"), "sanitizing would change the name")
}

func TestHasCapability(t *testing.T) {
	assert.True(t, HasCapability([]Capability{SendAnnouncement}, SendAnnouncement))
	assert.False(t, HasCapability([]Capability{}, SendAnnouncement))
}
