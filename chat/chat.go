// Package chat implements the sanitize → censor → spam/scream-detect →
// history pipeline described in spec.md §4.6, plus the privileged in-chat
// command parser.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"
)

// allowedCharacters is the sanitize step's allow-list: alphanumerics,
// common punctuation, space, and a small emoji set. Ported from the
// original implementation's ALLOWED_CHARACTERS constant.
const allowedCharacters = "" +
	"abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 ?!@#$%^&*(){}[];:'\"\\|/,.<>-_=+`" +
	"😂🤣🤔🤨🙄😭😎🥶😤👍👎💀🗿🔥🎄🎃🔺🔻🤡🎪🎶🎵"

// Muter is the Account Store capability the excessive-spam detector needs.
// Kept as a narrow interface (rather than importing package accounts
// directly) so chat stays testable without a store.
type Muter interface {
	MuteAccount(ctx context.Context, accountID int64, duration time.Duration) error
}

// Thresholds, all from spec.md §4.6.
const (
	SpamWindow    = 15 * time.Second
	SpamThreshold = 3

	ExcessiveSpamWindow    = 60 * time.Second
	ExcessiveSpamThreshold = 30
	ExcessiveSpamMuteFor   = 300 * time.Second

	ScreamingMinLen = 5
	ScreamingRatio  = 0.7
)

// Message is one entry in a room's or the server's chat history.
type Message struct {
	Text      string
	Timestamp time.Time

	AccountID  int64
	PlayerName string
	LevelName  string
	IP         string

	Escaped       bool
	Censored      bool
	Spam          bool
	ExcessiveSpam bool
	Screaming     bool
}

// Result is the disposition of one AddMessage call. Exactly one of the
// three outcomes described in spec.md §4.6 applies.
type Result struct {
	// Accepted is the resulting (sanitized, censored) text to broadcast.
	// Empty iff the message should not be broadcast (either it reduced to
	// nothing or a notice applies instead).
	Accepted string
	IsSpam   bool

	// Notice, if non-empty, is a private reply to deliver only to the
	// sender (never broadcast).
	Notice string
}

var (
	noticeSpam          = "you must wait longer between messages"
	noticeExcessiveSpam = "muted for 5 minutes"
	noticeScreaming     = "please stop screaming"
)

// History is a time-ordered chat log. Safe for concurrent use.
type History struct {
	mu       sync.RWMutex
	messages []Message
}

// NewHistory returns an empty chat history.
func NewHistory() *History {
	return &History{}
}

// AddMessage runs the full pipeline against text and appends the resulting
// ChatMessage to history regardless of disposition (spam/scream notices
// are still recorded, matching the original implementation).
func (h *History) AddMessage(ctx context.Context, text string, accountID int64, playerName, levelName, ip string, muter Muter) Result {
	sanitized := sanitize(text)
	escaped := sanitized != text

	censored := censor(sanitized)
	wasCensored := censored != sanitized

	now := time.Now()

	h.mu.Lock()
	isSpam := h.countSince(now.Add(-SpamWindow), accountID, true) >= SpamThreshold
	isExcessiveSpam := h.countSince(now.Add(-ExcessiveSpamWindow), accountID, false) >= ExcessiveSpamThreshold

	isScreaming := false
	if len(text) > ScreamingMinLen {
		var alpha, upper int
		for _, r := range text {
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
				alpha++
				if r >= 'A' && r <= 'Z' {
					upper++
				}
			}
		}
		if alpha > 0 && float64(upper)/float64(alpha) > ScreamingRatio {
			isScreaming = true
		}
	}

	h.messages = append(h.messages, Message{
		Text:          censored,
		Timestamp:     now,
		AccountID:     accountID,
		PlayerName:    playerName,
		LevelName:     levelName,
		IP:            ip,
		Escaped:       escaped,
		Censored:      wasCensored,
		Spam:          isSpam,
		ExcessiveSpam: isExcessiveSpam,
		Screaming:     isScreaming,
	})
	h.mu.Unlock()

	if isExcessiveSpam {
		if muter != nil {
			_ = muter.MuteAccount(ctx, accountID, ExcessiveSpamMuteFor)
		}
		return Result{Notice: noticeExcessiveSpam}
	}
	if isSpam {
		return Result{Notice: noticeSpam}
	}
	if isScreaming {
		return Result{Notice: noticeScreaming}
	}

	return Result{Accepted: censored, IsSpam: false}
}

// countSince counts accountID's messages not older than since.
// skipAlreadySpam, when true, excludes messages already marked as spam
// (matching the spam detector's own exclusion; the excessive-spam detector
// counts every message in its window).
func (h *History) countSince(since time.Time, accountID int64, skipAlreadySpam bool) int {
	count := 0
	for i := len(h.messages) - 1; i >= 0; i-- {
		m := h.messages[i]
		if m.Timestamp.Before(since) {
			break
		}
		if m.AccountID != accountID {
			continue
		}
		if skipAlreadySpam && m.Spam {
			continue
		}
		count++
	}
	return count
}

// Query selects a range of chat history for the external moderation log
// API.
type Query struct {
	From, To   *time.Time
	Limit      int
	PlayerName string
}

// Get returns up to Limit (default 100) messages matching Query, newest
// first in processing order but returned oldest-first, matching the
// original get_messages contract.
func (h *History) Get(q Query) []Message {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []Message
	for i := len(h.messages) - 1; i >= 0; i-- {
		m := h.messages[i]
		if q.To != nil && !m.Timestamp.Before(*q.To) {
			continue
		}
		if q.From != nil && !m.Timestamp.After(*q.From) {
			break
		}
		if q.PlayerName != "" && m.PlayerName != q.PlayerName {
			continue
		}
		out = append(out, m)
		if len(out) >= limit {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ValidName reports whether name satisfies the JoinGame name policy from
// spec.md §4.5: length 3..=14, no case-insensitive "SERVER" substring, and
// the name must survive sanitization and censoring completely unchanged.
func ValidName(name string) bool {
	if len(name) < 3 || len(name) > 14 {
		return false
	}
	if strings.Contains(strings.ToUpper(name), "SERVER") {
		return false
	}
	sanitized := sanitize(name)
	if sanitized != name {
		return false
	}
	if censor(sanitized) != name {
		return false
	}
	return true
}

// sanitize retains only characters in allowedCharacters.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(allowedCharacters, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
