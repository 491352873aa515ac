// Package accounts defines the Account Store collaborator spec.md treats
// as external (§1, §6): authentication-by-cookie, ban/mute queries, and
// chat-history append. The realtime core only depends on the Store
// interface; PostgresStore and MemoryStore are its two concrete backings.
package accounts

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a cookie or account id doesn't resolve to
// any known account.
var ErrNotFound = errors.New("accounts: not found")

// Identity is the authenticated identity behind a cookie: the account id
// used to key bans/mutes/chat history, a display name fallback, and the
// capability set used by chat's privileged command table.
type Identity struct {
	AccountID    int64
	DisplayName  string
	IsAdmin      bool
	Capabilities []string
}

// ChatLogEntry is one chat message as persisted for the moderation chat
// log, independent of the in-memory chat.History kept for live broadcast.
type ChatLogEntry struct {
	Timestamp  time.Time
	AccountID  int64
	PlayerName string
	LevelName  string
	IP         string
	Message    string
}

// Store is every Account Store capability the realtime core needs.
type Store interface {
	// AuthFromCookie resolves a session cookie to an Identity. Returns
	// ErrNotFound for an invalid or expired cookie.
	AuthFromCookie(ctx context.Context, cookie string) (Identity, error)

	// IsBanned reports whether accountID is currently banned.
	IsBanned(ctx context.Context, accountID int64) (bool, error)

	// IsMuted reports whether accountID is currently muted.
	IsMuted(ctx context.Context, accountID int64) (bool, error)

	// MuteAccount mutes accountID for duration, starting now.
	MuteAccount(ctx context.Context, accountID int64, duration time.Duration) error

	// AppendChat persists one chat log entry.
	AppendChat(ctx context.Context, entry ChatLogEntry) error
}
