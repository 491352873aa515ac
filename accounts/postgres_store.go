package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Store backing, one pgxpool.Pool shared
// across every method.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore returns a PostgresStore over pool. The caller owns pool
// and must close it.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) AuthFromCookie(ctx context.Context, cookie string) (Identity, error) {
	var id Identity
	row := s.pool.QueryRow(ctx, `
		SELECT account_id, display_name, is_admin, capabilities
		FROM sessions
		JOIN accounts USING (account_id)
		WHERE cookie = $1 AND expires_at > now()`, cookie)
	if err := row.Scan(&id.AccountID, &id.DisplayName, &id.IsAdmin, &id.Capabilities); err != nil {
		if err == pgx.ErrNoRows {
			return Identity{}, ErrNotFound
		}
		return Identity{}, fmt.Errorf("accounts: auth from cookie: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) IsBanned(ctx context.Context, accountID int64) (bool, error) {
	var banned bool
	row := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM bans
			WHERE account_id = $1 AND (expires_at IS NULL OR expires_at > now())
		)`, accountID)
	if err := row.Scan(&banned); err != nil {
		return false, fmt.Errorf("accounts: is banned: %w", err)
	}
	return banned, nil
}

func (s *PostgresStore) IsMuted(ctx context.Context, accountID int64) (bool, error) {
	var muted bool
	row := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM mutes
			WHERE account_id = $1 AND expires_at > now()
		)`, accountID)
	if err := row.Scan(&muted); err != nil {
		return false, fmt.Errorf("accounts: is muted: %w", err)
	}
	return muted, nil
}

func (s *PostgresStore) MuteAccount(ctx context.Context, accountID int64, duration time.Duration) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO mutes (account_id, expires_at)
		VALUES ($1, now() + $2::interval)
		ON CONFLICT (account_id) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		accountID, duration.String())
	if err != nil {
		return fmt.Errorf("accounts: mute account: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendChat(ctx context.Context, entry ChatLogEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_log (ts, account_id, player_name, level_name, ip, message)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.Timestamp, entry.AccountID, entry.PlayerName, entry.LevelName, entry.IP, entry.Message)
	if err != nil {
		return fmt.Errorf("accounts: append chat: %w", err)
	}
	return nil
}
