package accounts

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/sm64js/realtime-server/accounts/migrations"
)

var gooseSetupOnce sync.Once

// RunMigrations applies every pending accounts-schema migration against
// dsn. Safe to call on every process start; goose tracks what's already
// applied.
func RunMigrations(ctx context.Context, dsn string) error {
	var setupErr error
	gooseSetupOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		setupErr = goose.SetDialect("postgres")
	})
	if setupErr != nil {
		return fmt.Errorf("accounts: configure goose: %w", setupErr)
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("accounts: open migration connection: %w", err)
	}
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("accounts: run migrations: %w", err)
	}
	return nil
}
