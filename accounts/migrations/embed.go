// Package migrations embeds the accounts schema's goose migration files.
//
// udisondev-la2go's db.RunMigrations calls goose against a sibling
// migrations package analogous to this one, but that package's own SQL
// files weren't present in the retrieval pack alongside migrate.go — only
// the caller pattern was available to copy. The .sql files below follow
// goose's own documented migration-file convention instead.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
