// Package migrations embeds SQL migration files into the binary so Keyline
// can upgrade its activity log schema without the files present on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/keyline-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
