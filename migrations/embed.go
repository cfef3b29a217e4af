// Package migrations embeds the SQL migration files into the binary so
// deployments need no external schema directory.
package migrations

import (
	"embed"

	"github.com/nerrad567/irbridge-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
