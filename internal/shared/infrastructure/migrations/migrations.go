// Package migrations embeds the schema for both database drivers and applies
// it in file-name order, recording each applied file in schema_migrations.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationFS embed.FS

// Migration is one embedded .up.sql file.
type Migration struct {
	Version string
	SQL     string
}

// Load returns the migrations for a driver directory ("sqlite" or "postgres")
// sorted by version.
func Load(dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		body, err := fs.ReadFile(migrationFS, dir+"/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, Migration{
			Version: strings.TrimSuffix(entry.Name(), ".up.sql"),
			SQL:     string(body),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}
