package postgres

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/pkaminski/vocadrill/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createTableRe = regexp.MustCompile(`(?s)CREATE TABLE (\w+) \((.*?)\);`)

// migrationColumns parses every embedded migration and returns the declared
// column names per table.
func migrationColumns(t *testing.T) map[string]map[string]bool {
	t.Helper()

	tables := make(map[string]map[string]bool)
	err := fs.WalkDir(migrations.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return err
		}
		data, readErr := fs.ReadFile(migrations.FS, path)
		if readErr != nil {
			return readErr
		}
		for _, m := range createTableRe.FindAllStringSubmatch(string(data), -1) {
			cols := make(map[string]bool)
			for _, line := range strings.Split(m[2], "\n") {
				fields := strings.Fields(strings.TrimSpace(line))
				if len(fields) == 0 {
					continue
				}
				// Column definitions start with a lowercase identifier;
				// constraint clauses and CHECK continuations start with an
				// uppercase keyword.
				name := fields[0]
				if name != strings.ToLower(name) {
					continue
				}
				cols[name] = true
			}
			tables[m[1]] = cols
		}
		return nil
	})
	require.NoError(t, err)
	return tables
}

// TestScanListsMatchSchema guards against drift between the stores' shared
// column lists and the migrated schema: a column referenced by a query but
// absent from the table fails every statement against a real database.
func TestScanListsMatchSchema(t *testing.T) {
	t.Parallel()

	tables := migrationColumns(t)

	tests := []struct {
		table   string
		columns string
	}{
		{"users", userColumns},
		{"words", wordColumns},
		{"study_sessions", sessionColumns},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.table, func(t *testing.T) {
			t.Parallel()

			declared := tables[tt.table]
			require.NotEmpty(t, declared, "table %s missing from migrations", tt.table)
			for _, col := range strings.Split(tt.columns, ",") {
				col = strings.TrimSpace(col)
				assert.True(t, declared[col], "column %q not declared for table %s", col, tt.table)
			}
		})
	}
}
