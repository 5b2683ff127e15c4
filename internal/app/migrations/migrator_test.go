package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationVersion(t *testing.T) {
	assert.Equal(t, "001", migrationVersion("001_init.sql"))
	assert.Equal(t, "010", migrationVersion("sql/010_add_reminders.sql"))
}

func TestPendingFilesSorted(t *testing.T) {
	files := fstest.MapFS{
		"002_b.sql": {Data: []byte("SELECT 1;")},
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"README.md": {Data: []byte("docs")},
		"sub/x.sql": {Data: []byte("SELECT 1;")},
	}
	got, err := pendingFiles(files)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, got)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	got, err := pendingFiles(Files())
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "001", migrationVersion(got[0]))
}
