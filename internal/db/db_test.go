package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderMigrationSubstitutesDim(t *testing.T) {
	content, err := fs.ReadFile(migrationsFS, "migrations/0001_init.sql")
	require.NoError(t, err)
	require.Contains(t, string(content), "vector({{dim}})",
		"vector columns must take their width from config, not a literal")

	rendered := renderMigration(string(content), 768)
	require.Contains(t, rendered, "vector(768)")
	require.NotContains(t, rendered, "{{dim}}")
}

func TestMigrationFilesSorted(t *testing.T) {
	files, err := migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for i := 1; i < len(files); i++ {
		require.True(t, strings.Compare(files[i-1], files[i]) < 0)
	}
}
