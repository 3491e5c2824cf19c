package database

import (
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readUp(t *testing.T, version uint) string {
	t.Helper()
	source, err := iofs.New(migrations, "migrations")
	require.NoError(t, err)
	defer source.Close()

	body, _, err := source.ReadUp(version)
	require.NoError(t, err)
	defer body.Close()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	return string(raw)
}

func TestMigrationsArePaired(t *testing.T) {
	source, err := iofs.New(migrations, "migrations")
	require.NoError(t, err)
	defer source.Close()

	version, err := source.First()
	require.NoError(t, err)
	var versions []uint
	for {
		versions = append(versions, version)
		down, _, err := source.ReadDown(version)
		require.NoError(t, err, "version %d has no down migration", version)
		down.Close()

		version, err = source.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, []uint{1, 2, 3}, versions)
}

func TestDeletingActivityLeavesCommittedEntries(t *testing.T) {
	schema := readUp(t, 3)

	var activityColumn string
	for _, line := range strings.Split(schema, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "activity_id") {
			activityColumn = line
		}
	}
	require.NotEmpty(t, activityColumn)
	assert.NotContains(t, activityColumn, "REFERENCES activities")
	assert.Contains(t, schema, "idx_timetable_entries_activity")
}
