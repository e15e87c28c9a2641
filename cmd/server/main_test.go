package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestCommands_EndToEnd(t *testing.T) {
	// GIVEN: A fresh database file
	// WHEN: Registering a user, importing a backup, claiming and exporting
	// THEN: Each command sees the previous one's writes

	dir := t.TempDir()
	db := filepath.Join(dir, "cal.db")
	backup := filepath.Join(dir, "backup.json")
	require.NoError(t, os.WriteFile(backup, []byte(`{"events": {
		"2024-01-05": [{"id": 1, "title": "Jan", "type": "addCasualLeave"}],
		"2024-01-13": [{"id": 2, "title": "Worked Saturday", "type": "extraDay"}]
	}}`), 0o600))

	out := run(t, "--db", db, "--log-level", "error", "user", "add", "ana@example.com", "Ana")
	assert.Contains(t, out, "user 1: Ana <ana@example.com>")

	out = run(t, "--db", db, "--log-level", "error", "import", "--user", "1", "--in", backup)
	assert.Contains(t, out, "imported 2 events")
	assert.NotContains(t, out, "warning")

	out = run(t, "--db", db, "--log-level", "error", "ledger", "--user", "1")
	assert.Contains(t, out, `"casual_earned": 1`)
	assert.Contains(t, out, `"extra_remaining": 1`)

	exported := filepath.Join(dir, "out.json")
	run(t, "--db", db, "--log-level", "error", "export", "--user", "1", "--out", exported)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Worked Saturday"`)
	assert.Contains(t, string(data), `"leaveBalance"`)
}

func TestApplyFlags_Invalid(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--log-format", "xml", "ledger", "--user", "1"})

	assert.Error(t, rootCmd.Execute())
}
