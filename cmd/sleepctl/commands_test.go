package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"sleepctl"}, args...))
	return out.String(), err
}

func TestSuggest(t *testing.T) {
	out, err := runCLI(t, "suggest", "--at", "07:00", "--tz", "UTC", "--now", "2025-05-05T22:00:00Z")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "04:00 Tue 06 May"))
	assert.True(t, strings.HasPrefix(lines[3], "08:30 Tue 06 May"))
	assert.Contains(t, lines[3], "10h30m0s of sleep")
}

func TestSuggestLimitAndCycle(t *testing.T) {
	out, err := runCLI(t, "suggest", "--at", "23:00", "--cycle", "30m", "--limit", "0", "--tz", "UTC", "--now", "2025-05-05T22:00:00Z")
	require.NoError(t, err)
	// 22:30, 23:00 and the boundary past target, 23:30
	assert.Equal(t, 3, strings.Count(out, "\n"))
}

func TestSuggestRequiresAt(t *testing.T) {
	_, err := runCLI(t, "suggest", "--tz", "UTC")
	assert.Error(t, err)
}

func TestDelay(t *testing.T) {
	out, err := runCLI(t, "delay", "--hour", "22:00", "--tz", "UTC", "--now", "2025-05-05T21:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "1h0m0s (next at 2025-05-05T22:00:00Z)\n", out)

	out, err = runCLI(t, "delay", "--hour", "22:00", "--tz", "UTC", "--now", "2025-05-05T22:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "24h0m0s")

	_, err = runCLI(t, "delay", "--hour", "nope")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	out, err := runCLI(t, "migrate", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "applied 001_init.sql\n", out)
}

func TestSuggestRejectsBadCycle(t *testing.T) {
	_, err := runCLI(t, "suggest", "--at", "07:00", "--cycle", "5m", "--tz", "UTC")
	assert.Error(t, err)
}
