package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/valuebot/config"
	"github.com/alejandrodnm/valuebot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCycles(t *testing.T) {
	var buf bytes.Buffer
	cycles := []domain.CycleSummary{
		{ID: "c2", StartedAt: time.Now(), Duration: 1500 * time.Millisecond, Sports: 9, Events: 40, EventsInWindow: 12, Alerts: 2, LedgerSize: 5},
		{ID: "c1", StartedAt: time.Now().Add(-10 * time.Minute), Sports: 9, SportsFailed: 1, Events: 38, Alerts: 1, Duplicates: 1, LedgerSize: 3},
	}

	require.NoError(t, renderCycles(&buf, cycles))

	out := buf.String()
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "2 cycles · 3 alerts · 1 failed fetches")
}

func TestRenderCycles_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderCycles(&buf, nil))
	assert.Equal(t, "no cycles recorded\n", buf.String())
}

func TestPrintHistory_RejectsNonSQLiteDriver(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "valuebot.db")
	var buf bytes.Buffer

	for _, driver := range []string{"redis", "memory"} {
		err := printHistory(context.Background(), &buf, config.StorageConfig{Driver: driver, DSN: dsn}, time.Hour)
		require.Error(t, err)
		assert.Contains(t, err.Error(), driver)
	}

	assert.Empty(t, buf.String())
	_, err := os.Stat(dsn)
	assert.True(t, os.IsNotExist(err), "no crea una base vacía")
}

func TestPrintHistory_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "valuebot.db")
	var buf bytes.Buffer

	require.NoError(t, printHistory(context.Background(), &buf, config.StorageConfig{Driver: "sqlite", DSN: dsn}, time.Hour))
	assert.Equal(t, "no cycles recorded\n", buf.String())
}
