package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alejandrodnm/valuebot/internal/adapters/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requiere un Redis real: REDIS_ADDR=localhost:6379 go test ./...
func TestRedisLedger_ReplaceAndLoad(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	key := "valuebot:test:" + time.Now().Format("150405.000000")
	r, err := storage.NewRedisLedger(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0, key)
	require.NoError(t, err)
	defer r.Close()
	defer r.ReplaceKeys(ctx, nil)

	base := time.Now().UTC().Truncate(time.Millisecond)
	entries := makeEntries(20, base)
	require.NoError(t, r.ReplaceKeys(ctx, entries))

	loaded, err := r.LoadKeys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, keysOf(entries), keysOf(loaded))

	require.NoError(t, r.ReplaceKeys(ctx, entries[:2]))
	loaded, err = r.LoadKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestNewRedisLedger_RequiresAddr(t *testing.T) {
	_, err := storage.NewRedisLedger(context.Background(), "", "", 0, "")
	assert.Error(t, err)
}
