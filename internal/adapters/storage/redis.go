package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/valuebot/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "valuebot:ledger"

// RedisLedger implementa ports.LedgerStore sobre un sorted set de Redis:
// member = AlertKey, score = first_seen en unix millis.
type RedisLedger struct {
	client *redis.Client
	key    string
}

// NewRedisLedger conecta con Redis y verifica la conexión con PING.
func NewRedisLedger(ctx context.Context, addr, password string, db int, key string) (*RedisLedger, error) {
	if addr == "" {
		return nil, fmt.Errorf("storage.NewRedisLedger: redis addr is required")
	}
	if key == "" {
		key = defaultRedisKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("storage.NewRedisLedger: ping %s: %w", addr, err)
	}
	return &RedisLedger{client: client, key: key}, nil
}

// LoadKeys lee el sorted set completo.
func (r *RedisLedger) LoadKeys(ctx context.Context) ([]domain.LedgerEntry, error) {
	members, err := r.client.ZRangeWithScores(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("storage.RedisLedger.LoadKeys: %w", err)
	}
	entries := make([]domain.LedgerEntry, 0, len(members))
	for _, m := range members {
		key, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, domain.LedgerEntry{
			Key:       domain.AlertKey(key),
			FirstSeen: time.UnixMilli(int64(m.Score)).UTC(),
		})
	}
	return entries, nil
}

// ReplaceKeys sustituye el sorted set de forma atómica (MULTI/EXEC).
func (r *RedisLedger) ReplaceKeys(ctx context.Context, entries []domain.LedgerEntry) error {
	members := make([]redis.Z, 0, len(entries))
	for _, e := range entries {
		members = append(members, redis.Z{
			Score:  float64(e.FirstSeen.UTC().UnixMilli()),
			Member: string(e.Key),
		})
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(members) > 0 {
			pipe.ZAdd(ctx, r.key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage.RedisLedger.ReplaceKeys: %w", err)
	}
	return nil
}

// Close cierra el cliente.
func (r *RedisLedger) Close() error {
	return r.client.Close()
}
