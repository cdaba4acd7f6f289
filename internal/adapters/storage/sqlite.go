package storage

// sqlite.go — ledger de alertas y resumen de ciclos.
//
// Estrategia:
//   - `alert_keys`: una fila por AlertKey con su first_seen. Se sobrescribe
//     entera al final de cada ciclo (DELETE + INSERT en una transacción), así
//     el ledger en disco es siempre un snapshot coherente.
//   - `cycles`: resumen ligero por ciclo. Prune automático al arrancar (> 30d).

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alejandrodnm/valuebot/internal/domain"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS alert_keys (
    alert_key  TEXT    PRIMARY KEY,
    first_seen INTEGER NOT NULL -- unix nanos UTC
);

CREATE TABLE IF NOT EXISTS cycles (
    id               TEXT    PRIMARY KEY,
    started_at       INTEGER NOT NULL,
    duration_ms      INTEGER NOT NULL DEFAULT 0,
    sports           INTEGER NOT NULL DEFAULT 0,
    sports_failed    INTEGER NOT NULL DEFAULT 0,
    events           INTEGER NOT NULL DEFAULT 0,
    events_in_window INTEGER NOT NULL DEFAULT 0,
    alerts           INTEGER NOT NULL DEFAULT 0,
    duplicates       INTEGER NOT NULL DEFAULT 0,
    ledger_size      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_cycles_at ON cycles(started_at DESC);
`

const retentionCycles = 30 * 24 * time.Hour

// SQLiteStorage implementa ports.LedgerStore y ports.CycleStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
// Si el archivo existe pero no es una base SQLite válida, se aparta como
// path.corrupt-<unix> y se crea una base nueva: el ledger arranca vacío y se
// vuelve a persistir desde el primer ciclo.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("storage.NewSQLiteStorage: ensure dir %q: %w", dir, err)
			}
		}
	}

	db, err := openSQLite(path)
	if err != nil && path != ":memory:" && isCorrupt(err) {
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		if rerr := os.Rename(path, aside); rerr != nil {
			return nil, fmt.Errorf("storage.NewSQLiteStorage: move corrupt file: %w", errors.Join(err, rerr))
		}
		slog.Warn("corrupt ledger database moved aside, starting empty", "path", path, "moved_to", aside, "err", err)
		db, err = openSQLite(path)
	}
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// isCorrupt detecta SQLITE_NOTADB / SQLITE_CORRUPT (también en sus códigos extendidos).
func isCorrupt(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	}
	return false
}

// LoadKeys devuelve todas las AlertKeys persistidas.
func (s *SQLiteStorage) LoadKeys(ctx context.Context) ([]domain.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT alert_key, first_seen FROM alert_keys`)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadKeys: query: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var key string
		var seen int64
		if err := rows.Scan(&key, &seen); err != nil {
			return nil, fmt.Errorf("storage.LoadKeys: scan row: %w", err)
		}
		entries = append(entries, domain.LedgerEntry{
			Key:       domain.AlertKey(key),
			FirstSeen: time.Unix(0, seen).UTC(),
		})
	}
	return entries, rows.Err()
}

// ReplaceKeys sobrescribe la tabla alert_keys con entries en una sola transacción.
func (s *SQLiteStorage) ReplaceKeys(ctx context.Context, entries []domain.LedgerEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.ReplaceKeys: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM alert_keys`); err != nil {
		return fmt.Errorf("storage.ReplaceKeys: clear: %w", err)
	}

	if len(entries) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO alert_keys (alert_key, first_seen) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("storage.ReplaceKeys: prepare: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, string(e.Key), e.FirstSeen.UTC().UnixNano()); err != nil {
				return fmt.Errorf("storage.ReplaceKeys: insert %s: %w", e.Key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.ReplaceKeys: commit: %w", err)
	}
	return nil
}

// SaveCycle persiste el resumen de un ciclo.
func (s *SQLiteStorage) SaveCycle(ctx context.Context, c domain.CycleSummary) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles
			(id, started_at, duration_ms, sports, sports_failed, events,
			 events_in_window, alerts, duplicates, ledger_size)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.StartedAt.UTC().UnixNano(),
		c.Duration.Milliseconds(),
		c.Sports,
		c.SportsFailed,
		c.Events,
		c.EventsInWindow,
		c.Alerts,
		c.Duplicates,
		c.LedgerSize,
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: insert %s: %w", c.ID, err)
	}
	return nil
}

// GetCycles devuelve los ciclos iniciados en [from, to], más recientes primero.
func (s *SQLiteStorage) GetCycles(ctx context.Context, from, to time.Time) ([]domain.CycleSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, sports, sports_failed, events,
		       events_in_window, alerts, duplicates, ledger_size
		FROM cycles
		WHERE started_at BETWEEN ? AND ?
		ORDER BY started_at DESC
	`, from.UTC().UnixNano(), to.UTC().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("storage.GetCycles: query: %w", err)
	}
	defer rows.Close()

	var cycles []domain.CycleSummary
	for rows.Next() {
		var c domain.CycleSummary
		var startedAt, durationMs int64
		if err := rows.Scan(
			&c.ID,
			&startedAt,
			&durationMs,
			&c.Sports,
			&c.SportsFailed,
			&c.Events,
			&c.EventsInWindow,
			&c.Alerts,
			&c.Duplicates,
			&c.LedgerSize,
		); err != nil {
			return nil, fmt.Errorf("storage.GetCycles: scan row: %w", err)
		}
		c.StartedAt = time.Unix(0, startedAt).UTC()
		c.Duration = time.Duration(durationMs) * time.Millisecond
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina ciclos antiguos para mantener la DB ligera.
// El ledger se poda en memoria (ledger.Prune) antes de cada ReplaceKeys.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionCycles).UnixNano()
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE started_at < ?`, cutoff)
}
