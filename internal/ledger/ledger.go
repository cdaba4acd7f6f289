// Package ledger mantiene el conjunto de alertas ya enviadas.
//
// Cada AlertKey guarda el instante en que se vio por primera vez; las claves
// más antiguas que Retention se podan al final de cada ciclo. Con la ventana
// máxima de 24h y 24h de margen, una discrepancia nunca se re-notifica
// mientras el evento siga siendo relevante, y el almacenamiento no crece sin límite.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/valuebot/internal/domain"
	"github.com/alejandrodnm/valuebot/internal/ports"
)

// DefaultRetention = ventana máxima (24h) + 24h de margen.
const DefaultRetention = 48 * time.Hour

// Ledger es el conjunto de AlertKeys registradas. No es seguro para uso concurrente:
// lo posee el scanner, que es single-threaded.
type Ledger struct {
	entries   map[domain.AlertKey]time.Time
	retention time.Duration
}

// New crea un ledger vacío. retention <= 0 desactiva la poda.
func New(retention time.Duration) *Ledger {
	return &Ledger{
		entries:   make(map[domain.AlertKey]time.Time),
		retention: retention,
	}
}

// Contains devuelve true si key ya fue registrada.
func (l *Ledger) Contains(key domain.AlertKey) bool {
	_, ok := l.entries[key]
	return ok
}

// Record registra key. Si ya existía, conserva el first-seen original.
func (l *Ledger) Record(key domain.AlertKey, at time.Time) {
	if _, ok := l.entries[key]; ok {
		return
	}
	l.entries[key] = at.UTC()
}

// Len devuelve el número de claves.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Retention devuelve el horizonte de poda configurado.
func (l *Ledger) Retention() time.Duration {
	return l.retention
}

// Prune elimina las claves vistas antes de now − retention y devuelve cuántas quitó.
func (l *Ledger) Prune(now time.Time) int {
	if l.retention <= 0 {
		return 0
	}
	cutoff := now.Add(-l.retention)
	removed := 0
	for key, seen := range l.entries {
		if seen.Before(cutoff) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Entries devuelve una copia ordenada por first-seen (y key para desempatar).
func (l *Ledger) Entries() []domain.LedgerEntry {
	out := make([]domain.LedgerEntry, 0, len(l.entries))
	for key, seen := range l.entries {
		out = append(out, domain.LedgerEntry{Key: key, FirstSeen: seen})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FirstSeen.Equal(out[j].FirstSeen) {
			return out[i].FirstSeen.Before(out[j].FirstSeen)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Load construye el ledger desde store. Nunca falla: un store ausente, ilegible
// o corrupto arranca con un ledger vacío (puede re-alertar, se acepta).
// Las entradas ya caducadas se descartan al cargar.
func Load(ctx context.Context, store ports.LedgerStore, retention time.Duration, now time.Time) *Ledger {
	l := New(retention)
	if store == nil {
		return l
	}

	entries, err := store.LoadKeys(ctx)
	if err != nil {
		slog.Warn("ledger load failed, starting empty", "err", err)
		return l
	}

	invalid := 0
	for _, e := range entries {
		if e.Key == "" {
			invalid++
			continue
		}
		seen := e.FirstSeen
		if seen.IsZero() {
			// Clave sin timestamp (p.ej. importada): se trata como vista ahora.
			seen = now
		}
		l.Record(e.Key, seen)
	}
	expired := l.Prune(now)

	slog.Info("ledger loaded",
		"keys", l.Len(),
		"expired", expired,
		"invalid", invalid,
		"retention", retention,
	)
	return l
}

// Persist sobrescribe store con el conjunto completo.
func (l *Ledger) Persist(ctx context.Context, store ports.LedgerStore) error {
	if store == nil {
		return nil
	}
	if err := store.ReplaceKeys(ctx, l.Entries()); err != nil {
		return fmt.Errorf("ledger.Persist: %w", err)
	}
	return nil
}
