package ports

import (
	"context"

	"github.com/alejandrodnm/valuebot/internal/domain"
)

// LedgerStore persiste el conjunto de AlertKeys ya notificadas.
type LedgerStore interface {
	// LoadKeys lee todas las entradas. Se llama una vez al arrancar.
	LoadKeys(ctx context.Context) ([]domain.LedgerEntry, error)

	// ReplaceKeys sobrescribe el contenido completo con entries.
	// Se llama una vez al final de cada ciclo.
	ReplaceKeys(ctx context.Context, entries []domain.LedgerEntry) error

	// Close cierra la conexión limpiamente.
	Close() error
}
