package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/valuebot/internal/domain"
)

// CycleStore guarda el histórico ligero de ciclos (opcional).
type CycleStore interface {
	// SaveCycle persiste el resumen de un ciclo.
	SaveCycle(ctx context.Context, c domain.CycleSummary) error

	// GetCycles devuelve los ciclos iniciados en el rango dado, más recientes primero.
	GetCycles(ctx context.Context, from, to time.Time) ([]domain.CycleSummary, error)
}
