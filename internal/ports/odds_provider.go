package ports

import (
	"context"

	"github.com/alejandrodnm/valuebot/internal/domain"
)

// OddsRequest son los parámetros de un snapshot de cuotas para un deporte.
type OddsRequest struct {
	Sport      string
	Regions    []string
	Markets    []string
	Bookmakers []string
}

// OddsProvider obtiene el snapshot de cuotas de un deporte.
type OddsProvider interface {
	// FetchOdds devuelve los eventos del deporte con las cuotas de cada casa.
	// Cualquier fallo (transporte, status no 2xx, JSON inválido) es un error;
	// el scanner lo trata igual: salta el deporte en este ciclo.
	FetchOdds(ctx context.Context, req OddsRequest) ([]domain.Event, error)
}
