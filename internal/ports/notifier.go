package ports

import (
	"context"

	"github.com/alejandrodnm/valuebot/internal/domain"
)

// Notifier entrega las alertas al usuario.
// Los errores se registran en el log pero nunca revierten el ledger ni se reintentan.
type Notifier interface {
	NotifyAlert(ctx context.Context, alert domain.Alert) error
	NotifyHeartbeat(ctx context.Context, hb domain.Heartbeat) error
}
