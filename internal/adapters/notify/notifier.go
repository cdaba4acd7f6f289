// Package notify entrega alertas por uno o varios canales (Telegram, consola, Kafka).
// El Dispatcher formatea una vez y reparte a todos los Sender; el fallo de uno
// no impide la entrega a los demás.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/alejandrodnm/valuebot/internal/domain"
)

// Sender es un canal de notificación.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// Dispatcher implementa ports.Notifier.
type Dispatcher struct {
	formatter *Formatter
	senders   []Sender
}

// NewDispatcher crea un Dispatcher con los senders dados.
func NewDispatcher(formatter *Formatter, senders ...Sender) *Dispatcher {
	return &Dispatcher{formatter: formatter, senders: senders}
}

// NotifyAlert formatea y envía la alerta a todos los senders.
func (d *Dispatcher) NotifyAlert(ctx context.Context, alert domain.Alert) error {
	return d.dispatch(ctx, d.formatter.Alert(alert))
}

// NotifyHeartbeat formatea y envía el heartbeat a todos los senders.
func (d *Dispatcher) NotifyHeartbeat(ctx context.Context, hb domain.Heartbeat) error {
	return d.dispatch(ctx, d.formatter.Heartbeat(hb))
}

// Senders devuelve los nombres de los canales configurados.
func (d *Dispatcher) Senders() []string {
	names := make([]string, len(d.senders))
	for i, s := range d.senders {
		names[i] = s.Name()
	}
	return names
}

// Close cierra los senders que mantienen conexiones.
func (d *Dispatcher) Close() error {
	var errs []error
	for _, s := range d.senders {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) dispatch(ctx context.Context, msg Message) error {
	var errs []error
	for _, s := range d.senders {
		if err := s.Send(ctx, msg); err != nil {
			slog.Error("sender failed", "sender", s.Name(), "kind", msg.Kind, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		slog.Debug("notification sent", "sender", s.Name(), "kind", msg.Kind)
	}
	return errors.Join(errs...)
}
