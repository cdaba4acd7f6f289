package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidKickoff indica que commence_time no es un instante RFC 3339 válido.
var ErrInvalidKickoff = errors.New("invalid kickoff time")

// Event es un partido tal como lo devuelve el proveedor de cuotas en un ciclo.
// Su identidad es (SportKey, HomeTeam, AwayTeam, CommenceTime); no se valida unicidad.
type Event struct {
	ID           string
	SportKey     string
	SportTitle   string
	HomeTeam     string
	AwayTeam     string
	CommenceTime string // ISO-8601 crudo, "Z" u offset
	Bookmakers   []BookmakerQuote
}

// BookmakerQuote son los mercados de una casa para un evento.
type BookmakerQuote struct {
	Key     string
	Title   string
	Markets map[string][]Outcome // market key ("h2h", "totals") → outcomes
}

// Outcome es un resultado apostable dentro de un mercado.
// Name debe coincidir literalmente entre casas para ser comparable.
type Outcome struct {
	Name  string
	Price float64  // cuota decimal, >= 1.0 por convención
	Point *float64 // línea de totals/spreads; solo para mostrar
}

// Kickoff parsea CommenceTime a UTC.
func (e Event) Kickoff() (time.Time, error) {
	return ParseKickoff(e.CommenceTime)
}

// ParseKickoff acepta RFC 3339 con "Z" u offset explícito.
func ParseKickoff(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKickoff, raw)
	}
	return t.UTC(), nil
}

// Quotes indexa las casas del evento por key. Si una key se repite, gana la última.
func (e Event) Quotes() map[string]BookmakerQuote {
	idx := make(map[string]BookmakerQuote, len(e.Bookmakers))
	for _, b := range e.Bookmakers {
		idx[b.Key] = b
	}
	return idx
}

// Matchup devuelve "home vs away".
func (e Event) Matchup() string {
	return e.HomeTeam + " vs " + e.AwayTeam
}
