package notify

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Europe/Rome también en contenedores sin zoneinfo

	"github.com/alejandrodnm/valuebot/internal/domain"
)

const (
	KindAlert     = "alert"
	KindHeartbeat = "heartbeat"

	defaultTimezone = "Europe/Rome"
)

// DefaultLeagues son las etiquetas cortas de las ligas monitorizadas por defecto.
var DefaultLeagues = map[string]string{
	"soccer_italy_serie_a":          "Serie A",
	"soccer_italy_serie_b":          "Serie B",
	"soccer_epl":                    "Premier",
	"soccer_spain_la_liga":          "La Liga",
	"soccer_france_ligue_one":       "Ligue 1",
	"soccer_germany_bundesliga":     "Bundesliga",
	"soccer_uefa_champs_league":     "Champions",
	"soccer_uefa_europa_league":     "Europa",
	"soccer_uefa_conference_league": "Conference",
}

// Link es un botón con URL.
type Link struct {
	Label string
	URL   string
}

// Message es una notificación ya formateada, independiente del canal.
// Text usa HTML de Telegram (<b>, sin otras etiquetas).
type Message struct {
	Kind      string
	Title     string
	Text      string
	Links     [][]Link // filas de botones
	Alert     *domain.Alert
	Heartbeat *domain.Heartbeat
}

// Formatter convierte alertas y heartbeats en Message.
type Formatter struct {
	leagues map[string]string
	loc     *time.Location
}

// NewFormatter crea un Formatter. leagues se combina sobre DefaultLeagues;
// una zona horaria inválida cae a UTC.
func NewFormatter(leagues map[string]string, timezone string) *Formatter {
	merged := make(map[string]string, len(DefaultLeagues)+len(leagues))
	for k, v := range DefaultLeagues {
		merged[k] = v
	}
	for k, v := range leagues {
		merged[k] = v
	}

	if timezone == "" {
		timezone = defaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Formatter{leagues: merged, loc: loc}
}

// League devuelve la etiqueta de la liga o el sport key si no hay ninguna.
func (f *Formatter) League(sportKey string) string {
	if name, ok := f.leagues[sportKey]; ok {
		return name
	}
	return sportKey
}

// Alert formatea una alerta de value bet.
func (f *Formatter) Alert(a domain.Alert) Message {
	var sb strings.Builder
	sb.WriteString("📈 <b>VALUE BET!</b>\n")
	fmt.Fprintf(&sb, "🔹 %s\n", html.EscapeString(f.League(a.SportKey)))
	fmt.Fprintf(&sb, "🔹 %s\n", html.EscapeString(a.Matchup()))
	fmt.Fprintf(&sb, "🔹 Inizio: %s\n", a.Kickoff.In(f.loc).Format("02/01 15:04"))
	fmt.Fprintf(&sb, "🔹 %s: %s\n", html.EscapeString(a.Market), html.EscapeString(outcomeLabel(a)))
	fmt.Fprintf(&sb, "🔹 %s: %s → %s: %s\n",
		BookmakerLabel(a.Reference), formatPrice(a.ReferencePrice),
		BookmakerLabel(a.Bookmaker), formatPrice(a.Price))
	fmt.Fprintf(&sb, "🔹 +%.1f%%", a.AdvantagePct)

	alert := a
	return Message{
		Kind:  KindAlert,
		Title: "VALUE BET",
		Text:  sb.String(),
		Links: [][]Link{
			{{Label: "🟦 " + BookmakerLabel(a.Reference), URL: BuildLink(a.Reference, a.HomeTeam, a.AwayTeam)}},
			{{Label: "💰 " + BookmakerLabel(a.Bookmaker), URL: BuildLink(a.Bookmaker, a.HomeTeam, a.AwayTeam)}},
		},
		Alert: &alert,
	}
}

// Heartbeat formatea la señal de "sigo vivo".
func (f *Formatter) Heartbeat(hb domain.Heartbeat) Message {
	text := fmt.Sprintf("ℹ️ Nessuna partita nei prossimi %s–%sh. Il bot è attivo.",
		hours(hb.Window.Min), hours(hb.Window.Max))
	beat := hb
	return Message{
		Kind:      KindHeartbeat,
		Title:     "HEARTBEAT",
		Text:      text,
		Heartbeat: &beat,
	}
}

// BookmakerLabel capitaliza la key de la casa: "williamhill" → "Williamhill".
func BookmakerLabel(key string) string {
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + strings.ToLower(key[1:])
}

// formatPrice muestra la cuota tal cual la publica la casa: 2.1, no 2.10.
func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// outcomeLabel añade la línea en mercados totals: "Over 2.5".
func outcomeLabel(a domain.Alert) string {
	if a.Point == nil {
		return a.Outcome
	}
	return a.Outcome + " " + strconv.FormatFloat(*a.Point, 'f', -1, 64)
}

func hours(d time.Duration) string {
	return fmt.Sprintf("%g", d.Hours())
}
