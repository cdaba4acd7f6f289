package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"time"
)

// AlertKey identifica una instancia de discrepancia para deduplicar.
// Es opaco: solo se compara por igualdad.
type AlertKey string

// KeyFields son los datos de los que se deriva una AlertKey.
type KeyFields struct {
	SportKey  string
	HomeTeam  string
	AwayTeam  string
	Market    string
	Outcome   string
	Bookmaker string
	Price     float64 // cuota cruda de la casa comparada, sin redondear
}

// Key deriva la AlertKey: SHA-256 sobre los campos con prefijo de longitud,
// de modo que ningún carácter dentro de un nombre de equipo puede provocar colisión.
func (f KeyFields) Key() AlertKey {
	h := sha256.New()
	var lenBuf [binary.MaxVarintLen64]byte
	for _, field := range []string{
		f.SportKey,
		f.HomeTeam,
		f.AwayTeam,
		f.Market,
		f.Outcome,
		f.Bookmaker,
		strconv.FormatFloat(f.Price, 'g', -1, 64),
	} {
		n := binary.PutUvarint(lenBuf[:], uint64(len(field)))
		h.Write(lenBuf[:n])
		h.Write([]byte(field))
	}
	return AlertKey(hex.EncodeToString(h.Sum(nil)))
}

// Alert es una discrepancia nueva lista para notificar.
type Alert struct {
	ID             string
	Key            AlertKey
	SportKey       string
	HomeTeam       string
	AwayTeam       string
	Kickoff        time.Time
	Market         string
	Outcome        string
	Point          *float64
	Reference      string
	ReferencePrice float64
	Bookmaker      string
	Price          float64
	AdvantagePct   float64
	DetectedAt     time.Time
}

// Matchup devuelve "home vs away".
func (a Alert) Matchup() string {
	return a.HomeTeam + " vs " + a.AwayTeam
}

// Heartbeat es la señal "sigo vivo" cuando no hubo eventos ni alertas.
type Heartbeat struct {
	At     time.Time
	Window Window
}

// LedgerEntry es una AlertKey con el instante en que se registró por primera vez.
type LedgerEntry struct {
	Key       AlertKey
	FirstSeen time.Time
}

// CycleSummary es el resumen persistible de un ciclo de escaneo.
type CycleSummary struct {
	ID             string
	StartedAt      time.Time
	Duration       time.Duration
	Sports         int
	SportsFailed   int
	Events         int
	EventsInWindow int
	Alerts         int
	Duplicates     int
	LedgerSize     int
}
