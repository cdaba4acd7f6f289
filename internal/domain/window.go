package domain

import "time"

const (
	DefaultHoursMin = 3
	DefaultHoursMax = 24
)

// Window es el rango de antelación (kickoff − now) en el que un evento es relevante.
// Ambos extremos son inclusivos.
type Window struct {
	Min time.Duration
	Max time.Duration
}

// DefaultWindow devuelve la ventana 3h–24h.
func DefaultWindow() Window {
	return Window{
		Min: DefaultHoursMin * time.Hour,
		Max: DefaultHoursMax * time.Hour,
	}
}

// Contains devuelve true si Min <= kickoff-now <= Max.
func (w Window) Contains(kickoff, now time.Time) bool {
	lead := kickoff.Sub(now)
	return lead >= w.Min && lead <= w.Max
}

// ContainsRaw es Contains sobre un commence_time sin parsear.
// Un timestamp inválido queda fuera de la ventana.
func (w Window) ContainsRaw(commence string, now time.Time) bool {
	kickoff, err := ParseKickoff(commence)
	if err != nil {
		return false
	}
	return w.Contains(kickoff, now)
}
