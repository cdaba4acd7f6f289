package domain

import (
	"math"
	"sort"
)

const (
	DefaultThreshold = 1.20
	DefaultMinOdds   = 1.50
)

// Evaluator decide si una diferencia de cuota merece alerta.
type Evaluator struct {
	// MinOdds descarta cuotas de referencia cortas, donde pequeñas oscilaciones son ruido.
	MinOdds float64
	// Threshold es el ratio mínimo comparada/referencia (1.20 = +20%).
	Threshold float64
}

// DefaultEvaluator devuelve MinOdds=1.50, Threshold=1.20.
func DefaultEvaluator() Evaluator {
	return Evaluator{MinOdds: DefaultMinOdds, Threshold: DefaultThreshold}
}

// Discrepancy es un outcome presente en ambas casas que supera el umbral.
type Discrepancy struct {
	Outcome        string
	ReferencePrice float64
	Price          float64
	AdvantagePct   float64
}

// Qualifies usa el ratio crudo; el redondeo solo afecta al display.
func (e Evaluator) Qualifies(ref, other float64) bool {
	return ref >= e.MinOdds && other >= ref*e.Threshold
}

// AdvantagePct devuelve (other/ref − 1) × 100 redondeado a un decimal.
func AdvantagePct(ref, other float64) float64 {
	if ref <= 0 {
		return 0
	}
	return math.Round((other/ref-1)*100*10) / 10
}

// Compare evalúa los outcomes presentes en ref y other. Los que solo aparecen
// en uno de los dos mapas se ignoran. Resultado ordenado por nombre.
func (e Evaluator) Compare(ref, other OutcomePrices) []Discrepancy {
	names := make([]string, 0, len(other))
	for name := range other {
		if _, ok := ref[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []Discrepancy
	for _, name := range names {
		r, c := ref[name], other[name]
		if !e.Qualifies(r, c) {
			continue
		}
		out = append(out, Discrepancy{
			Outcome:        name,
			ReferencePrice: r,
			Price:          c,
			AdvantagePct:   AdvantagePct(r, c),
		})
	}
	return out
}
