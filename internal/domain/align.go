package domain

// SkipReason etiqueta por qué una combinación evento/mercado/casa no produjo comparación.
// No es un error: la heterogeneidad del snapshot es esperada.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipOutOfWindow SkipReason = "out_of_window"
	SkipNoReference SkipReason = "no_reference_bookmaker"
	SkipNoMarket    SkipReason = "no_market"
	SkipEmptyMarket SkipReason = "empty_market"
)

// OutcomePrices es el mapa nombre de outcome → cuota de una casa en un mercado.
type OutcomePrices map[string]float64

// Alignment son los precios de la casa de referencia y de cada casa comparada
// para un mismo evento y mercado.
type Alignment struct {
	Market     string
	Reference  OutcomePrices
	Comparison map[string]OutcomePrices // bookmaker key → precios
	Skipped    map[string]SkipReason    // casas comparadas sin el mercado
}

// ExtractPrices construye el mapa de precios de quote para market.
// Si un nombre se repite dentro del mercado, gana el último.
func ExtractPrices(quote BookmakerQuote, market string) (OutcomePrices, SkipReason) {
	outcomes, ok := quote.Markets[market]
	if !ok {
		return nil, SkipNoMarket
	}
	if len(outcomes) == 0 {
		return nil, SkipEmptyMarket
	}
	prices := make(OutcomePrices, len(outcomes))
	for _, o := range outcomes {
		prices[o.Name] = o.Price
	}
	return prices, SkipNone
}

// Align extrae los precios de reference y, de forma independiente, los de cada
// otra casa del evento. Sin casa de referencia o sin el mercado en ella, el par
// evento/mercado se descarta entero.
func Align(ev Event, reference, market string) (Alignment, SkipReason) {
	quotes := ev.Quotes()

	refQuote, ok := quotes[reference]
	if !ok {
		return Alignment{}, SkipNoReference
	}
	refPrices, reason := ExtractPrices(refQuote, market)
	if reason != SkipNone {
		return Alignment{}, reason
	}

	al := Alignment{
		Market:     market,
		Reference:  refPrices,
		Comparison: make(map[string]OutcomePrices, len(quotes)-1),
	}
	for key, q := range quotes {
		if key == reference {
			continue
		}
		prices, reason := ExtractPrices(q, market)
		if reason != SkipNone {
			if al.Skipped == nil {
				al.Skipped = make(map[string]SkipReason)
			}
			al.Skipped[key] = reason
			continue
		}
		al.Comparison[key] = prices
	}
	return al, SkipNone
}

// PointOf devuelve la línea (point) del outcome name en el mercado de la casa
// bookmaker, si existe. Solo se usa para mostrar la alerta.
func PointOf(ev Event, bookmaker, market, name string) *float64 {
	q, ok := ev.Quotes()[bookmaker]
	if !ok {
		return nil
	}
	var point *float64
	for _, o := range q.Markets[market] {
		if o.Name == name {
			point = o.Point
		}
	}
	return point
}
