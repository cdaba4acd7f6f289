package oddsapi

// DTOs raw de The Odds API v4. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// oddsEvent es un item de GET /v4/sports/{sport}/odds.
type oddsEvent struct {
	ID           string          `json:"id"`
	SportKey     string          `json:"sport_key"`
	SportTitle   string          `json:"sport_title"`
	CommenceTime string          `json:"commence_time"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Bookmakers   []oddsBookmaker `json:"bookmakers"`
}

// oddsBookmaker son los mercados de una casa.
type oddsBookmaker struct {
	Key        string       `json:"key"`
	Title      string       `json:"title"`
	LastUpdate string       `json:"last_update"`
	Markets    []oddsMarket `json:"markets"`
}

// oddsMarket es un mercado (h2h, totals, spreads...).
type oddsMarket struct {
	Key      string        `json:"key"`
	Outcomes []oddsOutcome `json:"outcomes"`
}

// oddsOutcome es un resultado con cuota decimal (oddsFormat=decimal).
type oddsOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}
