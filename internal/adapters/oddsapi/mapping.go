package oddsapi

import "github.com/alejandrodnm/valuebot/internal/domain"

// mapEvents convierte los DTOs a domain.Event. sport se usa si el evento no trae sport_key.
func mapEvents(raw []oddsEvent, sport string) []domain.Event {
	events := make([]domain.Event, 0, len(raw))
	for _, r := range raw {
		events = append(events, mapEvent(r, sport))
	}
	return events
}

func mapEvent(r oddsEvent, sport string) domain.Event {
	ev := domain.Event{
		ID:           r.ID,
		SportKey:     r.SportKey,
		SportTitle:   r.SportTitle,
		HomeTeam:     r.HomeTeam,
		AwayTeam:     r.AwayTeam,
		CommenceTime: r.CommenceTime,
		Bookmakers:   make([]domain.BookmakerQuote, 0, len(r.Bookmakers)),
	}
	if ev.SportKey == "" {
		ev.SportKey = sport
	}
	for _, b := range r.Bookmakers {
		ev.Bookmakers = append(ev.Bookmakers, mapBookmaker(b))
	}
	return ev
}

// mapBookmaker indexa los mercados por key. Si un mercado se repite, gana el primero.
func mapBookmaker(b oddsBookmaker) domain.BookmakerQuote {
	q := domain.BookmakerQuote{
		Key:     b.Key,
		Title:   b.Title,
		Markets: make(map[string][]domain.Outcome, len(b.Markets)),
	}
	for _, m := range b.Markets {
		if _, dup := q.Markets[m.Key]; dup {
			continue
		}
		outcomes := make([]domain.Outcome, 0, len(m.Outcomes))
		for _, o := range m.Outcomes {
			outcomes = append(outcomes, domain.Outcome{
				Name:  o.Name,
				Price: o.Price,
				Point: o.Point,
			})
		}
		q.Markets[m.Key] = outcomes
	}
	return q
}
