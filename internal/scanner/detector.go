package scanner

import (
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/valuebot/internal/domain"
)

// CycleStats son los contadores de un ciclo.
type CycleStats struct {
	Sports         int
	SportsFailed   int
	Events         int
	EventsInWindow int
	Alerts         int
	Duplicates     int
	Skips          map[domain.SkipReason]int
}

func newCycleStats() CycleStats {
	return CycleStats{Skips: make(map[domain.SkipReason]int)}
}

func (c *CycleStats) skip(reason domain.SkipReason) {
	c.Skips[reason]++
}

// Detector aplica ventana → alineación → evaluación a los eventos de un deporte.
// No conoce el ledger: devuelve todas las discrepancias que cualifican.
type Detector struct {
	window    domain.Window
	evaluator domain.Evaluator
	reference string
	markets   []string
}

// NewDetector crea un Detector.
func NewDetector(window domain.Window, evaluator domain.Evaluator, reference string, markets []string) *Detector {
	return &Detector{
		window:    window,
		evaluator: evaluator,
		reference: reference,
		markets:   markets,
	}
}

// Detect devuelve los candidatos a alerta en orden determinista:
// orden de eventos, orden de mercados, casa comparada y outcome alfabéticos.
// Los candidatos llevan Key pero no ID ni DetectedAt.
func (d *Detector) Detect(events []domain.Event, now time.Time, stats *CycleStats) []domain.Alert {
	var out []domain.Alert
	for _, ev := range events {
		stats.Events++

		kickoff, err := ev.Kickoff()
		if err != nil {
			slog.Debug("invalid commence_time", "event", ev.Matchup(), "raw", ev.CommenceTime, "err", err)
			stats.skip(domain.SkipOutOfWindow)
			continue
		}
		if !d.window.Contains(kickoff, now) {
			stats.skip(domain.SkipOutOfWindow)
			continue
		}
		stats.EventsInWindow++

		for _, market := range d.markets {
			al, reason := domain.Align(ev, d.reference, market)
			if reason != domain.SkipNone {
				slog.Debug("event skipped", "event", ev.Matchup(), "market", market, "reason", reason)
				stats.skip(reason)
				continue
			}
			for bk, r := range al.Skipped {
				slog.Debug("bookmaker skipped", "event", ev.Matchup(), "market", market, "bookmaker", bk, "reason", r)
				stats.skip(r)
			}

			books := make([]string, 0, len(al.Comparison))
			for bk := range al.Comparison {
				books = append(books, bk)
			}
			sort.Strings(books)

			for _, bk := range books {
				for _, disc := range d.evaluator.Compare(al.Reference, al.Comparison[bk]) {
					out = append(out, d.candidate(ev, kickoff, market, bk, disc))
				}
			}
		}
	}
	return out
}

func (d *Detector) candidate(ev domain.Event, kickoff time.Time, market, bookmaker string, disc domain.Discrepancy) domain.Alert {
	key := domain.KeyFields{
		SportKey:  ev.SportKey,
		HomeTeam:  ev.HomeTeam,
		AwayTeam:  ev.AwayTeam,
		Market:    market,
		Outcome:   disc.Outcome,
		Bookmaker: bookmaker,
		Price:     disc.Price,
	}.Key()

	return domain.Alert{
		Key:            key,
		SportKey:       ev.SportKey,
		HomeTeam:       ev.HomeTeam,
		AwayTeam:       ev.AwayTeam,
		Kickoff:        kickoff,
		Market:         market,
		Outcome:        disc.Outcome,
		Point:          domain.PointOf(ev, bookmaker, market, disc.Outcome),
		Reference:      d.reference,
		ReferencePrice: disc.ReferencePrice,
		Bookmaker:      bookmaker,
		Price:          disc.Price,
		AdvantagePct:   disc.AdvantagePct,
	}
}
