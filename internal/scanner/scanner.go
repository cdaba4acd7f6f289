package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/alejandrodnm/valuebot/internal/domain"
	"github.com/alejandrodnm/valuebot/internal/ledger"
	"github.com/alejandrodnm/valuebot/internal/ports"
	"github.com/google/uuid"
)

const (
	defaultScanInterval = 10 * time.Minute
	defaultReference    = "bet365"
	flushTimeout        = 10 * time.Second
)

// DefaultSports son las competiciones monitorizadas si no se configura otra cosa.
var DefaultSports = []string{
	"soccer_italy_serie_a",
	"soccer_italy_serie_b",
	"soccer_epl",
	"soccer_spain_la_liga",
	"soccer_france_ligue_one",
	"soccer_germany_bundesliga",
	"soccer_uefa_champs_league",
	"soccer_uefa_europa_league",
	"soccer_uefa_conference_league",
}

// ErrAllSportsFailed indica que ningún deporte pudo descargarse en el ciclo.
var ErrAllSportsFailed = errors.New("all sports failed")

// Config contiene la configuración del scanner.
type Config struct {
	ScanInterval time.Duration
	Sports       []string
	Markets      []string
	Bookmakers   []string
	Regions      []string
	Reference    string
	Window       domain.Window
	Evaluator    domain.Evaluator
	Heartbeat    bool
	Once         bool
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		ScanInterval: defaultScanInterval,
		Sports:       slices.Clone(DefaultSports),
		Markets:      []string{"h2h", "totals"},
		Bookmakers:   []string{"bet365", "snai", "betway", "bwin", "williamhill"},
		Regions:      []string{"eu"},
		Reference:    defaultReference,
		Window:       domain.DefaultWindow(),
		Evaluator:    domain.DefaultEvaluator(),
		Heartbeat:    true,
	}
}

// Scanner es el orquestador del loop: descarga cuotas, detecta discrepancias,
// filtra por el ledger y notifica. Es dueño del ledger; no es concurrente.
type Scanner struct {
	cfg      Config
	odds     ports.OddsProvider
	notifier ports.Notifier
	ledger   *ledger.Ledger
	store    ports.LedgerStore
	cycles   ports.CycleStore
	detector *Detector
	now      func() time.Time
}

// New crea un Scanner con todas las dependencias inyectadas.
// store y cycles pueden ser nil (ledger solo en memoria, sin histórico).
func New(
	cfg Config,
	odds ports.OddsProvider,
	notifier ports.Notifier,
	led *ledger.Ledger,
	store ports.LedgerStore,
	cycles ports.CycleStore,
) *Scanner {
	if cfg.Reference == "" {
		cfg.Reference = defaultReference
	}
	if len(cfg.Bookmakers) > 0 && !slices.Contains(cfg.Bookmakers, cfg.Reference) {
		cfg.Bookmakers = append(slices.Clone(cfg.Bookmakers), cfg.Reference)
	}
	if led == nil {
		led = ledger.New(ledger.DefaultRetention)
	}
	return &Scanner{
		cfg:      cfg,
		odds:     odds,
		notifier: notifier,
		ledger:   led,
		store:    store,
		cycles:   cycles,
		detector: NewDetector(cfg.Window, cfg.Evaluator, cfg.Reference, cfg.Markets),
		now:      time.Now,
	}
}

// SetClock sustituye el reloj (tests).
func (s *Scanner) SetClock(now func() time.Time) {
	s.now = now
}

// Ledger devuelve el ledger del scanner.
func (s *Scanner) Ledger() *ledger.Ledger {
	return s.ledger
}

// Run ejecuta un ciclo inmediatamente y luego uno por tick hasta que el
// contexto se cancele. Con cfg.Once solo ejecuta un ciclo. Al salir vuelca
// el ledger al store.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"interval", s.cfg.ScanInterval,
		"sports", len(s.cfg.Sports),
		"reference", s.cfg.Reference,
		"once", s.cfg.Once,
	)
	defer s.flush(ctx)

	if _, err := s.RunOnce(ctx); err != nil {
		slog.Error("scan cycle failed", "err", err)
		if s.cfg.Once {
			return err
		}
	}
	if s.cfg.Once {
		return nil
	}

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scanner stopped")
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				slog.Error("scan cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo y devuelve sus contadores.
// Solo devuelve error si todos los deportes fallaron; aun así poda y persiste el ledger.
func (s *Scanner) RunOnce(ctx context.Context) (CycleStats, error) {
	start := s.now()
	cycleID := uuid.NewString()
	stats := newCycleStats()

	for _, sport := range s.cfg.Sports {
		if ctx.Err() != nil {
			break
		}
		stats.Sports++

		events, err := s.odds.FetchOdds(ctx, ports.OddsRequest{
			Sport:      sport,
			Regions:    s.cfg.Regions,
			Markets:    s.cfg.Markets,
			Bookmakers: s.cfg.Bookmakers,
		})
		if err != nil {
			stats.SportsFailed++
			slog.Warn("fetch odds failed", "sport", sport, "err", err)
			continue
		}

		for _, candidate := range s.detector.Detect(events, s.now(), &stats) {
			s.emit(ctx, candidate, &stats)
		}
	}

	now := s.now()
	if pruned := s.ledger.Prune(now); pruned > 0 {
		slog.Debug("ledger pruned", "removed", pruned, "size", s.ledger.Len(), "retention", s.ledger.Retention())
	}
	s.flush(ctx)

	if s.shouldHeartbeat(stats, now) {
		hb := domain.Heartbeat{At: now, Window: s.cfg.Window}
		if err := s.notifier.NotifyHeartbeat(ctx, hb); err != nil {
			slog.Warn("heartbeat failed", "err", err)
		}
	}

	duration := s.now().Sub(start)
	s.saveCycle(ctx, domain.CycleSummary{
		ID:             cycleID,
		StartedAt:      start,
		Duration:       duration,
		Sports:         stats.Sports,
		SportsFailed:   stats.SportsFailed,
		Events:         stats.Events,
		EventsInWindow: stats.EventsInWindow,
		Alerts:         stats.Alerts,
		Duplicates:     stats.Duplicates,
		LedgerSize:     s.ledger.Len(),
	})

	slog.Info("scan cycle complete",
		"cycle_id", cycleID,
		"sports", stats.Sports,
		"sports_failed", stats.SportsFailed,
		"events", stats.Events,
		"in_window", stats.EventsInWindow,
		"alerts", stats.Alerts,
		"duplicates", stats.Duplicates,
		"ledger_size", s.ledger.Len(),
		"duration", duration.Round(time.Millisecond),
	)

	if stats.Sports > 0 && stats.SportsFailed == stats.Sports {
		return stats, fmt.Errorf("scanner.RunOnce: %d/%d: %w", stats.SportsFailed, stats.Sports, ErrAllSportsFailed)
	}
	return stats, nil
}

// emit aplica el gate del ledger. La clave se registra antes de notificar:
// un fallo de entrega no provoca reenvío en el ciclo siguiente.
func (s *Scanner) emit(ctx context.Context, alert domain.Alert, stats *CycleStats) {
	if s.ledger.Contains(alert.Key) {
		stats.Duplicates++
		return
	}

	alert.ID = uuid.NewString()
	alert.DetectedAt = s.now()
	s.ledger.Record(alert.Key, alert.DetectedAt)
	stats.Alerts++

	slog.Info("value bet detected",
		"sport", alert.SportKey,
		"event", alert.Matchup(),
		"market", alert.Market,
		"outcome", alert.Outcome,
		"reference_price", alert.ReferencePrice,
		"bookmaker", alert.Bookmaker,
		"price", alert.Price,
		"advantage_pct", alert.AdvantagePct,
	)

	if err := s.notifier.NotifyAlert(ctx, alert); err != nil {
		slog.Error("notify alert failed", "alert_id", alert.ID, "err", err)
	}
}

// shouldHeartbeat: sin alertas, sin eventos en ventana y dentro de los primeros
// ScanInterval segundos de la hora en punto (como mucho uno por hora).
func (s *Scanner) shouldHeartbeat(stats CycleStats, now time.Time) bool {
	if !s.cfg.Heartbeat || stats.Alerts > 0 || stats.EventsInWindow > 0 {
		return false
	}
	slice := int64(s.cfg.ScanInterval / time.Second)
	return now.Unix()%3600 < slice
}

// flush persiste el ledger. Sobrevive a la cancelación de ctx para el volcado final.
func (s *Scanner) flush(ctx context.Context) {
	if s.store == nil {
		return
	}
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()
	if err := s.ledger.Persist(fctx, s.store); err != nil {
		slog.Error("ledger persist failed", "err", err)
	}
}

func (s *Scanner) saveCycle(ctx context.Context, c domain.CycleSummary) {
	if s.cycles == nil {
		return
	}
	if err := s.cycles.SaveCycle(context.WithoutCancel(ctx), c); err != nil {
		slog.Warn("storage error", "err", err)
	}
}
