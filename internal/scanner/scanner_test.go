package scanner_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/valuebot/internal/domain"
	"github.com/alejandrodnm/valuebot/internal/ledger"
	"github.com/alejandrodnm/valuebot/internal/ports"
	"github.com/alejandrodnm/valuebot/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockOdds struct {
	mu       sync.Mutex
	events   map[string][]domain.Event
	errs     map[string]error
	requests []ports.OddsRequest
}

func (m *mockOdds) FetchOdds(_ context.Context, req ports.OddsRequest) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if err := m.errs[req.Sport]; err != nil {
		return nil, err
	}
	return m.events[req.Sport], nil
}

type mockNotifier struct {
	alerts     []domain.Alert
	heartbeats []domain.Heartbeat
	err        error
}

func (m *mockNotifier) NotifyAlert(_ context.Context, a domain.Alert) error {
	m.alerts = append(m.alerts, a)
	return m.err
}

func (m *mockNotifier) NotifyHeartbeat(_ context.Context, hb domain.Heartbeat) error {
	m.heartbeats = append(m.heartbeats, hb)
	return m.err
}

type mockLedgerStore struct {
	entries  []domain.LedgerEntry
	replaces int
	err      error
}

func (m *mockLedgerStore) LoadKeys(_ context.Context) ([]domain.LedgerEntry, error) {
	return m.entries, m.err
}

func (m *mockLedgerStore) ReplaceKeys(_ context.Context, entries []domain.LedgerEntry) error {
	m.replaces++
	if m.err != nil {
		return m.err
	}
	m.entries = entries
	return nil
}

func (m *mockLedgerStore) Close() error { return nil }

type mockCycleStore struct {
	saved []domain.CycleSummary
}

func (m *mockCycleStore) SaveCycle(_ context.Context, c domain.CycleSummary) error {
	m.saved = append(m.saved, c)
	return nil
}

func (m *mockCycleStore) GetCycles(_ context.Context, _, _ time.Time) ([]domain.CycleSummary, error) {
	return m.saved, nil
}

// --- helpers ---

const serieA = "soccer_italy_serie_a"

// 10:30 UTC: fuera del slice de heartbeat salvo que el test lo cambie.
var baseNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func h2h(bookmaker string, prices map[string]float64) domain.BookmakerQuote {
	outcomes := make([]domain.Outcome, 0, len(prices))
	for name, p := range prices {
		outcomes = append(outcomes, domain.Outcome{Name: name, Price: p})
	}
	return domain.BookmakerQuote{Key: bookmaker, Markets: map[string][]domain.Outcome{"h2h": outcomes}}
}

func makeEvent(lead time.Duration, quotes ...domain.BookmakerQuote) domain.Event {
	return domain.Event{
		SportKey:     serieA,
		HomeTeam:     "Inter Milan",
		AwayTeam:     "AC Milan",
		CommenceTime: baseNow.Add(lead).Format(time.RFC3339),
		Bookmakers:   quotes,
	}
}

func testConfig(sports ...string) scanner.Config {
	cfg := scanner.DefaultConfig()
	cfg.Sports = sports
	cfg.Markets = []string{"h2h"}
	cfg.ScanInterval = 10 * time.Minute
	return cfg
}

type fixture struct {
	odds     *mockOdds
	notifier *mockNotifier
	store    *mockLedgerStore
	cycles   *mockCycleStore
	scanner  *scanner.Scanner
}

func newFixture(cfg scanner.Config, events map[string][]domain.Event) *fixture {
	f := &fixture{
		odds:     &mockOdds{events: events, errs: map[string]error{}},
		notifier: &mockNotifier{},
		store:    &mockLedgerStore{},
		cycles:   &mockCycleStore{},
	}
	f.scanner = scanner.New(cfg, f.odds, f.notifier, ledger.New(ledger.DefaultRetention), f.store, f.cycles)
	f.scanner.SetClock(func() time.Time { return baseNow })
	return f
}

// --- tests ---

func TestScanner_RunOnce_DetectsValueBet(t *testing.T) {
	ev := makeEvent(5*time.Hour,
		h2h("bet365", map[string]float64{"Inter Milan": 2.0, "AC Milan": 3.5}),
		h2h("snai", map[string]float64{"Inter Milan": 2.5, "AC Milan": 3.6}),
	)
	f := newFixture(testConfig(serieA), map[string][]domain.Event{serieA: {ev}})

	stats, err := f.scanner.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sports)
	assert.Equal(t, 1, stats.Events)
	assert.Equal(t, 1, stats.EventsInWindow)
	assert.Equal(t, 1, stats.Alerts)

	require.Len(t, f.notifier.alerts, 1)
	a := f.notifier.alerts[0]
	assert.NotEmpty(t, a.ID)
	assert.NotEmpty(t, a.Key)
	assert.Equal(t, "Inter Milan", a.Outcome)
	assert.Equal(t, "snai", a.Bookmaker)
	assert.Equal(t, "bet365", a.Reference)
	assert.InDelta(t, 25.0, a.AdvantagePct, 1e-9)
	assert.Equal(t, baseNow, a.DetectedAt)
	assert.Equal(t, baseNow.Add(5*time.Hour), a.Kickoff)
	assert.Empty(t, f.notifier.heartbeats)
}

func TestScanner_RunOnce_DedupAcrossCycles(t *testing.T) {
	ev := makeEvent(5*time.Hour,
		h2h("bet365", map[string]float64{"Inter Milan": 2.0}),
		h2h("snai", map[string]float64{"Inter Milan": 2.5}),
	)
	f := newFixture(testConfig(serieA), map[string][]domain.Event{serieA: {ev}})

	_, err := f.scanner.RunOnce(context.Background())
	require.NoError(t, err)
	stats, err := f.scanner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Len(t, f.notifier.alerts, 1, "la misma discrepancia solo se notifica una vez")
	assert.Equal(t, 0, stats.Alerts)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestScanner_RunOnce_PriceChangeAlertsAgain(t *testing.T) {
	events := map[string][]domain.Event{serieA: {makeEvent(5*time.Hour,
		h2h("bet365", map[string]float64{"Inter Milan": 2.0}),
		h2h("snai", map[string]float64{"Inter Milan": 2.5}),
	)}}
	f := newFixture(testConfig(serieA), events)

	_, err := f.scanner.RunOnce(context.Background())
	require.NoError(t, err)

	f.odds.events[serieA] = []domain.Event{makeEvent(5*time.Hour,
		h2h("bet365", map[string]float64{"Inter Milan": 2.0}),
		h2h("snai", map[string]float64{"Inter Milan": 2.6}),
	)}
	_, err = f.scanner.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, f.notifier.alerts, 2)
	assert.NotEqual(t, f.notifier.alerts[0].Key, f.notifier.alerts[1].Key)
}

func TestScanner_RunOnce_UnmatchedOutcomeIgnored(t *testing.T) {
	ev := makeEvent(5*time.Hour,
		h2h("bet365", map[string]float64{"Inter Milan": 2.0}),
		h2h("snai", map[string]float64{"Draw": 9.0}),
	)
	f := newFixture(testConfig(serieA), map[string][]domain.Event{serieA: {ev}})

	stats, err := f.scanner.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, stats.Alerts)
	assert.Empty(t, f.notifier.alerts)
}

func TestScanner_RunOnce_MissingReferenceFailsOpen(t *testing.T) {
	ev := makeEvent(5*time.Hour,
		h2h("snai", map[string]float64{"Inter Milan": 2.5}),
		h2h("bwin", map[string]float64{"Inter Milan": 4.0}),
	)
	f := newFixture(testConfig(serieA), map[string][]domain.Event{serieA: {ev}})
	f.scanner.SetClock(func() time.Time { return baseNow.Truncate(time.Hour) })

	stats, err := f.scanner.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, stats.Alerts)
	assert.Equal(t, 1, stats.EventsInWindow)
	assert.Equal(t, 1, stats.Skips[domain.SkipNoReference])
	assert.Empty(t, f.notifier.heartbeats, "un evento en ventana suprime el heartbeat")
}

func TestScanner_RunOnce_OutOfWindow(t *testing.T) {
	early := makeEvent(2*time.Hour,
		h2h("bet365", map[string]float64{"Inter Milan": 2.0}),
		h2h("snai", map[string]float64{"Inter Milan": 3.0}),
	)
	broken := early
	broken.CommenceTime = "not-a-date"
	f := newFixture(testConfig(serieA), map[string][]domain.Event{serieA: {early, broken}})

	stats, err := f.scanner.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Events)
	assert.Equal(t, 0, stats.EventsInWindow)
	assert.Equal(t, 2, stats.Skips[domain.SkipOutOfWindow])
	assert.Empty(t, f.notifier.alerts)
}

func TestScanner_RunOnce_FetchFailureSkipsSport(t *testing.T) {
	ev := makeEvent(5*time.Hour,
		h2h("bet365", map[string]float64{"Inter Milan": 2.0}),
		h2h("snai", map[string]float64{"Inter Milan": 2.5}),
	)
	f := newFixture(testConfig("soccer_epl", serieA), map[string][]domain.Event{serieA: {ev}})
	f.odds.errs["soccer_epl"] = errors.New("timeout")

	stats, err := f.scanner.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sports)
	assert.Equal(t, 1, stats.SportsFailed)
	assert.Len(t, f.notifier.alerts, 1)
}

func TestScanner_RunOnce_AllSportsFailed(t *testing.T) {
	f := newFixture(testConfig(serieA), nil)
	f.odds.errs[serieA] = errors.New("quota exceeded")

	stats, err := f.scanner.RunOnce(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, scanner.ErrAllSportsFailed)
	assert.Equal(t, 1, stats.SportsFailed)
	assert.Equal(t, 1, f.store.replaces, "el ledger se persiste igualmente")
}

func TestScanner_RunOnce_NotifyFailureKeepsKey(t *testing.T) {
	ev := makeEvent(5*time.Hour,
		h2h("bet365", map[string]float64{"Inter Milan": 2.0}),
		h2h("snai", map[string]float64{"Inter Milan": 2.5}),
	)
	f := newFixture(testConfig(serieA), map[string][]domain.Event{serieA: {ev}})
	f.notifier.err = errors.New("telegram down")

	stats, err := f.scanner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Alerts)
	assert.Equal(t, 1, f.scanner.Ledger().Len())

	_, err = f.scanner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.notifier.alerts, 1, "no se reintenta la entrega")
}

func TestScanner_RunOnce_PersistsLedgerAndCycle(t *testing.T) {
	ev := makeEvent(5*time.Hour,
		h2h("bet365", map[string]float64{"Inter Milan": 2.0, "AC Milan": 2.0}),
		h2h("snai", map[string]float64{"Inter Milan": 2.5, "AC Milan": 2.5}),
	)
	f := newFixture(testConfig(serieA), map[string][]domain.Event{serieA: {ev}})

	_, err := f.scanner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.replaces)
	assert.Len(t, f.store.entries, 2)

	require.Len(t, f.cycles.saved, 1)
	c := f.cycles.saved[0]
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 2, c.Alerts)
	assert.Equal(t, 2, c.LedgerSize)
}

func TestScanner_RunOnce_PersistErrorIsNotFatal(t *testing.T) {
	f := newFixture(testConfig(serieA), nil)
	f.store.err = errors.New("disk full")

	_, err := f.scanner.RunOnce(context.Background())
	assert.NoError(t, err)
}

func TestScanner_RunOnce_PrunesExpiredKeys(t *testing.T) {
	f := newFixture(testConfig(serieA), nil)
	f.scanner.Ledger().Record("old", baseNow.Add(-72*time.Hour))
	f.scanner.Ledger().Record("fresh", baseNow.Add(-time.Hour))

	_, err := f.scanner.RunOnce(context.Background())
	require.NoError(t, err)

	assert.False(t, f.scanner.Ledger().Contains("old"))
	assert.True(t, f.scanner.Ledger().Contains("fresh"))
}

func TestScanner_Heartbeat(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"top of the hour", time.Date(2026, 3, 14, 10, 0, 30, 0, time.UTC), 1},
		{"end of slice", time.Date(2026, 3, 14, 10, 9, 59, 0, time.UTC), 1},
		{"after slice", time.Date(2026, 3, 14, 10, 10, 0, 0, time.UTC), 0},
		{"mid hour", time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(testConfig(serieA), nil)
			f.scanner.SetClock(func() time.Time { return tt.now })

			_, err := f.scanner.RunOnce(context.Background())
			require.NoError(t, err)
			assert.Len(t, f.notifier.heartbeats, tt.want)
		})
	}
}

func TestScanner_HeartbeatDisabled(t *testing.T) {
	cfg := testConfig(serieA)
	cfg.Heartbeat = false
	f := newFixture(cfg, nil)
	f.scanner.SetClock(func() time.Time { return baseNow.Truncate(time.Hour) })

	_, err := f.scanner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.notifier.heartbeats)
}

func TestScanner_ReferenceAddedToBookmakers(t *testing.T) {
	cfg := testConfig(serieA)
	cfg.Bookmakers = []string{"snai", "bwin"}
	f := newFixture(cfg, nil)

	_, err := f.scanner.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, f.odds.requests, 1)
	req := f.odds.requests[0]
	assert.Equal(t, serieA, req.Sport)
	assert.Contains(t, req.Bookmakers, "bet365")
	assert.Equal(t, []string{"h2h"}, req.Markets)
}

func TestScanner_Run_Once(t *testing.T) {
	cfg := testConfig(serieA)
	cfg.Once = true
	f := newFixture(cfg, nil)

	require.NoError(t, f.scanner.Run(context.Background()))
	assert.Len(t, f.odds.requests, 1)
	assert.Equal(t, 2, f.store.replaces, "persistencia de fin de ciclo + volcado final")
}

func TestScanner_Run_StopsOnCancel(t *testing.T) {
	cfg := testConfig(serieA)
	cfg.ScanInterval = time.Hour
	f := newFixture(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- f.scanner.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run no terminó tras cancelar el contexto")
	}
	assert.GreaterOrEqual(t, f.store.replaces, 1, "volcado final del ledger")
}
