package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alejandrodnm/valuebot/config"
	"github.com/alejandrodnm/valuebot/internal/adapters/storage"
	"github.com/alejandrodnm/valuebot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// printHistory imprime los ciclos registrados en SQLite durante la última ventana.
// Solo el driver sqlite guarda el histórico de ciclos.
func printHistory(ctx context.Context, w io.Writer, cfg config.StorageConfig, since time.Duration) error {
	if cfg.Driver != "sqlite" {
		return fmt.Errorf("printHistory: cycle history requires storage.driver sqlite, got %q", cfg.Driver)
	}
	store, err := storage.NewSQLiteStorage(cfg.DSN)
	if err != nil {
		return fmt.Errorf("printHistory: open storage: %w", err)
	}
	defer store.Close()

	to := time.Now()
	cycles, err := store.GetCycles(ctx, to.Add(-since), to)
	if err != nil {
		return fmt.Errorf("printHistory: %w", err)
	}
	return renderCycles(w, cycles)
}

func renderCycles(w io.Writer, cycles []domain.CycleSummary) error {
	if len(cycles) == 0 {
		fmt.Fprintln(w, "no cycles recorded")
		return nil
	}

	var alerts, failed int
	table := tablewriter.NewWriter(w)
	table.Header("Started", "Duration", "Sports", "Failed", "Events", "In window", "Alerts", "Dups", "Ledger")
	for _, c := range cycles {
		alerts += c.Alerts
		failed += c.SportsFailed
		table.Append(
			c.StartedAt.Local().Format("02/01 15:04:05"),
			c.Duration.Round(time.Millisecond).String(),
			fmt.Sprintf("%d", c.Sports),
			fmt.Sprintf("%d", c.SportsFailed),
			fmt.Sprintf("%d", c.Events),
			fmt.Sprintf("%d", c.EventsInWindow),
			fmt.Sprintf("%d", c.Alerts),
			fmt.Sprintf("%d", c.Duplicates),
			fmt.Sprintf("%d", c.LedgerSize),
		)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("renderCycles: %w", err)
	}
	fmt.Fprintf(w, "%d cycles · %d alerts · %d failed fetches\n", len(cycles), alerts, failed)
	return nil
}
