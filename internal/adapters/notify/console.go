package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Console escribe las notificaciones en stdout, compactas o en tabla.
type Console struct {
	out   io.Writer
	table bool
	now   func() time.Time
}

// NewConsole crea un sender que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table, now: time.Now}
}

// NewConsoleWriter crea un sender para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table, now: time.Now}
}

// Send imprime el mensaje en el modo configurado.
func (c *Console) Send(_ context.Context, msg Message) error {
	ts := c.now().Format("15:04:05")

	if msg.Alert == nil {
		fmt.Fprintf(c.out, "[%s] %s\n", ts, stripTags(msg.Text))
		return nil
	}

	a := msg.Alert
	if !c.table {
		fmt.Fprintf(c.out, "[%s] VALUE %s | %s %s | %s %s → %s %s (+%.1f%%)\n",
			ts, a.Matchup(), a.Market, outcomeLabel(*a),
			a.Reference, formatPrice(a.ReferencePrice), a.Bookmaker, formatPrice(a.Price), a.AdvantagePct)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] VALUE BET %s\n", ts, a.SportKey)
	table := tablewriter.NewWriter(c.out)
	table.Header("Match", "Kickoff", "Market", "Outcome", "Ref", "Book", "Adv")
	if err := table.Append(
		a.Matchup(),
		a.Kickoff.UTC().Format("02/01 15:04"),
		a.Market,
		outcomeLabel(*a),
		a.Reference+" "+formatPrice(a.ReferencePrice),
		a.Bookmaker+" "+formatPrice(a.Price),
		fmt.Sprintf("+%.1f%%", a.AdvantagePct),
	); err != nil {
		return fmt.Errorf("console: append row: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("console: render table: %w", err)
	}
	return nil
}

// Name devuelve el identificador del sender.
func (c *Console) Name() string {
	return "console"
}

// stripTags quita el HTML de Telegram para la terminal.
func stripTags(s string) string {
	r := strings.NewReplacer("<b>", "", "</b>", "", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&#39;", "'", "&#34;", "\"")
	return r.Replace(s)
}
