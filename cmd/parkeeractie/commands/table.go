package commands

import (
	"fmt"
	"os"
	"parkeeractie/internal/coordinator"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func formatSaldo(saldo *float64) string {
	if saldo == nil {
		return "n.v.t."
	}
	return fmt.Sprintf("€ %.2f", *saldo)
}

func renderData(data coordinator.Data) {
	problem, reason := data.Problem()

	t := newTable()
	t.AppendHeader(table.Row{"Saldo", "Tijd resterend", "Uren", "Probleem", "Reden", "Bijgewerkt"})
	t.AppendRow(table.Row{
		formatSaldo(data.Saldo),
		data.RawTime(),
		data.TimeRemainingHours(),
		problem,
		reason,
		data.UpdatedAt.Format(time.DateTime),
	})
	t.Render()
}
