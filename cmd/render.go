package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/illarion/sentinel/internal/audit"
	"github.com/illarion/sentinel/internal/vault"
)

const displayTimeLayout = "2006-01-02 15:04:05"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

func renderVaults(w io.Writer, vaults []*vault.Vault) {
	rows := make([][]string, 0, len(vaults))
	for _, v := range vaults {
		rows = append(rows, []string{v.Name(), strconv.Itoa(v.TotalEntries())})
	}
	renderTable(w, []string{"Name", "Total Entries"}, rows)
}

func renderEntries(w io.Writer, entries []vault.Entry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Username, e.Secret, e.Timestamp.Local().Format(displayTimeLayout)})
	}
	renderTable(w, []string{"Username", "Secret", "Timestamp"}, rows)
}

func renderEvents(w io.Writer, events []audit.Event) {
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{ev.Time.Local().Format(displayTimeLayout), ev.Kind, ev.Vault, ev.Subject})
	}
	renderTable(w, []string{"Time", "Event", "Vault", "Subject"}, rows)
}

func (a *app) notice(msg string) {
	fmt.Fprintln(a.stdout, mutedStyle.Render(msg))
}
