package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/beacon/internal/diag"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			PaddingRight(2)
	cellStyle  = lipgloss.NewStyle().PaddingRight(2)
	ownerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			PaddingRight(2)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// row is one labelled snapshot.
type row struct {
	Label    string        `json:"label"`
	Snapshot diag.Snapshot `json:"snapshot"`
}

// renderTable lays snapshots out as aligned columns.
func renderTable(title string, rows []row) string {
	headers := []string{"INSTANCE", "LABEL", "ROLE", "CLIENTS", "INDICATOR", "LAST ERROR"}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		s := r.Snapshot
		role := "forwarder"
		if s.Owner {
			role = "owner"
		}
		indicator := "none"
		if s.IndicatorExists {
			indicator = "hidden"
			if s.IndicatorVisible {
				indicator = "visible"
			}
		}
		lastErr := "-"
		if s.LastError != nil {
			lastErr = s.LastError.Event
		}
		clients := fmt.Sprintf("%d", s.ClientCount)
		if len(s.Clients) > 0 {
			clients += " [" + strings.Join(s.Clients, ",") + "]"
		}
		cells = append(cells, []string{shortID(s.InstanceID), r.Label, role, clients, indicator, lastErr})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, c := range cells {
		for i, v := range c {
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	lines := []string{titleStyle.Render(title)}
	var header []string
	for i, h := range headers {
		header = append(header, headerStyle.Width(widths[i]+2).Render(h))
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, header...))

	for ri, c := range cells {
		var cols []string
		for i, v := range c {
			style := cellStyle
			switch {
			case i == 2 && rows[ri].Snapshot.Owner:
				style = ownerStyle
			case i == 5 && v != "-":
				style = errorStyle.PaddingRight(2)
			}
			cols = append(cols, style.Width(widths[i]+2).Render(v))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func writeRows(w io.Writer, asJSON bool, title string, rows []row) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Title string `json:"title"`
			Rows  []row  `json:"rows"`
		}{title, rows})
	}
	_, err := fmt.Fprintln(w, renderTable(title, rows))
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// bufferSink is an output channel that keeps its lines for printing later.
type bufferSink struct {
	mu    sync.Mutex
	lines []string
}

func (b *bufferSink) AppendLine(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
}

func (b *bufferSink) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

func writeSection(w io.Writer, title string, lines []string) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteByte('\n')
	if len(lines) == 0 {
		b.WriteString(mutedStyle.Render("(empty)"))
		b.WriteByte('\n')
	}
	for _, l := range lines {
		b.WriteString(mutedStyle.Render("│ "))
		b.WriteString(l)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func sortRows(rows []row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Label < rows[j].Label
	})
}
