package tui

import (
	"fmt"
	"strings"
	"time"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder

	elapsed := time.Since(m.startTime).Round(time.Second)
	b.WriteString(m.Styles.Title.Render("benchtainer"))
	b.WriteString("  ")
	b.WriteString(m.Styles.Timer.Render(elapsed.String()))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.Styles.Error.Render("error: " + m.err.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(m.Styles.Header.Render("BUILDS"))
	b.WriteString("\n")
	if len(m.snapshot.Builds) == 0 {
		b.WriteString(m.Styles.Dim.Render("  none"))
		b.WriteString("\n")
	}
	for _, row := range m.snapshot.Builds {
		fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
			m.Styles.Dim.Render(row.ID),
			m.Styles.Benchmark.Render(pad(row.Benchmark, 24)),
			m.Styles.statusStyle(row.Status).Render(pad(row.Status, 10)),
			m.Styles.Dim.Render(row.Age))
	}

	b.WriteString("\n")
	b.WriteString(m.Styles.Header.Render("RUNS"))
	b.WriteString("\n")
	if len(m.snapshot.Runs) == 0 {
		b.WriteString(m.Styles.Dim.Render("  none"))
		b.WriteString("\n")
	}
	for _, row := range m.snapshot.Runs {
		fmt.Fprintf(&b, "  %s  %s  :%-5d  %s  %s\n",
			m.Styles.Dim.Render(row.ID),
			m.Styles.Benchmark.Render(pad(row.Benchmark, 24)),
			row.Port,
			m.Styles.statusStyle(row.Status).Render(pad(row.Status, 10)),
			m.Styles.Dim.Render(row.Age))
	}

	b.WriteString(m.Styles.Footer.Render(
		m.Styles.FooterKey.Render("q") + " quit"))
	b.WriteString("\n")

	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
