package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/axondata/runnerdash"
)

const bytesPerGB = 1024 * 1024 * 1024

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	borderBox  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("14")).
			Padding(0, 1)

	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	notFoundStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("238")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	msgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func statusStyle(s runnerdash.Status) lipgloss.Style {
	switch s {
	case runnerdash.StatusActive:
		return activeStyle
	case runnerdash.StatusInactive:
		return inactiveStyle
	case runnerdash.StatusFailed:
		return failedStyle
	default:
		return notFoundStyle
	}
}

// View renders the full dashboard frame
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")

	switch m.mode {
	case modeHelp:
		b.WriteString(m.viewHelp())
	case modeLogs:
		b.WriteString(m.viewLogs())
	default:
		b.WriteString(m.viewRunners())
	}

	b.WriteString("\n")
	b.WriteString(m.viewStats())
	b.WriteString("\n")
	b.WriteString(m.viewStatusBar())

	return b.String()
}

func (m Model) viewHeader() string {
	active, failed := 0, 0
	for _, r := range m.runners {
		switch r.Status {
		case runnerdash.StatusActive:
			active++
		case runnerdash.StatusFailed:
			failed++
		}
	}

	failedPart := dimStyle.Render(fmt.Sprintf("✗ %d failed", failed))
	if failed > 0 {
		failedPart = failedStyle.Render(fmt.Sprintf("✗ %d failed", failed))
	}

	line := titleStyle.Render(" Runner Dashboard ") +
		dimStyle.Render(" | ") +
		activeStyle.Render(fmt.Sprintf("● %d active", active)) +
		dimStyle.Render(" | ") +
		failedPart +
		dimStyle.Render(" | ") +
		fmt.Sprintf("%d total", len(m.runners))

	return borderBox.Render(line)
}

func (m Model) viewRunners() string {
	if len(m.runners) == 0 {
		return borderBox.Render(dimStyle.Render("No runners found under the discovery root."))
	}

	var rows []string
	for i, r := range m.runners {
		symbol := statusStyle(r.Status).Render(r.Status.Symbol())
		row := fmt.Sprintf(" %s %-30s %-10s %s",
			symbol, r.Repo+"/runner-"+fmt.Sprint(r.Number), r.Status.String(), dimStyle.Render(r.Service))
		if i == m.selected {
			row = selectedStyle.Render(row)
		}
		rows = append(rows, row)
	}

	return borderBox.Render(strings.Join(rows, "\n"))
}

func (m Model) viewLogs() string {
	title := " Logs"
	if m.selected < len(m.runners) {
		title = fmt.Sprintf(" Logs — %s ", m.runners[m.selected].DisplayName())
	}
	return borderBox.Render(titleStyle.Render(title) + "\n" + m.viewport.View())
}

func (m Model) viewHelp() string {
	help := strings.Join([]string{
		titleStyle.Render(" Keys "),
		"  ↑/k ↓/j   select runner",
		"  s         start selected",
		"  x         stop selected",
		"  r         restart selected",
		"  l         toggle log view",
		"  ?/h       toggle this help",
		"  q         quit",
	}, "\n")
	return borderBox.Render(help)
}

func (m Model) viewStats() string {
	memUsed := float64(m.stats.MemUsed) / bytesPerGB
	memTotal := float64(m.stats.MemTotal) / bytesPerGB
	line := fmt.Sprintf("CPU %5.1f%%   Mem %.1f/%.1f GB   Load %.2f %.2f %.2f",
		m.stats.CPUPercent, memUsed, memTotal,
		m.stats.Load1, m.stats.Load5, m.stats.Load15)
	return borderBox.Render(dimStyle.Render(line))
}

func (m Model) viewStatusBar() string {
	if m.stale {
		return warnStyle.Render(" " + m.statusMsg)
	}
	if m.statusMsg != "" {
		return msgStyle.Render(" " + m.statusMsg)
	}
	return dimStyle.Render(" s start · x stop · r restart · l logs · ? help · q quit")
}
