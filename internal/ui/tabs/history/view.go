package history

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/lvanelk/antigravity-quota-watch/internal/ui/components"
	"github.com/lvanelk/antigravity-quota-watch/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	var sections []string
	sections = append(sections, m.renderTitle())

	switch {
	case m.errorMsg != "":
		sections = append(sections, styles.ErrorTextStyle.Render(m.errorMsg))

	case len(m.modelIDs) == 0:
		sections = append(sections, styles.HelpStyle.Render(
			"No history recorded yet. Data accumulates while the watcher runs."))

	default:
		sections = append(sections, m.renderModelSelector())
		sections = append(sections, m.renderChart())
		sections = append(sections, m.renderSummary())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Quota History")
	subtitle := styles.HelpStyle.Render("Remaining quota over the last 24 hours")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderModelSelector() string {
	var parts []string
	for i, id := range m.modelIDs {
		if i == m.selectedModel {
			parts = append(parts, styles.ActiveTabStyle.Render(id))
		} else {
			parts = append(parts, styles.InactiveTabStyle.Render(id))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...) + "\n"
}

func (m *Model) renderChart() string {
	if len(m.points) == 0 {
		return styles.HelpStyle.Render("No data points for this model yet")
	}

	data := make([]float64, len(m.points))
	for i, p := range m.points {
		data[i] = p.RemainingFraction * 100
	}

	chartWidth := m.width - 16
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := m.height - 12
	if chartHeight < 5 {
		chartHeight = 5
	}

	caption := fmt.Sprintf("%% remaining, %d samples", len(data))
	return components.RenderLineChart(data, chartWidth, chartHeight, caption)
}

func (m *Model) renderSummary() string {
	if len(m.points) == 0 {
		return ""
	}

	first := m.points[0]
	last := m.points[len(m.points)-1]
	consumed := (first.RemainingFraction - last.RemainingFraction) * 100

	var rows []string
	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf(
		"Current: %.0f%%  Consumed in window: %.1f%%",
		last.RemainingFraction*100, consumed)))
	spark := make([]float64, len(m.points))
	for i, p := range m.points {
		spark[i] = p.RemainingFraction
	}
	rows = append(rows, styles.HelpStyle.Render(
		"Trend: "+components.RenderSparkline(spark, 40)))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
