// Package components provides reusable UI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lvanelk/antigravity-quota-watch/internal/ui/styles"
)

// QuotaBar renders a remaining-quota progress bar with label and percentage.
type QuotaBar struct {
	progress progress.Model
}

// NewQuotaBar creates a new quota bar with gradient colors.
func NewQuotaBar() QuotaBar {
	return NewQuotaBarWithWidth(30)
}

// NewQuotaBarWithWidth creates a quota bar with a specific width.
func NewQuotaBarWithWidth(width int) QuotaBar {
	p := progress.New(
		progress.WithScaledGradient("#ff6b6b", "#51cf66"),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)

	return QuotaBar{progress: p}
}

// Init initializes the progress bar model.
func (q QuotaBar) Init() tea.Cmd {
	return nil
}

// Update handles progress bar messages.
func (q QuotaBar) Update(msg tea.Msg) (QuotaBar, tea.Cmd) {
	model, cmd := q.progress.Update(msg)
	q.progress = model.(progress.Model)
	return q, cmd
}

// SetWidth sets the progress bar width.
func (q *QuotaBar) SetWidth(width int) {
	q.progress.Width = width
}

// View renders the quota bar with label and percentage.
func (q QuotaBar) View(percent float64, label string, width int) string {
	// Reserve space for label and percentage
	barWidth := width - 30
	if barWidth < 10 {
		barWidth = 10
	}
	q.progress.Width = barWidth

	bar := q.progress.ViewAs(percent / 100)

	percentStyle := styles.GetQuotaStyle(percent, false)
	percentStr := percentStyle.Width(6).Align(lipgloss.Right).Render(fmt.Sprintf("%.0f%%", percent))

	labelStr := styles.ProgressLabelStyle.Width(20).Render(label)

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		labelStr,
		bar,
		" ",
		percentStr,
	)
}

// ViewCompact renders a compact version without label.
func (q QuotaBar) ViewCompact(percent float64, width int) string {
	barWidth := width - 8
	if barWidth < 5 {
		barWidth = 5
	}
	q.progress.Width = barWidth

	bar := q.progress.ViewAs(percent / 100)
	percentStyle := styles.GetQuotaStyle(percent, false)
	percentStr := percentStyle.Render(fmt.Sprintf("%.0f%%", percent))

	return lipgloss.JoinHorizontal(lipgloss.Center, bar, " ", percentStr)
}

// ViewExhausted renders a model that is out of quota.
func (q QuotaBar) ViewExhausted(label string, width int) string {
	labelStr := styles.ProgressLabelStyle.Width(20).Render(label)

	barWidth := width - 30
	if barWidth < 10 {
		barWidth = 10
	}
	msg := styles.QuotaExhaustedStyle.Width(barWidth).Align(lipgloss.Center).Render("EXHAUSTED")

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, msg)
}

// ViewUnknown renders a model whose remaining fraction is not reported.
func (q QuotaBar) ViewUnknown(label string, width int) string {
	labelStr := styles.ProgressLabelStyle.Width(20).Render(label)
	msg := styles.HelpStyle.Render("no quota data")

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, msg)
}
