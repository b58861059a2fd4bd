package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/lvanelk/antigravity-quota-watch/internal/ui/styles"
	"github.com/lvanelk/antigravity-quota-watch/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderFetchCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		rows = append(rows, m.renderConfigRow("Quota File", m.config.QuotaFilePath))
		rows = append(rows, m.renderConfigRow("History DB", m.config.DatabasePath))
		rows = append(rows, m.renderConfigRow("Poll (active)", m.config.PollIntervalActive.String()))
		rows = append(rows, m.renderConfigRow("Poll (relaxed)", m.config.PollIntervalRelax.String()))
		rows = append(rows, m.renderConfigRow("Probe Timeout", m.config.ProbeTimeout.String()))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderFetchCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Last Fetch"))
	rows = append(rows, "")

	switch {
	case m.state.LastError() != nil:
		if m.state.ServerMissing() {
			rows = append(rows, styles.WarningTextStyle.Render("Language server not running"))
		} else {
			rows = append(rows, styles.ErrorTextStyle.Render(m.state.LastError().Error()))
		}

	case m.state.GetSnapshot() != nil:
		rows = append(rows, styles.SuccessTextStyle.Render("OK"))

	default:
		rows = append(rows, styles.HelpStyle.Render("No fetch completed yet"))
	}

	if last := m.state.GetLastUpdated(); !last.IsZero() {
		rows = append(rows, m.renderConfigRow("At", last.Local().Format("15:04:05")))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About Antigravity Quota Watch"))
	rows = append(rows, "")

	rows = append(rows, m.renderConfigRow("Version", version.Info()))
	rows = append(rows, m.renderConfigRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))

	if snap := m.state.GetSnapshot(); snap != nil && snap.AccountEmail != "" {
		rows = append(rows, "")
		rows = append(rows, m.renderConfigRow("Account", snap.AccountEmail))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) cardWidth() int {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	if w > 80 {
		w = 80
	}
	return w
}
