package status

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lvanelk/antigravity-quota-watch/internal/models"
	"github.com/lvanelk/antigravity-quota-watch/internal/ui/styles"
)

// compactWidth is the terminal width below which bar labels move to
// their own line.
const compactWidth = 70

// View renders the status tab.
func (m *Model) View() string {
	snap := m.state.GetSnapshot()

	var sections []string
	sections = append(sections, m.renderTitle(snap))

	switch {
	case snap == nil && m.state.IsLoading():
		sections = append(sections, m.spinner.ViewWithLabel())

	case snap == nil && m.state.ServerMissing():
		sections = append(sections, m.renderServerMissing())

	case snap == nil:
		sections = append(sections, m.renderFetchError())

	default:
		if m.state.ServerMissing() {
			// Stale data: the server went away after the last good cycle.
			sections = append(sections, m.renderServerMissing())
		}
		sections = append(sections, m.renderCredits(snap))
		sections = append(sections, m.renderModels(snap))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle(snap *models.QuotaSnapshot) string {
	title := styles.TitleStyle.Render("Quota Status")

	var subtitle string
	if snap != nil && snap.AccountEmail != "" {
		subtitle = snap.AccountEmail
		if snap.PlanLabel != "" {
			subtitle += "  " + styles.PlanStyle.Render(snap.PlanLabel)
		}
	} else {
		subtitle = styles.HelpStyle.Render("No account data yet")
	}

	var freshness string
	if since := m.state.TimeSinceUpdate(); since > 0 {
		line := fmt.Sprintf("Updated %s ago", formatDuration(since))
		if snap != nil && snap.Source != "" {
			line += fmt.Sprintf(" (%s)", snap.Source)
		}
		freshness = styles.HelpStyle.Render(line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, freshness, "")
}

func (m *Model) renderServerMissing() string {
	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			styles.WarningTextStyle.Render("Language server not running"),
			"",
			styles.HelpStyle.Render("Start the Antigravity editor to resume live updates."),
		),
	)
}

func (m *Model) renderFetchError() string {
	msg := "Fetch failed"
	if err := m.state.LastError(); err != nil {
		msg = err.Error()
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(
		styles.ErrorTextStyle.Render(msg),
	)
}

func (m *Model) renderCredits(snap *models.QuotaSnapshot) string {
	cb := snap.CreditBalance
	if cb == nil {
		return ""
	}

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Prompt Credits"))
	rows = append(rows, m.quotaBar.View(cb.RemainingFraction*100, "Credits", m.cardWidth()-6))
	rows = append(rows, styles.HelpStyle.Render(
		fmt.Sprintf("%.0f of %.0f remaining", cb.Available, cb.MonthlyLimit)))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderModels(snap *models.QuotaSnapshot) string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Model Quotas"))

	if len(snap.Models) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No per-model quota reported"))
	}

	stored := m.storedModels(snap.AccountEmail)

	for i := range snap.Models {
		mq := &snap.Models[i]
		rows = append(rows, m.renderModelRow(mq, stored))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderModelRow(mq *models.ModelQuota, stored map[string]models.StoredModelQuota) string {
	barWidth := m.cardWidth() - 6

	var bar string
	switch {
	case mq.IsExhausted:
		bar = m.quotaBar.ViewExhausted(mq.DisplayLabel, barWidth)
	case mq.RemainingFraction == nil:
		bar = m.quotaBar.ViewUnknown(mq.DisplayLabel, barWidth)
	case m.width < compactWidth:
		// Narrow terminals drop the bar labels and stack them above.
		label := styles.ProgressLabelStyle.Render(mq.DisplayLabel)
		bar = lipgloss.JoinVertical(lipgloss.Left, label,
			m.quotaBar.ViewCompact(*mq.RemainingFraction*100, barWidth))
	default:
		bar = m.quotaBar.View(*mq.RemainingFraction*100, mq.DisplayLabel, barWidth)
	}

	if countdown := m.renderCountdown(mq, stored); countdown != "" {
		return lipgloss.JoinVertical(lipgloss.Left, bar, countdown)
	}
	return bar
}

// renderCountdown shows when the quota window resets. For an untouched
// model the persisted frozen window is shown instead of the live value,
// so the countdown does not creep while no quota is being consumed.
func (m *Model) renderCountdown(mq *models.ModelQuota, stored map[string]models.StoredModelQuota) string {
	if sm, ok := stored[mq.ModelID]; ok && mq.IsFull() && sm.FrozenRemainingMillis != nil {
		window := time.Duration(*sm.FrozenRemainingMillis) * time.Millisecond
		if window > 0 {
			return styles.HelpStyle.Render(
				fmt.Sprintf("  full quota, window resets in %s", formatDuration(window)))
		}
		return styles.HelpStyle.Render("  full quota")
	}

	if mq.MillisUntilReset != nil {
		remaining := time.Duration(*mq.MillisUntilReset) * time.Millisecond
		return styles.HelpStyle.Render(
			fmt.Sprintf("  resets in %s", formatDuration(remaining)))
	}

	if mq.ResetAt != nil {
		return styles.HelpStyle.Render(
			fmt.Sprintf("  resets at %s", mq.ResetAt.Local().Format("15:04")))
	}

	return ""
}

func (m *Model) storedModels(email string) map[string]models.StoredModelQuota {
	if email == "" {
		return nil
	}
	record, ok := m.state.GetStoredRecords()[email]
	if !ok {
		return nil
	}
	return record.Models
}

func (m *Model) cardWidth() int {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	if w > 100 {
		w = 100
	}
	return w
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours >= 24 {
		days := hours / 24
		return fmt.Sprintf("%dd %dh", days, hours%24)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
