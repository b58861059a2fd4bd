package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lvanelk/antigravity-quota-watch/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// HistoryChartWindow is the trailing window shown on the history chart.
	HistoryChartWindow = 24 * time.Hour
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// refreshCmd triggers an immediate fetch cycle on the manager.
func refreshCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.Refresh()
		return StartLoadingMsg{}
	}
}

// loadStoredRecordsCmd reads the shared quota file.
func loadStoredRecordsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return StoredRecordsMsg{Records: mgr.StoredRecords()}
	}
}

// loadHistoryCmd loads chart data for one model from the history database.
func loadHistoryCmd(mgr *services.Manager, email, modelID string) tea.Cmd {
	return func() tea.Msg {
		points, err := mgr.Database().GetModelHistory(email, modelID, HistoryChartWindow)
		return HistoryLoadedMsg{
			ModelID: modelID,
			Points:  points,
			Error:   err,
		}
	}
}

// loadTrackedModelsCmd loads the model IDs present in the history database.
func loadTrackedModelsCmd(mgr *services.Manager, email string) tea.Cmd {
	return func() tea.Msg {
		ids, err := mgr.Database().ListTrackedModels(email)
		return TrackedModelsMsg{ModelIDs: ids, Error: err}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}

// Commands provides a public interface to the command functions.
type Commands struct {
	manager *services.Manager
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr}
}

// Tick returns a tick command with the specified interval.
func (c *Commands) Tick(interval time.Duration) tea.Cmd {
	return tickCmd(interval)
}

// Refresh returns a command that triggers a fetch cycle.
func (c *Commands) Refresh() tea.Cmd {
	return refreshCmd(c.manager)
}

// LoadStoredRecords returns a command that reads the shared quota file.
func (c *Commands) LoadStoredRecords() tea.Cmd {
	return loadStoredRecordsCmd(c.manager)
}

// LoadHistory returns a command that loads chart data for one model.
func (c *Commands) LoadHistory(email, modelID string) tea.Cmd {
	return loadHistoryCmd(c.manager, email, modelID)
}

// LoadTrackedModels returns a command that lists models in the history database.
func (c *Commands) LoadTrackedModels(email string) tea.Cmd {
	return loadTrackedModelsCmd(c.manager, email)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}
