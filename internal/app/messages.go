package app

import (
	"time"

	"github.com/lvanelk/antigravity-quota-watch/internal/models"
	"github.com/lvanelk/antigravity-quota-watch/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// SnapshotMsg carries a fresh quota snapshot from the fetch cycle.
type SnapshotMsg struct {
	Snapshot *models.QuotaSnapshot
}

// LookupFailedMsg signals that a fetch cycle failed.
type LookupFailedMsg struct {
	Err        error
	NotRunning bool
}

// StoredRecordsMsg carries the persisted per-account records.
type StoredRecordsMsg struct {
	Records map[string]models.StoredAccountRecord
}

// HistoryLoadedMsg carries history points for the history chart.
type HistoryLoadedMsg struct {
	ModelID string
	Points  []models.HistoryPoint
	Error   error
}

// TrackedModelsMsg carries the model IDs present in the history database.
type TrackedModelsMsg struct {
	ModelIDs []string
	Error    error
}

// RefreshMsg requests an immediate fetch cycle.
type RefreshMsg struct{}

// StartLoadingMsg signals that a refresh has started.
type StartLoadingMsg struct{}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
