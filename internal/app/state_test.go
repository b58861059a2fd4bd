package app

import (
	"errors"
	"testing"
	"time"

	"github.com/lvanelk/antigravity-quota-watch/internal/models"
)

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if s.GetSnapshot() != nil {
		t.Error("snapshot should be nil initially")
	}
	if !s.IsLoading() {
		t.Error("state should start in loading mode")
	}
	if len(s.GetStoredRecords()) != 0 {
		t.Error("stored records should be empty")
	}
}

func TestState_SetSnapshot(t *testing.T) {
	s := NewState()
	s.SetLookupFailure(errors.New("boom"), true)

	snap := &models.QuotaSnapshot{AccountEmail: "user@example.com"}
	s.SetSnapshot(snap)

	if s.GetSnapshot() != snap {
		t.Error("GetSnapshot should return the set snapshot")
	}
	if s.ServerMissing() {
		t.Error("a successful snapshot should clear the server-missing flag")
	}
	if s.LastError() != nil {
		t.Error("a successful snapshot should clear the last error")
	}
	if s.IsLoading() {
		t.Error("loading should be false after a snapshot")
	}
	if s.GetLastUpdated().IsZero() {
		t.Error("LastUpdated should be set")
	}
}

func TestState_SetLookupFailure(t *testing.T) {
	s := NewState()
	err := errors.New("no server")

	s.SetLookupFailure(err, true)

	if !s.ServerMissing() {
		t.Error("ServerMissing should be true")
	}
	if !errors.Is(s.LastError(), err) {
		t.Errorf("LastError = %v, want %v", s.LastError(), err)
	}
	if s.IsLoading() {
		t.Error("loading should be false after a failure")
	}
}

func TestState_TimeSinceUpdate(t *testing.T) {
	s := NewState()
	if s.TimeSinceUpdate() != 0 {
		t.Error("TimeSinceUpdate should be 0 before any update")
	}

	s.SetSnapshot(&models.QuotaSnapshot{})
	time.Sleep(time.Millisecond)
	if s.TimeSinceUpdate() == 0 {
		t.Error("TimeSinceUpdate should be > 0 after an update")
	}
}

func TestState_StoredRecords(t *testing.T) {
	s := NewState()

	records := map[string]models.StoredAccountRecord{
		"user@example.com": {Models: map[string]models.StoredModelQuota{}},
	}
	s.SetStoredRecords(records)

	got := s.GetStoredRecords()
	if len(got) != 1 {
		t.Errorf("GetStoredRecords len = %d, want 1", len(got))
	}
	if _, ok := got["user@example.com"]; !ok {
		t.Error("stored record for user@example.com missing")
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationInfo, "test", time.Minute)
	if id == "" {
		t.Error("AddNotification returned empty ID")
	}

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("GetNotifications len = %d, want 1", len(notifs))
	}
	if notifs[0].Message != "test" {
		t.Errorf("Notification message = %s, want test", notifs[0].Message)
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("Notification should be removed")
	}
}

func TestState_NotificationCap(t *testing.T) {
	s := NewState()
	for i := 0; i < 15; i++ {
		s.AddNotification(NotificationInfo, "n", time.Minute)
	}
	if got := len(s.GetNotifications()); got > 10 {
		t.Errorf("notifications should be capped at 10, got %d", got)
	}
}

func TestState_ClearExpiredNotifications(t *testing.T) {
	s := NewState()

	s.notifications = append(s.notifications, Notification{
		ID:        "expired",
		CreatedAt: time.Now().Add(-2 * time.Minute),
		Duration:  time.Minute,
	})
	s.notifications = append(s.notifications, Notification{
		ID:        "active",
		CreatedAt: time.Now(),
		Duration:  time.Minute,
	})

	s.ClearExpiredNotifications()

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != "active" {
		t.Errorf("Expected active notification, got %s", notifs[0].ID)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("loading...")
	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != LoadingNotificationID {
		t.Errorf("Expected ID %s, got %s", LoadingNotificationID, notifs[0].ID)
	}

	// Updating replaces the message, not the notification.
	s.SetLoadingNotification("still loading...")
	notifs = s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification after update, got %d", len(notifs))
	}
	if notifs[0].Message != "still loading..." {
		t.Errorf("Expected message still loading..., got %s", notifs[0].Message)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("Loading notification should be cleared")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		t    NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationType(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestNotification_IsExpired(t *testing.T) {
	n := Notification{CreatedAt: time.Now().Add(-time.Hour), Duration: time.Minute}
	if !n.IsExpired() {
		t.Error("old notification should be expired")
	}

	sticky := Notification{CreatedAt: time.Now().Add(-time.Hour), Duration: 0}
	if sticky.IsExpired() {
		t.Error("zero-duration notification should never expire")
	}
}
