package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lvanelk/antigravity-quota-watch/internal/models"
	"github.com/lvanelk/antigravity-quota-watch/internal/services"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil)
	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if model.state == nil {
		t.Error("State should be initialized")
	}
	if model.activeTab != TabStatus {
		t.Error("Default tab should be Status")
	}
	if len(model.tabs) != 3 {
		t.Errorf("Should have 3 tab placeholders, got %d", len(model.tabs))
	}
}

func TestModel_Init(t *testing.T) {
	model := NewModel(nil)
	cmd := model.Init()
	if cmd == nil {
		t.Error("Init returned nil command")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	model := NewModel(nil)
	msg := tea.WindowSizeMsg{Width: 100, Height: 50}

	newModel, _ := model.Update(msg)

	m, ok := newModel.(*Model)
	if !ok {
		t.Fatal("Update returned wrong model type")
	}

	if m.width != 100 {
		t.Errorf("Width = %d, want 100", m.width)
	}
	if m.height != 50 {
		t.Errorf("Height = %d, want 50", m.height)
	}
	if !m.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
}

func TestModel_Update_TabSwitch(t *testing.T) {
	model := NewModel(nil)
	model.ready = true
	model.width = 100
	model.height = 50

	msg := TabSwitchMsg{Tab: TabHistory}
	newModel, _ := model.Update(msg)
	m := newModel.(*Model)

	if m.activeTab != TabHistory {
		t.Errorf("ActiveTab = %v, want History", m.activeTab)
	}

	// Key binding '3' switches to Info.
	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	if m.activeTab != TabInfo {
		t.Errorf("ActiveTab = %v, want Info", m.activeTab)
	}

	// Tab cycles forward, wrapping to Status.
	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyTab})
	if m.activeTab != TabStatus {
		t.Errorf("ActiveTab = %v, want Status after wrap", m.activeTab)
	}

	// Shift+Tab cycles backward.
	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.activeTab != TabInfo {
		t.Errorf("ActiveTab = %v, want Info after reverse wrap", m.activeTab)
	}
}

func TestModel_Update_Tick(t *testing.T) {
	model := NewModel(nil)
	msg := TickMsg{Time: time.Now()}

	_, cmd := model.Update(msg)
	if cmd == nil {
		t.Error("TickMsg should return a command (next tick)")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil)

	view := model.View()
	if !strings.Contains(view, "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	model.ready = true
	model.width = 80
	model.height = 24

	view = model.View()
	if !strings.Contains(view, "Status") {
		t.Error("View should show the Status tab name")
	}
	if !strings.Contains(view, "History") {
		t.Error("View should show the History tab name")
	}
}

func TestModel_Help(t *testing.T) {
	model := NewModel(nil)
	model.ready = true
	model.width = 80
	model.height = 24

	model.Update(ToggleHelpMsg{})
	if !model.showHelp {
		t.Error("showHelp should be true")
	}

	view := model.View()
	if !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("View should show help modal")
	}

	model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if model.showHelp {
		t.Error("showHelp should be false after toggle")
	}

	// Esc closes the help overlay too.
	model.showHelp = true
	model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEscape})
	if model.showHelp {
		t.Error("showHelp should be false after esc")
	}
}

func TestModel_Notifications(t *testing.T) {
	model := NewModel(nil)

	msg := AddNotificationMsg{
		Message:  "Test Note",
		Type:     NotificationInfo,
		Duration: 0,
	}

	model.Update(msg)

	notifs := model.state.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifs))
	}

	model.ready = true
	model.width = 80
	model.height = 24
	view := model.View()
	if !strings.Contains(view, "Test Note") {
		t.Error("View should show notification")
	}
}

func TestModel_HandleServiceEvent_Snapshot(t *testing.T) {
	model := NewModel(nil)
	model.state.SetLoadingNotification("looking...")

	snap := &models.QuotaSnapshot{AccountEmail: "user@example.com"}
	cmds := model.handleServiceEvent(services.SnapshotEvent{Snapshot: snap})

	if model.state.GetSnapshot() != snap {
		t.Error("snapshot should be stored in state")
	}
	if len(model.state.GetNotifications()) != 0 {
		t.Error("loading notification should be cleared")
	}
	if len(cmds) == 0 {
		t.Error("snapshot event should emit follow-up commands")
	}
}

func TestModel_HandleServiceEvent_LookupFailed(t *testing.T) {
	model := NewModel(nil)

	// Server not running: no warning toast, just state.
	cmds := model.handleServiceEvent(services.LookupFailedEvent{
		Err:        errors.New("no process"),
		NotRunning: true,
	})
	if !model.state.ServerMissing() {
		t.Error("state should record the missing server")
	}
	for _, cmd := range cmds {
		if msg, ok := cmd().(AddNotificationMsg); ok {
			t.Errorf("not-running failure should not add notifications, got %q", msg.Message)
		}
	}

	// A genuine fetch error does warn.
	cmds = model.handleServiceEvent(services.LookupFailedEvent{
		Err: errors.New("connection refused"),
	})
	var warned bool
	for _, cmd := range cmds {
		if msg, ok := cmd().(AddNotificationMsg); ok && msg.Type == NotificationWarning {
			warned = true
		}
	}
	if !warned {
		t.Error("fetch error should add a warning notification")
	}
}

func TestModel_HandleServiceEvent_Error(t *testing.T) {
	model := NewModel(nil)

	cmds := model.handleServiceEvent(services.ErrorEvent{
		Service: "db",
		Error:   errors.New("prune failed"),
	})
	if len(cmds) == 0 {
		t.Fatal("error event should trigger a notification command")
	}

	msg := cmds[0]()
	addMsg, ok := msg.(AddNotificationMsg)
	if !ok {
		t.Fatalf("Expected AddNotificationMsg, got %T", msg)
	}
	if addMsg.Type != NotificationError {
		t.Errorf("Type = %v, want NotificationError", addMsg.Type)
	}
	if !strings.Contains(addMsg.Message, "db") {
		t.Errorf("Message should name the service, got %q", addMsg.Message)
	}
}

func TestModel_Update_StoredRecords(t *testing.T) {
	model := NewModel(nil)

	records := map[string]models.StoredAccountRecord{
		"user@example.com": {},
	}
	model.Update(StoredRecordsMsg{Records: records})

	if len(model.state.GetStoredRecords()) != 1 {
		t.Error("stored records should be updated in state")
	}
}

func TestModel_Update_StartLoading(t *testing.T) {
	model := NewModel(nil)
	model.state.SetLoading(false)

	model.Update(StartLoadingMsg{})
	if !model.state.IsLoading() {
		t.Error("StartLoadingMsg should set loading")
	}
	if len(model.state.GetNotifications()) == 0 {
		t.Error("StartLoadingMsg should show a loading notification")
	}
}

func TestModel_HandleSpinnerTick(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Spinner tick should return command")
	}
}

func TestTabID_String(t *testing.T) {
	if TabStatus.String() != "Status" {
		t.Error("TabStatus.String() mismatch")
	}
	if TabHistory.String() != "History" {
		t.Error("TabHistory.String() mismatch")
	}
	if TabInfo.String() != "Info" {
		t.Error("TabInfo.String() mismatch")
	}
	if TabID(999).String() != "Unknown" {
		t.Error("Unknown tab string mismatch")
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
}

func TestDefaultStyles(t *testing.T) {
	s := DefaultStyles()
	_ = s
}
