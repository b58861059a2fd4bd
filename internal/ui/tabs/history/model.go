// Package history provides the history tab charting quota consumption.
package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lvanelk/antigravity-quota-watch/internal/app"
	"github.com/lvanelk/antigravity-quota-watch/internal/models"
	"github.com/lvanelk/antigravity-quota-watch/internal/services"
)

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	NextModel key.Binding
	PrevModel key.Binding
	Refresh   key.Binding
	Up        key.Binding
	Down      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextModel: key.NewBinding(
			key.WithKeys("n", "l"),
			key.WithHelp("n", "next model"),
		),
		PrevModel: key.NewBinding(
			key.WithKeys("p", "h"),
			key.WithHelp("p", "prev model"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	modelIDs      []string
	selectedModel int
	points        []models.HistoryPoint
	loading       bool
	lastRefresh   time.Time
	errorMsg      string
}

// New creates a new history model.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:    state,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return m.loadModelsCmd()
}

func (m *Model) email() string {
	if snap := m.state.GetSnapshot(); snap != nil && snap.AccountEmail != "" {
		return snap.AccountEmail
	}
	// Fall back to any account in the shared file.
	for email := range m.state.GetStoredRecords() {
		return email
	}
	return ""
}

func (m *Model) loadModelsCmd() tea.Cmd {
	if m.services == nil {
		return nil
	}
	email := m.email()
	if email == "" {
		return nil
	}
	mgr := m.services
	return func() tea.Msg {
		ids, err := mgr.Database().ListTrackedModels(email)
		return app.TrackedModelsMsg{ModelIDs: ids, Error: err}
	}
}

func (m *Model) loadHistoryCmd() tea.Cmd {
	if m.services == nil || len(m.modelIDs) == 0 {
		return nil
	}
	email := m.email()
	if email == "" {
		return nil
	}
	modelID := m.modelIDs[m.selectedModel]
	mgr := m.services
	return func() tea.Msg {
		points, err := mgr.Database().GetModelHistory(email, modelID, app.HistoryChartWindow)
		return app.HistoryLoadedMsg{ModelID: modelID, Points: points, Error: err}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case app.TrackedModelsMsg:
		m.loading = false
		if msg.Error != nil {
			m.errorMsg = msg.Error.Error()
			break
		}
		m.modelIDs = msg.ModelIDs
		if m.selectedModel >= len(m.modelIDs) {
			m.selectedModel = 0
		}
		m.errorMsg = ""
		cmds = append(cmds, m.loadHistoryCmd())

	case app.HistoryLoadedMsg:
		m.loading = false
		m.lastRefresh = time.Now()
		if msg.Error != nil {
			m.errorMsg = msg.Error.Error()
			cmds = append(cmds, func() tea.Msg {
				return app.AddNotificationMsg{
					Type:     app.NotificationError,
					Message:  fmt.Sprintf("History error: %s", msg.Error),
					Duration: app.LongNotificationDuration,
				}
			})
			break
		}
		m.points = msg.Points
		m.errorMsg = ""

	case app.SnapshotMsg:
		// A fresh cycle may have introduced new models or data points.
		if !m.loading {
			m.loading = true
			cmds = append(cmds, m.loadModelsCmd())
		}

	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory && !m.loading {
			m.loading = true
			cmds = append(cmds, m.loadModelsCmd())
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd
	switch {
	case key.Matches(msg, m.keys.NextModel):
		if len(m.modelIDs) > 0 {
			m.selectedModel = (m.selectedModel + 1) % len(m.modelIDs)
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case key.Matches(msg, m.keys.PrevModel):
		if len(m.modelIDs) > 0 {
			m.selectedModel = (m.selectedModel - 1 + len(m.modelIDs)) % len(m.modelIDs)
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		cmds = append(cmds, m.loadModelsCmd())

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.NextModel,
		m.keys.PrevModel,
		m.keys.Refresh,
	}
}
