// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/lvanelk/antigravity-quota-watch/internal/config"
	"github.com/lvanelk/antigravity-quota-watch/internal/db"
	"github.com/lvanelk/antigravity-quota-watch/internal/discovery"
	"github.com/lvanelk/antigravity-quota-watch/internal/logger"
	"github.com/lvanelk/antigravity-quota-watch/internal/models"
	"github.com/lvanelk/antigravity-quota-watch/internal/parser"
	"github.com/lvanelk/antigravity-quota-watch/internal/store"
)

// Cadence selects how often the language server is polled.
type Cadence int

const (
	// CadenceActive polls frequently, for when the display is visible.
	CadenceActive Cadence = iota
	// CadenceRelaxed polls slowly, for when the display is backgrounded.
	CadenceRelaxed
)

const historyRetention = 90 * 24 * time.Hour

type (
	// SnapshotEvent is emitted after every successful fetch cycle.
	SnapshotEvent struct {
		Snapshot *models.QuotaSnapshot
	}

	// LookupFailedEvent is emitted when a fetch cycle fails. NotRunning is
	// set when the language server process could not be found at all.
	LookupFailedEvent struct {
		Err        error
		NotRunning bool
	}

	// StoreChangedEvent is emitted when another process rewrites the shared
	// quota file.
	StoreChangedEvent struct{}

	// ErrorEvent is emitted when a background service fails.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (SnapshotEvent) isServiceEvent()     {}
func (LookupFailedEvent) isServiceEvent() {}
func (StoreChangedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()        {}

// Manager runs the fetch cycle on a timer and routes results to subscribers.
type Manager struct {
	cfg      *config.Config
	pipeline *discovery.Pipeline
	store    *store.Store
	watcher  *store.Watcher
	database *db.DB

	refreshChan chan struct{}
	cadenceChan chan Cadence
	stopChan    chan struct{}

	mu           sync.RWMutex
	subscribers  []chan<- ServiceEvent
	lastSnapshot *models.QuotaSnapshot
	cadence      Cadence
	prevModels   map[string]models.ModelQuota
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		pipeline: discovery.NewPipeline(discovery.Options{
			ProbeTimeout:       cfg.ProbeTimeout,
			StatusRPCTimeout:   cfg.StatusRPCTimeout,
			ProcessScanTimeout: cfg.ProcessScanTimeout,
		}),
		store:       store.New(cfg.QuotaFilePath),
		refreshChan: make(chan struct{}, 1),
		cadenceChan: make(chan Cadence, 1),
		stopChan:    make(chan struct{}),
		cadence:     CadenceActive,
		prevModels:  make(map[string]models.ModelQuota),
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.watcher, err = m.store.Watch()
	if err != nil {
		// The watcher is a convenience, not a requirement.
		logger.Warn("quota file watcher unavailable", "error", err)
	}

	go m.pollLoop()
	go m.pruneLoop()
	if m.watcher != nil {
		go m.watchLoop()
	}

	return m, nil
}

// Refresh requests an immediate fetch cycle.
func (m *Manager) Refresh() {
	select {
	case m.refreshChan <- struct{}{}:
	default:
	}
}

// SetCadence switches the polling interval.
func (m *Manager) SetCadence(c Cadence) {
	m.mu.Lock()
	m.cadence = c
	m.mu.Unlock()

	select {
	case m.cadenceChan <- c:
	default:
	}
}

// Cadence returns the current polling cadence.
func (m *Manager) Cadence() Cadence {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cadence
}

// LastSnapshot returns the most recent successful snapshot, or nil.
func (m *Manager) LastSnapshot() *models.QuotaSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSnapshot
}

// StoredRecords returns the persisted per-account records from the shared
// quota file.
func (m *Manager) StoredRecords() map[string]models.StoredAccountRecord {
	return m.store.ReadAll()
}

// QuotaFilePath returns the path of the shared quota file.
func (m *Manager) QuotaFilePath() string {
	return m.store.Path()
}

// Database returns the history database for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

func (m *Manager) interval() time.Duration {
	if m.Cadence() == CadenceRelaxed {
		return m.cfg.PollIntervalRelax
	}
	return m.cfg.PollIntervalActive
}

// pollLoop drives the fetch cycle. Each cycle runs in its own goroutine so
// a slow probe never delays the timer; overlapping cycles are tolerated and
// the last writer wins.
func (m *Manager) pollLoop() {
	m.runCycle()

	timer := time.NewTimer(m.interval())
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			m.runCycle()
			timer.Reset(m.interval())

		case <-m.refreshChan:
			m.runCycle()
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(m.interval())

		case <-m.cadenceChan:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(m.interval())

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) runCycle() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.StatusRPCTimeout+m.cfg.ProcessScanTimeout+m.cfg.ProbeTimeout)
		defer cancel()

		result, err := m.pipeline.Fetch(ctx)
		if err != nil {
			m.broadcast(LookupFailedEvent{
				Err:        err,
				NotRunning: discovery.IsNotFound(err),
			})
			return
		}

		snap := parser.Parse(result.Payload, time.Now())
		m.handleSnapshot(snap)
	}()
}

func (m *Manager) handleSnapshot(snap *models.QuotaSnapshot) {
	m.mu.Lock()
	m.lastSnapshot = snap
	m.mu.Unlock()

	m.checkNotifications(snap)

	m.store.Upsert(snap.AccountEmail, snap)
	if err := m.database.RecordSnapshot(snap); err != nil {
		logger.Warn("failed to record history", "error", err)
	}

	m.broadcast(SnapshotEvent{Snapshot: snap})
}

// checkNotifications raises a desktop notification when a model crosses
// into exhaustion or comes back from it.
func (m *Manager) checkNotifications(snap *models.QuotaSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mq := range snap.Models {
		prev, seen := m.prevModels[mq.ModelID]
		m.prevModels[mq.ModelID] = mq
		if !seen {
			continue
		}

		if mq.IsExhausted && !prev.IsExhausted {
			title := fmt.Sprintf("Quota Exhausted: %s", mq.DisplayLabel)
			body := "The model is out of quota until the next reset."
			if mq.ResetAt != nil {
				body = fmt.Sprintf("Out of quota until %s.", mq.ResetAt.Local().Format("15:04"))
			}
			_ = beeep.Notify(title, body, "")
		}

		if !mq.IsExhausted && prev.IsExhausted {
			title := fmt.Sprintf("Quota Restored: %s", mq.DisplayLabel)
			_ = beeep.Notify(title, "The model is available again.", "")
		}
	}
}

// watchLoop forwards external quota file changes to subscribers.
func (m *Manager) watchLoop() {
	for {
		select {
		case _, ok := <-m.watcher.Events():
			if !ok {
				return
			}
			m.broadcast(StoreChangedEvent{})

		case <-m.stopChan:
			return
		}
	}
}

// pruneLoop trims old history once at startup and then daily.
func (m *Manager) pruneLoop() {
	m.pruneHistory()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.pruneHistory()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) pruneHistory() {
	removed, err := m.database.Prune(historyRetention)
	if err != nil {
		m.broadcast(ErrorEvent{Service: "db", Error: err})
		return
	}
	if removed > 0 {
		logger.Debug("pruned history rows", "count", removed)
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	close(m.stopChan)

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
