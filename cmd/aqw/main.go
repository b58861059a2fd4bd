// Package main is the entry point for the Antigravity quota watcher.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lvanelk/antigravity-quota-watch/internal/app"
	"github.com/lvanelk/antigravity-quota-watch/internal/config"
	"github.com/lvanelk/antigravity-quota-watch/internal/services"
	"github.com/lvanelk/antigravity-quota-watch/internal/ui/tabs/history"
	"github.com/lvanelk/antigravity-quota-watch/internal/ui/tabs/info"
	"github.com/lvanelk/antigravity-quota-watch/internal/ui/tabs/status"
	"github.com/lvanelk/antigravity-quota-watch/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Starts the discovery pipeline, quota store and history database.
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)

	// Each tab receives the shared application state for consistent data access.
	state := model.GetState()
	tabs := []app.Tab{
		status.New(state),              // Tab 0: Status - live quota overview
		history.New(state, svcManager), // Tab 1: History - quota over time
		info.New(state, cfg),           // Tab 2: Info - configuration and app info
	}
	model.SetTabs(tabs)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Focus reporting drives the active/relaxed polling cadence.
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`Antigravity Quota Watch - Local quota monitor for the Antigravity language server

Usage:
  aqw [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Status, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Scroll
  r               Refresh data
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  QUOTA_FILE_PATH         Shared quota JSON path (default: ~/.quota-checker/quota.json)
  DATABASE_PATH           SQLite history database path
  POLL_INTERVAL_ACTIVE    Polling interval while focused (default: 30s)
  POLL_INTERVAL_RELAXED   Polling interval while unfocused (default: 5m)
  PROBE_TIMEOUT           Per-port endpoint probe timeout (default: 500ms)
  STATUS_RPC_TIMEOUT      Status RPC timeout (default: 5s)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.quota-checker/.env`)
}
