package discovery

import (
	"context"
	"runtime"
	"strconv"
	"strings"

	"github.com/lvanelk/antigravity-quota-watch/internal/logger"
)

// Process identification. The language server embeds a CSRF token and,
// depending on version, the extension server port in its own launch
// arguments.
const (
	processMarker = "language_server"

	tokenArg = "--csrf_token"
	portArg  = "--extension_server_port"
)

// roleMarkers distinguish the language-server role from unrelated helper
// processes that happen to share the binary name.
var roleMarkers = []string{"--csrf_token", "antigravity", "--lsp"}

// ProcessHandle describes the located language-server process. It is
// ephemeral: created once per discovery attempt and never persisted.
type ProcessHandle struct {
	PID            int
	SecurityToken  string
	HintedPort     int
	RawCommandLine string
}

// Locator finds the language-server process for the current platform.
// Locate returns (nil, nil) when no matching process exists; that is a
// normal outcome, not an error.
type Locator interface {
	Locate(ctx context.Context) (*ProcessHandle, error)
}

// NewLocator selects the locator implementation for the running OS.
func NewLocator(runner CommandRunner) Locator {
	switch runtime.GOOS {
	case "windows":
		return &windowsLocator{runner: runner}
	default:
		return &unixLocator{runner: runner}
	}
}

// newHandle builds a ProcessHandle from a pid and its command line,
// extracting the security token and hinted port.
func newHandle(pid int, cmdline string) *ProcessHandle {
	h := &ProcessHandle{
		PID:            pid,
		RawCommandLine: cmdline,
		SecurityToken:  extractArg(cmdline, tokenArg),
	}
	if portStr := extractArg(cmdline, portArg); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			h.HintedPort = port
		}
	}
	return h
}

// matchesTarget reports whether a command line belongs to the target
// language-server process.
func matchesTarget(cmdline string) bool {
	if !strings.Contains(cmdline, processMarker) {
		return false
	}
	lower := strings.ToLower(cmdline)
	for _, marker := range roleMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// extractArg pulls a named argument value out of a command line. Both
// "--arg=value" and "--arg value" forms are supported, with optional single
// or double quoting around the value.
func extractArg(cmdline, name string) string {
	tokens := tokenize(cmdline)
	for i, tok := range tokens {
		if tok == name {
			if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "--") {
				return unquote(tokens[i+1])
			}
			return ""
		}
		if strings.HasPrefix(tok, name+"=") {
			return unquote(tok[len(name)+1:])
		}
	}
	return ""
}

// tokenize splits a command line on whitespace while keeping quoted
// segments intact.
func tokenize(cmdline string) []string {
	var tokens []string
	var current strings.Builder
	var quote rune

	for _, r := range cmdline {
		switch {
		case quote != 0:
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			current.WriteRune(r)
		case r == ' ' || r == '\t':
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// unixLocator enumerates processes with ps and picks the first whose
// command line matches the target. Shared by macOS and Linux.
type unixLocator struct {
	runner CommandRunner
}

func (l *unixLocator) Locate(ctx context.Context) (*ProcessHandle, error) {
	out, err := l.runner.Run(ctx, "ps", "-axo", "pid=,args=")
	if err != nil {
		logger.Debug("process listing failed", "error", err)
		return nil, nil
	}
	return parsePSOutput(out), nil
}

// parsePSOutput scans "pid command line" rows and returns the first
// matching process, or nil.
func parsePSOutput(out string) *ProcessHandle {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		cmdline := strings.TrimSpace(fields[1])
		if matchesTarget(cmdline) {
			return newHandle(pid, cmdline)
		}
	}
	return nil
}

// windowsLocator tries wmic first, then falls back to PowerShell listing
// processes by name and querying each one's command line individually.
type windowsLocator struct {
	runner CommandRunner
}

func (l *windowsLocator) Locate(ctx context.Context) (*ProcessHandle, error) {
	if h := l.locateViaWMIC(ctx); h != nil {
		return h, nil
	}
	return l.locateViaPowerShell(ctx), nil
}

func (l *windowsLocator) locateViaWMIC(ctx context.Context) *ProcessHandle {
	out, err := l.runner.Run(ctx, "wmic", "process",
		"where", "CommandLine like '%"+processMarker+"%'",
		"get", "ProcessId,CommandLine", "/format:list")
	if err != nil {
		logger.Debug("wmic unavailable", "error", err)
		return nil
	}
	return parseWMICOutput(out)
}

// parseWMICOutput reads /format:list blocks of CommandLine= and ProcessId=
// lines and returns the first matching process.
func parseWMICOutput(out string) *ProcessHandle {
	var cmdline string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "CommandLine="):
			cmdline = strings.TrimPrefix(line, "CommandLine=")
		case strings.HasPrefix(line, "ProcessId="):
			pid, err := strconv.Atoi(strings.TrimPrefix(line, "ProcessId="))
			if err == nil && matchesTarget(cmdline) {
				return newHandle(pid, cmdline)
			}
			cmdline = ""
		}
	}
	return nil
}

func (l *windowsLocator) locateViaPowerShell(ctx context.Context) *ProcessHandle {
	out, err := l.runner.Run(ctx, "powershell", "-NoProfile", "-Command",
		"Get-Process -Name *"+processMarker+"* | Select-Object -ExpandProperty Id")
	if err != nil {
		logger.Debug("powershell process listing failed", "error", err)
		return nil
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		pid, err := strconv.Atoi(line)
		if err != nil {
			continue
		}

		// One extra command per candidate; the list is pre-filtered by
		// name so this stays small. First match wins.
		cmdOut, err := l.runner.Run(ctx, "powershell", "-NoProfile", "-Command",
			"(Get-CimInstance Win32_Process -Filter \"ProcessId="+line+"\").CommandLine")
		if err != nil {
			continue
		}
		cmdline := strings.TrimSpace(cmdOut)
		if matchesTarget(cmdline) {
			return newHandle(pid, cmdline)
		}
	}
	return nil
}
