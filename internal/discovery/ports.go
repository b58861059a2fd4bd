package discovery

import (
	"context"
	"runtime"
	"strconv"
	"strings"

	"github.com/lvanelk/antigravity-quota-watch/internal/logger"
)

// PortEnumerator lists TCP ports a process has in LISTEN state. It never
// fails the caller: a missing utility, permission error, or unparseable
// output collapses to an empty list.
type PortEnumerator interface {
	Enumerate(ctx context.Context, pid int) []int
}

// NewPortEnumerator selects the enumerator implementation for the running OS.
func NewPortEnumerator(runner CommandRunner) PortEnumerator {
	switch runtime.GOOS {
	case "darwin":
		return &darwinEnumerator{runner: runner}
	case "windows":
		return &windowsEnumerator{runner: runner}
	default:
		return &linuxEnumerator{runner: runner}
	}
}

// portFromAddress extracts the port from "host:port", "*:port" or
// "[::1]:port" shapes. Returns 0 when no port can be read.
func portFromAddress(addr string) int {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 || idx == len(addr)-1 {
		return 0
	}
	port, err := strconv.Atoi(addr[idx+1:])
	if err != nil || port <= 0 || port > 65535 {
		return 0
	}
	return port
}

// appendPort adds a port to the ordered result set, skipping duplicates.
func appendPort(ports []int, seen map[int]bool, port int) []int {
	if port == 0 || seen[port] {
		return ports
	}
	seen[port] = true
	return append(ports, port)
}

// darwinEnumerator shells out to lsof restricted to TCP LISTEN sockets of
// the given pid.
type darwinEnumerator struct {
	runner CommandRunner
}

func (e *darwinEnumerator) Enumerate(ctx context.Context, pid int) []int {
	out, err := e.runner.Run(ctx, "lsof",
		"-nP", "-iTCP", "-sTCP:LISTEN", "-a", "-p", strconv.Itoa(pid))
	if err != nil {
		logger.Debug("lsof failed", "pid", pid, "error", err)
		return nil
	}
	return parseLsofOutput(out)
}

// parseLsofOutput extracts ports from "address:port (LISTEN)" rows.
func parseLsofOutput(out string) []int {
	var ports []int
	seen := make(map[int]bool)

	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "(LISTEN)") {
			continue
		}
		fields := strings.Fields(line)
		for i, f := range fields {
			if f != "(LISTEN)" || i == 0 {
				continue
			}
			ports = appendPort(ports, seen, portFromAddress(fields[i-1]))
		}
	}
	return ports
}

// linuxEnumerator prefers ss and falls back to netstat when ss reports
// nothing for the pid.
type linuxEnumerator struct {
	runner CommandRunner
}

func (e *linuxEnumerator) Enumerate(ctx context.Context, pid int) []int {
	if out, err := e.runner.Run(ctx, "ss", "-tlnp"); err == nil {
		if ports := parseSSOutput(out, pid); len(ports) > 0 {
			return ports
		}
	} else {
		logger.Debug("ss failed", "pid", pid, "error", err)
	}

	out, err := e.runner.Run(ctx, "netstat", "-tlnp")
	if err != nil {
		logger.Debug("netstat failed", "pid", pid, "error", err)
		return nil
	}
	return parseNetstatOutput(out, pid)
}

// parseSSOutput extracts ports from ss -tlnp rows owned by pid. The process
// column looks like users:(("name",pid=1234,fd=12)).
func parseSSOutput(out string, pid int) []int {
	var ports []int
	seen := make(map[int]bool)
	marker := "pid=" + strconv.Itoa(pid) + ","

	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, marker) {
			continue
		}
		fields := strings.Fields(line)
		// State Recv-Q Send-Q Local-Address:Port Peer-Address:Port Process
		if len(fields) < 4 {
			continue
		}
		ports = appendPort(ports, seen, portFromAddress(fields[3]))
	}
	return ports
}

// parseNetstatOutput extracts ports from netstat -tlnp rows whose PID/Program
// column starts with "pid/".
func parseNetstatOutput(out string, pid int) []int {
	var ports []int
	seen := make(map[int]bool)
	marker := strconv.Itoa(pid) + "/"

	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "LISTEN") {
			continue
		}
		fields := strings.Fields(line)
		// Proto Recv-Q Send-Q Local-Address Foreign-Address State PID/Program
		if len(fields) < 7 || !strings.HasPrefix(fields[6], marker) {
			continue
		}
		ports = appendPort(ports, seen, portFromAddress(fields[3]))
	}
	return ports
}

// windowsEnumerator runs netstat -ano (no inline pid filter exists) and
// matches the trailing pid column.
type windowsEnumerator struct {
	runner CommandRunner
}

func (e *windowsEnumerator) Enumerate(ctx context.Context, pid int) []int {
	out, err := e.runner.Run(ctx, "netstat", "-ano")
	if err != nil {
		logger.Debug("netstat failed", "pid", pid, "error", err)
		return nil
	}
	return parseWindowsNetstatOutput(out, pid)
}

// parseWindowsNetstatOutput extracts local ports from LISTENING rows whose
// last column equals pid. Handles both "IPv4:port" and "[IPv6]:port" local
// address shapes.
func parseWindowsNetstatOutput(out string, pid int) []int {
	var ports []int
	seen := make(map[int]bool)
	pidStr := strconv.Itoa(pid)

	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "LISTENING") {
			continue
		}
		fields := strings.Fields(line)
		// Proto Local-Address Foreign-Address State PID
		if len(fields) < 5 || fields[len(fields)-1] != pidStr {
			continue
		}
		ports = appendPort(ports, seen, portFromAddress(fields[1]))
	}
	return ports
}
