package discovery

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// CommandRunner abstracts shelling out to OS utilities so platform parsers
// can be tested with captured output on any host.
type CommandRunner interface {
	// Run executes name with args and returns combined stdout. A non-zero
	// exit or missing binary surfaces as an error.
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// execRunner runs real subprocesses, each bounded by a timeout so a hung
// utility cannot stall a fetch cycle.
type execRunner struct {
	timeout time.Duration
}

// NewCommandRunner returns a CommandRunner backed by os/exec. A zero
// timeout disables the bound.
func NewCommandRunner(timeout time.Duration) CommandRunner {
	return &execRunner{timeout: timeout}
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return out.String(), nil
}
