package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/lvanelk/antigravity-quota-watch/internal/logger"
)

// FetchResult carries the status payload together with the endpoint it came
// from, for diagnostics in the UI.
type FetchResult struct {
	Payload  *RawStatusPayload
	Endpoint Endpoint
	Handle   ProcessHandle
}

// Pipeline wires the discovery stages together. Every fetch starts cold: a
// new process scan, port scan, probe race and RPC call. No state survives
// between cycles.
type Pipeline struct {
	Locator    Locator
	Enumerator PortEnumerator
	Prober     *Prober
	Client     *StatusClient
}

// Options bundles the timeouts for a default pipeline.
type Options struct {
	ProbeTimeout       time.Duration
	StatusRPCTimeout   time.Duration
	ProcessScanTimeout time.Duration
}

// NewPipeline builds a pipeline with platform-appropriate locator and
// enumerator implementations.
func NewPipeline(opts Options) *Pipeline {
	runner := NewCommandRunner(opts.ProcessScanTimeout)
	return &Pipeline{
		Locator:    NewLocator(runner),
		Enumerator: NewPortEnumerator(runner),
		Prober:     NewProber(opts.ProbeTimeout),
		Client:     NewStatusClient(opts.StatusRPCTimeout),
	}
}

// Fetch runs one full discovery-and-fetch cycle. Absence at any stage
// (process not running, no ports, no live endpoint) returns an error
// wrapping ErrNotFound; only the final RPC stage can return a hard
// *NetworkError. Later stages are never entered once an earlier stage
// reports absence.
func (p *Pipeline) Fetch(ctx context.Context) (*FetchResult, error) {
	handle, err := p.Locator.Locate(ctx)
	if err != nil {
		return nil, fmt.Errorf("process scan: %w", err)
	}
	if handle == nil {
		return nil, fmt.Errorf("no running language server process: %w", ErrNotFound)
	}
	logger.Debug("located language server", "pid", handle.PID, "hintedPort", handle.HintedPort)

	ports := p.Enumerator.Enumerate(ctx, handle.PID)
	if handle.HintedPort > 0 {
		ports = prependPort(ports, handle.HintedPort)
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("pid %d has no listening ports: %w", handle.PID, ErrNotFound)
	}
	logger.Debug("enumerated candidate ports", "pid", handle.PID, "ports", ports)

	endpoint, err := p.Prober.Probe(ctx, ports, handle.SecurityToken)
	if err != nil {
		return nil, err
	}
	logger.Debug("confirmed endpoint", "port", endpoint.Port, "secure", endpoint.UsesSecureTransport)

	payload, err := p.Client.FetchStatus(ctx, *endpoint, handle.SecurityToken)
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		Payload:  payload,
		Endpoint: *endpoint,
		Handle:   *handle,
	}, nil
}

// prependPort puts the hinted port at the front of the candidate list
// without introducing a duplicate.
func prependPort(ports []int, port int) []int {
	for _, p := range ports {
		if p == port {
			return ports
		}
	}
	return append([]int{port}, ports...)
}
