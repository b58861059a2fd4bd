package discovery

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lvanelk/antigravity-quota-watch/internal/logger"
)

// Connect-style RPC routes on the language server. GetUnleashData is cheap
// and side-effect free, which makes it the probe target.
const (
	serviceNamespace = "exa.language_server_pb.LanguageServerService"

	probePath  = "/" + serviceNamespace + "/GetUnleashData"
	statusPath = "/" + serviceNamespace + "/GetUserStatus"

	probeBody  = `{"wrapper_data":{}}`
	statusBody = `{}`

	protocolVersionHeader = "Connect-Protocol-Version"
	protocolVersion       = "1"
	csrfTokenHeader       = "X-Codeium-Csrf-Token"

	loopbackHost = "127.0.0.1"
)

// Endpoint is a confirmed-reachable RPC endpoint. Valid only for the
// lifetime of one fetch cycle; the server may rebind on restart.
type Endpoint struct {
	Host                string
	Port                int
	UsesSecureTransport bool
}

// URL renders the base URL for the endpoint.
func (e Endpoint) URL() string {
	scheme := "http"
	if e.UsesSecureTransport {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, e.Host, e.Port)
}

// Prober determines which candidate port accepts the RPC protocol. All
// ports are probed concurrently; the first success wins and the rest are
// discarded. For each port the secure transport is tried before plaintext.
type Prober struct {
	Timeout time.Duration
}

// NewProber returns a prober with the given per-probe timeout.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &Prober{Timeout: timeout}
}

// Probe races all candidate ports and returns the first confirmed endpoint.
// Returns ErrNotFound (wrapped) when every probe is rejected or times out.
// Losing probes are left to finish on their own; each one is bounded by the
// probe timeout so nothing outlives the cycle by much.
func (p *Prober) Probe(ctx context.Context, ports []int, securityToken string) (*Endpoint, error) {
	if len(ports) == 0 {
		return nil, fmt.Errorf("no candidate ports: %w", ErrNotFound)
	}

	results := make(chan *Endpoint, len(ports))
	for _, port := range ports {
		go func(port int) {
			results <- p.probePort(ctx, port, securityToken)
		}(port)
	}

	for range ports {
		if ep := <-results; ep != nil {
			return ep, nil
		}
	}
	return nil, fmt.Errorf("no port accepted the RPC protocol: %w", ErrNotFound)
}

// probePort tries secure transport first, then plaintext. Returns nil when
// the port rejects both.
func (p *Prober) probePort(ctx context.Context, port int, securityToken string) *Endpoint {
	if p.probeSecure(ctx, port, securityToken) {
		return &Endpoint{Host: loopbackHost, Port: port, UsesSecureTransport: true}
	}
	if p.probePlaintext(ctx, port) {
		return &Endpoint{Host: loopbackHost, Port: port, UsesSecureTransport: false}
	}
	return nil
}

// probeSecure issues the introspection RPC over HTTPS. Only a 200 confirms
// an endpoint of the correct kind; anything else is a rejection, not an
// error. The server uses a locally generated certificate, so verification
// is disabled.
func (p *Prober) probeSecure(ctx context.Context, port int, securityToken string) bool {
	url := fmt.Sprintf("https://%s:%d%s", loopbackHost, port, probePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(probeBody))
	if err != nil {
		return false
	}
	setRPCHeaders(req, securityToken)

	resp, err := insecureClient(p.Timeout).Do(req)
	if err != nil {
		return false
	}
	defer closeBody(resp)

	if resp.StatusCode == http.StatusOK {
		return true
	}
	logger.Debug("secure probe rejected", "port", port, "status", resp.StatusCode)
	return false
}

// probePlaintext issues a bare GET to the root path. Any response at all,
// including 404, confirms a server is present; no protocol-specific check
// is possible over plaintext.
func (p *Prober) probePlaintext(ctx context.Context, port int) bool {
	url := fmt.Sprintf("http://%s:%d/", loopbackHost, port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	client := &http.Client{Timeout: p.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	closeBody(resp)
	return true
}

// setRPCHeaders attaches the protocol marker, JSON content headers and the
// CSRF token when available.
func setRPCHeaders(req *http.Request, securityToken string) {
	req.Header.Set(protocolVersionHeader, protocolVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if securityToken != "" {
		req.Header.Set(csrfTokenHeader, securityToken)
	}
}

// insecureClient builds a one-shot HTTP client that accepts the language
// server's self-signed certificate.
func insecureClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logger.Error("failed to close response body", "error", err)
	}
}
