package discovery

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// rpcHandler accepts only the probe RPC with the right protocol headers.
func rpcHandler(t *testing.T, wantToken string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != probePath {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get(protocolVersionHeader) != protocolVersion {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if wantToken != "" && r.Header.Get(csrfTokenHeader) != wantToken {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// serverPort extracts the bound port of an httptest server.
func serverPort(t *testing.T, ts *httptest.Server) int {
	t.Helper()
	addr, ok := ts.Listener.Addr().(*net.TCPAddr)
	if !ok {
		t.Fatalf("unexpected listener address %T", ts.Listener.Addr())
	}
	return addr.Port
}

// deadPort returns a loopback port with nothing listening on it.
func deadPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserving port: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port
}

func TestProbeFindsSecureEndpoint(t *testing.T) {
	ts := httptest.NewTLSServer(rpcHandler(t, "tok"))
	defer ts.Close()

	live := serverPort(t, ts)
	dead := deadPort(t)

	p := NewProber(time.Second)

	// Order must not matter: the dead port loses the race either way.
	for _, ports := range [][]int{{dead, live}, {live, dead}} {
		ep, err := p.Probe(context.Background(), ports, "tok")
		if err != nil {
			t.Fatalf("Probe(%v) returned error: %v", ports, err)
		}
		if ep.Port != live {
			t.Errorf("Probe(%v) picked port %d, want %d", ports, ep.Port, live)
		}
		if !ep.UsesSecureTransport {
			t.Errorf("Probe(%v) should confirm the secure transport", ports)
		}
	}
}

func TestProbeFallsBackToPlaintext(t *testing.T) {
	// A plain HTTP server that 404s everything: the secure probe fails (TLS
	// handshake against a plaintext socket), the plaintext GET still proves
	// a server is present.
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	p := NewProber(time.Second)
	ep, err := p.Probe(context.Background(), []int{serverPort(t, ts)}, "")
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if ep.UsesSecureTransport {
		t.Error("expected a plaintext endpoint")
	}
	if ep.Port != serverPort(t, ts) {
		t.Errorf("unexpected port %d", ep.Port)
	}
}

func TestProbeAllPortsDead(t *testing.T) {
	p := NewProber(200 * time.Millisecond)

	_, err := p.Probe(context.Background(), []int{deadPort(t), deadPort(t)}, "")
	if !IsNotFound(err) {
		t.Errorf("expected a not-found outcome, got %v", err)
	}
}

func TestProbeEmptyPortList(t *testing.T) {
	p := NewProber(time.Second)
	_, err := p.Probe(context.Background(), nil, "")
	if !IsNotFound(err) {
		t.Errorf("expected a not-found outcome, got %v", err)
	}
}

func TestProbeSecureRejectsWrongPath(t *testing.T) {
	// Endpoint speaks TLS but is not the language server: secure probe must
	// reject it (non-200), then the plaintext GET fails against TLS, so the
	// port is rejected entirely.
	ts := httptest.NewTLSServer(http.NotFoundHandler())
	defer ts.Close()

	p := NewProber(500 * time.Millisecond)
	_, err := p.Probe(context.Background(), []int{serverPort(t, ts)}, "")
	if !IsNotFound(err) {
		t.Errorf("expected a not-found outcome, got %v", err)
	}
}

func TestEndpointURL(t *testing.T) {
	secure := Endpoint{Host: "127.0.0.1", Port: 9000, UsesSecureTransport: true}
	if secure.URL() != "https://127.0.0.1:9000" {
		t.Errorf("unexpected URL %q", secure.URL())
	}
	plain := Endpoint{Host: "127.0.0.1", Port: 9001}
	if plain.URL() != "http://127.0.0.1:9001" {
		t.Errorf("unexpected URL %q", plain.URL())
	}
}
