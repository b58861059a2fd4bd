package discovery

import (
	"context"
	"reflect"
	"testing"
	"time"
)

type stubLocator struct {
	handle *ProcessHandle
	called bool
}

func (s *stubLocator) Locate(context.Context) (*ProcessHandle, error) {
	s.called = true
	return s.handle, nil
}

type stubEnumerator struct {
	ports  []int
	called bool
}

func (s *stubEnumerator) Enumerate(context.Context, int) []int {
	s.called = true
	return s.ports
}

func newTestPipeline(loc *stubLocator, enum *stubEnumerator) *Pipeline {
	return &Pipeline{
		Locator:    loc,
		Enumerator: enum,
		Prober:     NewProber(200 * time.Millisecond),
		Client:     NewStatusClient(time.Second),
	}
}

func TestFetchProcessNotFoundSkipsEnumeration(t *testing.T) {
	loc := &stubLocator{handle: nil}
	enum := &stubEnumerator{}
	p := newTestPipeline(loc, enum)

	_, err := p.Fetch(context.Background())
	if !IsNotFound(err) {
		t.Fatalf("expected a not-found outcome, got %v", err)
	}
	if enum.called {
		t.Error("enumeration must not run when no process was located")
	}
}

func TestFetchNoPortsSkipsProbing(t *testing.T) {
	loc := &stubLocator{handle: &ProcessHandle{PID: 4242}}
	enum := &stubEnumerator{ports: nil}
	p := newTestPipeline(loc, enum)

	start := time.Now()
	_, err := p.Fetch(context.Background())
	if !IsNotFound(err) {
		t.Fatalf("expected a not-found outcome, got %v", err)
	}
	// No probe means no per-probe timeout was spent.
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("pipeline appears to have probed despite empty port list (%v elapsed)", elapsed)
	}
	if !enum.called {
		t.Error("enumeration should have been attempted")
	}
}

func TestFetchUsesHintedPort(t *testing.T) {
	loc := &stubLocator{handle: &ProcessHandle{PID: 4242, HintedPort: deadPort(t)}}
	enum := &stubEnumerator{ports: nil}
	p := newTestPipeline(loc, enum)

	// The hinted port alone forms the candidate list; nothing listens on
	// it, so probing reports absence rather than skipping.
	_, err := p.Fetch(context.Background())
	if !IsNotFound(err) {
		t.Fatalf("expected a not-found outcome, got %v", err)
	}
}

func TestPrependPort(t *testing.T) {
	tests := []struct {
		name  string
		ports []int
		port  int
		want  []int
	}{
		{"prepends new", []int{1, 2}, 9, []int{9, 1, 2}},
		{"skips duplicate", []int{9, 1}, 9, []int{9, 1}},
		{"empty list", nil, 9, []int{9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := prependPort(tt.ports, tt.port); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("prependPort(%v, %d) = %v, want %v", tt.ports, tt.port, got, tt.want)
			}
		})
	}
}
