package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRunner replays canned utility output keyed by command name.
type fakeRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, key)
	if err, ok := r.errs[name]; ok {
		return "", err
	}
	if out, ok := r.outputs[key]; ok {
		return out, nil
	}
	if out, ok := r.outputs[name]; ok {
		return out, nil
	}
	return "", errors.New("command not faked: " + key)
}

func TestExtractArg(t *testing.T) {
	tests := []struct {
		name    string
		cmdline string
		arg     string
		want    string
	}{
		{
			name:    "equals form",
			cmdline: "/opt/app/language_server --csrf_token=abc123 --extension_server_port 9000",
			arg:     "--csrf_token",
			want:    "abc123",
		},
		{
			name:    "space form",
			cmdline: "/opt/app/language_server --csrf_token=abc123 --extension_server_port 9000",
			arg:     "--extension_server_port",
			want:    "9000",
		},
		{
			name:    "double quoted equals",
			cmdline: `language_server --csrf_token="se cret"`,
			arg:     "--csrf_token",
			want:    "se cret",
		},
		{
			name:    "single quoted space form",
			cmdline: "language_server --csrf_token 'tok123'",
			arg:     "--csrf_token",
			want:    "tok123",
		},
		{
			name:    "missing",
			cmdline: "language_server --lsp",
			arg:     "--csrf_token",
			want:    "",
		},
		{
			name:    "flag followed by another flag",
			cmdline: "language_server --csrf_token --lsp",
			arg:     "--csrf_token",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractArg(tt.cmdline, tt.arg); got != tt.want {
				t.Errorf("extractArg(%q, %q) = %q, want %q", tt.cmdline, tt.arg, got, tt.want)
			}
		})
	}
}

func TestNewHandle(t *testing.T) {
	h := newHandle(4242, "/bin/language_server --csrf_token=abc123 --extension_server_port 9000")

	if h.PID != 4242 {
		t.Errorf("PID = %d, want 4242", h.PID)
	}
	if h.SecurityToken != "abc123" {
		t.Errorf("SecurityToken = %q, want %q", h.SecurityToken, "abc123")
	}
	if h.HintedPort != 9000 {
		t.Errorf("HintedPort = %d, want 9000", h.HintedPort)
	}
}

func TestMatchesTarget(t *testing.T) {
	tests := []struct {
		name    string
		cmdline string
		want    bool
	}{
		{"server with token", "/opt/language_server_linux_x64 --csrf_token=x", true},
		{"antigravity path", "/home/u/.antigravity/bin/language_server --run", true},
		{"lsp role", "language_server --lsp", true},
		{"marker without role", "/usr/bin/language_server_docs --index", false},
		{"unrelated process", "/usr/bin/vim notes.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesTarget(tt.cmdline); got != tt.want {
				t.Errorf("matchesTarget(%q) = %v, want %v", tt.cmdline, got, tt.want)
			}
		})
	}
}

func TestParsePSOutput(t *testing.T) {
	out := `
  312 /sbin/init
 4242 /opt/antigravity/language_server --csrf_token=tok1 --extension_server_port 9100
 4243 /opt/antigravity/language_server --csrf_token=tok2
`
	h := parsePSOutput(out)
	if h == nil {
		t.Fatal("expected a handle, got nil")
	}
	if h.PID != 4242 {
		t.Errorf("first match should win, got pid %d", h.PID)
	}
	if h.SecurityToken != "tok1" {
		t.Errorf("SecurityToken = %q, want tok1", h.SecurityToken)
	}
}

func TestParsePSOutputNoMatch(t *testing.T) {
	out := "  312 /sbin/init\n  999 /usr/bin/bash\n"
	if h := parsePSOutput(out); h != nil {
		t.Errorf("expected nil handle, got %+v", h)
	}
}

func TestUnixLocatorCommandFailure(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{"ps": errors.New("no ps")}}
	l := &unixLocator{runner: runner}

	h, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate must not fail on utility errors, got %v", err)
	}
	if h != nil {
		t.Errorf("expected nil handle, got %+v", h)
	}
}

func TestParseWMICOutput(t *testing.T) {
	out := "\r\nCommandLine=C:\\antigravity\\language_server.exe --csrf_token=wintok --extension_server_port=9200\r\nProcessId=5120\r\n\r\n"

	h := parseWMICOutput(out)
	if h == nil {
		t.Fatal("expected a handle, got nil")
	}
	if h.PID != 5120 || h.SecurityToken != "wintok" || h.HintedPort != 9200 {
		t.Errorf("unexpected handle %+v", h)
	}
}

func TestWindowsLocatorPowerShellFallback(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{
			"powershell -NoProfile -Command Get-Process -Name *language_server* | Select-Object -ExpandProperty Id": "5120\n6100\n",
			"powershell -NoProfile -Command (Get-CimInstance Win32_Process -Filter \"ProcessId=5120\").CommandLine":  "C:\\tools\\language_server_docs.exe --index\n",
			"powershell -NoProfile -Command (Get-CimInstance Win32_Process -Filter \"ProcessId=6100\").CommandLine":  "C:\\antigravity\\language_server.exe --csrf_token=pstok\n",
		},
		errs: map[string]error{"wmic": errors.New("wmic not found")},
	}
	l := &windowsLocator{runner: runner}

	h, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if h == nil {
		t.Fatal("expected a handle from the PowerShell fallback")
	}
	if h.PID != 6100 || h.SecurityToken != "pstok" {
		t.Errorf("unexpected handle %+v", h)
	}
}
