package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()

	if !strings.Contains(info, "antigravity-quota-watch") {
		t.Errorf("Info() should contain the program name, got %q", info)
	}
	if !strings.Contains(info, "commit:") {
		t.Errorf("Info() should contain the commit, got %q", info)
	}
}

func TestInfoIsStable(t *testing.T) {
	first := Info()
	second := Info()
	if first != second {
		t.Errorf("Info() should be stable across calls: %q vs %q", first, second)
	}
}
