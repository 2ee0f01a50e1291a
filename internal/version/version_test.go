package version

import (
	"strings"
	"testing"
)

func TestStringContainsAllFields(t *testing.T) {
	s := String()
	for _, want := range []string{Version, Commit, BuildDate} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
