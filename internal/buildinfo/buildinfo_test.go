package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	got := String()
	if !strings.HasPrefix(got, "readprep dev") {
		t.Fatalf("expected readprep dev prefix, got %q", got)
	}
}
