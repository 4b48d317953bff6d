package version

import (
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("version should not be empty")
	}
}

func TestString(t *testing.T) {
	s := String()

	switch {
	case !strings.Contains(s, "version="):
		t.Error("String should contain 'version='")
	case !strings.Contains(s, "commit="):
		t.Error("String should contain 'commit='")
	case !strings.Contains(s, "date="):
		t.Error("String should contain 'date='")
	default:
		t.Log("string: ", s)
	}
}

func TestStringContainsVersion(t *testing.T) {
	if !strings.Contains(String(), GetVersion()) {
		t.Errorf("String (%s) should contain version (%s)", String(), GetVersion())
	}
}
