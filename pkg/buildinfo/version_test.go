package buildinfo

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	old := Version
	Version = "v9.9.9"
	defer func() { Version = old }()

	if Get().Version != "v9.9.9" {
		t.Errorf("Get() = %+v", Get())
	}
	if UserAgent() != "wflens/v9.9.9" {
		t.Errorf("UserAgent() = %q", UserAgent())
	}
	if !strings.Contains(Template(), "version v9.9.9") {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.HasPrefix(String(), "version: v9.9.9\n") {
		t.Errorf("String() = %q", String())
	}
}
