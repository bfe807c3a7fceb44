package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/wflens/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Layout.Dist != 8 || cfg.Cache.Backend != CacheFile || cfg.Server.Listen != ":8080" {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
[store]
uri = "mongodb://db:27017"
timeout = "2s"

[cache]
backend = "redis"
redis_addr = "cache:6379"

[layout]
dist = 10.0

[generator]
count = 7
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.URI != "mongodb://db:27017" || cfg.Store.Timeout.Duration != 2*time.Second {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Store.Collection != "raw" {
		t.Errorf("default collection lost: %q", cfg.Store.Collection)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Layout.Dist != 10 || cfg.Layout.HalfWidth != 50 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Generator.Count != 7 || cfg.Generator.TaskTypes != 5 {
		t.Errorf("Generator = %+v", cfg.Generator)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"missing explicit", filepath.Join(t.TempDir(), "nope.toml"), errors.ErrCodeFileNotFound},
		{"syntax", writeConfig(t, "[store\n"), errors.ErrCodeInvalidFormat},
		{"unknown key", writeConfig(t, "[store]\nurl = \"x\"\n"), errors.ErrCodeInvalidFormat},
		{"bad backend", writeConfig(t, "[cache]\nbackend = \"memcached\"\n"), errors.ErrCodeInvalidInput},
		{"bad dist", writeConfig(t, "[layout]\ndist = 0.0\n"), errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if errors.GetCode(err) != tt.code {
				t.Errorf("Load() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	p, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join(dir, "wflens", "config.toml") {
		t.Errorf("Path() = %s", p)
	}
}
