// Package config loads wflens settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/wflens/config.toml (~/.config/wflens
// when XDG_CONFIG_HOME is unset). A missing file yields [Default]; keys
// absent from the file keep their default values.
//
//	[store]
//	uri = "mongodb://localhost:27017"
//	database = "cuneiform"
//	collection = "raw"
//
//	[cache]
//	backend = "file"  # file, redis or none
//	redis_addr = "localhost:6379"
//
//	[layout]
//	dist = 8.0
//	half_width = 50.0
//
//	[render]
//	width = 8.0   # inches
//	height = 6.0
//
//	[server]
//	listen = ":8080"
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/generator"
	"github.com/matzehuels/wflens/pkg/layout"
	"github.com/matzehuels/wflens/pkg/logstore"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the complete settings file.
type Config struct {
	Store     Store            `toml:"store"`
	Cache     Cache            `toml:"cache"`
	Layout    Layout           `toml:"layout"`
	Render    Render           `toml:"render"`
	Server    Server           `toml:"server"`
	Generator generator.Config `toml:"generator"`
}

// Store configures the log store. An empty URI selects the in-memory store.
type Store struct {
	URI        string   `toml:"uri"`
	Database   string   `toml:"database"`
	Collection string   `toml:"collection"`
	Timeout    Duration `toml:"timeout"`
}

// Cache configures result caching.
type Cache struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
}

// Layout configures DAG layouts.
type Layout struct {
	Dist float64 `toml:"dist"`
	// HalfWidth clamps the horizontal plot range to [-HalfWidth, HalfWidth].
	HalfWidth float64 `toml:"half_width"`
}

// Render configures chart output.
type Render struct {
	Width   float64  `toml:"width"`  // inches
	Height  float64  `toml:"height"` // inches
	Palette []string `toml:"palette"`
}

// Server configures the HTTP API.
type Server struct {
	Listen       string   `toml:"listen"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// Duration is a time.Duration written as a string ("30s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Store: Store{
			Database:   logstore.DefaultDatabase,
			Collection: logstore.DefaultCollection,
			Timeout:    Duration{5 * time.Second},
		},
		Cache:  Cache{Backend: CacheFile, RedisAddr: "localhost:6379", RedisPrefix: "wflens:"},
		Layout: Layout{Dist: layout.DefaultDist, HalfWidth: 50},
		Render: Render{Width: 8, Height: 6},
		Server: Server{
			Listen:       ":8080",
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
		},
		Generator: generator.DefaultConfig(),
	}
}

// Dir returns the configuration directory.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wflens"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "wflens"), nil
}

// Path returns the default configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the file at path over the defaults. An empty path means
// [Path]. A missing default file is not an error; a missing explicit path
// is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidFormat, "config %s: unknown key %s", path, undecoded[0])
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache backend %q: want file, redis or none", c.Cache.Backend)
	}
	if c.Layout.Dist <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layout dist must be positive")
	}
	if c.Layout.HalfWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layout half_width must be positive")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "render size must be positive")
	}
	return nil
}
