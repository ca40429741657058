package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"jvmtrace/tracedb"
)

// Color modes accepted by --color.
const (
	colorAuto = "auto"
	colorOn   = "on"
	colorOff  = "off"
)

// Config is everything a report needs. It can be loaded from a YAML or TOML
// file and overridden by flags.
type Config struct {
	Database    string       `yaml:"database" toml:"database"`
	Sink        tracedb.Sink `yaml:"sink" toml:"sink"`
	Thread      int64        `yaml:"thread" toml:"thread"`
	Center      int64        `yaml:"center" toml:"center"`
	Radius      int64        `yaml:"radius" toml:"radius"`
	Renderer    string       `yaml:"renderer" toml:"renderer"`
	Indent      string       `yaml:"indent" toml:"indent"`
	Color       string       `yaml:"color" toml:"color"`
	CheckSchema bool         `yaml:"check_schema" toml:"check_schema"`
	Verbose     bool         `yaml:"verbose" toml:"verbose"`
}

// DefaultConfig targets BeanELResolver.getValue on every thread.
func DefaultConfig() Config {
	return Config{
		Sink:     tracedb.DefaultSink,
		Radius:   tracedb.DefaultRadius,
		Renderer: tracedb.RendererHeuristic,
		Indent:   tracedb.DefaultIndent,
		Color:    colorAuto,
	}
}

// ConfigError reports an unusable setting. It is raised before any query runs.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Msg)
}

// LoadConfig overlays the file at path onto base. The format follows the
// extension: .yaml/.yml or .toml. A relative database path is resolved against
// the file's directory.
func LoadConfig(path string, base Config) (Config, error) {
	cfg := base
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{Field: "file", Msg: err.Error()}
	}
	switch ext := normalizeArg(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, &ConfigError{Field: "file", Msg: fmt.Sprintf("%s: failed to parse YAML: %v", path, err)}
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, &ConfigError{Field: "file", Msg: fmt.Sprintf("%s: failed to parse TOML: %v", path, err)}
		}
	default:
		return Config{}, &ConfigError{Field: "file", Msg: fmt.Sprintf("%s: unsupported extension %q (want .yaml, .yml or .toml)", path, ext)}
	}
	if cfg.Database != "" && cfg.Database != base.Database && !filepath.IsAbs(cfg.Database) {
		cfg.Database = filepath.Join(filepath.Dir(path), cfg.Database)
	}
	return cfg, nil
}

// Validate normalizes cfg in place and checks that the database is a regular file.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return &ConfigError{Field: "database", Msg: "required: set --database/-d"}
	}
	abs, err := normalizePath(c.Database)
	if err != nil {
		return &ConfigError{Field: "database", Msg: err.Error()}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return &ConfigError{Field: "database", Msg: fmt.Sprintf("%s should point to the SQLite trace database: %v", abs, err)}
	}
	if !info.Mode().IsRegular() {
		return &ConfigError{Field: "database", Msg: fmt.Sprintf("%s is not a file", abs)}
	}
	c.Database = abs

	if c.Sink.ClassName == "" || c.Sink.MethodName == "" {
		return &ConfigError{Field: "sink", Msg: "class and method are both required"}
	}
	if c.Radius < 0 {
		return &ConfigError{Field: "radius", Msg: fmt.Sprintf("must be non-negative, got %d", c.Radius)}
	}
	if err := tracedb.ValidateWindow(c.Center, c.Radius); err != nil {
		return &ConfigError{Field: "radius", Msg: err.Error()}
	}
	if c.Center != 0 && c.Thread == 0 {
		return &ConfigError{Field: "center", Msg: "requires --thread"}
	}
	c.Renderer = normalizeArg(c.Renderer)
	if _, err := tracedb.RendererByName(c.Renderer, c.Indent); err != nil {
		return &ConfigError{Field: "renderer", Msg: err.Error()}
	}
	c.Color = normalizeArg(c.Color)
	switch c.Color {
	case colorAuto, colorOn, colorOff:
	default:
		return &ConfigError{Field: "color", Msg: fmt.Sprintf("unknown mode %q (want auto, on or off)", c.Color)}
	}
	return nil
}

// normalizePath returns the absolute form of p.
func normalizePath(p string) (string, error) {
	return filepath.Abs(strings.TrimSpace(p))
}

// normalizeArg lowercases s and drops all whitespace.
func normalizeArg(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}
