package main

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"jvmtrace/tracedb"
)

func TestLoadConfig_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.toml")
	body := `
database = "/var/traces/app.db"
thread = 35
center = 18173553
renderer = "tree"

[sink]
class = "Lorg/springframework/expression/spel/ast/PropertyOrFieldReference;"
method = "readProperty"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path, DefaultConfig())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database != "/var/traces/app.db" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.Sink.MethodName != "readProperty" || cfg.Thread != 35 || cfg.Center != 18173553 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Radius != tracedb.DefaultRadius {
		t.Errorf("Radius = %d, want default %d kept", cfg.Radius, tracedb.DefaultRadius)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	ini := filepath.Join(dir, "report.ini")
	if err := os.WriteFile(ini, []byte("x=1"), 0o600); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("radius: [1"), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{ini, bad, filepath.Join(dir, "missing.yaml")} {
		_, err := LoadConfig(path, DefaultConfig())
		var ce *ConfigError
		if !errors.As(err, &ce) || ce.Field != "file" {
			t.Errorf("LoadConfig(%s): want file ConfigError, got %v", filepath.Base(path), err)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "t.db")
	if err := os.WriteFile(db, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"ok", func(*Config) {}, ""},
		{"negative radius", func(c *Config) { c.Radius = -1 }, "radius"},
		{"radius overflows window", func(c *Config) { c.Radius = math.MaxInt64 }, "radius"},
		{"center overflows window", func(c *Config) { c.Thread = 35; c.Center = math.MaxInt64 }, "radius"},
		{"center without thread", func(c *Config) { c.Center = 10 }, "center"},
		{"unknown renderer", func(c *Config) { c.Renderer = "dot" }, "renderer"},
		{"unknown color", func(c *Config) { c.Color = "rainbow" }, "color"},
		{"empty method", func(c *Config) { c.Sink.MethodName = "" }, "sink"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Database = db
			tc.edit(&cfg)
			err := cfg.Validate()
			if tc.field == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Field != tc.field {
				t.Errorf("Validate: want %s ConfigError, got %v", tc.field, err)
			}
		})
	}
}

func TestConfigValidate_NormalizesInputs(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "t.db"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg := DefaultConfig()
	cfg.Database = " t.db "
	cfg.Renderer = " Tree "
	cfg.Color = "OFF"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !filepath.IsAbs(cfg.Database) || filepath.Base(cfg.Database) != "t.db" {
		t.Errorf("Database = %q, want absolute path", cfg.Database)
	}
	if cfg.Renderer != tracedb.RendererTree || cfg.Color != colorOff {
		t.Errorf("Renderer = %q, Color = %q", cfg.Renderer, cfg.Color)
	}
}

func TestNormalizeArg(t *testing.T) {
	for in, want := range map[string]string{
		"Heuristic": "heuristic",
		" t r e e ": "tree",
		"":          "",
	} {
		if got := normalizeArg(in); got != want {
			t.Errorf("normalizeArg(%q) = %q, want %q", in, got, want)
		}
	}
}
