package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	data := []byte(`namespace: demo
source: src
output: out/demo
encoding: shift_jis
optimise: true
log_level: debug
log_format: json
pack:
  format: 12
  description: hello
`)
	cfg, err := Parse(data, "elli.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := Config{
		Namespace: "demo",
		Source:    "src",
		Output:    "out/demo",
		Encoding:  "shift_jis",
		Optimise:  true,
		LogLevel:  "debug",
		LogFormat: "json",
		Pack:      Pack{Format: 12, Description: "hello"},
	}
	if *cfg != expected {
		t.Errorf("expected %+v, got %+v", expected, *cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("namespace: demo\n"), "elli.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != "." || cfg.Encoding != "utf-8" || cfg.LogLevel != "info" || cfg.LogFormat != "auto" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Pack.Format != 15 || cfg.Pack.Description == "" {
		t.Errorf("unexpected pack defaults %+v", cfg.Pack)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil, "elli.yaml")
	if err != nil {
		t.Fatalf("an empty file is valid yaml: %v", err)
	}
	if cfg.Namespace != "" {
		t.Errorf("expected no namespace, got %q", cfg.Namespace)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown key", "namespace: demo\nnamspace: typo\n", "namspace"},
		{"bad type", "optimise: maybe\n", "parsing elli.yaml"},
		{"not a mapping", "- a\n- b\n", "parsing elli.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "elli.yaml")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"dotted namespace", func(c *Config) { c.Namespace = "my.pack-1" }, false},
		{"missing namespace", func(c *Config) { c.Namespace = "" }, true},
		{"uppercase namespace", func(c *Config) { c.Namespace = "Demo" }, true},
		{"namespace with colon", func(c *Config) { c.Namespace = "a:b" }, true},
		{"unknown encoding", func(c *Config) { c.Encoding = "klingon" }, true},
		{"euc-jp", func(c *Config) { c.Encoding = "euc-jp" }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"bad pack format", func(c *Config) { c.Pack.Format = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Namespace = "demo"
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{"LOG_LEVEL": "WARN", "ELLI_NAMESPACE": "fromenv"}
	cfg := Default()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.LogLevel != "warn" {
		t.Errorf("expected warn, got %q", cfg.LogLevel)
	}
	if cfg.Namespace != "fromenv" {
		t.Errorf("expected fromenv, got %q", cfg.Namespace)
	}

	untouched := Default()
	untouched.ApplyEnv(func(string) string { return "" })
	if untouched.LogLevel != "info" {
		t.Errorf("empty variables must not override, got %q", untouched.LogLevel)
	}
}

func TestLoadAndFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "ELLI.yaml")
	if err := os.WriteFile(path, []byte("namespace: demo\noutput: out\n"), 0644); err != nil {
		t.Fatal(err)
	}

	found, err := Find(nested)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(found) != "ELLI.yaml" {
		t.Fatalf("expected ELLI.yaml, got %q", found)
	}

	cfg, err := Load(found)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dir != filepath.Dir(found) {
		t.Errorf("expected Dir %q, got %q", filepath.Dir(found), cfg.Dir)
	}
	if got := cfg.OutputDir(); got != filepath.Join(cfg.Dir, "out") {
		t.Errorf("unexpected output dir %q", got)
	}
	if got := cfg.Resolve("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute paths must be kept, got %q", got)
	}
}

func TestOutputDir_Default(t *testing.T) {
	cfg := Default()
	cfg.Namespace = "demo"
	if got := cfg.OutputDir(); got != filepath.Join("build", "demo") {
		t.Errorf("expected build/demo, got %q", got)
	}
}
