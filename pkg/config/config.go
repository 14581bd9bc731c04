// Package config loads the elli.yaml project file.
//
//	namespace: demo
//	source: src
//	output: build/demo
//	encoding: utf-8
//	optimise: false
//	log_level: info
//	log_format: auto
//	pack:
//	  format: 15
//	  description: compiled by elli
//
// Relative paths are resolved against the directory holding the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zurustar/elli/pkg/datapack"
	"github.com/zurustar/elli/pkg/fileutil"
	"github.com/zurustar/elli/pkg/script"
)

// FileNames are the names Find looks for, compared case-insensitively.
var FileNames = []string{"elli.yaml", "elli.yml"}

// Config represents the project configuration.
type Config struct {
	// Namespace is the datapack namespace every function is emitted into.
	Namespace string `yaml:"namespace"`

	// Source is the file or directory holding the .elli sources.
	Source string `yaml:"source,omitempty"`

	// Output is the datapack root.
	Output string `yaml:"output,omitempty"`

	// Encoding is a WHATWG label for the source files.
	Encoding string `yaml:"encoding,omitempty"`

	Optimise bool `yaml:"optimise,omitempty"`

	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`

	Pack Pack `yaml:"pack,omitempty"`

	// Dir is the directory the configuration was loaded from.
	Dir string `yaml:"-"`
}

// Pack is the pack.mcmeta content.
type Pack struct {
	Format      int    `yaml:"format,omitempty"`
	Description string `yaml:"description,omitempty"`
}

var namespacePattern = regexp.MustCompile(`^[a-z0-9_.-]+$`)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"auto", "text", "json"}
)

// Default returns the configuration used when no file is found.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// Parse parses configuration content. Unknown keys are errors. The path
// argument is used only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	return &cfg, nil
}

// Find looks for a configuration file in dir and its parents. It returns
// the empty string when there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		path, err := fileutil.FindAny(dir, FileNames...)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fileutil.ErrNotFound) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) setDefaults() {
	if c.Source == "" {
		c.Source = "."
	}
	if c.Encoding == "" {
		c.Encoding = "utf-8"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "auto"
	}
	if c.Pack.Format == 0 {
		c.Pack.Format = datapack.DefaultFormat
	}
	if c.Pack.Description == "" {
		c.Pack.Description = "compiled by elli"
	}
}

// ApplyEnv overrides values from LOG_LEVEL and ELLI_NAMESPACE.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := getenv("ELLI_NAMESPACE"); v != "" {
		c.Namespace = v
	}
}

// Resolve makes a relative path relative to the configuration directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// OutputDir is where the datapack is written: Output, or build/<namespace>.
func (c *Config) OutputDir() string {
	if c.Output != "" {
		return c.Resolve(c.Output)
	}
	return c.Resolve(filepath.Join("build", c.Namespace))
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if !namespacePattern.MatchString(c.Namespace) {
		return fmt.Errorf("invalid namespace %q: only [a-z0-9_.-] are allowed", c.Namespace)
	}
	if _, err := script.Lookup(c.Encoding); err != nil {
		return err
	}
	if !oneOf(c.LogLevel, logLevels) {
		return fmt.Errorf("invalid log level: %s (must be %s)", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if !oneOf(c.LogFormat, logFormats) {
		return fmt.Errorf("invalid log format: %s (must be %s)", c.LogFormat, strings.Join(logFormats, ", "))
	}
	if c.Pack.Format < 1 {
		return fmt.Errorf("invalid pack format %d", c.Pack.Format)
	}
	return nil
}

func oneOf(v string, values []string) bool {
	for _, s := range values {
		if v == s {
			return true
		}
	}
	return false
}
