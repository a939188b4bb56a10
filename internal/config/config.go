// Package config loads the job configuration from YAML and process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"signaljob/internal/errs"
)

// RequiredKeys lists the config fields every job needs, in validation order.
var RequiredKeys = []string{"seed", "window", "version"}

// Config captures the parameters of one signal job run.
type Config struct {
	Seed    int64  `yaml:"seed"`
	Window  int    `yaml:"window"`
	Version string `yaml:"version"`
}

// Load reads a YAML file from disk and hydrates a Config struct. Range checks
// on the values are left to the components that use them.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Wrap(errs.ErrNotFound, err, "Configuration file not found.")
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var doc map[string]yaml.Node
	if err := yaml.NewDecoder(file).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errs.New(errs.ErrParse, "Invalid configuration file format: document is empty")
		}
		return nil, errs.Wrap(errs.ErrParse, err, fmt.Sprintf("Invalid configuration file format: %v", err))
	}
	if doc == nil {
		return nil, errs.New(errs.ErrParse, "Invalid configuration file format: expected a mapping")
	}

	for _, key := range RequiredKeys {
		if _, ok := doc[key]; !ok {
			return nil, errs.New(errs.ErrValidation, "Missing required config field: "+key)
		}
	}

	var cfg Config
	fields := map[string]any{"seed": &cfg.Seed, "window": &cfg.Window, "version": &cfg.Version}
	for _, key := range RequiredKeys {
		node := doc[key]
		if err := checkScalar(key, &node); err != nil {
			return nil, err
		}
		if err := node.Decode(fields[key]); err != nil {
			return nil, errs.Wrap(errs.ErrParse, err, fmt.Sprintf("Invalid config field %s: %v", key, err))
		}
	}
	return &cfg, nil
}

// checkScalar rejects nulls, and anything but an integer for seed and window;
// yaml.v3 would otherwise truncate 2.5 into an int field.
func checkScalar(key string, node *yaml.Node) error {
	tag := node.ShortTag()
	switch {
	case node.Kind != yaml.ScalarNode || tag == "!!null":
		return errs.New(errs.ErrParse, fmt.Sprintf("Invalid config field %s: expected a value, got %s", key, describe(node)))
	case key != "version" && tag != "!!int":
		return errs.New(errs.ErrParse, fmt.Sprintf("Invalid config field %s: expected an integer, got %q", key, node.Value))
	}
	return nil
}

func describe(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.AliasNode:
		return "an alias"
	}
	return "null"
}

// Env holds optional process settings that do not belong in the job config.
type Env struct {
	LogLevel    string
	MetricsFile string
}

// LoadEnv reads SIGNALJOB_* variables, loading a .env file first if present.
func LoadEnv() Env {
	_ = godotenv.Load() // best-effort
	env := Env{
		LogLevel:    strings.TrimSpace(os.Getenv("SIGNALJOB_LOG_LEVEL")),
		MetricsFile: strings.TrimSpace(os.Getenv("SIGNALJOB_METRICS_FILE")),
	}
	if env.LogLevel == "" {
		env.LogLevel = "info"
	}
	return env
}
