// Package config loads the settings of the profiling drivers.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/edwinsyarief/slab/internal/logging"
)

// Profiling modes understood by the drivers.
const (
	ModeNone   = "none"
	ModeCPU    = "cpu"
	ModeMem    = "mem"
	ModeAllocs = "allocs"
)

// Config describes one profiling run.
type Config struct {
	Rounds     int            `yaml:"rounds"`
	Iterations int            `yaml:"iterations"`
	Objects    int            `yaml:"objects"`
	Capacity   int            `yaml:"capacity"`
	Mode       string         `yaml:"mode"`
	Output     string         `yaml:"output"`
	Log        logging.Config `yaml:"log"`
}

// Default returns the settings used when no file or flag overrides them.
func Default() Config {
	return Config{
		Rounds:     50,
		Iterations: 10000,
		Objects:    1000,
		Capacity:   16,
		Mode:       ModeAllocs,
		Output:     ".",
		Log: logging.Config{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load reads a YAML file on top of Default. ${VAR} references in the file are
// replaced with environment variables before parsing.
func Load(filePath string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filePath) //nolint:gosec // path comes from the command line
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Rounds <= 0 {
		errs = append(errs, fmt.Errorf("rounds must be positive, got %d", c.Rounds))
	}
	if c.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("iterations must be positive, got %d", c.Iterations))
	}
	if c.Objects <= 0 {
		errs = append(errs, fmt.Errorf("objects must be positive, got %d", c.Objects))
	}
	if c.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity must not be negative, got %d", c.Capacity))
	}
	switch c.Mode {
	case ModeNone, ModeCPU, ModeMem, ModeAllocs:
	default:
		errs = append(errs, fmt.Errorf("unknown profiling mode %q", c.Mode))
	}
	return errors.Join(errs...)
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
func substituteEnvVars(content string) string {
	for pos := 0; ; {
		start := strings.Index(content[pos:], "${")
		if start == -1 {
			break
		}
		start += pos
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		// Substituted values are not scanned again.
		value := os.Getenv(content[start+2 : end])
		content = content[:start] + value + content[end+1:]
		pos = start + len(value)
	}
	return content
}
