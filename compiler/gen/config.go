package gen

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// DefaultHeader is the header comment added to every generated file.
const DefaultHeader = "Code generated by scopegen. DO NOT EDIT."

// Config holds the settings for one generation run.
type Config struct {
	// Dir is the module directory packages are loaded from.
	Dir string `yaml:"dir,omitempty"`

	// Patterns are the package patterns to scan. Defaults to "./...".
	Patterns []string `yaml:"patterns,omitempty"`

	// BuildFlags are extra build flags passed to the package loader.
	BuildFlags []string `yaml:"build_flags,omitempty"`

	// Workers bounds parallel file emission. Defaults to GOMAXPROCS.
	Workers int `yaml:"workers,omitempty"`

	// Header overrides the generated file header comment.
	Header string `yaml:"header,omitempty"`

	// Logger receives structured progress output. Defaults to the standard
	// logger with the "scopegen" prefix.
	Logger *log.Logger `yaml:"-"`
}

// LoadConfig reads a Config from a yaml file, e.g. scopegen.yaml.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scopegen: read config: %w", err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(buf, c); err != nil {
		return nil, fmt.Errorf("scopegen: parse config %s: %w", path, err)
	}
	return c, nil
}

// defaults fills unset fields in place.
func (c *Config) defaults() {
	if len(c.Patterns) == 0 {
		c.Patterns = []string{"./..."}
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Header == "" {
		c.Header = DefaultHeader
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "scopegen"})
	}
}
