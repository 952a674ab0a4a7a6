package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"cssprune/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	FilterConfig struct {
		// Ignore holds selectors which are always kept, "/re/" entries are
		// regular expressions searched in selector text.
		Ignore []string `yaml:"ignore" validate:"dive,required"`
		// Workers limits parallel selector evaluation, 0 means number of CPUs.
		Workers int `yaml:"workers" validate:"gte=0"`
		// References extends the table of properties referencing named
		// at-rules, keyed by at-rule kind.
		References map[string][]string `yaml:"references" validate:"dive,dive,required"`
	}

	FetchConfig struct {
		Timeout      time.Duration           `yaml:"timeout" validate:"gte=0"`
		Rate         float64                 `yaml:"rate" validate:"gte=0"`
		Burst        int                     `yaml:"burst" validate:"gte=0"`
		UserAgent    string                  `yaml:"user_agent"`
		ForceCharset string                  `yaml:"force_charset,omitempty"`
		Headers      map[string]SecretString `yaml:"headers,omitempty"`
		MaxSize      int64                   `yaml:"max_size" validate:"gte=0"`
	}

	OutputConfig struct {
		Style        common.OutputStyle `yaml:"style"`
		CSSPath      string             `yaml:"css_path"`
		InlineStyles bool               `yaml:"inline_styles"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Filter    FilterConfig   `yaml:"filter"`
		Fetch     FetchConfig    `yaml:"fetch"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

// Dump returns YAML representation of cfg. Secret values are masked.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
