package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested
// sections map naturally to the flag names.
type FileConfig struct {
	Vault struct {
		Dir string `yaml:"dir" json:"dir"`
	} `yaml:"vault" json:"vault"`

	API struct {
		Base    string        `yaml:"base" json:"base"`
		Token   string        `yaml:"token" json:"token"`
		UA      string        `yaml:"ua" json:"ua"`
		Timeout time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"api" json:"api"`

	Page struct {
		Size int `yaml:"size" json:"size"`
	} `yaml:"page" json:"page"`

	Max struct {
		Pages    int `yaml:"pages" json:"pages"`
		Attempts int `yaml:"attempts" json:"attempts"`
	} `yaml:"max" json:"max"`

	State struct {
		Dir   string `yaml:"dir" json:"dir"`
		Clear bool   `yaml:"clear" json:"clear"`
	} `yaml:"state" json:"state"`

	Concurrency int  `yaml:"concurrency" json:"concurrency"`
	DryRun      bool `yaml:"dryRun" json:"dryRun"`
	EnablePDF   bool `yaml:"enablePDF" json:"enablePDF"`
	Verbose     bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// Defaults shared with flag parsing so the file overlay can tell "flag left
// at default" apart from an explicit value.
const (
	DefaultUserAgent   = "notesink/1.0 (+https://github.com/panelnotes/notesink)"
	DefaultStateDir    = ".notesink-state"
	DefaultPageSize    = 100
	DefaultMaxPages    = 100
	DefaultMaxAttempts = 3
	DefaultConcurrency = 4
	DefaultTimeout     = 30 * time.Second
)

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// that are currently unset or at their flag default. Flags should already
// have been parsed; this lets the file supply defaults while preserving
// explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.VaultDir == "" && fc.Vault.Dir != "" {
		cfg.VaultDir = fc.Vault.Dir
	}
	if cfg.APIBaseURL == "" && fc.API.Base != "" {
		cfg.APIBaseURL = fc.API.Base
	}
	if cfg.APIToken == "" && fc.API.Token != "" {
		cfg.APIToken = fc.API.Token
	}
	if (cfg.APIUserAgent == "" || cfg.APIUserAgent == DefaultUserAgent) && fc.API.UA != "" {
		cfg.APIUserAgent = fc.API.UA
	}
	if (cfg.PerRequestTimeout == 0 || cfg.PerRequestTimeout == DefaultTimeout) && fc.API.Timeout > 0 {
		cfg.PerRequestTimeout = fc.API.Timeout
	}
	if (cfg.PageSize == 0 || cfg.PageSize == DefaultPageSize) && fc.Page.Size > 0 {
		cfg.PageSize = fc.Page.Size
	}
	if (cfg.MaxPages == 0 || cfg.MaxPages == DefaultMaxPages) && fc.Max.Pages > 0 {
		cfg.MaxPages = fc.Max.Pages
	}
	if (cfg.MaxAttempts == 0 || cfg.MaxAttempts == DefaultMaxAttempts) && fc.Max.Attempts > 0 {
		cfg.MaxAttempts = fc.Max.Attempts
	}
	if (cfg.StateDir == "" || cfg.StateDir == DefaultStateDir) && fc.State.Dir != "" {
		cfg.StateDir = fc.State.Dir
	}
	if !cfg.StateClear && fc.State.Clear {
		cfg.StateClear = true
	}
	if (cfg.Concurrency == 0 || cfg.Concurrency == DefaultConcurrency) && fc.Concurrency > 0 {
		cfg.Concurrency = fc.Concurrency
	}
	if !cfg.DryRun && fc.DryRun {
		cfg.DryRun = true
	}
	if !cfg.EnablePDF && fc.EnablePDF {
		cfg.EnablePDF = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
// For dry-run, the vault directory may be omitted.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return errors.New("config: api.base is required (or set NOTESINK_API_BASE)")
	}
	if !cfg.DryRun {
		if strings.TrimSpace(cfg.VaultDir) == "" {
			return errors.New("config: vault.dir is required")
		}
	}
	if cfg.PageSize < 0 || cfg.MaxPages < 0 || cfg.MaxAttempts < 0 || cfg.Concurrency < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
