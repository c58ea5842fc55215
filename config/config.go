// Package config loads and saves n1core's on-disk TOML configuration:
// default tick budget, capability profile, assembler listing preferences,
// and trace-service settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/lucaspiller/n1core/core"
)

// Config represents n1core's on-disk configuration.
type Config struct {
	// Execution settings
	Execution struct {
		TickBudgetCycles uint16 `toml:"tick_budget_cycles"`
		CapabilityProfile string `toml:"capability_profile"` // "authority" or "restricted"
		EnableTrace      bool   `toml:"enable_trace"`
	} `toml:"execution"`

	// Assembler settings
	Assembler struct {
		ListingOutput   bool   `toml:"listing_output"`
		XrefOutput      bool   `toml:"xref_output"`
		LintOnAssemble  bool   `toml:"lint_on_assemble"`
		IncludeSearchDir string `toml:"include_search_dir"`
	} `toml:"assembler"`

	// Listing settings
	Listing struct {
		BytesPerLine  int    `toml:"bytes_per_line"`
		NumberFormat  string `toml:"number_format"` // hex, dec
		ShowCycles    bool   `toml:"show_cycles"`
	} `toml:"listing"`

	// Trace-service settings: the websocket endpoint that streams
	// TraceEvents emitted by a running core, per SPEC_FULL.md section 5.
	Trace struct {
		ListenAddr   string `toml:"listen_addr"`
		MaxEntries   int    `toml:"max_entries"`
		IncludeTicks bool   `toml:"include_ticks"`
	} `toml:"trace"`

	// Test runner settings
	TestRunner struct {
		StopOnFirstFailure bool `toml:"stop_on_first_failure"`
		Verbose            bool `toml:"verbose"`
	} `toml:"test_runner"`
}

// CoreProfile resolves Execution.CapabilityProfile to a core.CoreProfile,
// defaulting to ProfileAuthority for an unrecognized or empty value.
func (c *Config) CoreProfile() core.CoreProfile {
	switch c.Execution.CapabilityProfile {
	case "restricted":
		return core.ProfileRestricted
	default:
		return core.ProfileAuthority
	}
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.TickBudgetCycles = 640
	cfg.Execution.CapabilityProfile = "authority"
	cfg.Execution.EnableTrace = false

	cfg.Assembler.ListingOutput = false
	cfg.Assembler.XrefOutput = false
	cfg.Assembler.LintOnAssemble = true
	cfg.Assembler.IncludeSearchDir = "."

	cfg.Listing.BytesPerLine = 8
	cfg.Listing.NumberFormat = "hex"
	cfg.Listing.ShowCycles = true

	cfg.Trace.ListenAddr = "127.0.0.1:4190"
	cfg.Trace.MaxEntries = 100000
	cfg.Trace.IncludeTicks = true

	cfg.TestRunner.StopOnFirstFailure = false
	cfg.TestRunner.Verbose = true

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "n1core")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "n1core")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "n1core", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "n1core", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
