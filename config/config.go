// Package config loads and saves ESIUX's TOML configuration file,
// grounded on the teacher's config.Load/LoadFrom/Save/SaveTo pattern but
// narrowed to three sections (SPEC_FULL.md 4.L): execution limits and
// default entry, numeric display, and the standard interrupt vectors.
// The `vm` CLI binds the fixed vm.HaltVector/vm.PrintVector and does not
// read the interrupts section.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the root of esiux's config.toml.
type Config struct {
	Execution struct {
		MaxCycles    uint64 `toml:"max_cycles"`
		MemorySize   uint   `toml:"memory_size"`
		DefaultEntry string `toml:"default_entry"`
	} `toml:"execution"`

	Display struct {
		NumberFormat string `toml:"number_format"` // hex, dec, both
	} `toml:"display"`

	Interrupts struct {
		HaltVector  uint8 `toml:"halt_vector"`
		PrintVector uint8 `toml:"print_vector"`
	} `toml:"interrupts"`
}

// DefaultConfig returns the configuration every `asm`/`vm` invocation
// falls back to when no config.toml is present.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxCycles = 1_000_000
	cfg.Execution.MemorySize = 1 << 20 // 1MB
	cfg.Execution.DefaultEntry = "0x0"

	cfg.Display.NumberFormat = "hex"

	cfg.Interrupts.HaltVector = 0xf0
	cfg.Interrupts.PrintVector = 0xe0

	return cfg
}

// configEnvVar names the environment variable that overrides the
// platform config path outright, the same way the `asm`/`vm` CLIs' own
// `-config` flag overrides it at the call site — this is the
// environment-level equivalent for scripted/CI invocations that can't
// pass a flag through (e.g. a wrapper script invoking `asm` directly).
const configEnvVar = "ESIUX_CONFIG"

// GetConfigPath returns the config file path: ESIUX_CONFIG if set,
// otherwise the platform-specific default under the user's config
// directory.
func GetConfigPath() string {
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "esiux")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "esiux")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// ParseDefaultEntry parses Execution.DefaultEntry (e.g. "0x0", "4096") into
// the fallback entry point `cmd/asm` passes to asm.EmitWithDefaultEntry,
// used when a program defines no `.global` label (a `.global` directive is
// what normally sets the entry; this is the config-level default when a
// source file sets none).
func (c *Config) ParseDefaultEntry() (uint32, error) {
	v, err := strconv.ParseUint(c.Execution.DefaultEntry, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid execution.default_entry %q: %w", c.Execution.DefaultEntry, err)
	}
	return uint32(v), nil
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, returning defaults unmodified
// when the file does not exist.
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

// SaveTo saves configuration to path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
