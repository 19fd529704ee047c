// Package config loads the client configuration from a TOML file, creating
// the file from an embedded default on first run.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/leofor19/hackeeg-go/ads1299"
	"github.com/leofor19/hackeeg-go/wire"
)

//go:embed hackeeg.toml
var defaultConfigData []byte

// Settings resolved from the configuration file
var (
	Port        string
	BaudRate    int
	Speed       int
	Gain        int
	Mode        wire.Mode
	MaxSamples  int
	Duration    float64 // seconds
	ChannelTest bool
)

// Config represents the entire TOML configuration structure
type Config struct {
	Port     string `toml:"port"`
	BaudRate int    `toml:"baudrate"`
	Scan     Scan   `toml:"scan"`
}

// Scan holds the acquisition defaults used when the command line does not
// override them
type Scan struct {
	Speed       int     `toml:"speed"`
	Gain        int     `toml:"gain"`
	Mode        string  `toml:"mode"`
	MaxSamples  int     `toml:"max_samples"`
	Duration    float64 `toml:"duration"`
	ChannelTest bool    `toml:"channel_test"`
}

// defaultPath determines the config file path based on the operating system
func defaultPath() (string, error) {
	var configDir string
	var err error

	switch runtime.GOOS {
	case "windows":
		// Use AppData directory for Windows
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "hackeeg")
	default:
		// Linux/macOS: use home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user home directory: %w", err)
		}
	}

	return filepath.Join(configDir, ".hackeeg.toml"), nil
}

// Initialize loads and validates the configuration file at path, or at the
// per-user default location when path is empty. A missing file is created
// from the embedded default first.
func Initialize(path string) error {
	// 1. Determine config file path
	var err error
	if path == "" {
		path, err = defaultPath()
		if err != nil {
			return err
		}
	}

	// 2. Check if config file exists, create from embedded default if not
	if _, err := os.Stat(path); os.IsNotExist(err) {
		configDir := filepath.Dir(path)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
		}
		if err := os.WriteFile(path, defaultConfigData, 0644); err != nil {
			return fmt.Errorf("failed to create default config file at %s: %w", path, err)
		}
	}

	// 3. Parse TOML file
	var conf Config
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return fmt.Errorf("failed to parse TOML config at %s: %w", path, err)
	}

	// 4. Validate and publish
	if err := apply(&conf); err != nil {
		return fmt.Errorf("invalid config at %s: %w", path, err)
	}
	return nil
}

// apply validates conf and stores its values in the package variables.
func apply(conf *Config) error {
	if conf.BaudRate <= 0 {
		return fmt.Errorf("baudrate %d is not positive", conf.BaudRate)
	}
	if _, ok := ads1299.SampleRates[conf.Scan.Speed]; !ok {
		return fmt.Errorf("%d is not a valid speed; valid speeds are %v", conf.Scan.Speed, sortedKeys(ads1299.SampleRates))
	}
	if _, ok := ads1299.Gains[conf.Scan.Gain]; !ok {
		return fmt.Errorf("%d is not a valid gain; valid gains are %v", conf.Scan.Gain, sortedKeys(ads1299.Gains))
	}
	mode, err := wire.ParseMode(conf.Scan.Mode)
	if err != nil {
		return err
	}
	if conf.Scan.MaxSamples <= 0 {
		return fmt.Errorf("max_samples %d is not positive", conf.Scan.MaxSamples)
	}
	if conf.Scan.Duration <= 0 {
		return fmt.Errorf("duration %g is not positive", conf.Scan.Duration)
	}

	Port = conf.Port
	BaudRate = conf.BaudRate
	Speed = conf.Scan.Speed
	Gain = conf.Scan.Gain
	Mode = mode
	MaxSamples = conf.Scan.MaxSamples
	Duration = conf.Scan.Duration
	ChannelTest = conf.Scan.ChannelTest
	return nil
}

func sortedKeys(m map[int]byte) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
