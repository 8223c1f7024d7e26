package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755
)

var (
	// ConfigDir is the global configuration directory (~/.rustactions)
	ConfigDir string

	// DatabasePath is the SQLite database file for the dynamic-bind index and trigger history
	DatabasePath string

	// CatalogPath is the default item database file
	CatalogPath string

	// SettingsFile is the YAML settings file
	SettingsFile string
)

// Settings holds the user-tunable configuration loaded from settings.yaml.
type Settings struct {
	// KeysCfgPath is the game's keys.cfg file managed by this tool.
	KeysCfgPath string `yaml:"keysCfgPath"`

	// Host and Port configure the local HTTP API.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// ConsoleKey opens the in-game console for the reload sequence.
	ConsoleKey string `yaml:"consoleKey"`

	// ReloadCommand is typed into the console to re-read the bind file.
	ReloadCommand string `yaml:"reloadCommand"`

	// InjectorCommand is the external helper invoked to synthesize key
	// events. Empty means injection is unavailable and triggers fail with
	// a clear message instead of silently doing nothing.
	InjectorCommand string `yaml:"injectorCommand"`

	// TargetWindowTitle gates injection on the foreground window. Empty
	// disables the focus check.
	TargetWindowTitle string `yaml:"targetWindowTitle"`
}

const defaultSettingsYAML = `# rustactions settings
# Path to the keys.cfg file managed by this tool.
keysCfgPath: 'C:\Program Files (x86)\Steam\steamapps\common\Rust\cfg\keys.cfg'

# Local HTTP API listen address.
host: localhost
port: 5000

# Console reload sequence.
consoleKey: f1
reloadCommand: exec keys.cfg

# External helper used to synthesize key events.
# Invoked as: <injectorCommand> chord <key>+<key>+... | type <text> | press <key>
injectorCommand: ""

# Only inject when this window holds focus. Empty disables the check.
targetWindowTitle: Rust
`

// DefaultSettings returns the built-in settings used when the settings
// file is missing or unreadable.
func DefaultSettings() Settings {
	return Settings{
		KeysCfgPath:       `C:\Program Files (x86)\Steam\steamapps\common\Rust\cfg\keys.cfg`,
		Host:              "localhost",
		Port:              5000,
		ConsoleKey:        "f1",
		ReloadCommand:     "exec keys.cfg",
		TargetWindowTitle: "Rust",
	}
}

// Initialize sets up the configuration directory and files.
// It creates ~/.rustactions/ if it doesn't exist and seeds a default
// settings file on first run.
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	// Set global paths
	ConfigDir = filepath.Join(homeDir, ".rustactions")
	DatabasePath = filepath.Join(ConfigDir, "rustactions.db")
	CatalogPath = filepath.Join(ConfigDir, "itemDatabase.json")
	SettingsFile = filepath.Join(ConfigDir, "settings.yaml")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	// Create default settings file if it doesn't exist
	if _, err := os.Stat(SettingsFile); os.IsNotExist(err) {
		if err := os.WriteFile(SettingsFile, []byte(defaultSettingsYAML), FilePermissions); err != nil {
			return fmt.Errorf("failed to create settings file: %w", err)
		}
	}

	return nil
}

// LoadSettings reads the settings file, filling any field left empty with
// its default. A missing file yields the defaults without error.
func LoadSettings() (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(SettingsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings file: %w", err)
	}

	var loaded Settings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return settings, fmt.Errorf("failed to parse settings file: %w", err)
	}

	if loaded.KeysCfgPath != "" {
		settings.KeysCfgPath = expandHome(loaded.KeysCfgPath)
	}
	if loaded.Host != "" {
		settings.Host = loaded.Host
	}
	if loaded.Port != 0 {
		settings.Port = loaded.Port
	}
	if loaded.ConsoleKey != "" {
		settings.ConsoleKey = loaded.ConsoleKey
	}
	if loaded.ReloadCommand != "" {
		settings.ReloadCommand = loaded.ReloadCommand
	}
	settings.InjectorCommand = loaded.InjectorCommand
	settings.TargetWindowTitle = loaded.TargetWindowTitle

	return settings, nil
}

// expandHome expands a leading ~/ to the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
