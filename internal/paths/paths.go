// Package paths resolves where salesdesk keeps its configuration and its
// CSV collections.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the platform configuration directory.
const AppName = "salesdesk"

// File and directory names.
const (
	ConfigFileName     = "config.yaml"
	DefaultDataDirName = ".salesdesk-data"
)

// Environment overrides.
const (
	EnvConfigDir = "SALESDESK_CONFIG_DIR"
	EnvDataDir   = "SALESDESK_DATA_DIR"
)

// platform holds the OS lookups, replaceable in tests.
var platform = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the platform configuration directory:
// $XDG_CONFIG_HOME/salesdesk or ~/.config/salesdesk on Linux, and
// os.UserConfigDir()/salesdesk elsewhere.
func DefaultConfigDir() (string, error) {
	if platform.goos == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platform.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
	dir, err := platform.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir picks the configuration directory: flag, then
// SALESDESK_CONFIG_DIR, then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstSet(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the directory holding the CSV files: flag, then the
// config file value, then SALESDESK_DATA_DIR, then .salesdesk-data in the
// working directory.
func ResolveDataDir(flag, configured string) (string, error) {
	if dir := firstSet(flag, configured, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := platform.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the config file path inside dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
