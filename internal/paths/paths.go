// Package paths resolves where workbench keeps its configuration and its
// data. Explicit settings always win; the platform defaults follow the XDG
// layout on Linux and os.UserConfigDir elsewhere.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under platform config locations.
const AppName = "workbench"

// DefaultDataDirName is the data directory created under the working
// directory when nothing else is configured.
const DefaultDataDirName = ".workbench"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "WORKBENCH_CONFIG_DIR"
	EnvDataDir   = "WORKBENCH_DATA_DIR"
)

// platformDir can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir returns $<env>/workbench, falling back to ~/<fallback...>/workbench.
func xdgDir(env string, fallback ...string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, AppName)...), nil
}

func userConfigDir() (string, error) {
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultConfigDir returns the platform default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/workbench (fallback ~/.config/workbench)
// macOS:   ~/Library/Application Support/workbench
// Windows: %APPDATA%/workbench
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	return userConfigDir()
}

// DefaultDataDir returns the platform default data directory.
//
// Linux:   $XDG_DATA_HOME/workbench (fallback ~/.local/share/workbench)
// macOS and Windows: same as the config directory.
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", ".local", "share")
	}
	return userConfigDir()
}

// ResolveConfigDir applies flag > WORKBENCH_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config.yaml data_dir > WORKBENCH_DATA_DIR >
// $(CWD)/.workbench. The working-directory default keeps a project's data
// next to the project.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, dir := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
