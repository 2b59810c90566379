package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoHome = errors.New("no home")

// stubPlatform replaces the OS directory lookups for the rest of the test.
func stubPlatform(t *testing.T, home, configDir string, err error) {
	t.Helper()
	saved := platformDir
	t.Cleanup(func() { platformDir = saved })

	platformDir.homeDir = func() (string, error) { return home, err }
	platformDir.userConfigDir = func() (string, error) { return configDir, err }
}

func TestXDGDir(t *testing.T) {
	tests := []struct {
		name     string
		xdg      string
		fallback []string
		want     string
	}{
		{"env wins", "/xdg", []string{".config"}, "/xdg/workbench"},
		{"home fallback", "", []string{".config"}, "/home/ana/.config/workbench"},
		{"nested fallback", "", []string{".local", "share"}, "/home/ana/.local/share/workbench"},
		{"no fallback parts", "", nil, "/home/ana/workbench"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPlatform(t, "/home/ana", "", nil)
			t.Setenv("WORKBENCH_TEST_XDG", tt.xdg)

			got, err := xdgDir("WORKBENCH_TEST_XDG", tt.fallback...)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}

	t.Run("home lookup failure", func(t *testing.T) {
		stubPlatform(t, "", "", errNoHome)
		t.Setenv("WORKBENCH_TEST_XDG", "")

		_, err := xdgDir("WORKBENCH_TEST_XDG", ".config")
		assert.ErrorIs(t, err, errNoHome)
	})
}

func TestUserConfigDir(t *testing.T) {
	stubPlatform(t, "", "/Users/ana/Library/Application Support", nil)
	got, err := userConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/Users/ana/Library/Application Support", AppName), got)

	stubPlatform(t, "", "", errNoHome)
	_, err = userConfigDir()
	assert.ErrorIs(t, err, errNoHome)
}

func TestDefaultDirs(t *testing.T) {
	stubPlatform(t, "/home/ana", "/cfg", nil)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	cfg, err := DefaultConfigDir()
	require.NoError(t, err)
	data, err := DefaultDataDir()
	require.NoError(t, err)

	if runtime.GOOS == "linux" {
		assert.Equal(t, filepath.Join("/home/ana", ".config", AppName), cfg)
		assert.Equal(t, filepath.Join("/home/ana", ".local", "share", AppName), data)
	} else {
		assert.Equal(t, filepath.Join("/cfg", AppName), cfg)
		assert.Equal(t, cfg, data)
	}

	t.Run("lookup failure", func(t *testing.T) {
		stubPlatform(t, "", "", errNoHome)
		_, err := DefaultConfigDir()
		assert.ErrorIs(t, err, errNoHome)
		_, err = DefaultDataDir()
		assert.ErrorIs(t, err, errNoHome)
	})
}

func TestResolveConfigDir(t *testing.T) {
	stubPlatform(t, "/home/ana", "/cfg", nil)
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	def, err := DefaultConfigDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag beats env", "/from-flag", "/from-env", "/from-flag"},
		{"env beats default", "", "/from-env", "/from-env"},
		{"default", "", "", def},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("relative flag made absolute", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		got, err := ResolveConfigDir("conf")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
		assert.Equal(t, "conf", filepath.Base(got))
	})
}

func TestResolveDataDir(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name   string
		flag   string
		config string
		env    string
		want   string
	}{
		{"flag beats all", "/flag", "/config", "/env", "/flag"},
		{"config file beats env", "", "/config", "/env", "/config"},
		{"env", "", "", "/env", "/env"},
		{"working directory default", "", "", "", filepath.Join(cwd, DefaultDataDirName)},
		{"relative config value", "", "data", "", filepath.Join(cwd, "data")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.config)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "workbench", AppName)
	assert.Equal(t, ".workbench", DefaultDataDirName)
	assert.Equal(t, "WORKBENCH_CONFIG_DIR", EnvConfigDir)
	assert.Equal(t, "WORKBENCH_DATA_DIR", EnvDataDir)
}
