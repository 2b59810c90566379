package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "WORKBENCH"
)

// Config keys.
const (
	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeyListenAddr   = "listen_addr"
	cfgKeyLogLevel     = "log_level"
	cfgKeyLogFormat    = "log_format"
	cfgKeyRateLimit    = "rate_limit"
	cfgKeyRateBurst    = "rate_burst"
	cfgKeyAllowOrigins = "allow_origins"
)

// envKeys can be overridden by WORKBENCH_<KEY>. data_dir is left out: its
// environment override is resolved by paths.ResolveDataDir, after the
// config file.
var envKeys = []string{
	cfgKeyBackend, cfgKeyListenAddr, cfgKeyLogLevel, cfgKeyLogFormat,
	cfgKeyRateLimit, cfgKeyRateBurst, cfgKeyAllowOrigins,
}

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# workbench configuration

# Storage backend: sqlite or memory
backend: sqlite

# Data directory (optional; overridable by --data-dir)
# data_dir:

# HTTP server
listen_addr: ":8080"

# Requests per second per client; 0 disables rate limiting
rate_limit: 20
rate_burst: 40

# allow_origins: ["http://localhost:5173"]

# Logging: trace, debug, info, warn, error; format text or json
log_level: info
log_format: text
`

// settings is the decoded configuration.
type settings struct {
	Backend      string   `mapstructure:"backend"`
	DataDir      string   `mapstructure:"data_dir"`
	ListenAddr   string   `mapstructure:"listen_addr"`
	LogLevel     string   `mapstructure:"log_level"`
	LogFormat    string   `mapstructure:"log_format"`
	RateLimit    float64  `mapstructure:"rate_limit"`
	RateBurst    int      `mapstructure:"rate_burst"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// loadSettings reads config.yaml from configDir using Viper. It creates
// the directory and a default config.yaml on first run.
func loadSettings(configDir string) (settings, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return settings{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return settings{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyListenAddr, ":8080")
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogFormat, "text")
	v.SetDefault(cfgKeyRateLimit, 0)
	v.SetDefault(cfgKeyRateBurst, 0)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return settings{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
