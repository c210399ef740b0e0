package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/salesdesk/internal/paths"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "SALESDESK"
	dotEnvFile     = ".env"
)

// Config keys that environment variables may override. data_dir is left
// out: its precedence is resolved by paths.ResolveDataDir.
var envKeys = []string{
	"listen_addr",
	"log_level",
	"log_format",
	"scraping.mode",
	"scraping.async",
	"scraping.timeout",
	"intake.cutoff",
}

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# salesdesk configuration

# Directory holding the CSV collections (optional; --data-dir wins)
# data_dir:

listen_addr: 127.0.0.1:8080
log_level: info
log_format: text

scraping:
  # manual: jobs complete at once and point to the browser extraction flow
  # automated: jobs run the registered scrapers
  mode: manual
  async: false
  timeout: 30s

intake:
  cutoff: "2025-10-01"

auth:
  # Generate hashes with: salesdesk hash-password
  users: []
`

// loadDotEnv loads .env from the working directory into the process
// environment. Variables already set are kept.
func loadDotEnv() error {
	err := godotenv.Load(dotEnvFile)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", dotEnvFile, err)
}

// loadConfig reads config.yaml from configDir with Viper, creating the
// directory and a default file on first run, and resolves the data
// directory. The result has defaults applied and is validated.
func loadConfig(configDir string) (types.Config, error) {
	if err := loadDotEnv(); err != nil {
		return types.Config{}, err
	}
	if err := ensureConfigDir(configDir); err != nil {
		return types.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return types.Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return types.Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, cfg.DataDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return types.Config{}, &exitError{code: exitUserError, err: fmt.Errorf("config: %w", err)}
	}
	return cfg, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates config.yaml if it does not exist.
func ensureDefaultConfigFile(configDir string) error {
	path := paths.ConfigFile(configDir)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// writeConfig replaces config.yaml with cfg.
func writeConfig(configDir string, cfg types.Config) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(paths.ConfigFile(configDir), data, 0o644)
}
