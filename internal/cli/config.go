// Config loading for the contactbook CLI.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/contactbook/internal/logging"
	"github.com/mesh-intelligence/contactbook/internal/paths"
	"github.com/mesh-intelligence/contactbook/internal/viewmodel"
	"github.com/mesh-intelligence/contactbook/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	envPrefix = "CONTACTBOOK"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeySyncStrategy  = "sync_strategy"
	cfgKeyBatchSize     = "batch_size"
	cfgKeyBatchInterval = "batch_interval"
	cfgKeyWatch         = "watch"
	cfgKeyGracePeriod   = "grace_period"
	cfgKeyDefaultSort   = "default_sort"
	cfgKeyLogLevel      = "log_level"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# contactbook configuration

# Storage backend
backend: sqlite

# Data directory (optional; overridable by --data-dir)
# data_dir:

# When contacts.jsonl is written: immediate, on_close or batch
sync_strategy: immediate
# batch_size: 10
# batch_interval: 5

# Reload when another process edits the data file
watch: false

# How long the live listing survives without observers
grace_period: 5s

# first_name, last_name or phone_number
default_sort: phone_number

# debug, info, warn or error
log_level: warn
`

// loadConfig reads config.yaml from configDir, writing the default file
// on first run. CONTACTBOOK_* environment variables override file values.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetDefault(cfgKeyBatchSize, types.DefaultBatchSize)
	v.SetDefault(cfgKeyBatchInterval, types.DefaultBatchInterval)
	v.SetDefault(cfgKeyWatch, false)
	v.SetDefault(cfgKeyGracePeriod, types.DefaultGracePeriod)
	v.SetDefault(cfgKeyDefaultSort, types.DefaultSortCriterion.String())
	v.SetDefault(cfgKeyLogLevel, logging.DefaultLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates config.yaml unless it exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, paths.ConfigFileName)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// storeConfig builds the backend configuration from flags and config.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, err
	}
	cfg := types.Config{
		Backend: a.v.GetString(cfgKeyBackend),
		DataDir: dataDir,
		SQLiteConfig: &types.SQLiteConfig{
			SyncStrategy:  a.v.GetString(cfgKeySyncStrategy),
			BatchSize:     a.v.GetInt(cfgKeyBatchSize),
			BatchInterval: a.v.GetInt(cfgKeyBatchInterval),
		},
		Watch: a.v.GetBool(cfgKeyWatch),
	}
	return cfg, cfg.Validate()
}

// viewModelConfig builds the view model configuration. sortFlag, when
// set, overrides default_sort.
func (a *app) viewModelConfig(sortFlag string) (viewmodel.Config, error) {
	criterion, err := a.sortCriterion(sortFlag)
	if err != nil {
		return viewmodel.Config{}, err
	}
	grace, err := a.gracePeriod()
	if err != nil {
		return viewmodel.Config{}, err
	}
	cfg := viewmodel.Config{GracePeriod: grace, InitialSort: criterion}
	return cfg, cfg.Validate()
}

func (a *app) sortCriterion(sortFlag string) (types.SortCriterion, error) {
	text := sortFlag
	if text == "" {
		text = a.v.GetString(cfgKeyDefaultSort)
	}
	c, err := types.ParseSortCriterion(text)
	if err != nil {
		return 0, fmt.Errorf("%w %q (valid: first, last, phone)", types.ErrInvalidSortCriterion, text)
	}
	return c, nil
}

func (a *app) gracePeriod() (time.Duration, error) {
	grace := a.v.GetDuration(cfgKeyGracePeriod)
	if grace < 0 {
		return 0, types.ErrGracePeriodInvalid
	}
	return grace, nil
}
