package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/contactbook/internal/paths"
	"github.com/mesh-intelligence/contactbook/internal/sqlite"
)

// configFile is the part of config.yaml that init pins down.
type configFile struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir"`
	SyncStrategy string `yaml:"sync_strategy"`
	GracePeriod  string `yaml:"grace_period"`
	DefaultSort  string `yaml:"default_sort"`
	LogLevel     string `yaml:"log_level"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize contactbook storage",
		Long: "Create the configuration and data directories, record the data\n" +
			"directory in config.yaml and create an empty contacts file.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, _ []string) error {
	cfg, err := a.storeConfig()
	if err != nil {
		return userError("invalid configuration: %v", err)
	}

	path := filepath.Join(a.configDir, paths.ConfigFileName)
	if err := a.writeConfig(path, cfg.DataDir); err != nil {
		return sysError("write config", err)
	}

	backend := sqlite.NewBackend(a.log)
	if err := backend.Attach(cfg); err != nil {
		return sysError("initialize storage", err)
	}
	if err := backend.Detach(); err != nil {
		return sysError("finalize storage", err)
	}

	a.log.Info("initialized", zap.String("config", path), zap.String("data_dir", cfg.DataDir))
	fmt.Fprintf(cmd.OutOrStdout(), "Contactbook initialized in %s\n", cfg.DataDir)
	return nil
}

// writeConfig rewrites config.yaml with the effective settings so later
// runs from any directory find the same data.
func (a *app) writeConfig(path, dataDir string) error {
	cfg := configFile{
		Backend:      a.v.GetString(cfgKeyBackend),
		DataDir:      dataDir,
		SyncStrategy: a.v.GetString(cfgKeySyncStrategy),
		GracePeriod:  a.v.GetDuration(cfgKeyGracePeriod).String(),
		DefaultSort:  a.v.GetString(cfgKeyDefaultSort),
		LogLevel:     a.v.GetString(cfgKeyLogLevel),
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
