package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/salesdesk/internal/paths"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and data directory",
		Long: "Write config.yaml to the configuration directory if it is missing, then\n" +
			"create the data directory. Running init again changes nothing.",
		Args: exactArgs(0),
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	if err := ensureConfigDir(configDir); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if _, err := os.Stat(paths.ConfigFile(configDir)); os.IsNotExist(err) {
		cfg := types.Config{DataDir: flags.dataDir}.WithDefaults()
		cfg.Auth.Users = []types.Credential{}
		if err := writeConfig(configDir, cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
	}

	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	if flags.jsonMode {
		return printJSON(out(cmd), map[string]string{"config": configDir, "data": cfg.DataDir})
	}
	fmt.Fprintln(out(cmd), "salesdesk initialized")
	fmt.Fprintln(out(cmd), "  config:", configDir)
	fmt.Fprintln(out(cmd), "  data:  ", cfg.DataDir)
	return nil
}
