package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/ag0os/orchestra/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the merged configuration (defaults, then global config,
then project config) as TOML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if globalPath, err := config.GlobalConfigPath(); err == nil {
			fmt.Printf("# global: %s\n", globalPath)
		}
		fmt.Printf("# project: %s\n\n", config.ProjectConfigPath())

		return toml.NewEncoder(os.Stdout).Encode(cfg)
	},
}
