package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ag0os/orchestra/internal/config"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List agents configured in the chain document",
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, err := os.Getwd()
		if err != nil {
			return err
		}

		chainCfg, err := config.LoadChainConfig(workDir)
		if err != nil {
			return err
		}
		if chainCfg == nil || len(chainCfg.Agents) == 0 {
			fmt.Println("No agents configured.")
			return nil
		}

		nameColor := color.New(color.FgGreen, color.Bold)
		for _, name := range chainCfg.AgentNames() {
			a := chainCfg.Agents[name]
			nameColor.Printf("%s", name)
			if a.DirectSpawn() {
				backendName := appConfig.ResolveBackend(a.Backend, backendFlag)
				fmt.Printf("  direct-spawn via %s", backendName)
				if a.Model != "" {
					fmt.Printf(" (model %s)", a.Model)
				}
			} else {
				fmt.Printf("  delegated to executable %q", name)
			}
			fmt.Println()
		}
		return nil
	},
}
