package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ag0os/orchestra/internal/config"
)

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List chains defined in the chain document",
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, err := os.Getwd()
		if err != nil {
			return err
		}

		chainCfg, err := config.LoadChainConfig(workDir)
		if err != nil {
			return err
		}
		if chainCfg == nil || len(chainCfg.Chains) == 0 {
			fmt.Println("No chains configured.")
			return nil
		}

		nameColor := color.New(color.FgCyan, color.Bold)
		for _, name := range chainCfg.ChainNames() {
			c := chainCfg.Chains[name]
			nameColor.Printf("%s", name)
			if c.Description != "" {
				fmt.Printf("  %s", c.Description)
			}
			fmt.Println()
			for i, step := range c.Steps {
				policy := "single run"
				if step.Loop {
					policy = fmt.Sprintf("up to %d iterations", step.Iterations)
				}
				fmt.Printf("  %d. %s (%s)\n", i+1, step.Agent, policy)
			}
			fmt.Println()
		}
		fmt.Printf("%d chain(s): %s\n", len(chainCfg.Chains), strings.Join(chainCfg.ChainNames(), ", "))
		return nil
	},
}
