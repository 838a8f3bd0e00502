package cli

import (
	"fmt"
	"strings"

	"github.com/WoodPyle/wayneos-vm-app/pkg/agents"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents of a distribution",
	Long:  `List the agents the selected distribution registers and their declared capabilities.`,
	Args:  cobra.NoArgs,
	RunE:  runAgents,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	registry, err := agents.NewRegistry(cfg.Distribution, agents.NewDeps(cfg.Agents.Seed, zerolog.Nop()))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !agents.KnownDistribution(cfg.Distribution) {
		fmt.Fprintf(out, "Distribution: %s (unknown, base agents)\n", cfg.Distribution)
	} else {
		fmt.Fprintf(out, "Distribution: %s\n", cfg.Distribution)
	}

	for _, a := range registry.List() {
		fmt.Fprintf(out, "  %-12s %s\n", a.Name(), strings.Join(a.Capabilities(), ", "))
	}
	return nil
}
