package cli

import (
	"github.com/WoodPyle/wayneos-vm-app/internal/config"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile      string
	logLevel     string
	distribution string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wayneos-kernel",
	Short: "WayneOS kernel - natural-language command router",
	Long: `WayneOS kernel classifies short natural-language commands and routes them
to simulated system agents (filesystem, hardware, network, processes, ML,
security, user session). Commands arrive as JSON lines on stdin or as
WebSocket frames.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wayneos/kernel.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&distribution, "distribution", "", "agent distribution (wayneos, wayneos-top, wayneos-sspb, wayneos-financial)")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// loadConfig loads the config file and environment, then applies the global
// flags the user set explicitly
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader(cfgFile)

	if cmd.Flags().Changed("log-level") {
		loader.Override("logging.level", logLevel)
	}
	if cmd.Flags().Changed("distribution") {
		loader.Override("distribution", distribution)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
