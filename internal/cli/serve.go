package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WoodPyle/wayneos-vm-app/internal/gateway"
	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve commands over WebSocket",
	Long: `Start the WebSocket gateway. Each text frame on /ws is one command record
and is answered with one response frame. The server also exposes /metrics and
/healthz.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides gateway.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides gateway.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Gateway.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Gateway.Port = servePort
	}

	rt, err := newRuntime(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	server, err := gateway.NewServer(gateway.Config{
		Host:              cfg.Gateway.Host,
		Port:              cfg.Gateway.Port,
		RequestsPerSecond: cfg.Gateway.RequestsPerSecond,
		Burst:             cfg.Gateway.Burst,
		MaxMessageBytes:   cfg.Gateway.MaxMessageBytes,
		Handler:           rt.bridge,
		Metrics:           rt.metrics,
		Logger:            rt.logger,
	})
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}
