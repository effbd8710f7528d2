package main

import (
	"context"
	"os"
	"os/signal"
	"rossip/commands"
	"rossip/config"
	"syscall"

	"github.com/spf13/cobra"

	log "github.com/sirupsen/logrus"
)

var (
	configFile string
	logLevel   string
)

func setLogLevel(level string) {
	l, err := log.ParseLevel(level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	log.SetLevel(l)
}

func loadConfig() *config.Config {
	cfg, err := config.NewConfigFromFile(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rossip",
		Short: "LAN peer discovery and chat over UDP broadcast",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setLogLevel(logLevel)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (defaults and ROSSIP_* env vars when empty)")
	root.PersistentFlags().StringVar(&logLevel, "loglevel", "info", "Log level")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile == "" {
				log.Fatal("Config file not specified")
			}
			cfg := config.NewEmptyConfig(configFile)
			if name, _ := cmd.Flags().GetString("name"); name != "" {
				cfg.Node.Name = name
			}
			return commands.RunInit(cmd.Context(), cfg)
		},
	}
	initCmd.Flags().String("name", "", "Node name to put in the config")

	var senderOnly bool
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Discover peers and chat",
		Run: func(cmd *cobra.Command, args []string) {
			commands.RunServe(cmd.Context(), loadConfig(), commands.ServeOptions{
				SenderOnly: senderOnly,
				Input:      os.Stdin,
				Output:     os.Stdout,
			})
		},
	}
	serveCmd.Flags().BoolVar(&senderOnly, "sender-only", false, "Only broadcast chat read from stdin")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "List peers saved by the last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunInfo(cmd.Context(), loadConfig(), os.Stdout)
		},
	}

	root.AddCommand(initCmd, serveCmd, infoCmd)
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
