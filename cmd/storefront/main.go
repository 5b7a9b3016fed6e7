package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/motoshop/storefront/internal/config"
)

const version = "0.1.0"

// app holds what the commands share once flags are parsed.
type app struct {
	configPath string
	verbose    bool
	listen     string
	apiHost    string
	engine     string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Motorcycle catalog front-end",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config file (YAML)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&a.apiHost, "api-host", "", "backend API base URL")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	serve.Flags().StringVar(&a.listen, "listen", "", "HTTP listen address")
	serve.Flags().StringVar(&a.engine, "engine", "", "router engine (chi or echo)")

	endpoints := &cobra.Command{
		Use:   "endpoints",
		Short: "Print the resolved backend endpoint table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printEndpoints(cmd.OutOrStdout())
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "storefront version %s\n", version)
		},
	}

	root.AddCommand(serve, endpoints, versionCmd)
	return root
}

// setup loads the config, applies explicitly set flags over it and builds
// the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-host") {
		cfg.APIHost = a.apiHost
	}
	if flags.Changed("listen") {
		cfg.Listen = a.listen
	}
	if flags.Changed("engine") {
		cfg.Engine = a.engine
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	a.logger, err = zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}
