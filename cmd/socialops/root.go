package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vadim/socialops/internal/app"
	"github.com/vadim/socialops/internal/config"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "socialops",
		Short:         "Draft, queue, post and track social media content",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default: environment and .env)")

	load := func() (config.Config, error) {
		if cfgFile != "" {
			return config.LoadFromFile(cfgFile)
		}
		return config.Load()
	}

	rootCmd.AddCommand(newServeCmd(load))
	rootCmd.AddCommand(newMCPCmd(load))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

type loader func() (config.Config, error)

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API, the streamable HTTP MCP endpoint and the analytics refresher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			ctx := context.Background()
			application, err := app.NewApp(ctx, cfg, app.WithVersion(version))
			if err != nil {
				return fmt.Errorf("initializing application: %w", err)
			}

			// blocks until shutdown
			return application.Run(ctx)
		},
	}
}

func newMCPCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			// stdout carries the protocol
			ctx := context.Background()
			application, err := app.NewApp(ctx, cfg, app.WithVersion(version), app.WithLogOutput(os.Stderr))
			if err != nil {
				return fmt.Errorf("initializing application: %w", err)
			}

			return application.RunMCPStdio(ctx)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "socialops %s\n", version)
			return nil
		},
	}
}
