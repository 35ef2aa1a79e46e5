package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/statsbiblioteket/sb-bitrepository-client/config"
	"github.com/statsbiblioteket/sb-bitrepository-client/logging"
)

var (
	flagConfig     string
	flagCollection string
	flagLogLevel   string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bitclient",
		Short:         "Command line client for a bit preservation repository",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default "+config.DefaultPath()+" when present)")
	root.PersistentFlags().StringVar(&flagCollection, "collection", "", "collection to operate on (overrides config)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(newDownloadCmd())
	root.AddCommand(newUploadCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newConfigCmd())
	return root
}

// loadConfig resolves the effective configuration: the explicit --config
// file, else the default path when it exists, else built-in defaults, with
// command line overrides applied on top.
func loadConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		if _, err := os.Stat(config.DefaultPath()); err == nil {
			path = config.DefaultPath()
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flagCollection != "" {
		cfg.CollectionID = flagCollection
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New("bitclient", cfg.LogLevel)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flagConfig
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config %q already exists", path)
			}
			if err := config.Save(config.NewConfig(), path); err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	})

	return cmd
}
