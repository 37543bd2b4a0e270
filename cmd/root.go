package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/csams/podcast-admin/internal/api"
	"github.com/csams/podcast-admin/internal/config"
	"github.com/csams/podcast-admin/internal/listing"
	"github.com/csams/podcast-admin/internal/ui"
	"github.com/spf13/cobra"
)

var (
	flags = struct {
		ConfigFile string
	}{}

	root = &cobra.Command{
		Use:           config.AppName,
		Short:         "Terminal admin desk and offline cache for the podcast site",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// The screen belongs to the UI; logs go to a file.
			logPath, err := cfg.LogPath(manager.Dir())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer logFile.Close()
			log.SetOutput(logFile)
			log.Printf("Starting %s against %s", config.AppName, cfg.Site.BaseURL)

			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			app := ui.NewApp(client, ui.Options{
				List: listing.Options{
					Debounce:      cfg.List.Debounce,
					PageSize:      cfg.List.PageSize,
					LoadMoreDelay: cfg.List.LoadMoreDelay,
				},
				NotificationTimeout: cfg.List.NotificationTimeout,
			})
			return app.Run()
		},
	}
)

func init() {
	root.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "", "configuration file (default <user config dir>/podcast-admin/config.yaml)")
	root.AddCommand(cacheCmd, siteCmd)
}

func loadConfig() (*config.Manager, *config.Config, error) {
	path := flags.ConfigFile
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, nil, err
		}
	}
	manager := config.NewManager(path)
	cfg, err := manager.Load()
	if err != nil {
		return nil, nil, err
	}
	return manager, cfg, nil
}

func newClient(cfg *config.Config) (*api.Client, error) {
	opts := []api.Option{api.WithTimeout(cfg.Site.Timeout)}
	if cfg.Site.CSRFToken != "" {
		opts = append(opts, api.WithCSRFToken(cfg.Site.CSRFToken))
	}
	return api.NewClient(cfg.Site.BaseURL, opts...)
}

func Execute() {
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
