/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"fmt"
	"net/http"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/spf13/cobra"

	"github.com/lewtec/polypmark/internal/client"
	"github.com/lewtec/polypmark/internal/frames"
	"github.com/lewtec/polypmark/internal/repository"
	"github.com/lewtec/polypmark/review"
)

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Start the local review web server",
	Long: `Start a web server over the local annotation database.

The server lists the synced videos, shows the annotations of each one
and serves the frame images through a local cache. Use the 'pull'
subcommand first to bring annotations down from the backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := review.OpenDatabase(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		backend := client.New(cfg.BackendURL, cfg.Token, logger)
		app := &review.ReviewApp{
			Repo:   repository.NewAnnotationRepository(db),
			Cache:  frames.New(osfs.New(cfg.CacheDir), backend, logger),
			Config: cfg,
			Log:    logger,
		}

		logger.Info("starting review server",
			"addr", cfg.ReviewAddr,
			"database", cfg.Database,
			"backend", cfg.BackendURL,
		)
		return http.ListenAndServe(cfg.ReviewAddr, app.GetHTTPHandler())
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
