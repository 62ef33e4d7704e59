/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/lewtec/polypmark/review"
)

var logger *slog.Logger

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "polypmark",
	Short: "Annotate polyps on colonoscopy videos",
	Long: strings.TrimSpace(`
Mark polyps with bounding boxes on the frames of colonoscopy videos,
keep a local copy of the annotations and review them in the browser.
    `),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(
			tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: "15:04:05",
			}),
		)
		slog.SetDefault(logger)
	},
}

// loadConfig resolves the config for a subcommand from the --config flag.
func loadConfig(cmd *cobra.Command) (*review.Config, error) {
	filename, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return review.LoadConfig(filename)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "config.yaml", "Config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}
