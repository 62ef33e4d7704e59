/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lewtec/polypmark/internal/client"
	"github.com/lewtec/polypmark/internal/repository"
	"github.com/lewtec/polypmark/review"
)

// pullCmd represents the pull command
var pullCmd = &cobra.Command{
	Use:   "pull video-id",
	Short: "Sync the annotations of a video into the local database",
	Long: `Fetch every annotated frame of a video from the backend and store
the annotations in the local database, so the review server and the
query and export subcommands work offline.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		videoID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("video id must be a number, got '%s'", args[0])
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := review.OpenDatabase(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		repo := repository.NewAnnotationRepository(db)
		backend := client.New(cfg.BackendURL, cfg.Token, logger)
		ctx := cmd.Context()

		meta, err := backend.Metadata(ctx, videoID)
		if err != nil {
			return fmt.Errorf("while fetching metadata for video %d: %w", videoID, err)
		}
		logger.Info("pulling video", "id", meta.ID, "title", meta.Title, "duration", meta.Duration)

		frameInfos, err := backend.ListFrames(ctx, videoID, cfg.SamplingRate)
		if err != nil {
			return fmt.Errorf("while listing frames of video %d: %w", videoID, err)
		}

		var pulled int
		for _, frame := range frameInfos {
			recs, err := backend.FetchAnnotations(ctx, frame.ID)
			if err != nil {
				return fmt.Errorf("while fetching annotations of frame %d: %w", frame.ID, err)
			}
			for _, rec := range recs {
				if _, err := repo.CreateOrUpdate(ctx, rec); err != nil {
					return fmt.Errorf("while storing annotation %d/%d: %w", rec.FrameID, rec.PolypID, err)
				}
			}
			pulled += len(recs)
		}

		logger.Info("pull done", "video", videoID, "frames", len(frameInfos), "annotations", pulled)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
}
