/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/russross/blackfriday/v2"
	"github.com/spf13/cobra"

	"github.com/lewtec/polypmark/internal/repository"
	"github.com/lewtec/polypmark/review"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export video-id",
	Short: "Export an HTML report of a video's annotations",
	Long: `Render the annotations of a video from the local database into a
standalone HTML report file.`,
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
		ctx := cmd.Context()

		recs, err := repo.ListByVideo(ctx, videoID)
		if err != nil {
			return fmt.Errorf("while listing annotations of video %d: %w", videoID, err)
		}
		if len(recs) == 0 {
			return fmt.Errorf("video %d has no annotations in the local database", videoID)
		}
		polyps, err := repo.CountPolyps(ctx, videoID)
		if err != nil {
			return fmt.Errorf("while counting polyps of video %d: %w", videoID, err)
		}

		var markdownBuilder strings.Builder
		fmt.Fprintf(&markdownBuilder, "# Video %d annotation report\n\n", videoID)
		fmt.Fprintf(&markdownBuilder, "%d annotations over %d distinct polyps.\n\n", len(recs), polyps)
		fmt.Fprintf(&markdownBuilder, "| Frame | Polyp | Box | Start | End | Notes |\n")
		fmt.Fprintf(&markdownBuilder, "|---|---|---|---|---|---|\n")
		for _, rec := range recs {
			end := "open"
			if rec.EndTime != nil {
				end = fmt.Sprintf("%.2fs", *rec.EndTime)
			}
			fmt.Fprintf(&markdownBuilder, "| %d | %d | %.0fx%.0f at (%.0f, %.0f) | %.2fs | %s | %s |\n",
				rec.FrameID, rec.PolypID, rec.Width, rec.Height, rec.X1, rec.Y1, rec.StartTime, end, rec.Content)
		}

		body := blackfriday.Run([]byte(markdownBuilder.String()),
			blackfriday.WithExtensions(blackfriday.CommonExtensions))

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = fmt.Sprintf("video-%d-report-%s.html", videoID, uuid.NewString())
		}
		var html strings.Builder
		fmt.Fprintf(&html, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
		fmt.Fprintf(&html, "<title>Video %d annotation report</title></head><body>\n", videoID)
		html.Write(body)
		fmt.Fprintf(&html, "</body></html>\n")
		if err := os.WriteFile(output, []byte(html.String()), 0o644); err != nil {
			return fmt.Errorf("while writing report '%s': %w", output, err)
		}

		logger.Info("report written", "video", videoID, "annotations", len(recs), "file", output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "Output file (default: generated name)")
}
