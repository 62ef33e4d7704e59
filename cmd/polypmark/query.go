/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lewtec/polypmark/review"
)

func PrintQuery(ctx context.Context, db *sql.Tx, query string, args ...interface{}) error {
	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	result, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return err
	}
	columns, err := result.Columns()
	if err != nil {
		return err
	}
	if len(columns) > 1 {
		fmt.Println(strings.Join(columns, "\t"))
	}
	pointers := make([]interface{}, len(columns))
	container := make([]string, len(columns))
	for i := 0; i < len(columns); i++ {
		pointers[i] = &container[i]
	}
	for result.Next() {
		result.Scan(pointers...)
		fmt.Println(strings.Join(container, "\t"))
	}
	return nil
}

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [video [frame]]",
	Short: "Queries the local annotation database",
	Long: `Queries the local annotation database as tab-separated text.

Without arguments it lists the synced videos with their annotation
counts. With a video id it lists the annotations of that video, and
with a video and frame id only the annotations of that frame.`,
	Args: cobra.MaximumNArgs(2),
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

		tx, err := db.BeginTx(cmd.Context(), &sql.TxOptions{
			Isolation: sql.LevelReadUncommitted,
		})
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if len(args) < 1 {
			return PrintQuery(cmd.Context(), tx, `
select video_id, count(*) annotations, count(distinct polyp_id) polyps
from annotations group by video_id order by video_id`)
		}
		if len(args) < 2 {
			return PrintQuery(cmd.Context(), tx, `
select frame_id, polyp_id, x1, y1, width, height, start_time, end_time, content
from annotations where video_id = ? order by frame_id, id`, args[0])
		}
		return PrintQuery(cmd.Context(), tx, `
select polyp_id, x1, y1, width, height, start_time, end_time, content
from annotations where video_id = ? and frame_id = ? order by id`, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
