package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hnprep/internal/logger"
	"hnprep/internal/prepare"
)

var importCmd = &cobra.Command{
	Use:   "import <items.jsonl|->",
	Short: "Load items (one JSON object per line) into the database",
	Long:  "Reads items in the shape of the Hacker News item API and upserts them by id. Creates the database if it does not exist.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var in io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		logger.Info("import", "Reading %s", args[0])
		items, err := prepare.ReadItemsJSONL(in)
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		var hidden []int64
		for _, it := range items {
			if it.Dead || it.Deleted {
				hidden = append(hidden, it.ID)
			}
		}
		if len(hidden) > 0 {
			logger.Warn("import", "%d item(s) are dead or deleted; prepare and analyze skip them", len(hidden))
			if logger.IsVerbose() {
				for _, id := range hidden {
					logger.Debug("import", "dead or deleted: item %d", id)
				}
			}
		}

		path := requestedDB()
		if path == "" {
			if path, err = DiscoverDB(); err != nil {
				path = dbFileName
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logger.Info("import", "Creating database %s", path)
		}
		d, err := openWithSchema(ctx, path)
		if err != nil {
			return err
		}
		defer d.Close()

		n, err := d.UpsertItems(ctx, items)
		if err != nil {
			return err
		}
		total, err := d.CountItems(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s items (%s in database)\n",
			humanize.Comma(int64(n)), humanize.Comma(int64(total)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
