package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	runsLimit int
	runsJSON  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded prepare runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		d, err := OpenDatabase(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		runs, err := d.ListRuns(ctx, runsLimit)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if runsJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}

		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return nil
		}
		for _, r := range runs {
			roots := ""
			if r.IncludeRoots {
				roots = " +roots"
			}
			fmt.Fprintf(w, "%s  %-14s %s/%s items  salt=%s bucket<%d seed=%d%s  (%s)  %s\n",
				truncID(r.ID),
				humanize.Time(time.UnixMilli(r.StartedAt)),
				humanize.Comma(int64(r.OutputCount)),
				humanize.Comma(int64(r.InputCount)),
				r.Salt, r.MaxBucket, r.Seed, roots,
				formatDurationShort(r.FinishedAt-r.StartedAt),
				r.OutputPath)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(runsCmd)
}
