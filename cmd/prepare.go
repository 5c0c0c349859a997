package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"hnprep/internal/bucket"
	"hnprep/internal/db"
	"hnprep/internal/logger"
	"hnprep/internal/prepare"
)

var (
	prepareOut          string
	prepareSalt         string
	prepareMaxBucket    int
	prepareSeed         int64
	prepareIncludeRoots bool
	prepareNoShuffle    bool
	prepareWorkers      int
	prepareNoRecord     bool
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Write the bucketed, normalized dataset as JSON Lines",
	Long: "Resolves every item to its thread root, keeps items whose root falls in a bucket " +
		"below --max-bucket, normalizes their markup, and writes {\"text\",\"meta\":{\"id\"}} lines.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts, err := resolvePrepareOptions(cmd)
		if err != nil {
			return err
		}

		d, err := OpenDatabase(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		started := time.Now()
		logger.Info("prepare", "Reading items")
		items, err := d.LiveItems(ctx)
		if err != nil {
			return fmt.Errorf("loading items: %w", err)
		}
		logger.Debug("prepare", "salt=%q max_bucket=%d seed=%d include_roots=%v shuffle=%v workers=%d",
			opts.Salt, opts.MaxBucket, opts.Seed, opts.IncludeRoots, opts.Shuffle, opts.Workers)

		logger.Info("prepare", "Resolving roots, bucketing and cleaning %s items", humanize.Comma(int64(len(items))))
		result, err := prepare.Run(ctx, items, opts)
		if err != nil {
			return err
		}

		logger.Info("prepare", "Writing %s records to %s", humanize.Comma(int64(len(result.Records))), prepareOut)
		if err := writeRecords(cmd.OutOrStdout(), prepareOut, result.Records); err != nil {
			return err
		}

		if !prepareNoRecord {
			run := db.Run{
				ID:           uuid.NewString(),
				StartedAt:    started.UnixMilli(),
				FinishedAt:   time.Now().UnixMilli(),
				Salt:         opts.Salt,
				MaxBucket:    opts.MaxBucket,
				Seed:         opts.Seed,
				IncludeRoots: opts.IncludeRoots,
				InputCount:   result.InputCount,
				OutputCount:  len(result.Records),
				OutputPath:   prepareOut,
			}
			if err := d.RecordRun(ctx, run); err != nil {
				return err
			}
			logger.Info("prepare", "Recorded run %s", run.ID)
		}

		logger.Info("prepare", "Done: %d of %d items across %d threads",
			len(result.Records), result.InputCount, result.Threads)
		return nil
	},
}

func init() {
	prepareCmd.Flags().StringVarP(&prepareOut, "out", "o", "-", "Output JSONL path (- for stdout)")
	prepareCmd.Flags().StringVar(&prepareSalt, "salt", "", "Bucket hash salt (default from config, \"hnbooks\")")
	prepareCmd.Flags().IntVar(&prepareMaxBucket, "max-bucket", 50, "Keep threads whose root bucket is below this value (0-100)")
	prepareCmd.Flags().Int64Var(&prepareSeed, "seed", 7191, "Shuffle seed")
	prepareCmd.Flags().BoolVar(&prepareIncludeRoots, "include-roots", false, "Also emit thread roots (items without a parent)")
	prepareCmd.Flags().BoolVar(&prepareNoShuffle, "no-shuffle", false, "Keep output in id order")
	prepareCmd.Flags().IntVar(&prepareWorkers, "workers", 0, "Text normalization workers (default from config, NumCPU)")
	prepareCmd.Flags().BoolVar(&prepareNoRecord, "no-record", false, "Do not record this run in the database")
	rootCmd.AddCommand(prepareCmd)
}

// resolvePrepareOptions starts from the loaded config and applies only the flags set explicitly
func resolvePrepareOptions(cmd *cobra.Command) (prepare.Options, error) {
	p := cfg.Prepare
	opts := prepare.Options{
		Salt:         p.Salt,
		MaxBucket:    p.MaxBucket,
		Seed:         p.Seed,
		IncludeRoots: p.IncludeRoots,
		Shuffle:      p.Shuffle,
		Workers:      p.Workers,
	}

	flags := cmd.Flags()
	if flags.Changed("salt") {
		opts.Salt = prepareSalt
	}
	if flags.Changed("max-bucket") {
		opts.MaxBucket = prepareMaxBucket
	}
	if flags.Changed("seed") {
		opts.Seed = prepareSeed
	}
	if flags.Changed("include-roots") {
		opts.IncludeRoots = prepareIncludeRoots
	}
	if flags.Changed("no-shuffle") {
		opts.Shuffle = !prepareNoShuffle
	}
	if flags.Changed("workers") {
		opts.Workers = prepareWorkers
	}

	if opts.Salt == "" {
		return opts, fmt.Errorf("--salt must not be empty")
	}
	if err := checkMaxBucket(opts.MaxBucket); err != nil {
		return opts, err
	}
	if opts.Workers < 1 {
		return opts, fmt.Errorf("--workers must be at least 1, got %d", opts.Workers)
	}
	return opts, nil
}

// checkMaxBucket rejects thresholds outside [0, NumBuckets]
func checkMaxBucket(n int) error {
	if n < 0 || n > bucket.NumBuckets {
		return fmt.Errorf("--max-bucket must be in [0, %d], got %d", bucket.NumBuckets, n)
	}
	return nil
}

func writeRecords(stdout io.Writer, path string, records []prepare.Record) error {
	if path == "-" {
		return prepare.WriteJSONL(stdout, records)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := prepare.WriteJSONL(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
