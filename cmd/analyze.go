package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hnprep/internal/bucket"
	"hnprep/internal/graph"
)

var (
	analyzeJSON      bool
	analyzeTopN      int
	analyzeMaxBucket int
)

// analyzeOutput is the JSON shape of `analyze --json`
type analyzeOutput struct {
	*graph.ThreadReport
	MaxBucket    int `json:"max_bucket"`
	KeptThreads  int `json:"kept_threads"`
	KeptChildren int `json:"kept_children"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze thread structure: thread sizes, depth, orphans, bucket split",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		maxBucket := cfg.Prepare.MaxBucket
		if cmd.Flags().Changed("max-bucket") {
			maxBucket = analyzeMaxBucket
		}
		if err := checkMaxBucket(maxBucket); err != nil {
			return err
		}

		d, err := OpenDatabase(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		forest, err := graph.ForestFromDB(ctx, d)
		if err != nil {
			return fmt.Errorf("loading items: %w", err)
		}

		rel := forest.ParentRelation()
		roots, err := graph.ResolveRoots(rel)
		if errors.Is(err, graph.ErrCyclicRelation) {
			printCycles(cmd.OutOrStdout(), forest, rel)
			return err
		}
		if err != nil {
			return err
		}

		out := analyzeOutput{
			ThreadReport: graph.ComputeThreadReport(forest, roots, analyzeTopN),
			MaxBucket:    maxBucket,
		}
		b := bucket.New(cfg.Prepare.Salt)
		keptRoots := make(map[int64]bool)
		for id, it := range forest.Items {
			n, err := b.OfID(roots[id])
			if err != nil {
				return err
			}
			if n >= maxBucket {
				continue
			}
			keptRoots[roots[id]] = true
			if it.Parent != nil {
				out.KeptChildren++
			}
		}
		out.KeptThreads = len(keptRoots)

		if analyzeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		printHumanReadable(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "Number of top items to show per section")
	analyzeCmd.Flags().IntVar(&analyzeMaxBucket, "max-bucket", 50, "Bucket threshold to report the split for")
	rootCmd.AddCommand(analyzeCmd)
}

func printCycles(w io.Writer, forest *graph.Forest, rel map[int64]int64) {
	unresolved := graph.Unresolved(rel)
	groups := graph.CycleGroups(rel, unresolved)
	fmt.Fprintf(w, "\n  CYCLES\n")
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  %d item(s) in %d group(s) never reach a root:\n", len(unresolved), len(groups))
	for _, g := range groups {
		limit := min(len(g), 8)
		ids := make([]string, limit)
		for i, id := range g[:limit] {
			ids[i] = fmt.Sprint(id)
		}
		more := ""
		if len(g) > limit {
			more = fmt.Sprintf(" ... and %d more", len(g)-limit)
		}
		title := ""
		if it := forest.Items[g[0]]; it != nil {
			title = truncTitle(it.Title, 40)
		}
		fmt.Fprintf(w, "    [%s]%s  %s\n", strings.Join(ids, " "), more, title)
	}
	fmt.Fprintln(w)
}

func printHumanReadable(w io.Writer, out analyzeOutput) {
	t := out.ThreadReport
	fmt.Fprintln(w, "\n  THREADS")
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  Items: %s  Threads: %s  Max depth: %d\n",
		humanize.Comma(int64(t.TotalItems)), humanize.Comma(int64(t.TotalThreads)), t.MaxDepth)
	fmt.Fprintf(w, "  Largest thread: %d  Smallest: %d\n", t.LargestThread, t.SmallestThread)

	if t.OrphanCount > 0 {
		fmt.Fprintf(w, "  Orphans: %d items whose parent is missing\n", t.OrphanCount)
		limit := min(len(t.OrphanIDs), 5)
		for _, id := range t.OrphanIDs[:limit] {
			fmt.Fprintf(w, "    - %d\n", id)
		}
		if t.OrphanCount > 5 {
			fmt.Fprintf(w, "    ... and %d more\n", t.OrphanCount-5)
		}
	}

	fmt.Fprintln(w, "\n  Thread size distribution:")
	for _, b := range t.SizeHistogram {
		if b.Count > 0 {
			barWidth := int(math.Log2(float64(b.Count))) + 2
			fmt.Fprintf(w, "    %6s: %6d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
		}
	}

	if len(t.TopThreads) > 0 {
		fmt.Fprintln(w, "\n  Largest threads:")
		for _, th := range t.TopThreads {
			fmt.Fprintf(w, "    %-10d size=%d depth=%d  %s\n", th.RootID, th.Size, th.MaxDepth, truncTitle(th.Title, 40))
		}
	}

	fmt.Fprintln(w, "\n  SPLIT")
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	pct := 0.0
	if t.TotalThreads > 0 {
		pct = float64(out.KeptThreads) / float64(t.TotalThreads) * 100
	}
	fmt.Fprintf(w, "  bucket < %d: %s of %s threads (%.1f%%), %s child items\n",
		out.MaxBucket, humanize.Comma(int64(out.KeptThreads)), humanize.Comma(int64(t.TotalThreads)),
		pct, humanize.Comma(int64(out.KeptChildren)))
	fmt.Fprintln(w)
}
