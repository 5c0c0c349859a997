package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hnprep/internal/bucket"
	"hnprep/internal/db"
	"hnprep/internal/graph"
	"hnprep/internal/textnorm"
)

var showJSON bool

type showOutput struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	Root   int64  `json:"root"`
	Bucket int    `json:"bucket"`
	Kept   bool   `json:"kept"`
	Text   string `json:"text"`
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an item's thread root, bucket, and normalized text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id %q", args[0])
		}

		d, err := OpenDatabase(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		it, err := d.GetItem(ctx, id)
		if err != nil {
			return err
		}
		root, err := rootOf(ctx, d, it)
		if err != nil {
			return err
		}
		p := cfg.Prepare
		n, err := bucket.New(p.Salt).OfID(root)
		if err != nil {
			return err
		}

		out := showOutput{
			ID:     it.ID,
			Type:   it.Type,
			Root:   root,
			Bucket: n,
			Kept:   n < p.MaxBucket && (it.Parent != nil || p.IncludeRoots) && !it.Dead && !it.Deleted,
			Text:   textnorm.Normalize(textnorm.ComposeText(it.Title, it.Text)),
		}

		w := cmd.OutOrStdout()
		if showJSON {
			enc := json.NewEncoder(w)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		kept := "no"
		if out.Kept {
			kept = "yes"
		}
		fmt.Fprintf(w, "Item %d (%s)\n", out.ID, out.Type)
		fmt.Fprintf(w, "Root: %d  Bucket: %d  Kept: %s (bucket < %d)\n\n", out.Root, out.Bucket, kept, p.MaxBucket)
		fmt.Fprintln(w, out.Text)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(showCmd)
}

// rootOf follows parent links one item at a time. A missing, dead or deleted
// parent is the root, matching how prepare resolves live items.
func rootOf(ctx context.Context, d *db.DB, it *db.Item) (int64, error) {
	seen := map[int64]bool{it.ID: true}
	cur := it
	for cur.Parent != nil && *cur.Parent != cur.ID {
		pid := *cur.Parent
		if seen[pid] {
			return 0, fmt.Errorf("item %d: %w", it.ID, graph.ErrCyclicRelation)
		}
		seen[pid] = true

		parent, err := d.GetItem(ctx, pid)
		if errors.Is(err, db.ErrItemNotFound) {
			return pid, nil
		}
		if err != nil {
			return 0, err
		}
		if parent.Dead || parent.Deleted {
			return pid, nil
		}
		cur = parent
	}
	return cur.ID, nil
}
