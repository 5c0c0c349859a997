// Package prepare turns stored items into the published JSON Lines dataset:
// resolve thread roots, keep the threads whose bucket is below a threshold,
// normalize the text of the surviving items, and shuffle them reproducibly.
package prepare

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"hnprep/internal/bucket"
	"hnprep/internal/db"
	"hnprep/internal/graph"
	"hnprep/internal/textnorm"
)

// Options configures a pipeline run
type Options struct {
	Salt         string
	MaxBucket    int   // keep items whose root bucket is < MaxBucket
	Seed         int64 // shuffle seed
	IncludeRoots bool  // keep items without a parent (stories)
	Shuffle      bool
	Workers      int
}

// DefaultOptions reproduces the published dataset split
func DefaultOptions() Options {
	return Options{
		Salt:      bucket.DefaultSalt,
		MaxBucket: 50,
		Seed:      7191,
		Shuffle:   true,
		Workers:   runtime.NumCPU(),
	}
}

// Record is one output row
type Record struct {
	ID     int64
	Root   int64
	Bucket int
	Text   string
}

// Result holds the kept records and run counts
type Result struct {
	Records    []Record
	InputCount int
	Threads    int
}

// Run executes the pipeline over items. A cyclic parent relation fails the
// whole run; no records are returned in that case.
func Run(ctx context.Context, items []db.Item, opts Options) (*Result, error) {
	infos := make([]*graph.ItemInfo, len(items))
	byID := make(map[int64]*db.Item, len(items))
	for i := range items {
		it := &items[i]
		infos[i] = &graph.ItemInfo{ID: it.ID, Kind: it.Type, Time: it.Time, Parent: it.Parent}
		byID[it.ID] = it
	}
	forest := graph.NewForest(infos)

	roots, err := graph.ResolveRoots(forest.ParentRelation())
	if err != nil {
		return nil, fmt.Errorf("resolving roots: %w", err)
	}

	bucketer := bucket.New(opts.Salt)
	bucketOf := make(map[int64]int)
	var records []Record
	for _, id := range forest.ItemIDs() {
		it := byID[id]
		root := roots[id]
		b, ok := bucketOf[root]
		if !ok {
			b, err = bucketer.OfID(root)
			if err != nil {
				return nil, fmt.Errorf("bucketing root %d of item %d: %w", root, id, err)
			}
			bucketOf[root] = b
		}
		if b >= opts.MaxBucket {
			continue
		}
		if it.Parent == nil && !opts.IncludeRoots {
			continue
		}
		records = append(records, Record{ID: id, Root: root, Bucket: b})
	}

	if err := normalizeAll(ctx, records, byID, opts.Workers); err != nil {
		return nil, err
	}

	if opts.Shuffle {
		rng := rand.New(rand.NewPCG(uint64(opts.Seed), 0))
		rng.Shuffle(len(records), func(i, j int) {
			records[i], records[j] = records[j], records[i]
		})
	}

	return &Result{
		Records:    records,
		InputCount: len(items),
		Threads:    len(bucketOf),
	}, nil
}

// normalizeAll fills in Text for every record, splitting the slice into one
// contiguous chunk per worker so output order is unaffected.
func normalizeAll(ctx context.Context, records []Record, byID map[int64]*db.Item, workers int) error {
	if workers < 1 {
		workers = 1
	}
	chunk := (len(records) + workers - 1) / workers
	if chunk == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(records); start += chunk {
		part := records[start:min(start+chunk, len(records))]
		g.Go(func() error {
			for i := range part {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				it := byID[part[i].ID]
				part[i].Text = textnorm.Normalize(textnorm.ComposeText(it.Title, it.Text))
			}
			return nil
		})
	}
	return g.Wait()
}
