package graph

import "sort"

// ThreadInfo summarizes one thread (all items sharing a root)
type ThreadInfo struct {
	RootID   int64  `json:"root_id"`
	Title    string `json:"title"`
	Size     int    `json:"size"`
	MaxDepth int    `json:"max_depth"`
}

// SizeBucket is one bucket in the thread size histogram
type SizeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ThreadReport contains forest analysis results
type ThreadReport struct {
	TotalItems     int          `json:"total_items"`
	TotalThreads   int          `json:"total_threads"`
	LargestThread  int          `json:"largest_thread"`
	SmallestThread int          `json:"smallest_thread"`
	MaxDepth       int          `json:"max_depth"`
	OrphanCount    int          `json:"orphan_count"`
	OrphanIDs      []int64      `json:"orphan_ids"`
	SizeHistogram  []SizeBucket `json:"size_histogram"`
	TopThreads     []ThreadInfo `json:"top_threads"`
}

// ComputeThreadReport analyzes the thread structure of a forest given its
// resolved roots: thread sizes, depths, orphans, and the largest threads.
// Roots that are not items themselves (orphaned threads) still count as threads.
func ComputeThreadReport(f *Forest, roots map[int64]int64, topN int) *ThreadReport {
	if len(f.Items) == 0 {
		return &ThreadReport{SizeHistogram: defaultHistogram()}
	}

	sizes := make(map[int64]int)
	for id := range f.Items {
		sizes[roots[id]]++
	}

	threads := make([]ThreadInfo, 0, len(sizes))
	largest, smallest, maxDepth := 0, len(f.Items), 0
	buckets := [7]int{}
	for root, size := range sizes {
		depth := 0
		for _, d := range f.Depths(root) {
			if d > depth {
				depth = d
			}
		}
		title := ""
		if it, ok := f.Items[root]; ok {
			title = it.Title
		}
		threads = append(threads, ThreadInfo{RootID: root, Title: title, Size: size, MaxDepth: depth})

		if size > largest {
			largest = size
		}
		if size < smallest {
			smallest = size
		}
		if depth > maxDepth {
			maxDepth = depth
		}
		buckets[sizeBucket(size)]++
	}

	histogram := defaultHistogram()
	for i := range histogram {
		histogram[i].Count = buckets[i]
	}

	sort.Slice(threads, func(i, j int) bool {
		if threads[i].Size != threads[j].Size {
			return threads[i].Size > threads[j].Size
		}
		return threads[i].RootID < threads[j].RootID
	})
	if len(threads) > topN {
		threads = threads[:topN]
	}

	orphans := f.Orphans()
	orphanCount := len(orphans)
	if len(orphans) > topN {
		orphans = orphans[:topN]
	}

	return &ThreadReport{
		TotalItems:     len(f.Items),
		TotalThreads:   len(sizes),
		LargestThread:  largest,
		SmallestThread: smallest,
		MaxDepth:       maxDepth,
		OrphanCount:    orphanCount,
		OrphanIDs:      orphans,
		SizeHistogram:  histogram,
		TopThreads:     threads,
	}
}

func defaultHistogram() []SizeBucket {
	return []SizeBucket{
		{Label: "1"}, {Label: "2-3"}, {Label: "4-7"}, {Label: "8-15"},
		{Label: "16-63"}, {Label: "64-255"}, {Label: "256+"},
	}
}

func sizeBucket(size int) int {
	switch {
	case size <= 1:
		return 0
	case size <= 3:
		return 1
	case size <= 7:
		return 2
	case size <= 15:
		return 3
	case size <= 63:
		return 4
	case size <= 255:
		return 5
	default:
		return 6
	}
}
