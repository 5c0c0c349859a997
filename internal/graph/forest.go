package graph

import "slices"

// ItemInfo is a lightweight item representation decoupled from DB types
type ItemInfo struct {
	ID     int64
	Title  string
	Kind   string
	Time   int64
	Parent *int64
}

// Forest holds items with a precomputed child adjacency list
type Forest struct {
	Items    map[int64]*ItemInfo
	Children map[int64][]int64 // parent -> children, parents may be absent from Items
}

// NewForest builds a Forest from raw items
func NewForest(items []*ItemInfo) *Forest {
	itemMap := make(map[int64]*ItemInfo, len(items))
	children := make(map[int64][]int64)

	for _, it := range items {
		itemMap[it.ID] = it
	}
	for _, it := range items {
		if it.Parent == nil || *it.Parent == it.ID {
			continue
		}
		children[*it.Parent] = append(children[*it.Parent], it.ID)
	}
	for _, kids := range children {
		slices.Sort(kids)
	}

	return &Forest{Items: itemMap, Children: children}
}

// ParentRelation returns the parent relation of the forest. A null parent
// becomes a self entry so every item appears as a key.
func (f *Forest) ParentRelation() map[int64]int64 {
	rel := make(map[int64]int64, len(f.Items))
	for id, it := range f.Items {
		if it.Parent == nil {
			rel[id] = id
		} else {
			rel[id] = *it.Parent
		}
	}
	return rel
}

// ItemIDs returns a sorted list of all item IDs (for deterministic output)
func (f *Forest) ItemIDs() []int64 {
	ids := make([]int64, 0, len(f.Items))
	for id := range f.Items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Orphans returns sorted IDs of items whose parent is not part of the forest
func (f *Forest) Orphans() []int64 {
	var orphans []int64
	for id, it := range f.Items {
		if it.Parent == nil || *it.Parent == id {
			continue
		}
		if _, ok := f.Items[*it.Parent]; !ok {
			orphans = append(orphans, id)
		}
	}
	slices.Sort(orphans)
	return orphans
}

// Depths returns the distance of every node below start, start itself at 0.
// Walks breadth-first with an explicit queue.
func (f *Forest) Depths(start int64) map[int64]int {
	depths := map[int64]int{start: 0}
	queue := []int64{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range f.Children[n] {
			if _, seen := depths[c]; seen {
				continue
			}
			depths[c] = depths[n] + 1
			queue = append(queue, c)
		}
	}
	return depths
}
