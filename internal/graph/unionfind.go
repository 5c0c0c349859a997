package graph

import (
	"cmp"
	"slices"
)

// UnionFind implements union-find with path compression and union by rank
type UnionFind[T cmp.Ordered] struct {
	parent map[T]T
	rank   map[T]int
}

// NewUnionFind creates a new UnionFind where each element is its own component
func NewUnionFind[T cmp.Ordered](ids []T) *UnionFind[T] {
	uf := &UnionFind[T]{
		parent: make(map[T]T, len(ids)),
		rank:   make(map[T]int, len(ids)),
	}
	for _, id := range ids {
		uf.parent[id] = id
		uf.rank[id] = 0
	}
	return uf
}

// Find returns the representative of id's component, compressing the path walked.
// Unknown ids are their own component.
func (uf *UnionFind[T]) Find(id T) T {
	root := id
	for {
		p, ok := uf.parent[root]
		if !ok || p == root {
			break
		}
		root = p
	}
	for id != root {
		next := uf.parent[id]
		uf.parent[id] = root
		id = next
	}
	return root
}

// Union merges the components containing a and b. Returns true if they were separate.
func (uf *UnionFind[T]) Union(a, b T) bool {
	rootA := uf.Find(a)
	rootB := uf.Find(b)
	if rootA == rootB {
		return false
	}

	rankA := uf.rank[rootA]
	rankB := uf.rank[rootB]

	if rankA < rankB {
		uf.parent[rootA] = rootB
	} else if rankA > rankB {
		uf.parent[rootB] = rootA
	} else {
		uf.parent[rootB] = rootA
		uf.rank[rootA]++
	}
	return true
}

// Components returns all components, each sorted, ordered by their smallest member
func (uf *UnionFind[T]) Components() [][]T {
	groups := make(map[T][]T)
	for id := range uf.parent {
		root := uf.Find(id)
		groups[root] = append(groups[root], id)
	}
	result := make([][]T, 0, len(groups))
	for _, members := range groups {
		slices.Sort(members)
		result = append(result, members)
	}
	slices.SortFunc(result, func(a, b []T) int { return cmp.Compare(a[0], b[0]) })
	return result
}
