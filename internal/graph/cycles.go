package graph

import (
	"cmp"
	"slices"
)

// CycleGroups partitions nodes into clusters connected by parent links
// within the set, e.g. the unresolved nodes of a failed ResolveRoots.
func CycleGroups[T cmp.Ordered](rel map[T]T, nodes []T) [][]T {
	uf := NewUnionFind(nodes)
	inSet := make(map[T]bool, len(nodes))
	for _, n := range nodes {
		inSet[n] = true
	}
	for _, n := range nodes {
		if p, ok := rel[n]; ok && p != n && inSet[p] {
			uf.Union(n, p)
		}
	}
	return uf.Components()
}

// Unresolved returns the nodes of rel that ResolveRoots cannot reach from any
// root: cycle members and everything hanging below them.
func Unresolved[T cmp.Ordered](rel map[T]T) []T {
	children := make(map[T][]T, len(rel))
	var queue []T
	seen := make(map[T]bool, len(rel))
	for child, parent := range rel {
		if child != parent {
			children[parent] = append(children[parent], child)
		}
	}
	for child, parent := range rel {
		if child == parent && !seen[child] {
			seen[child] = true
			queue = append(queue, child)
		}
		if _, ok := rel[parent]; !ok && !seen[parent] {
			seen[parent] = true
			queue = append(queue, parent)
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range children[n] {
			if !seen[c] {
				seen[c] = true
				queue = append(queue, c)
			}
		}
	}

	var out []T
	for n := range rel {
		if !seen[n] {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out
}
