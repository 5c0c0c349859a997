package graph

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCyclicRelation is matched by every CyclicRelationError via errors.Is
var ErrCyclicRelation = errors.New("cyclic parent relation")

// CyclicRelationError reports a cycle among proper parent edges.
// Cycle lists the members of one cycle in parent order, starting at its smallest node.
type CyclicRelationError[T cmp.Ordered] struct {
	Cycle      []T
	Unresolved int
}

func (e *CyclicRelationError[T]) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, n := range e.Cycle {
		parts[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("cyclic parent relation: cycle [%s], %d node(s) unresolved",
		strings.Join(parts, " -> "), e.Unresolved)
}

func (e *CyclicRelationError[T]) Is(target error) bool {
	return target == ErrCyclicRelation
}

// ResolveRoots maps every node appearing in rel, as key or value, to its root.
// A node is a root when it maps to itself or has no entry in rel.
// Uses Kahn's algorithm over the proper (child != parent) edges, so deep chains
// never recurse and cycles surface as nodes that are never dequeued.
func ResolveRoots[T cmp.Ordered](rel map[T]T) (map[T]T, error) {
	children := make(map[T][]T, len(rel))
	nodes := make(map[T]struct{}, len(rel))
	for child, parent := range rel {
		nodes[child] = struct{}{}
		nodes[parent] = struct{}{}
		if child != parent {
			children[parent] = append(children[parent], child)
		}
	}

	var queue []T
	for n := range nodes {
		if p, ok := rel[n]; !ok || p == n {
			queue = append(queue, n)
		}
	}
	slices.Sort(queue)

	roots := make(map[T]T, len(nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if p, ok := rel[n]; ok && p != n {
			roots[n] = roots[p]
		} else {
			roots[n] = n
		}

		kids := children[n]
		slices.Sort(kids)
		queue = append(queue, kids...)
	}

	if len(roots) < len(nodes) {
		var unresolved []T
		for n := range nodes {
			if _, ok := roots[n]; !ok {
				unresolved = append(unresolved, n)
			}
		}
		slices.Sort(unresolved)
		return nil, &CyclicRelationError[T]{
			Cycle:      findCycle(rel, unresolved[0]),
			Unresolved: len(unresolved),
		}
	}
	return roots, nil
}

// findCycle follows parent links from start until a node repeats and returns
// the repeating loop. start must be unresolved, so every parent on the walk
// has a proper entry in rel and the walk terminates within len(rel) steps.
func findCycle[T cmp.Ordered](rel map[T]T, start T) []T {
	seen := make(map[T]int)
	var path []T
	cur := start
	for {
		if i, ok := seen[cur]; ok {
			return rotateToMin(path[i:])
		}
		seen[cur] = len(path)
		path = append(path, cur)
		cur = rel[cur]
	}
}

func rotateToMin[T cmp.Ordered](cycle []T) []T {
	if len(cycle) == 0 {
		return cycle
	}
	minIdx := 0
	for i, n := range cycle {
		if n < cycle[minIdx] {
			minIdx = i
		}
	}
	out := make([]T, 0, len(cycle))
	out = append(out, cycle[minIdx:]...)
	return append(out, cycle[:minIdx]...)
}
