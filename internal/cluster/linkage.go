package cluster

import (
	"math"
	"slices"
)

// minDistance floors distances so identical vectors still yield finite densities.
const minDistance = 1e-12

// merge records a single merge step in the dendrogram. Nodes below n are
// input points; merge step s creates node n+s.
type merge struct {
	a, b     int
	distance float64
	size     int
}

// edge is a weighted edge of the minimum spanning tree.
type edge struct {
	a, b   int
	weight float64
}

// distanceMatrix computes the full Euclidean distance matrix.
func distanceMatrix(points [][]float64) [][]float64 {
	n := len(points)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var s float64
			for k := range points[i] {
				diff := points[i][k] - points[j][k]
				s += diff * diff
			}
			d[i][j] = math.Sqrt(s)
			d[j][i] = d[i][j]
		}
	}
	return d
}

// primMST builds a minimum spanning tree over a dense weight matrix, starting
// at node 0. Among equal candidates the lowest index wins.
func primMST(w [][]float64) []edge {
	n := len(w)
	if n < 2 {
		return nil
	}

	inTree := make([]bool, n)
	best := make([]float64, n)
	parent := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}

	current := 0
	inTree[0] = true
	edges := make([]edge, 0, n-1)

	for len(edges) < n-1 {
		for j := 0; j < n; j++ {
			if !inTree[j] && w[current][j] < best[j] {
				best[j] = w[current][j]
				parent[j] = current
			}
		}

		next := -1
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			if next == -1 || best[j] < best[next] {
				next = j
			}
		}

		inTree[next] = true
		edges = append(edges, edge{a: parent[next], b: next, weight: best[next]})
		current = next
	}
	return edges
}

// singleLinkage turns spanning tree edges into a merge list, processing edges
// by ascending weight with ties kept in tree order.
func singleLinkage(edges []edge, n int) []merge {
	sorted := slices.Clone(edges)
	slices.SortStableFunc(sorted, func(x, y edge) int {
		switch {
		case x.weight < y.weight:
			return -1
		case x.weight > y.weight:
			return 1
		}
		return 0
	})

	labels := make([]int, 2*n-1)
	size := make([]int, 2*n-1)
	for i := range labels {
		labels[i] = i
		if i < n {
			size[i] = 1
		}
	}

	merges := make([]merge, 0, len(sorted))
	for step, e := range sorted {
		ra := find(labels, e.a)
		rb := find(labels, e.b)
		node := n + step
		size[node] = size[ra] + size[rb]
		labels[ra] = node
		labels[rb] = node
		merges = append(merges, merge{
			a:        ra,
			b:        rb,
			distance: math.Max(e.weight, minDistance),
			size:     size[node],
		})
	}
	return merges
}

// find resolves the root label for a node.
func find(labels []int, i int) int {
	for labels[i] != i {
		labels[i] = labels[labels[i]] // path compression
		i = labels[i]
	}
	return i
}
