package cluster

import (
	"math"
	"slices"
)

// condensedEdge is one row of the condensed cluster tree. Children below n
// are points that fell out of parent at lambda; the rest are clusters.
type condensedEdge struct {
	parent int
	child  int
	lambda float64
	size   int
}

// hdbscanLabels returns raw labels (cluster ids >= n, or OutlierID) for the
// points using mutual reachability linkage and excess-of-mass selection.
func hdbscanLabels(points [][]float64, minClusterSize, minSamples int) []int {
	n := len(points)
	if minClusterSize < 2 {
		minClusterSize = 2
	}

	d := distanceMatrix(points)
	reach := mutualReachability(d, coreDistances(d, minSamples))
	merges := singleLinkage(primMST(reach), n)
	tree, clusters := condense(merges, n, minClusterSize)
	selected := selectClusters(tree, n, clusters)
	return labelPoints(tree, selected, n)
}

// coreDistances returns, per point, the distance to its (minSamples-1)-th
// nearest other point. The point itself counts as the first sample.
func coreDistances(d [][]float64, minSamples int) []float64 {
	n := len(d)
	core := make([]float64, n)
	k := minSamples - 1
	if k <= 0 {
		return core
	}
	if k > n-1 {
		k = n - 1
	}

	row := make([]float64, 0, n-1)
	for i := range d {
		row = row[:0]
		for j, v := range d[i] {
			if j != i {
				row = append(row, v)
			}
		}
		slices.Sort(row)
		core[i] = row[k-1]
	}
	return core
}

func mutualReachability(d [][]float64, core []float64) [][]float64 {
	n := len(d)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i != j {
				m[i][j] = math.Max(d[i][j], math.Max(core[i], core[j]))
			}
		}
	}
	return m
}

// condense walks the dendrogram from the root, keeping only splits where both
// sides reach minSize. It returns the tree and the number of cluster labels
// used; labels run from n (the root) to n+clusters-1.
func condense(merges []merge, n, minSize int) ([]condensedEdge, int) {
	root := 2*n - 2
	sizeOf := func(node int) int {
		if node < n {
			return 1
		}
		return merges[node-n].size
	}

	relabel := make([]int, 2*n-1)
	relabel[root] = n
	next := n + 1

	var tree []condensedEdge
	fallOut := func(node, parent int, lambda float64) {
		stack := []int{node}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if cur < n {
				tree = append(tree, condensedEdge{parent: parent, child: cur, lambda: lambda, size: 1})
				continue
			}
			m := merges[cur-n]
			stack = append(stack, m.b, m.a)
		}
	}

	queue := []int{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		m := merges[node-n]
		parent := relabel[node]
		lambda := 1 / math.Max(m.distance, minDistance)
		left, right := m.a, m.b
		ls, rs := sizeOf(left), sizeOf(right)

		switch {
		case ls >= minSize && rs >= minSize:
			for _, child := range []int{left, right} {
				relabel[child] = next
				next++
				tree = append(tree, condensedEdge{parent: parent, child: relabel[child], lambda: lambda, size: sizeOf(child)})
				queue = append(queue, child)
			}
		case ls < minSize && rs < minSize:
			fallOut(left, parent, lambda)
			fallOut(right, parent, lambda)
		case ls < minSize:
			relabel[right] = parent
			fallOut(left, parent, lambda)
			queue = append(queue, right)
		default:
			relabel[left] = parent
			fallOut(right, parent, lambda)
			queue = append(queue, left)
		}
	}

	return tree, next - n
}

// selectClusters picks the clusters with the greatest excess of mass. The
// root (label n) is never selected.
func selectClusters(tree []condensedEdge, n, clusters int) []bool {
	end := n + clusters
	birth := make([]float64, end)
	stability := make([]float64, end)
	children := make([][]int, end)

	for _, e := range tree {
		if e.child >= n {
			birth[e.child] = e.lambda
			children[e.parent] = append(children[e.parent], e.child)
		}
	}
	for _, e := range tree {
		stability[e.parent] += (e.lambda - birth[e.parent]) * float64(e.size)
	}

	selected := make([]bool, end)
	for c := n + 1; c < end; c++ {
		selected[c] = true
	}

	for c := end - 1; c > n; c-- {
		var sub float64
		for _, child := range children[c] {
			sub += stability[child]
		}
		if sub > stability[c] {
			selected[c] = false
			stability[c] = sub
			continue
		}
		stack := slices.Clone(children[c])
		for len(stack) > 0 {
			d := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			selected[d] = false
			stack = append(stack, children[d]...)
		}
	}
	return selected
}

// labelPoints assigns each point the selected cluster it descends from.
func labelPoints(tree []condensedEdge, selected []bool, n int) []int {
	parentOf := make(map[int]int)
	for _, e := range tree {
		if e.child >= n {
			parentOf[e.child] = e.parent
		}
	}

	labels := allOutliers(n)
	for _, e := range tree {
		if e.child >= n {
			continue
		}
		for c := e.parent; c != n; c = parentOf[c] {
			if selected[c] {
				labels[e.child] = c
				break
			}
		}
	}
	return labels
}
