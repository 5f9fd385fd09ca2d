package cluster

import "math"

// wardLinkage performs Ward's agglomerative clustering using the Lance-Williams
// recurrence on squared Euclidean distances. Returns the n-1 merges, with
// distances reported as plain Euclidean like scipy.
func wardLinkage(points [][]float64) []merge {
	n := len(points)
	if n < 2 {
		return nil
	}

	// d holds squared distances between the clusters occupying each slot.
	d := distanceMatrix(points)
	for i := range d {
		for j := range d[i] {
			d[i][j] *= d[i][j]
		}
	}

	id := make([]int, n)
	size := make([]int, n)
	active := make([]bool, n)
	for i := range id {
		id[i] = i
		size[i] = 1
		active[i] = true
	}

	merges := make([]merge, 0, n-1)
	for step := 0; step < n-1; step++ {
		minDist := math.MaxFloat64
		minI, minJ := -1, -1
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && d[i][j] < minDist {
					minDist = d[i][j]
					minI, minJ = i, j
				}
			}
		}

		ni, nj := float64(size[minI]), float64(size[minJ])
		for k := 0; k < n; k++ {
			if !active[k] || k == minI || k == minJ {
				continue
			}
			nk := float64(size[k])
			// d(new, k) = ((nk+ni)*d(i,k) + (nk+nj)*d(j,k) - nk*d(i,j)) / (nk+ni+nj)
			nd := ((nk+ni)*d[minI][k] + (nk+nj)*d[minJ][k] - nk*minDist) / (nk + ni + nj)
			d[minI][k] = nd
			d[k][minI] = nd
		}

		merges = append(merges, merge{
			a:        id[minI],
			b:        id[minJ],
			distance: math.Sqrt(minDist),
			size:     size[minI] + size[minJ],
		})

		// The merged cluster takes over slot minI.
		id[minI] = n + step
		size[minI] += size[minJ]
		active[minJ] = false
	}

	return merges
}

// cutDendrogram groups points whose merges happen at or below threshold.
// Returns a root node id per point; points sharing a root share a cluster.
func cutDendrogram(merges []merge, n int, threshold float64) []int {
	labels := make([]int, 2*n-1)
	for i := range labels {
		labels[i] = i
	}

	for step, m := range merges {
		if m.distance > threshold {
			continue
		}
		node := n + step
		labels[find(labels, m.a)] = node
		labels[find(labels, m.b)] = node
	}

	roots := make([]int, n)
	for i := range roots {
		roots[i] = find(labels, i)
	}
	return roots
}

// wardLabels cuts the Ward dendrogram and turns groups smaller than
// minSize into outliers.
func wardLabels(points [][]float64, threshold float64, minSize int) []int {
	n := len(points)
	roots := cutDendrogram(wardLinkage(points), n, threshold)

	counts := make(map[int]int)
	for _, r := range roots {
		counts[r]++
	}

	labels := make([]int, n)
	for i, r := range roots {
		if counts[r] < minSize {
			labels[i] = OutlierID
		} else {
			labels[i] = r
		}
	}
	return labels
}
