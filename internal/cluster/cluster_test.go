package cluster

import (
	"slices"
	"testing"
)

// groupedEmbeddings builds groups of near-identical vectors. Group g points
// along base axis g; each member is nudged along its own extra axis so members
// stay equidistant inside the group.
func groupedEmbeddings(sizes ...int) [][]float64 {
	total := 0
	for _, s := range sizes {
		total += s
	}
	dim := len(sizes) + total

	var out [][]float64
	member := 0
	for g, s := range sizes {
		for i := 0; i < s; i++ {
			v := make([]float64, dim)
			v[g] = 1
			v[len(sizes)+member] = 0.1
			out = append(out, v)
			member++
		}
	}
	return out
}

func assertPartition(t *testing.T, a *Assignment, n int) {
	t.Helper()
	if len(a.Labels) != n {
		t.Fatalf("expected %d labels, got %d", n, len(a.Labels))
	}
	k := a.TopicCount()
	total := a.OutlierCount()
	for id := 0; id < k; id++ {
		members := a.Members(id)
		if len(members) == 0 {
			t.Errorf("topic %d has no members", id)
		}
		total += len(members)
	}
	if total != n {
		t.Errorf("labels do not partition the input: %v", a.Labels)
	}
}

func TestAssignTwoGroups(t *testing.T) {
	embeddings := groupedEmbeddings(5, 5)
	a, err := NewClusterer(Options{MinTopicSize: 2}).Assign(embeddings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPartition(t, a, 10)

	want := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
	if !slices.Equal(a.Labels, want) {
		t.Errorf("expected %v, got %v", want, a.Labels)
	}
}

func TestAssignTwoGroupsWithOutlier(t *testing.T) {
	embeddings := groupedEmbeddings(5, 5, 1)
	a, err := NewClusterer(Options{MinTopicSize: 2}).Assign(embeddings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPartition(t, a, 11)

	if a.TopicCount() != 2 {
		t.Errorf("expected 2 topics, got %d (%v)", a.TopicCount(), a.Labels)
	}
	if a.Labels[10] != OutlierID {
		t.Errorf("expected lone point to be an outlier, got %v", a.Labels)
	}
}

func TestAssignDistinctTextsAreAllOutliers(t *testing.T) {
	embeddings := [][]float64{
		{1, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{0, 0, 1, 0, 0},
		{0, 0, 0, 1, 0},
		{0, 0, 0, 0, 1},
	}
	a, err := NewClusterer(Options{MinTopicSize: 2}).Assign(embeddings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.TopicCount() != 0 || a.OutlierCount() != 5 {
		t.Errorf("expected all outliers, got %v", a.Labels)
	}
}

func TestAssignFewerThanMinTopicSize(t *testing.T) {
	embeddings := groupedEmbeddings(3)
	a, err := NewClusterer(Options{MinTopicSize: 5}).Assign(embeddings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.OutlierCount() != 3 {
		t.Errorf("expected all outliers, got %v", a.Labels)
	}
}

func TestAssignSingleInput(t *testing.T) {
	a, err := NewClusterer(Options{MinTopicSize: 1}).Assign([][]float64{{1, 2, 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Labels) != 1 || a.Labels[0] != OutlierID {
		t.Errorf("expected single outlier, got %v", a.Labels)
	}
}

func TestAssignEmpty(t *testing.T) {
	a, err := NewClusterer(Options{}).Assign(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Labels) != 0 {
		t.Errorf("expected no labels, got %v", a.Labels)
	}
}

func TestAssignRejectsMixedDimensions(t *testing.T) {
	_, err := NewClusterer(Options{}).Assign([][]float64{{1, 0}, {1, 0, 0}})
	if err == nil {
		t.Error("expected error for mixed dimensions")
	}
}

func TestAssignIdenticalVectors(t *testing.T) {
	embeddings := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}
	a, err := NewClusterer(Options{MinTopicSize: 2}).Assign(embeddings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPartition(t, a, 4)
}

func TestAssignIsDeterministic(t *testing.T) {
	embeddings := groupedEmbeddings(4, 6, 3)
	c := NewClusterer(Options{MinTopicSize: 3, ReduceDims: 5, Seed: 7})

	first, err := c.Assign(embeddings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, _ := c.Assign(embeddings)
		if !slices.Equal(first.Labels, again.Labels) {
			t.Fatalf("run %d differs: %v vs %v", i, first.Labels, again.Labels)
		}
	}
	assertPartition(t, first, 13)
}

func TestAssignWard(t *testing.T) {
	embeddings := groupedEmbeddings(5, 5)
	a, err := NewClusterer(Options{Method: MethodWard, MinTopicSize: 2}).Assign(embeddings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
	if !slices.Equal(a.Labels, want) {
		t.Errorf("expected %v, got %v", want, a.Labels)
	}
}

func TestProjectSeeded(t *testing.T) {
	points := normalize(groupedEmbeddings(3, 3))

	a := project(points, 3, 42)
	b := project(points, 3, 42)
	c := project(points, 3, 43)

	if len(a[0]) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(a[0]))
	}
	same := true
	for i := range a {
		if !slices.Equal(a[i], b[i]) {
			t.Fatalf("same seed produced different projections at %d", i)
		}
		if !slices.Equal(a[i], c[i]) {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical projections")
	}
}

func TestCoreDistances(t *testing.T) {
	d := distanceMatrix([][]float64{{0}, {1}, {3}})

	core := coreDistances(d, 2)
	want := []float64{1, 1, 2}
	if !slices.Equal(core, want) {
		t.Errorf("expected %v, got %v", want, core)
	}

	if !slices.Equal(coreDistances(d, 1), []float64{0, 0, 0}) {
		t.Error("expected zero core distances for a single sample")
	}
	if !slices.Equal(coreDistances(d, 10), []float64{3, 2, 3}) {
		t.Errorf("expected core distances clamped to farthest neighbour, got %v", coreDistances(d, 10))
	}
}

func TestRenumberFirstAppearance(t *testing.T) {
	got := renumber([]int{14, OutlierID, 12, 14, 12})
	want := []int{0, OutlierID, 1, 0, 1}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseMethod(t *testing.T) {
	if m, err := ParseMethod("WARD"); err != nil || m != MethodWard {
		t.Errorf("expected ward, got %v %v", m, err)
	}
	if m, err := ParseMethod(""); err != nil || m != MethodHDBSCAN {
		t.Errorf("expected hdbscan default, got %v %v", m, err)
	}
	if _, err := ParseMethod("kmeans"); err == nil {
		t.Error("expected error for unknown method")
	}
}
