// Package cluster assigns embedded texts to latent topics.
//
// The default method is density based: vectors are L2-normalised, optionally
// reduced by a seeded Gaussian random projection, linked through mutual
// reachability distances and condensed into a cluster tree from which the
// most stable clusters are selected. Texts outside every selected cluster are
// outliers. The clustering itself is deterministic; run-to-run variation comes
// only from the embedding model and, when enabled, the projection seed.
//
// The ward method is an agglomerative alternative that cuts the dendrogram at
// a fixed distance.
package cluster

import (
	"fmt"
	"strings"
)

// OutlierID labels texts that belong to no topic.
const OutlierID = -1

const (
	DefaultMinTopicSize      = 2
	DefaultDistanceThreshold = 1.2
)

// Method selects the clustering algorithm.
type Method string

const (
	MethodHDBSCAN Method = "hdbscan"
	MethodWard    Method = "ward"
)

// ParseMethod maps a configuration value to a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodHDBSCAN, "":
		return MethodHDBSCAN, nil
	case MethodWard:
		return MethodWard, nil
	}
	return "", fmt.Errorf("unknown clustering method %q", s)
}

// Options tunes a clustering run.
type Options struct {
	Method       Method
	MinTopicSize int
	// MinSamples sets the neighbourhood used for core distances. Zero means MinTopicSize.
	MinSamples int
	// ReduceDims enables random projection when positive and below the input dimension.
	ReduceDims        int
	Seed              uint64
	DistanceThreshold float64
}

func (o Options) withDefaults() Options {
	if o.Method == "" {
		o.Method = MethodHDBSCAN
	}
	if o.MinTopicSize < 1 {
		o.MinTopicSize = DefaultMinTopicSize
	}
	if o.MinSamples < 1 {
		o.MinSamples = o.MinTopicSize
	}
	if o.DistanceThreshold <= 0 {
		o.DistanceThreshold = DefaultDistanceThreshold
	}
	return o
}

// Assignment maps each input, by position, to a topic id or OutlierID.
// Topic ids are 0..TopicCount()-1 in order of first appearance.
type Assignment struct {
	Labels []int
}

// TopicCount returns the number of distinct non-outlier ids.
func (a *Assignment) TopicCount() int {
	top := OutlierID
	for _, l := range a.Labels {
		if l > top {
			top = l
		}
	}
	return top + 1
}

// OutlierCount returns how many inputs were not assigned to a topic.
func (a *Assignment) OutlierCount() int {
	n := 0
	for _, l := range a.Labels {
		if l == OutlierID {
			n++
		}
	}
	return n
}

// Members returns the indices assigned to topic id, in input order.
func (a *Assignment) Members(id int) []int {
	var idx []int
	for i, l := range a.Labels {
		if l == id {
			idx = append(idx, i)
		}
	}
	return idx
}

// Clusterer assigns embeddings to topics.
type Clusterer struct {
	opts Options
}

// NewClusterer creates a new clusterer. Zero-valued options take their defaults.
func NewClusterer(opts Options) *Clusterer {
	return &Clusterer{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (c *Clusterer) Options() Options { return c.opts }

// Assign clusters the embeddings. Every input receives exactly one label.
func (c *Clusterer) Assign(embeddings [][]float64) (*Assignment, error) {
	n := len(embeddings)
	if n == 0 {
		return &Assignment{Labels: []int{}}, nil
	}

	dim := len(embeddings[0])
	for i, v := range embeddings {
		if len(v) == 0 || len(v) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(v), dim)
		}
	}

	if n < 2 || n < c.opts.MinTopicSize {
		return &Assignment{Labels: allOutliers(n)}, nil
	}

	points := normalize(embeddings)
	if c.opts.ReduceDims > 0 && c.opts.ReduceDims < dim {
		points = normalize(project(points, c.opts.ReduceDims, c.opts.Seed))
	}

	var labels []int
	switch c.opts.Method {
	case MethodWard:
		labels = wardLabels(points, c.opts.DistanceThreshold, c.opts.MinTopicSize)
	case MethodHDBSCAN:
		labels = hdbscanLabels(points, c.opts.MinTopicSize, c.opts.MinSamples)
	default:
		return nil, fmt.Errorf("unknown clustering method %q", c.opts.Method)
	}

	return &Assignment{Labels: renumber(labels)}, nil
}

func allOutliers(n int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = OutlierID
	}
	return labels
}

// renumber maps arbitrary non-negative labels to 0..k-1 by first appearance.
func renumber(labels []int) []int {
	out := make([]int, len(labels))
	ids := make(map[int]int)
	for i, l := range labels {
		if l == OutlierID {
			out[i] = OutlierID
			continue
		}
		id, ok := ids[l]
		if !ok {
			id = len(ids)
			ids[l] = id
		}
		out[i] = id
	}
	return out
}
