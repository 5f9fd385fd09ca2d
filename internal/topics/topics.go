// Package topics turns a cluster assignment into ranked, keyword-labelled topics.
package topics

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/TobiSchelling/SignalTopics/internal/cluster"
)

// DefaultTopKeywords is the number of keywords kept per topic.
const DefaultTopKeywords = 10

// Keyword is a representative word and its class-based TF-IDF weight.
type Keyword struct {
	Word   string
	Weight float64
}

// Topic is one discovered topic of an entity's corpus.
type Topic struct {
	ID             int
	MemberCount    int
	Keywords       []Keyword
	Interpretation string
}

// NoKeywords reports whether no keywords could be extracted for the topic.
func (t Topic) NoKeywords() bool { return len(t.Keywords) == 0 }

// Words returns the keywords in rank order.
func (t Topic) Words() []string {
	words := make([]string, len(t.Keywords))
	for i, k := range t.Keywords {
		words[i] = k.Word
	}
	return words
}

// Rank builds one Topic per non-outlier id, with keywords attached, sorted by
// member count descending and then by ascending id. Topics without keywords
// are kept.
func Rank(a *cluster.Assignment, texts []string, topN int) ([]Topic, error) {
	if len(a.Labels) != len(texts) {
		return nil, fmt.Errorf("assignment has %d labels for %d texts", len(a.Labels), len(texts))
	}

	counts := make(map[int]int)
	for _, l := range a.Labels {
		if l != cluster.OutlierID {
			counts[l]++
		}
	}

	keywords := ExtractKeywords(texts, a.Labels, topN)

	ranked := make([]Topic, 0, len(counts))
	for id, n := range counts {
		ranked = append(ranked, Topic{ID: id, MemberCount: n, Keywords: keywords[id]})
	}
	slices.SortFunc(ranked, func(x, y Topic) int {
		if c := cmp.Compare(y.MemberCount, x.MemberCount); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return ranked, nil
}
