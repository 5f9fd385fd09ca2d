package topics

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

var stopWords = func() map[string]struct{} {
	words := []string{
		"the", "a", "an", "is", "are", "was", "were", "be", "been", "being", "have", "has",
		"had", "do", "does", "did", "will", "would", "could", "should", "may", "might", "can",
		"shall", "to", "of", "in", "for", "on", "with", "at", "by", "from", "as", "into",
		"through", "during", "before", "after", "above", "below", "and", "but", "or", "nor",
		"not", "so", "yet", "both", "either", "neither", "each", "every", "all", "any", "few",
		"more", "most", "other", "some", "such", "no", "only", "own", "same", "than", "too",
		"very", "just", "how", "what", "which", "who", "whom", "this", "that", "these", "those",
		"it", "its", "new", "about", "up", "out", "one", "two", "also", "like", "get", "use",
		"if", "then", "else", "down", "over", "under", "again", "further", "between", "off",
		"don", "now", "once", "because", "when", "while", "there", "their", "they", "them",
		"you", "your", "our", "his", "her", "she", "him", "we", "i", "me", "my", "here",
		"where", "why", "am", "via", "says", "said",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// tokenize lowercases text and keeps letter words longer than two characters
// that are not stop words.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if utf8.RuneCountInString(t) <= 2 {
			continue
		}
		if _, stop := stopWords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ExtractKeywords ranks the words of each topic with class-based TF-IDF.
// All texts sharing a label form one class document; outliers form their own
// class so topic keywords are weighted against the rest of the corpus, but no
// keywords are returned for them. Each topic gets at most topN keywords,
// highest weight first, ties broken alphabetically.
func ExtractKeywords(texts []string, labels []int, topN int) map[int][]Keyword {
	if topN <= 0 {
		topN = DefaultTopKeywords
	}

	counts := make(map[int]map[string]int)
	lengths := make(map[int]int)
	total := make(map[string]int)

	for i, text := range texts {
		label := labels[i]
		if counts[label] == nil {
			counts[label] = make(map[string]int)
		}
		for _, tok := range tokenize(text) {
			counts[label][tok]++
			lengths[label]++
			total[tok]++
		}
	}

	var tokens int
	for _, l := range lengths {
		tokens += l
	}
	result := make(map[int][]Keyword)
	if tokens == 0 || len(counts) == 0 {
		return result
	}
	avg := float64(tokens) / float64(len(counts))

	for label, words := range counts {
		if label < 0 || lengths[label] == 0 {
			continue
		}
		keywords := make([]Keyword, 0, len(words))
		for w, c := range words {
			tf := float64(c) / float64(lengths[label])
			idf := math.Log(1 + avg/float64(total[w]))
			keywords = append(keywords, Keyword{Word: w, Weight: tf * idf})
		}
		slices.SortFunc(keywords, func(a, b Keyword) int {
			if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
				return c
			}
			return strings.Compare(a.Word, b.Word)
		})
		if len(keywords) > topN {
			keywords = keywords[:topN]
		}
		result[label] = keywords
	}
	return result
}
