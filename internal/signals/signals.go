// Package signals loads the per-entity signal files written by the collector
// and flattens them into a text corpus.
package signals

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrSourceUnavailable marks a source file that is missing, unreadable or malformed.
var ErrSourceUnavailable = errors.New("source unavailable")

// Origin identifies which collection source a record came from.
type Origin int

const (
	OriginSocial Origin = iota
	OriginNews
	OriginAggregated
)

// Origins lists every origin in load order.
var Origins = []Origin{OriginSocial, OriginNews, OriginAggregated}

// Suffix returns the file name suffix the collector uses for this origin.
func (o Origin) Suffix() string {
	switch o {
	case OriginSocial:
		return "reddit"
	case OriginNews:
		return "news"
	case OriginAggregated:
		return "signals"
	}
	return "unknown"
}

func (o Origin) String() string {
	switch o {
	case OriginSocial:
		return "social"
	case OriginNews:
		return "news"
	case OriginAggregated:
		return "aggregated"
	}
	return "unknown"
}

// Record is a single signal reduced to its representative text.
type Record struct {
	Text   string
	Origin Origin
}

// rawRecord is the on-disk shape; only title and summary matter here.
type rawRecord struct {
	Title   *string `json:"title"`
	Summary *string `json:"summary"`
}

// text returns the headline if present and non-empty, otherwise the summary.
func (r rawRecord) text() string {
	if r.Title != nil {
		if t := strings.TrimSpace(*r.Title); t != "" {
			return t
		}
	}
	if r.Summary != nil {
		if s := strings.TrimSpace(*r.Summary); s != "" {
			return s
		}
	}
	return ""
}

// Corpus is the ordered set of texts gathered for one entity.
type Corpus struct {
	Entity  string
	Records []Record
}

// Texts returns the corpus texts in load order.
func (c *Corpus) Texts() []string {
	texts := make([]string, len(c.Records))
	for i, r := range c.Records {
		texts[i] = r.Text
	}
	return texts
}

// Len returns the number of texts.
func (c *Corpus) Len() int { return len(c.Records) }

// Empty reports whether no usable text was loaded.
func (c *Corpus) Empty() bool { return len(c.Records) == 0 }

// EntityKey normalizes an entity name for file naming: lowercase, spaces to underscores.
func EntityKey(entity string) string {
	return strings.ReplaceAll(strings.ToLower(entity), " ", "_")
}

// SourcePath returns the path of an entity's file for one origin.
func SourcePath(dataDir, entity string, origin Origin) string {
	return filepath.Join(dataDir, fmt.Sprintf("%s_%s.json", EntityKey(entity), origin.Suffix()))
}

// LoadFile reads a JSON array of records and returns the non-empty texts in order.
// Records without a usable title or summary are skipped.
func LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
	}

	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: decoding records: %v", ErrSourceUnavailable, path, err)
	}

	var texts []string
	for _, r := range raw {
		if t := r.text(); t != "" {
			texts = append(texts, t)
		}
	}
	return texts, nil
}

// LoadCorpus loads every origin for an entity. Sources that fail to load are
// returned as warnings; they contribute nothing to the corpus.
func LoadCorpus(dataDir, entity string) (*Corpus, []error) {
	c := &Corpus{Entity: entity}
	var warnings []error

	for _, origin := range Origins {
		texts, err := LoadFile(SourcePath(dataDir, entity, origin))
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s source: %w", origin.Suffix(), err))
			continue
		}
		for _, t := range texts {
			c.Records = append(c.Records, Record{Text: t, Origin: origin})
		}
	}

	return c, warnings
}
