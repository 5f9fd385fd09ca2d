// Package report renders ranked topics as the plain-text per-entity report.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/TobiSchelling/SignalTopics/internal/signals"
	"github.com/TobiSchelling/SignalTopics/internal/topics"
)

// ErrWriteFailed wraps any failure to produce the report file.
var ErrWriteFailed = errors.New("report write failed")

const (
	NoKeywordsMarker = "No keywords found"
	FailedMarker     = "Interpretation failed."
)

// FileName returns the report file name for an entity.
func FileName(entity string) string {
	return signals.EntityKey(entity) + "_topics.txt"
}

// Path returns the report path for an entity inside dir.
func Path(dir, entity string) string {
	return filepath.Join(dir, FileName(entity))
}

// Format writes one block per topic, in the given order.
func Format(w io.Writer, ranked []topics.Topic) error {
	bw := bufio.NewWriter(w)
	for _, t := range ranked {
		keywords := NoKeywordsMarker
		interpretation := FailedMarker
		if !t.NoKeywords() {
			keywords = strings.Join(t.Words(), ", ")
			interpretation = t.Interpretation
		}
		fmt.Fprintf(bw, "Topic %d (%d posts): %s\n", t.ID, t.MemberCount, keywords)
		fmt.Fprintf(bw, "Interpretation: %s\n\n", interpretation)
	}
	return bw.Flush()
}

// Write replaces the entity's report in dir with the formatted topics and
// returns its path. The file is written to a temporary name and renamed into
// place, so a failed write never leaves a partial report behind.
func Write(dir, entity string, ranked []topics.Topic) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", ErrWriteFailed, dir, err)
	}

	target := Path(dir, entity)
	tmp, err := os.CreateTemp(dir, "."+FileName(entity)+".*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	tmpPath := tmp.Name()

	if err := Format(tmp, ranked); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: writing %s: %v", ErrWriteFailed, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: closing %s: %v", ErrWriteFailed, tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: rename: %v", ErrWriteFailed, err)
	}
	return target, nil
}
