package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// InsertRun stores a run and returns its ID.
func (db *DB) InsertRun(r Run) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO runs (entity, status, corpus_size, topic_count, outlier_count, report_path, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Entity, r.Status, r.CorpusSize, r.TopicCount, r.OutlierCount, r.ReportPath, r.Error, r.StartedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return result.LastInsertId()
}

// InsertRunTopics stores the topic summaries of a run.
func (db *DB) InsertRunTopics(runID int64, topics []RunTopic) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}

	for _, t := range topics {
		kwJSON, err := json.Marshal(t.Keywords)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO run_topics (run_id, topic_id, member_count, keywords, interpretation)
			VALUES (?, ?, ?, ?, ?)`,
			runID, t.TopicID, t.MemberCount, string(kwJSON), t.Interpretation,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting topic %d: %w", t.TopicID, err)
		}
	}

	return tx.Commit()
}

// GetRecentRuns returns the most recent runs, newest first.
func (db *DB) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(
		`SELECT id, entity, status, corpus_size, topic_count, outlier_count, report_path, error, started_at, finished_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

// GetLastRun returns the most recent run for an entity, or nil if none exists.
func (db *DB) GetLastRun(entity string) (*Run, error) {
	rows, err := db.conn.Query(
		`SELECT id, entity, status, corpus_size, topic_count, outlier_count, report_path, error, started_at, finished_at
		FROM runs WHERE entity = ? ORDER BY id DESC LIMIT 1`, entity,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

// GetRunTopics returns the topics of a run in stored order.
func (db *DB) GetRunTopics(runID int64) ([]RunTopic, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, topic_id, member_count, keywords, interpretation
		FROM run_topics WHERE run_id = ? ORDER BY member_count DESC, topic_id ASC`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []RunTopic
	for rows.Next() {
		var t RunTopic
		var kwJSON, interpretation *string
		if err := rows.Scan(&t.RunID, &t.TopicID, &t.MemberCount, &kwJSON, &interpretation); err != nil {
			return nil, err
		}
		if kwJSON != nil {
			if err := json.Unmarshal([]byte(*kwJSON), &t.Keywords); err != nil {
				t.Keywords = nil
			}
		}
		if interpretation != nil {
			t.Interpretation = *interpretation
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// GetStats returns aggregate history statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM runs", &s.TotalRuns},
		{"SELECT COUNT(*) FROM runs WHERE status = 'written'", &s.Written},
		{"SELECT COUNT(*) FROM runs WHERE status = 'skipped'", &s.Skipped},
		{"SELECT COUNT(*) FROM runs WHERE status = 'failed'", &s.Failed},
		{"SELECT COUNT(DISTINCT entity) FROM runs", &s.Entities},
		{"SELECT COUNT(*) FROM run_topics", &s.TotalTopics},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Entity, &r.Status, &r.CorpusSize, &r.TopicCount, &r.OutlierCount,
			&r.ReportPath, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
