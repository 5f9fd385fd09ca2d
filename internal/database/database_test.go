package database

import (
	"path/filepath"
	"slices"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if db.Path() != path {
		t.Errorf("expected path %s, got %s", path, db.Path())
	}
	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != latestVersion() {
		t.Errorf("expected schema version %d, got %d", latestVersion(), v)
	}
}

func TestInsertAndGetRecentRuns(t *testing.T) {
	db := openTestDB(t)

	_, err := db.InsertRun(Run{Entity: "Wiz", Status: StatusSkipped, StartedAt: "2026-10-19T08:00:00Z"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id, err := db.InsertRun(Run{
		Entity:       "Grip Security",
		Status:       StatusWritten,
		CorpusSize:   42,
		TopicCount:   3,
		OutlierCount: 7,
		ReportPath:   ptr("grip_security_topics.txt"),
		StartedAt:    "2026-10-19T08:01:00Z",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero run ID")
	}

	runs, err := db.GetRecentRuns(10)
	if err != nil {
		t.Fatalf("GetRecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Entity != "Grip Security" {
		t.Errorf("expected newest run first, got %s", runs[0].Entity)
	}
	if runs[0].CorpusSize != 42 || runs[0].TopicCount != 3 || runs[0].OutlierCount != 7 {
		t.Errorf("unexpected counts %+v", runs[0])
	}
	if runs[0].ReportPath == nil || *runs[0].ReportPath != "grip_security_topics.txt" {
		t.Errorf("unexpected report path %v", runs[0].ReportPath)
	}
	if runs[1].ReportPath != nil {
		t.Errorf("expected nil report path for skipped run")
	}
	if runs[0].FinishedAt == nil {
		t.Error("expected finished_at default")
	}
}

func TestInsertRunRejectsUnknownStatus(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.InsertRun(Run{Entity: "Wiz", Status: "pending", StartedAt: "x"}); err == nil {
		t.Error("expected constraint error for unknown status")
	}
}

func TestGetLastRun(t *testing.T) {
	db := openTestDB(t)

	run, err := db.GetLastRun("Wiz")
	if err != nil || run != nil {
		t.Fatalf("expected no run, got %v %v", run, err)
	}

	db.InsertRun(Run{Entity: "Wiz", Status: StatusFailed, Error: ptr("model unavailable"), StartedAt: "a"})
	db.InsertRun(Run{Entity: "AppOmni", Status: StatusWritten, StartedAt: "b"})

	run, err = db.GetLastRun("Wiz")
	if err != nil {
		t.Fatalf("GetLastRun: %v", err)
	}
	if run == nil || run.Status != StatusFailed || run.Error == nil || *run.Error != "model unavailable" {
		t.Errorf("unexpected run %+v", run)
	}
}

func TestRunTopics(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertRun(Run{Entity: "Wiz", Status: StatusWritten, StartedAt: "a"})

	err := db.InsertRunTopics(id, []RunTopic{
		{TopicID: 1, MemberCount: 2, Keywords: []string{"funding"}, Interpretation: "Funding news."},
		{TopicID: 0, MemberCount: 5, Keywords: []string{"breach", "oauth"}, Interpretation: "A breach."},
	})
	if err != nil {
		t.Fatalf("InsertRunTopics: %v", err)
	}

	topics, err := db.GetRunTopics(id)
	if err != nil {
		t.Fatalf("GetRunTopics: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(topics))
	}
	if topics[0].TopicID != 0 || !slices.Equal(topics[0].Keywords, []string{"breach", "oauth"}) {
		t.Errorf("expected largest topic first, got %+v", topics[0])
	}
	if topics[1].Interpretation != "Funding news." {
		t.Errorf("unexpected interpretation %q", topics[1].Interpretation)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertRun(Run{Entity: "Wiz", Status: StatusWritten, StartedAt: "a"})
	db.InsertRunTopics(id, []RunTopic{{TopicID: 0, MemberCount: 3}})
	db.InsertRun(Run{Entity: "Wiz", Status: StatusSkipped, StartedAt: "b"})
	db.InsertRun(Run{Entity: "AppOmni", Status: StatusFailed, StartedAt: "c"})

	s, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if s.TotalRuns != 3 || s.Written != 1 || s.Skipped != 1 || s.Failed != 1 {
		t.Errorf("unexpected run stats %+v", s)
	}
	if s.Entities != 2 || s.TotalTopics != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}
