package database

// Run statuses.
const (
	StatusWritten = "written"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Run records the outcome of processing one entity.
type Run struct {
	ID           int64
	Entity       string
	Status       string
	CorpusSize   int
	TopicCount   int
	OutlierCount int
	ReportPath   *string
	Error        *string
	StartedAt    string
	FinishedAt   *string
}

// RunTopic is the summary of one topic reported by a run.
type RunTopic struct {
	RunID          int64
	TopicID        int
	MemberCount    int
	Keywords       []string
	Interpretation string
}

// Stats contains aggregate history statistics.
type Stats struct {
	TotalRuns   int
	Written     int
	Skipped     int
	Failed      int
	Entities    int
	TotalTopics int
}
