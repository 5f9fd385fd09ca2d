// Package pipeline drives topic discovery for each configured entity:
// load, embed, cluster, rank, interpret, write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/TobiSchelling/SignalTopics/internal/cluster"
	"github.com/TobiSchelling/SignalTopics/internal/config"
	"github.com/TobiSchelling/SignalTopics/internal/database"
	"github.com/TobiSchelling/SignalTopics/internal/interpret"
	"github.com/TobiSchelling/SignalTopics/internal/llm"
	"github.com/TobiSchelling/SignalTopics/internal/logging"
	"github.com/TobiSchelling/SignalTopics/internal/report"
	"github.com/TobiSchelling/SignalTopics/internal/signals"
	"github.com/TobiSchelling/SignalTopics/internal/topics"
)

var (
	// ErrEmptyCorpus marks an entity with no usable text; it is skipped.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrDataDirMissing aborts a run before any entity is processed.
	ErrDataDirMissing = errors.New("data directory missing")
)

var tracer = otel.Tracer("signaltopics/pipeline")

// Status is the outcome of processing one entity.
type Status string

const (
	StatusWritten Status = database.StatusWritten
	StatusSkipped Status = database.StatusSkipped
	StatusFailed  Status = database.StatusFailed
)

// EntityResult holds the outcome for one entity.
type EntityResult struct {
	Entity       string
	Status       Status
	CorpusSize   int
	TopicCount   int
	OutlierCount int
	ReportPath   string
	Topics       []topics.Topic
	Warnings     []error
	Err          error
}

// Result holds the results of a full run.
type Result struct {
	Entities []EntityResult
}

// Count returns how many entities ended with the given status.
func (r *Result) Count(s Status) int {
	n := 0
	for _, e := range r.Entities {
		if e.Status == s {
			n++
		}
	}
	return n
}

// History records run outcomes. *database.DB satisfies it.
type History interface {
	InsertRun(r database.Run) (int64, error)
	InsertRunTopics(runID int64, topics []database.RunTopic) error
}

// Deps are the long-lived collaborators of a pipeline. History may be nil.
type Deps struct {
	Embedder llm.Embedder
	Provider llm.Provider
	History  History
}

// Pipeline processes entities one at a time.
type Pipeline struct {
	cfg         *config.Config
	embedder    llm.Embedder
	interpreter *interpret.Interpreter
	clusterer   *cluster.Clusterer
	history     History
	closers     []io.Closer
}

// New creates a pipeline around injected dependencies.
func New(cfg *config.Config, deps Deps) (*Pipeline, error) {
	method, err := cluster.ParseMethod(cfg.Clustering.Method)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		embedder: deps.Embedder,
		interpreter: interpret.New(deps.Provider, interpret.Options{
			MaxTokens:   cfg.Interpretation.MaxInterpretationTokens,
			Temperature: cfg.Interpretation.SamplingTemperature,
		}),
		clusterer: cluster.NewClusterer(cluster.Options{
			Method:            method,
			MinTopicSize:      cfg.Clustering.MinTopicSize,
			MinSamples:        cfg.Clustering.MinSamples,
			ReduceDims:        cfg.Clustering.ReduceDims,
			Seed:              cfg.Clustering.Seed,
			DistanceThreshold: cfg.Clustering.DistanceThreshold,
		}),
		history: deps.History,
	}, nil
}

// NewFromConfig builds the embedding backend, generation provider and,
// when history.path is set, the run history database.
func NewFromConfig(cfg *config.Config) (*Pipeline, error) {
	embedder, err := llm.NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	deps := Deps{
		Embedder: embedder,
		Provider: llm.CreateProvider(cfg.Interpretation),
	}

	var db *database.DB
	if cfg.History.Path != "" {
		db, err = database.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("opening run history: %w", err)
		}
		deps.History = db
	}

	p, err := New(cfg, deps)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}
	if db != nil {
		p.closers = append(p.closers, db)
	}
	return p, nil
}

// Close releases resources opened by NewFromConfig.
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Run processes every configured entity in order. It fails only when the data
// directory is missing; per-entity failures are recorded in the result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := checkDataDir(p.cfg.DataDir); err != nil {
		return nil, err
	}

	r := &Result{}
	for _, entity := range p.cfg.Entities {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		r.Entities = append(r.Entities, p.RunEntity(ctx, entity))
	}

	logging.Info("Run complete",
		"written", r.Count(StatusWritten),
		"skipped", r.Count(StatusSkipped),
		"failed", r.Count(StatusFailed))
	return r, nil
}

// RunEntity runs every stage for one entity. Errors never escape; they are
// logged and reflected in the returned status.
func (p *Pipeline) RunEntity(ctx context.Context, entity string) EntityResult {
	started := time.Now().UTC()
	ctx, span := tracer.Start(ctx, "pipeline.entity", trace.WithAttributes(attribute.String("entity", entity)))
	defer span.End()

	res := p.process(ctx, entity)

	switch res.Status {
	case StatusWritten:
		logging.Info("Report written", "entity", entity, "topics", res.TopicCount, "outliers", res.OutlierCount, "path", res.ReportPath)
	case StatusSkipped:
		logging.Warn("No signals to analyze, skipping", "entity", entity)
	case StatusFailed:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		logging.Error("Entity failed", "entity", entity, "error", res.Err)
	}

	p.record(res, started)
	return res
}

func (p *Pipeline) process(ctx context.Context, entity string) EntityResult {
	res := EntityResult{Entity: entity}

	var corpus *signals.Corpus
	stage(ctx, "pipeline.load", func(context.Context) error {
		corpus, res.Warnings = signals.LoadCorpus(p.cfg.DataDir, entity)
		return nil
	})
	for _, w := range res.Warnings {
		logging.Warn("Source unavailable", "entity", entity, "error", w)
	}
	res.CorpusSize = corpus.Len()
	if corpus.Empty() {
		res.Status = StatusSkipped
		res.Err = fmt.Errorf("%w: %s", ErrEmptyCorpus, entity)
		return res
	}
	texts := corpus.Texts()
	logging.Debug("Corpus loaded", "entity", entity, "texts", len(texts))

	fail := func(err error) EntityResult {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	var embeddings [][]float64
	if err := stage(ctx, "pipeline.embed", func(ctx context.Context) (err error) {
		embeddings, err = p.embedder.Embed(ctx, texts)
		if err == nil && len(embeddings) != len(texts) {
			err = fmt.Errorf("%w: got %d embeddings for %d texts", llm.ErrModelUnavailable, len(embeddings), len(texts))
		}
		return err
	}); err != nil {
		return fail(fmt.Errorf("embedding: %w", err))
	}

	var assignment *cluster.Assignment
	if err := stage(ctx, "pipeline.cluster", func(context.Context) (err error) {
		assignment, err = p.clusterer.Assign(embeddings)
		return err
	}); err != nil {
		return fail(fmt.Errorf("clustering: %w", err))
	}
	res.TopicCount = assignment.TopicCount()
	res.OutlierCount = assignment.OutlierCount()

	var ranked []topics.Topic
	if err := stage(ctx, "pipeline.rank", func(context.Context) (err error) {
		ranked, err = topics.Rank(assignment, texts, p.cfg.Clustering.TopKeywords)
		return err
	}); err != nil {
		return fail(fmt.Errorf("ranking: %w", err))
	}

	stage(ctx, "pipeline.interpret", func(ctx context.Context) error {
		for i := range ranked {
			if ranked[i].NoKeywords() {
				ranked[i].Interpretation = report.FailedMarker
				continue
			}
			ranked[i].Interpretation = p.interpreter.Interpret(ctx, ranked[i].Words())
		}
		return nil
	})
	res.Topics = ranked

	if err := stage(ctx, "pipeline.write", func(context.Context) (err error) {
		res.ReportPath, err = report.Write(p.cfg.GetReportDir(), entity, ranked)
		return err
	}); err != nil {
		return fail(err)
	}

	res.Status = StatusWritten
	return res
}

// DryRun reports what a run would process without invoking any model.
func (p *Pipeline) DryRun() (*Result, error) {
	if err := checkDataDir(p.cfg.DataDir); err != nil {
		return nil, err
	}

	r := &Result{}
	for _, entity := range p.cfg.Entities {
		corpus, warnings := signals.LoadCorpus(p.cfg.DataDir, entity)
		res := EntityResult{
			Entity:     entity,
			CorpusSize: corpus.Len(),
			Warnings:   warnings,
			Status:     StatusWritten,
			ReportPath: report.Path(p.cfg.GetReportDir(), entity),
		}
		if corpus.Empty() {
			res.Status = StatusSkipped
			res.ReportPath = ""
		}
		r.Entities = append(r.Entities, res)
	}
	return r, nil
}

func (p *Pipeline) record(res EntityResult, started time.Time) {
	if p.history == nil {
		return
	}

	run := database.Run{
		Entity:       res.Entity,
		Status:       string(res.Status),
		CorpusSize:   res.CorpusSize,
		TopicCount:   res.TopicCount,
		OutlierCount: res.OutlierCount,
		StartedAt:    started.Format(time.RFC3339),
	}
	if res.ReportPath != "" {
		run.ReportPath = &res.ReportPath
	}
	if res.Status == StatusFailed && res.Err != nil {
		msg := res.Err.Error()
		run.Error = &msg
	}

	id, err := p.history.InsertRun(run)
	if err != nil {
		logging.Warn("Recording run failed", "entity", res.Entity, "error", err)
		return
	}

	summaries := make([]database.RunTopic, len(res.Topics))
	for i, t := range res.Topics {
		summaries[i] = database.RunTopic{
			TopicID:        t.ID,
			MemberCount:    t.MemberCount,
			Keywords:       t.Words(),
			Interpretation: t.Interpretation,
		}
	}
	if err := p.history.InsertRunTopics(id, summaries); err != nil {
		logging.Warn("Recording topics failed", "entity", res.Entity, "error", err)
	}
}

// stage runs fn inside a span named name, recording any error on the span.
func stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func checkDataDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDataDirMissing, dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDataDirMissing, dir)
	}
	return nil
}
