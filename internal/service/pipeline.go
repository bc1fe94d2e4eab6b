package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lenslabs/paperlens/internal/analysis"
	"github.com/lenslabs/paperlens/internal/futurework"
	"github.com/lenslabs/paperlens/internal/model"
	"github.com/lenslabs/paperlens/internal/qa"
	"github.com/lenslabs/paperlens/internal/query"
	"github.com/lenslabs/paperlens/internal/retriever"
)

// PipelineExecutor drives both pipelines: the paper-analysis sequence
// (optimize -> search -> fetch -> analyze) and the staged future-work
// elaboration. It holds no per-job state; every run is independent.
type PipelineExecutor struct {
	newOptimizer func() *query.Optimizer
	retriever    *retriever.Retriever
	analyzer     *analysis.Executor
	engine       qa.Engine
	extract      analysis.TextExtractor
	artifactPath string
	defaultLimit int
}

// NewPipelineExecutor creates a pipeline executor
func NewPipelineExecutor(
	ret *retriever.Retriever,
	analyzer *analysis.Executor,
	engine qa.Engine,
	extract analysis.TextExtractor,
	artifactPath string,
	defaultLimit int,
) *PipelineExecutor {
	if defaultLimit <= 0 {
		defaultLimit = model.DefaultMaxResults
	}
	return &PipelineExecutor{
		newOptimizer: query.NewOptimizer,
		retriever:    ret,
		analyzer:     analyzer,
		engine:       engine,
		extract:      extract,
		artifactPath: artifactPath,
		defaultLimit: defaultLimit,
	}
}

// SetOptimizerFactory overrides how optimizers are built, letting tests pin
// the clock that resolves "recent" date filters
func (e *PipelineExecutor) SetOptimizerFactory(fn func() *query.Optimizer) {
	e.newOptimizer = fn
}

// RunPipeline executes the paper-analysis pipeline for one prompt
func (e *PipelineExecutor) RunPipeline(ctx context.Context, req *model.PipelineRequest) (*model.AnalysisResult, error) {
	start := time.Now()

	queryStr, filters, err := e.newOptimizer().Optimize(req.Prompt)
	if err != nil {
		return nil, fmt.Errorf("query optimization failed: %w", err)
	}
	if req.MaxResults > 0 {
		filters.MaxResults = req.MaxResults
	} else {
		filters.MaxResults = e.defaultLimit
	}

	slog.Info("Query optimized",
		"query", queryStr,
		"categories", filters.Categories,
		"min_year", filters.MinYear,
		"max_year", filters.MaxYear,
	)

	records, err := e.retriever.Search(ctx, queryStr, filters)
	if err != nil {
		return nil, fmt.Errorf("paper search failed: %w", err)
	}

	fetched, err := e.retriever.FetchAll(ctx, records)
	if err != nil {
		// The job result is all-or-nothing; papers fetched before the
		// failure stay cached for the next submission.
		return nil, fmt.Errorf("paper fetch failed: %w", err)
	}

	result, err := e.analyzer.Analyze(ctx, fetched, req.Questions, req.SectionOnly)
	if err != nil {
		return nil, err
	}

	result.Query = queryStr
	result.PDFPaths = make([]string, 0, len(fetched))
	for _, rec := range fetched {
		result.PDFPaths = append(result.PDFPaths, rec.LocalPath)
	}

	slog.Info("Pipeline completed",
		"papers", len(fetched),
		"questions", len(result.Answers),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

// RunFutureWork executes the future-work stages requested by the caller.
// The session always generates ideas; it elaborates only when a choice was
// supplied and generates code only when additionally requested.
func (e *PipelineExecutor) RunFutureWork(ctx context.Context, req *model.FutureWorkRequest) (*model.FutureWorkResult, error) {
	session := futurework.NewSession(e.engine, e.extract, e.artifactPath)

	if _, err := session.GenerateIdeas(ctx, req.PriorResult, req.TargetPath); err != nil {
		return nil, err
	}

	if req.Choice != "" {
		if _, err := session.Elaborate(ctx, req.Choice); err != nil {
			return nil, err
		}

		if req.GenerateCode {
			if _, err := session.GenerateCode(ctx); err != nil {
				return nil, err
			}
		}
	}

	result := session.Result()

	slog.Info("Future-work session completed", "state", session.State())

	return &result, nil
}
