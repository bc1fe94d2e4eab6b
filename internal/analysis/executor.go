package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lenslabs/paperlens/internal/model"
	"github.com/lenslabs/paperlens/internal/qa"
)

// DefaultQuestion is asked when a request carries no questions of its own
const DefaultQuestion = "What future work or open research directions are suggested by the authors?"

// Executor runs question/answer passes over a retrieved document set
type Executor struct {
	engine  qa.Engine
	extract TextExtractor
}

// NewExecutor creates an analysis executor
func NewExecutor(engine qa.Engine, extract TextExtractor) *Executor {
	if extract == nil {
		extract = PDFText
	}
	return &Executor{
		engine:  engine,
		extract: extract,
	}
}

// Analyze registers every record with a fresh corpus, then asks each question
// independently and records the answers verbatim. With sectionOnly set, only
// text near limitation/future-work headings is registered; documents without
// a matching heading fall back to their full text.
func (e *Executor) Analyze(ctx context.Context, records []model.PaperRecord, questions []string, sectionOnly bool) (*model.AnalysisResult, error) {
	if len(questions) == 0 {
		questions = []string{DefaultQuestion}
	}

	corpus := e.engine.NewCorpus()

	paperIDs := make([]string, 0, len(records))
	for _, rec := range records {
		text, err := e.extract(rec.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text for %s: %w", rec.ID, err)
		}

		if sectionOnly {
			if trimmed := RelevantSections(text); trimmed != "" {
				text = trimmed
			} else {
				slog.Debug("No relevant section headings found, using whole document",
					"paper_id", rec.ID,
				)
			}
		}

		if err := corpus.Add(ctx, rec.ID, text); err != nil {
			return nil, fmt.Errorf("failed to register %s with corpus: %w", rec.ID, err)
		}
		paperIDs = append(paperIDs, rec.ID)
	}

	answers := make(map[string]string, len(questions))
	for _, question := range questions {
		slog.Info("Asking analysis question", "question", question, "papers", len(paperIDs))

		answer, err := corpus.Ask(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("analysis query failed: %w", err)
		}
		answers[question] = answer
	}

	return &model.AnalysisResult{
		Answers:  answers,
		PaperIDs: paperIDs,
	}, nil
}
