package futurework

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/oliveagle/jsonpath"

	"github.com/lenslabs/paperlens/internal/analysis"
	"github.com/lenslabs/paperlens/internal/model"
	"github.com/lenslabs/paperlens/internal/qa"
)

// State tracks how far the session has progressed. Transitions are
// caller-triggered, strictly ordered and irreversible within a session.
type State string

const (
	StateInit         State = "INIT"
	StateIdeasReady   State = "IDEAS_READY"
	StateProjectReady State = "PROJECT_READY"
	StateCodeReady    State = "CODE_READY"
)

// Precondition errors for out-of-order stage calls
var (
	ErrIdeasNotReady   = errors.New("ideas have not been generated yet")
	ErrProjectNotReady = errors.New("project has not been elaborated yet")
	ErrStageComplete   = errors.New("stage already completed for this session")
)

// NotApplicableStatement is what the engine is told to return when the
// elaborated project needs no code
const NotApplicableStatement = "project does not require code"

const ideasPrompt = `Here is an analysis snippet (JSON):
%s

List the future work or open problems explicitly mentioned in the paper.
Return a numbered bullet list; keep each bullet under 25 words.`

const elaboratePrompt = `You chose: %s. Draft a concrete research framework to tackle it.
Include: goal, datasets, methods/models, evaluation metrics, and a
high-level file-structure / code outline if applicable. Bullet points please.`

const codePrompt = `Expand the previous outline into runnable stubs with TODOs. ` +
	`If the project does not require code, return the statement "` + NotApplicableStatement + `".`

// Session is a stateful multi-turn elaboration over one target paper:
// generate idea list, elaborate the user's choice into a project outline,
// optionally expand the outline into starter code.
type Session struct {
	corpus       qa.Corpus
	extract      analysis.TextExtractor
	artifactPath string
	state        State
	result       model.FutureWorkResult
}

// NewSession creates a future-work session. Generated code is additionally
// persisted to artifactPath as a side effect of the final stage.
func NewSession(engine qa.Engine, extract analysis.TextExtractor, artifactPath string) *Session {
	if extract == nil {
		extract = analysis.PDFText
	}
	return &Session{
		corpus:       engine.NewCorpus(),
		extract:      extract,
		artifactPath: artifactPath,
		state:        StateInit,
	}
}

// State returns the current session state
func (s *Session) State() State {
	return s.state
}

// Result returns what the session has produced so far
func (s *Session) Result() model.FutureWorkResult {
	return s.result
}

// GenerateIdeas registers the target document and asks for a numbered list of
// future-work directions, with the prior analysis embedded as context.
func (s *Session) GenerateIdeas(ctx context.Context, priorResult json.RawMessage, targetPath string) (string, error) {
	if s.state != StateInit {
		return "", ErrStageComplete
	}

	text, err := s.extract(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to extract target document: %w", err)
	}
	if err := s.corpus.Add(ctx, filepath.Base(targetPath), text); err != nil {
		return "", fmt.Errorf("failed to register target document: %w", err)
	}

	ideas, err := s.corpus.Ask(ctx, fmt.Sprintf(ideasPrompt, priorAnswersContext(priorResult)))
	if err != nil {
		return "", fmt.Errorf("idea generation failed: %w", err)
	}

	s.result.Ideas = ideas
	s.state = StateIdeasReady
	return ideas, nil
}

// Elaborate expands the user's chosen idea into a concrete project outline
func (s *Session) Elaborate(ctx context.Context, choice string) (string, error) {
	if s.state == StateInit {
		return "", ErrIdeasNotReady
	}
	if s.state != StateIdeasReady {
		return "", ErrStageComplete
	}
	if choice == "" {
		return "", errors.New("choice is required")
	}

	project, err := s.corpus.Ask(ctx, fmt.Sprintf(elaboratePrompt, choice))
	if err != nil {
		return "", fmt.Errorf("project elaboration failed: %w", err)
	}

	s.result.Project = project
	s.state = StateProjectReady
	return project, nil
}

// GenerateCode expands the outline into starter code stubs (or the explicit
// not-applicable statement) and persists it to the artifact path
func (s *Session) GenerateCode(ctx context.Context) (string, error) {
	switch s.state {
	case StateInit:
		return "", ErrIdeasNotReady
	case StateIdeasReady:
		return "", ErrProjectNotReady
	case StateCodeReady:
		return "", ErrStageComplete
	}

	code, err := s.corpus.Ask(ctx, codePrompt)
	if err != nil {
		return "", fmt.Errorf("code generation failed: %w", err)
	}

	if s.artifactPath != "" {
		if err := os.MkdirAll(filepath.Dir(s.artifactPath), 0o755); err != nil {
			return "", fmt.Errorf("failed to create artifact directory: %w", err)
		}
		if err := os.WriteFile(s.artifactPath, []byte(code), 0o644); err != nil {
			return "", fmt.Errorf("failed to persist code artifact: %w", err)
		}
		slog.Info("Code artifact persisted", "path", s.artifactPath)
	}

	s.result.Code = code
	s.state = StateCodeReady
	return code, nil
}

// priorAnswersContext pulls the answers block out of a prior pipeline result
// for embedding into the ideas prompt, falling back to the raw payload when
// the path does not resolve
func priorAnswersContext(priorResult json.RawMessage) string {
	var data interface{}
	if err := json.Unmarshal(priorResult, &data); err != nil {
		return string(priorResult)
	}

	answers, err := jsonpath.JsonPathLookup(data, "$.answers")
	if err != nil {
		return string(priorResult)
	}

	pretty, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return string(priorResult)
	}
	return string(pretty)
}
