package qa

import "context"

// Corpus is the set of documents registered for one analysis session.
// Registration is additive and idempotent per session: adding the same
// identifier twice is a no-op.
type Corpus interface {
	Add(ctx context.Context, id string, text string) error
	Ask(ctx context.Context, question string) (string, error)
}

// Engine is the question-answering capability. Each analysis session works
// against a fresh corpus.
type Engine interface {
	NewCorpus() Corpus
}
