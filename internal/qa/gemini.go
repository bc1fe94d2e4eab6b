package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

// GeminiEngine answers questions over a corpus using Google's Gemini API
type GeminiEngine struct {
	client      *genai.Client
	model       string
	maxDocChars int
	timeout     time.Duration
}

// NewGeminiEngine creates a Gemini-backed QA engine
func NewGeminiEngine(ctx context.Context, apiKey, model string, maxDocChars int, timeout time.Duration) (*GeminiEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	if model == "" {
		model = "gemini-2.5-flash"
	}
	if maxDocChars <= 0 {
		maxDocChars = 24000
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiEngine{
		client:      client,
		model:       model,
		maxDocChars: maxDocChars,
		timeout:     timeout,
	}, nil
}

// NewCorpus starts an empty corpus session
func (e *GeminiEngine) NewCorpus() Corpus {
	return &geminiCorpus{
		engine: e,
		docs:   make(map[string]string),
	}
}

type geminiCorpus struct {
	engine *GeminiEngine
	mu     sync.Mutex
	order  []string
	docs   map[string]string
}

// Add registers a document; re-adding an identifier is a no-op
func (c *geminiCorpus) Add(ctx context.Context, id string, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.docs[id]; exists {
		return nil
	}

	if len(text) > c.engine.maxDocChars {
		text = text[:c.engine.maxDocChars]
	}

	c.docs[id] = text
	c.order = append(c.order, id)
	return nil
}

// Ask answers one question against every registered document
func (c *geminiCorpus) Ask(ctx context.Context, question string) (string, error) {
	prompt := c.buildPrompt(question)

	ctx, cancel := context.WithTimeout(ctx, c.engine.timeout)
	defer cancel()

	resp, err := c.engine.client.Models.GenerateContent(ctx,
		c.engine.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.2)),
		},
	)
	if err != nil {
		return "", fmt.Errorf("Gemini query failed: %w", err)
	}

	answer := resp.Text()
	if answer == "" {
		return "", fmt.Errorf("Gemini returned an empty answer")
	}

	slog.Debug("QA query answered",
		"model", c.engine.model,
		"documents", len(c.docs),
		"answer_chars", len(answer),
	)

	return answer, nil
}

func (c *geminiCorpus) buildPrompt(question string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("You are a research assistant. Answer the question using only the documents below. Cite document identifiers where relevant.\n")
	for _, id := range c.order {
		sb.WriteString("\n### Document ")
		sb.WriteString(id)
		sb.WriteString("\n")
		sb.WriteString(c.docs[id])
		sb.WriteString("\n")
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}
