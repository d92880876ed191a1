// Package responder answers questions with the generative backend and falls back to the
// deterministic engine whenever that backend cannot deliver.
package responder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/knowledge"
	"EnergyAnalyst/internal/ports"
)

const (
	defaultMaxTokens   = 2000
	defaultTemperature = 0.3
)

// Source tells which path produced an answer.
type Source string

const (
	SourceGenerative    Source = "generative"
	SourceDeterministic Source = "deterministic"
)

// Classifier assigns a category to a question.
type Classifier interface {
	Classify(question string) domain.Category
}

// Fallback renders an answer without any external dependency.
type Fallback interface {
	Answer(ctx context.Context, question string, category domain.Category) string
}

// Answer is the outcome of Respond.
type Answer struct {
	Text     string
	Category domain.Category
	Source   Source
	// FallbackReason is set when the deterministic path was taken.
	FallbackReason error
}

// Attempt is the result of a single generative call: text on success, Err otherwise.
type Attempt struct {
	Text string
	Err  error
}

// OK reports whether the attempt produced usable text.
func (a Attempt) OK() bool {
	return a.Err == nil
}

// Deps groups the collaborators of a Responder.
type Deps struct {
	Completer   ports.Completer
	Classifier  Classifier
	Fallback    Fallback
	Knowledge   *knowledge.Knowledge
	MaxTokens   int
	// Temperature is the sampling temperature; nil selects the default. Zero is kept.
	Temperature *float32
	Logger      *slog.Logger
}

// Responder implements the generative answer path.
type Responder struct {
	completer   ports.Completer
	classifier  Classifier
	fallback    Fallback
	decorations map[domain.Category]knowledge.Decoration
	maxTokens   int
	temperature float32
	logger      *slog.Logger

	unavailable atomic.Bool
}

// New builds a Responder. A nil Completer leaves the backend unavailable.
func New(deps Deps) *Responder {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxTokens := deps.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := float32(defaultTemperature)
	if deps.Temperature != nil && *deps.Temperature >= 0 {
		temperature = *deps.Temperature
	}

	r := &Responder{
		completer:   deps.Completer,
		classifier:  deps.Classifier,
		fallback:    deps.Fallback,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
	if deps.Knowledge != nil {
		r.decorations = deps.Knowledge.Decorations
	}
	if deps.Completer == nil {
		r.unavailable.Store(true)
	}
	return r
}

// Probe makes one minimal call to the backend. A failure only marks the backend
// unavailable for the rest of the session.
func (r *Responder) Probe(ctx context.Context) bool {
	if r.completer == nil {
		return false
	}
	if err := r.completer.Probe(ctx); err != nil {
		r.logger.Warn("generative backend unavailable, using deterministic analysis", "error", err)
		r.unavailable.Store(true)
		return false
	}
	r.logger.Info("generative backend available")
	return true
}

// Available reports whether real queries will be attempted.
func (r *Responder) Available() bool {
	return !r.unavailable.Load()
}

// Respond answers the question carried by evidence. The text is never empty.
func (r *Responder) Respond(ctx context.Context, evidence domain.EvidenceBundle) Answer {
	category := domain.CategoryGeneral
	if r.classifier != nil {
		category = r.classifier.Classify(evidence.Question)
	}

	if !r.Available() {
		return r.fallbackAnswer(ctx, evidence.Question, category, domain.ErrBackendUnavailable)
	}

	attempt := r.attempt(ctx, category, evidence)
	if !attempt.OK() {
		r.logger.Warn("generative answer failed, falling back", "category", category, "error", attempt.Err)
		return r.fallbackAnswer(ctx, evidence.Question, category, attempt.Err)
	}

	return Answer{
		Text:     Decorate(attempt.Text, category, r.decorations),
		Category: category,
		Source:   SourceGenerative,
	}
}

func (r *Responder) attempt(ctx context.Context, category domain.Category, evidence domain.EvidenceBundle) Attempt {
	text, err := r.completer.Complete(ctx, ports.CompletionRequest{
		System:      SystemPrompt(category),
		User:        UserPrompt(evidence),
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return Attempt{Err: fmt.Errorf("complete: %w", err)}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Attempt{Err: domain.ErrEmptyCompletion}
	}
	return Attempt{Text: text}
}

func (r *Responder) fallbackAnswer(ctx context.Context, question string, category domain.Category, reason error) Answer {
	text := ""
	if r.fallback != nil {
		text = r.fallback.Answer(ctx, question, category)
	}
	if strings.TrimSpace(text) == "" {
		text = "I could not produce an analysis right now. Try 'refresh' to load the latest reports."
		if reason == nil {
			reason = errors.New("fallback produced no text")
		}
	}
	return Answer{
		Text:           text,
		Category:       category,
		Source:         SourceDeterministic,
		FallbackReason: reason,
	}
}

// Decorate prefixes the category marker unless the prefix or one of its markers is already
// present.
func Decorate(text string, category domain.Category, decorations map[domain.Category]knowledge.Decoration) string {
	decoration, ok := decorations[category]
	if !ok || decoration.Prefix == "" {
		return text
	}
	if strings.Contains(text, decoration.Prefix) {
		return text
	}
	for _, marker := range decoration.Markers {
		if strings.Contains(text, marker) {
			return text
		}
	}
	return decoration.Prefix + " " + text
}
