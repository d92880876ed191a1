package responder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"EnergyAnalyst/internal/classifier"
	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/knowledge"
	"EnergyAnalyst/internal/ports"
)

type fakeCompleter struct {
	text     string
	err      error
	probeErr error

	calls  int
	probes int
	last   ports.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req ports.CompletionRequest) (string, error) {
	f.calls++
	f.last = req
	return f.text, f.err
}

func (f *fakeCompleter) Probe(context.Context) error {
	f.probes++
	return f.probeErr
}

type fakeFallback struct {
	calls    int
	category domain.Category
}

func (f *fakeFallback) Answer(_ context.Context, question string, category domain.Category) string {
	f.calls++
	f.category = category
	return "deterministic: " + question
}

func newResponder(completer ports.Completer, fallback Fallback) *Responder {
	k := knowledge.MustDefault()
	return New(Deps{
		Completer:  completer,
		Classifier: classifier.New(k),
		Fallback:   fallback,
		Knowledge:  k,
	})
}

func evidence(question string) domain.EvidenceBundle {
	return domain.EvidenceBundle{
		Question:          question,
		RelevantCompanies: []string{"Shell"},
		Latest: map[string]domain.FinancialReport{
			"Shell": {
				Company:   "Shell",
				Period:    domain.Period{Quarter: "Q2", Year: 2024},
				Revenue:   domain.Float(80000),
				NetIncome: domain.Float(16000),
			},
		},
		Market: knowledge.MustDefault().Market,
	}
}

func TestRespondWithoutCompleterSkipsNetwork(t *testing.T) {
	t.Parallel()

	fallback := &fakeFallback{}
	r := newResponder(nil, fallback)

	answer := r.Respond(context.Background(), evidence("Compare Shell vs BP"))
	if answer.Source != SourceDeterministic {
		t.Fatalf("expected deterministic answer, got %s", answer.Source)
	}
	if !errors.Is(answer.FallbackReason, domain.ErrBackendUnavailable) {
		t.Fatalf("unexpected fallback reason: %v", answer.FallbackReason)
	}
	if fallback.category != domain.CategoryComparison {
		t.Fatalf("fallback got category %s", fallback.category)
	}
	if answer.Text == "" {
		t.Fatalf("expected non-empty answer")
	}
}

func TestRespondAfterFailedProbeSkipsNetwork(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{text: "should not be used", probeErr: errors.New("invalid api key")}
	fallback := &fakeFallback{}
	r := newResponder(completer, fallback)

	if r.Probe(context.Background()) {
		t.Fatalf("probe should report unavailable")
	}
	answer := r.Respond(context.Background(), evidence("How is Shell performing?"))

	if completer.calls != 0 {
		t.Fatalf("expected no completion calls, got %d", completer.calls)
	}
	if answer.Source != SourceDeterministic || fallback.calls != 1 {
		t.Fatalf("expected one deterministic fallback, got %s with %d calls", answer.Source, fallback.calls)
	}
}

func TestRespondFallsBackOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		err  error
		want error
	}{
		{name: "backend error", err: errors.New("quota exceeded")},
		{name: "empty content", text: "   ", want: domain.ErrEmptyCompletion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			completer := &fakeCompleter{text: tt.text, err: tt.err}
			fallback := &fakeFallback{}
			r := newResponder(completer, fallback)

			answer := r.Respond(context.Background(), evidence("What is Shell's revenue?"))
			if completer.calls != 1 {
				t.Fatalf("expected exactly one attempt, got %d", completer.calls)
			}
			if answer.Source != SourceDeterministic || answer.FallbackReason == nil {
				t.Fatalf("expected fallback, got %+v", answer)
			}
			if tt.want != nil && !errors.Is(answer.FallbackReason, tt.want) {
				t.Fatalf("fallback reason = %v, want %v", answer.FallbackReason, tt.want)
			}
			if !strings.HasPrefix(answer.Text, "deterministic: ") {
				t.Fatalf("unexpected text: %q", answer.Text)
			}
		})
	}
}

func TestRespondGenerative(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{text: "Shell revenue was $80,000 million."}
	fallback := &fakeFallback{}
	r := newResponder(completer, fallback)

	answer := r.Respond(context.Background(), evidence("What is Shell's revenue?"))
	if answer.Source != SourceGenerative || fallback.calls != 0 {
		t.Fatalf("expected generative answer, got %+v", answer)
	}
	if answer.Category != domain.CategoryFinancialMetrics {
		t.Fatalf("unexpected category %s", answer.Category)
	}
	if answer.Text != "💰 Shell revenue was $80,000 million." {
		t.Fatalf("unexpected text %q", answer.Text)
	}

	req := completer.last
	if req.MaxTokens != defaultMaxTokens || req.Temperature != defaultTemperature {
		t.Fatalf("unexpected sampling parameters: %d %v", req.MaxTokens, req.Temperature)
	}
	if !strings.Contains(req.System, "For financial metrics analysis") {
		t.Fatalf("system prompt missing category focus")
	}
	for _, want := range []string{
		"User Question: What is Shell's revenue?",
		"=== AVAILABLE FINANCIAL DATA ===",
		"Shell Latest Financial Report:",
		"- Revenue: $80,000 million",
		"=== MARKET CONTEXT ===",
		"=== ANALYSIS REQUEST ===",
	} {
		if !strings.Contains(req.User, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, req.User)
		}
	}
}

func TestRespondKeepsZeroTemperature(t *testing.T) {
	t.Parallel()

	k := knowledge.MustDefault()
	completer := &fakeCompleter{text: "Shell revenue was $80,000 million."}
	zero := float32(0)
	r := New(Deps{
		Completer:   completer,
		Classifier:  classifier.New(k),
		Fallback:    &fakeFallback{},
		Knowledge:   k,
		Temperature: &zero,
	})

	r.Respond(context.Background(), evidence("What is Shell's revenue?"))
	if completer.last.Temperature != 0 {
		t.Fatalf("temperature = %v, want 0", completer.last.Temperature)
	}
}

func TestDecorateIsIdempotent(t *testing.T) {
	t.Parallel()

	decorations := knowledge.MustDefault().Decorations
	for _, category := range domain.Categories() {
		once := Decorate("Analysis body", category, decorations)
		twice := Decorate(once, category, decorations)
		if once != twice {
			t.Fatalf("%s: decoration not idempotent: %q vs %q", category, once, twice)
		}
	}

	if got := Decorate("📉 Falling output", domain.CategoryPerformance, decorations); got != "📉 Falling output" {
		t.Fatalf("existing performance marker should be kept, got %q", got)
	}
	if got := Decorate("plain", domain.CategoryGeneral, decorations); got != "plain" {
		t.Fatalf("general answers are not decorated, got %q", got)
	}
}

func TestDecoratePrefixCountsAsMarker(t *testing.T) {
	t.Parallel()

	decorations := map[domain.Category]knowledge.Decoration{
		domain.CategoryTrendAnalysis: {Prefix: "📊", Markers: []string{"📈", "📉"}},
	}
	once := Decorate("Revenue rose.", domain.CategoryTrendAnalysis, decorations)
	if once != "📊 Revenue rose." {
		t.Fatalf("once = %q", once)
	}
	if twice := Decorate(once, domain.CategoryTrendAnalysis, decorations); twice != once {
		t.Fatalf("twice = %q, want %q", twice, once)
	}
}

func TestUserPromptIncludesHistory(t *testing.T) {
	t.Parallel()

	ev := evidence("Shell revenue trend")
	ev.History = map[string]map[string][]domain.HistoryPoint{
		"Shell": {
			"net_income": {{Period: domain.Period{Quarter: "Q2", Year: 2024}, Value: 16000}},
		},
	}
	ev.Latest["Shell"] = domain.FinancialReport{
		Company:           "Shell",
		AdditionalMetrics: map[string]any{"dividend_per_share": 0.34},
	}

	prompt := UserPrompt(ev)
	for _, want := range []string{
		"=== HISTORICAL TRENDS ===",
		"- Net Income Trends:",
		"  • Q2 2024: $16,000 million",
		"  • Dividend Per Share: 0.34",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
