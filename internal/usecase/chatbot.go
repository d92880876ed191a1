package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/ports"
	"EnergyAnalyst/internal/responder"
)

// Answerer produces the final answer for assembled evidence.
type Answerer interface {
	Respond(ctx context.Context, evidence domain.EvidenceBundle) responder.Answer
}

// ChatbotDeps wires the collaborators of the question pipeline.
type ChatbotDeps struct {
	Assembler *ContextAssembler
	Answerer  Answerer
	Refresher *Refresher
	Store     ports.ReportReader
	Logger    *slog.Logger
}

// Chatbot routes bare commands and sends everything else through the pipeline.
type Chatbot struct {
	assembler *ContextAssembler
	answerer  Answerer
	refresher *Refresher
	store     ports.ReportReader
	logger    *slog.Logger
}

// NewChatbot constructs the command router.
func NewChatbot(deps ChatbotDeps) *Chatbot {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chatbot{
		assembler: deps.Assembler,
		answerer:  deps.Answerer,
		refresher: deps.Refresher,
		store:     deps.Store,
		logger:    logger,
	}
}

// Handle processes one line of input. done is true when the session should end.
func (c *Chatbot) Handle(ctx context.Context, input string) (reply string, done bool) {
	line := strings.TrimSpace(input)
	switch strings.ToLower(line) {
	case "":
		return "", false
	case "exit", "quit":
		return "Goodbye!", true
	case "refresh":
		return c.refresh(ctx), false
	case "companies":
		return c.companies(ctx), false
	}
	return c.Ask(ctx, line), false
}

// Ask runs a question through context assembly and the responder.
func (c *Chatbot) Ask(ctx context.Context, question string) string {
	logger := c.logger.With("query_id", uuid.NewString())
	logger.Debug("question received", "question", question)

	evidence := c.assembler.Assemble(ctx, question)
	answer := c.answerer.Respond(ctx, evidence)

	attrs := []any{
		"category", answer.Category,
		"source", answer.Source,
		"companies", len(evidence.RelevantCompanies),
		"reports", len(evidence.Latest),
	}
	if answer.FallbackReason != nil {
		attrs = append(attrs, "fallback_reason", answer.FallbackReason)
	}
	logger.Info("question answered", attrs...)

	return answer.Text
}

func (c *Chatbot) refresh(ctx context.Context) string {
	if c.refresher == nil {
		return "Refresh is not available."
	}
	report := c.refresher.RefreshAll(ctx)

	var b strings.Builder
	fmt.Fprintf(&b, "Refreshed %d of %d companies.", len(report.Updated), len(report.Updated)+len(report.Failures))
	if report.Failed() {
		failed := make([]string, 0, len(report.Failures))
		for company := range report.Failures {
			failed = append(failed, company)
		}
		sort.Strings(failed)
		fmt.Fprintf(&b, " No new data for: %s.", strings.Join(failed, ", "))
	}
	return b.String()
}

func (c *Chatbot) companies(ctx context.Context) string {
	companies, err := c.store.ListCompanies(ctx)
	if err != nil {
		c.logger.Error("list companies", "error", err)
		return "Company list is unavailable right now."
	}

	names := make([]string, 0, len(companies))
	for _, company := range companies {
		names = append(names, company.Name)
	}
	return "Tracked companies: " + strings.Join(names, ", ")
}
