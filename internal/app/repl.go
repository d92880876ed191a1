package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	replBanner = `🛢️  Oil & Gas Financial Analyst
Ask about Shell, BP, ExxonMobil and Chevron quarterly results, e.g.
  "How is Chevron performing?"  "Compare Shell vs BP"  "Which company should I invest in?"
Commands: companies, refresh, exit
`
	replPrompt = "💬 > "
)

// RunInteractive reads questions from in and writes answers to out until EOF or exit.
func (a *Application) RunInteractive(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprint(out, replBanner)
	if !a.responder.Available() {
		fmt.Fprintln(out, "Generative analysis is off; answers come from the built-in analysis engine.")
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, replPrompt)
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		reply, done := a.chatbot.Handle(ctx, scanner.Text())
		if strings.TrimSpace(reply) != "" {
			fmt.Fprintf(out, "\n%s\n\n", reply)
		}
		if done {
			return nil
		}
	}

	fmt.Fprintln(out)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
