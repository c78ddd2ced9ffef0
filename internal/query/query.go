// Package query answers a single prompt on the terminal.
package query

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/baalimago/charadex/internal/controller"
	"github.com/baalimago/charadex/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

// waiter is a source whose capability is discovered in the background, such
// as a host.Provider.
type waiter interface {
	Wait(ctx context.Context) error
}

type Querier struct {
	prompt  string
	source  models.Source
	ctrl    *controller.Controller
	console *Console
}

func New(source models.Source, conf controller.Config, out io.Writer, raw bool, termWidth int, prompt string) *Querier {
	// One-shot, nothing to remember
	conf.Memory = false
	console := NewConsole(out, raw, termWidth)
	return &Querier{
		prompt:  prompt,
		source:  source,
		ctrl:    controller.New(source, console, Alerter{}, conf),
		console: console,
	}
}

// Query submits the prompt and waits for the response to be printed. The
// prompt is known at startup, so discovery of the capability is awaited first.
func (q *Querier) Query(ctx context.Context) error {
	if w, ok := q.source.(waiter); ok {
		// A failed discovery is alerted by the controller
		if err := w.Wait(ctx); err != nil && misc.Truthy(os.Getenv("DEBUG")) {
			ancli.PrintWarn(fmt.Sprintf("capability discovery: %v\n", err))
		}
	}
	err := q.ctrl.Submit(ctx, q.prompt)
	if finishErr := q.console.Finish(); finishErr != nil && err == nil {
		return fmt.Errorf("failed to finish output: %w", finishErr)
	}
	if err != nil {
		return fmt.Errorf("failed to query: %w", err)
	}
	return nil
}
