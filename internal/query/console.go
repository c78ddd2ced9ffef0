package query

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/baalimago/charadex/internal/utils"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/charmbracelet/glamour"
)

// Console is a controller display which writes to a terminal. Streamed
// responses are printed as they grow. A response which doesn't extend what has
// been printed, such as the failure message, is printed on a new line.
type Console struct {
	out       io.Writer
	raw       bool
	termWidth int

	mu       sync.Mutex
	printed  string
	response string
}

func NewConsole(out io.Writer, raw bool, termWidth int) *Console {
	return &Console{
		out:       out,
		raw:       raw,
		termWidth: termWidth,
	}
}

func (c *Console) Render(response string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.HasPrefix(response, c.response) {
		c.write(response[len(c.response):])
	} else {
		if c.printed != "" && !strings.HasSuffix(c.printed, "\n") {
			c.write("\n")
		}
		c.write(response)
	}
	c.response = response
}

func (c *Console) write(s string) {
	fmt.Fprint(c.out, s)
	c.printed += s
}

func (c *Console) ScrollToBottom() {}

// Finish terminates the output. Unless raw, the printed text is cleared and
// the final response is re-rendered as markdown.
func (c *Console) Finish() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.printed == "" {
		return nil
	}
	if c.raw || c.termWidth <= 0 {
		fmt.Fprintln(c.out)
		return nil
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(c.termWidth),
	)
	if err != nil {
		fmt.Fprintln(c.out)
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(c.response)
	if err != nil {
		fmt.Fprintln(c.out)
		return fmt.Errorf("failed to render response: %w", err)
	}
	utils.ClearTermTo(c.out, c.termWidth, utils.CountLines(c.printed, c.termWidth)-1)
	fmt.Fprint(c.out, rendered)
	return nil
}

// Alerter prints alerts on stderr.
type Alerter struct{}

func (Alerter) Alert(msg string) {
	ancli.PrintErr(msg + "\n")
}
