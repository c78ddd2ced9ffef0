// Package controller holds the prompt, the response and the conversation of one
// user, and drives a generation capability to fill the response.
//
// A Controller moves Idle -> Streaming -> Idle|Failed for streaming capabilities
// and Idle -> Pending -> Idle|Failed otherwise. A failed controller becomes
// Idle again on the next Submit.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/baalimago/charadex/internal/metrics"
	"github.com/baalimago/charadex/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

var (
	ErrEmptyPrompt = errors.New("empty prompt")
	ErrUnavailable = errors.New("generation capability unavailable")
	ErrBusy        = errors.New("generation already in flight")
)

const (
	EmptyPromptAlert     = "Please enter a prompt"
	UnavailableAlert     = "The assistant is not available in this environment."
	Placeholder          = "Generating response..."
	FailureMessage       = "Error generating response. Please try again."
	EmptyResponseMessage = "No response received from the model."
)

type State int

const (
	Idle State = iota
	Pending
	Streaming
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Streaming:
		return "streaming"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Display renders the response area of a surface.
type Display interface {
	Render(response string)
	// ScrollToBottom is called after each applied chunk so the view follows
	// the growing output.
	ScrollToBottom()
}

// Alerter surfaces blocking, user facing messages.
type Alerter interface {
	Alert(msg string)
}

type Config struct {
	// Vendor is only used to label metrics.
	Vendor    string
	Streaming bool
	// Memory sends the accumulated conversation with every prompt and appends
	// each completed turn to it.
	Memory               bool
	Placeholder          string
	FailureMessage       string
	EmptyResponseMessage string
	Metrics              metrics.Recorder
	// OnTurn, when set, receives the user and model entries of every completed
	// turn. Only called when Memory is enabled.
	OnTurn func(turn []models.Message)
}

type Controller struct {
	conf    Config
	source  models.Source
	display Display
	alerter Alerter
	debug   bool

	mu       sync.Mutex
	prompt   string
	response string
	history  []models.Message
	state    State
	inFlight bool
}

func New(source models.Source, display Display, alerter Alerter, conf Config) *Controller {
	if conf.Placeholder == "" {
		conf.Placeholder = Placeholder
	}
	if conf.FailureMessage == "" {
		conf.FailureMessage = FailureMessage
	}
	if conf.EmptyResponseMessage == "" {
		conf.EmptyResponseMessage = EmptyResponseMessage
	}
	if conf.Metrics == nil {
		conf.Metrics = metrics.Noop{}
	}
	if display == nil {
		display = nopDisplay{}
	}
	return &Controller{
		conf:    conf,
		source:  source,
		display: display,
		alerter: alerter,
		debug:   misc.Truthy(os.Getenv("DEBUG")),
	}
}

// Submit generates a response for prompt. Blocking operation, the returned error
// is informational: the display has already been updated to reflect it.
func (c *Controller) Submit(ctx context.Context, prompt string) error {
	if prompt == "" {
		c.alert(EmptyPromptAlert)
		return ErrEmptyPrompt
	}
	capability, ok := c.source.Capability()
	if !ok {
		c.conf.Metrics.IncCompleted(c.conf.Vendor, metrics.StatusUnavailable)
		c.alert(UnavailableAlert)
		return ErrUnavailable
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.conf.Metrics.IncCompleted(c.conf.Vendor, metrics.StatusRejected)
		return ErrBusy
	}
	c.inFlight = true
	c.prompt = prompt
	var history []models.Message
	if c.conf.Memory {
		history = models.CopyMessages(c.history)
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	c.conf.Metrics.IncSubmitted(c.conf.Vendor)
	start := time.Now()
	defer func() {
		c.conf.Metrics.ObserveDuration(c.conf.Vendor, time.Since(start).Seconds())
	}()

	if c.conf.Streaming {
		return c.stream(ctx, capability, prompt, history)
	}
	return c.generate(ctx, capability, prompt, history)
}

func (c *Controller) stream(ctx context.Context, capability models.Capability, prompt string, history []models.Message) error {
	c.begin(Streaming, "")
	s, err := capability.GenerateStreaming(ctx, prompt, history)
	if err != nil {
		c.OnError(err)
		return fmt.Errorf("failed to start stream: %w", err)
	}
	defer s.Cancel()
	for {
		chunk, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			c.OnComplete(prompt)
			return nil
		}
		if err != nil {
			c.OnError(err)
			return fmt.Errorf("failed to receive chunk: %w", err)
		}
		c.OnChunk(chunk)
	}
}

func (c *Controller) generate(ctx context.Context, capability models.Capability, prompt string, history []models.Message) error {
	c.begin(Pending, c.conf.Placeholder)
	text, err := capability.Generate(ctx, prompt, history)
	if err != nil {
		c.OnError(err)
		return fmt.Errorf("failed to generate: %w", err)
	}
	if text == "" {
		text = c.conf.EmptyResponseMessage
	}
	c.mu.Lock()
	c.response = text
	c.mu.Unlock()
	c.display.Render(text)
	c.display.ScrollToBottom()
	c.OnComplete(prompt)
	return nil
}

func (c *Controller) begin(state State, response string) {
	c.mu.Lock()
	c.state = state
	c.response = response
	c.mu.Unlock()
	c.display.Render(response)
}

// OnChunk appends chunk to the response and renders it.
func (c *Controller) OnChunk(chunk string) {
	c.mu.Lock()
	c.response += chunk
	snapshot := c.response
	c.mu.Unlock()
	c.conf.Metrics.AddChunks(c.conf.Vendor, 1)
	c.display.Render(snapshot)
	c.display.ScrollToBottom()
}

// OnComplete records the finished turn and clears the prompt.
func (c *Controller) OnComplete(prompt string) {
	c.mu.Lock()
	var turn []models.Message
	if c.conf.Memory {
		turn = models.Turn(prompt, c.response)
		c.history = append(c.history, turn...)
	}
	c.prompt = ""
	c.state = Idle
	c.mu.Unlock()
	c.conf.Metrics.IncCompleted(c.conf.Vendor, metrics.StatusOK)
	if turn != nil && c.conf.OnTurn != nil {
		c.conf.OnTurn(turn)
	}
}

// OnError replaces the response with the failure message. Whatever was streamed
// before the failure is discarded.
func (c *Controller) OnError(err error) {
	c.mu.Lock()
	c.response = c.conf.FailureMessage
	c.state = Failed
	snapshot := c.response
	c.mu.Unlock()
	c.conf.Metrics.IncCompleted(c.conf.Vendor, metrics.StatusFailed)
	if c.debug {
		ancli.PrintWarn(fmt.Sprintf("generation failed: %v\n", err))
	}
	c.display.Render(snapshot)
}

func (c *Controller) alert(msg string) {
	if c.alerter == nil {
		ancli.PrintErr(msg + "\n")
		return
	}
	c.alerter.Alert(msg)
}

func (c *Controller) SetPrompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = prompt
}

func (c *Controller) Prompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

// CanSubmit mirrors the submit control: enabled whenever the prompt is non-empty.
func (c *Controller) CanSubmit() bool {
	return c.Prompt() != ""
}

func (c *Controller) Response() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.response
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns a copy of the conversation.
func (c *Controller) History() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CopyMessages(c.history)
}

// SetHistory seeds the conversation, for instance from a stored session.
func (c *Controller) SetHistory(history []models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = models.CopyMessages(history)
}

// ResetHistory drops the conversation and the current response.
func (c *Controller) ResetHistory() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrBusy
	}
	c.history = nil
	c.response = ""
	c.state = Idle
	return nil
}

type nopDisplay struct{}

func (nopDisplay) Render(string)   {}
func (nopDisplay) ScrollToBottom() {}
