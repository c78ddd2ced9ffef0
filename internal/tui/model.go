// Package tui is the interactive terminal surface: a prompt input, a response
// area which follows the output and a togglable conversation history.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/baalimago/charadex/internal/controller"
	"github.com/baalimago/charadex/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const (
	EmptyResponse = "No response yet..."
	title         = "CharaDex"

	defaultWidth  = 80
	defaultHeight = 24
	chromeHeight  = 8
)

type Model struct {
	ctx  context.Context
	ctrl *controller.Controller

	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer

	response    string
	alert       string
	inFlight    bool
	showHistory bool
	width       int
	height      int
	debug       bool
}

func newModel(ctx context.Context, source models.Source, conf controller.Config, send func(tea.Msg)) Model {
	b := &bridge{send: send}
	ti := textinput.New()
	ti.Placeholder = "Ask about a pokemon..."
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		ctrl:      controller.New(source, b, b, conf),
		textinput: ti,
		viewport:  viewport.New(defaultWidth, defaultHeight-chromeHeight),
		spinner:   sp,
		debug:     misc.Truthy(os.Getenv("DEBUG")),
	}
	m.resize(defaultWidth, defaultHeight)
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			m.showHistory = !m.showHistory
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		if !m.inFlight {
			var cmd tea.Cmd
			m.textinput, cmd = m.textinput.Update(msg)
			m.ctrl.SetPrompt(m.textinput.Value())
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refresh()

	case spinner.TickMsg:
		if m.inFlight {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case renderMsg:
		m.response = string(msg)
		if !m.showHistory {
			m.refresh()
		}

	case scrollMsg:
		if !m.showHistory {
			m.viewport.GotoBottom()
		}

	case alertMsg:
		m.alert = string(msg)

	case doneMsg:
		m.inFlight = false
		if msg.err == nil {
			m.textinput.SetValue(m.ctrl.Prompt())
		} else if m.debug {
			ancli.PrintWarn(fmt.Sprintf("submit: %v\n", msg.err))
		}
		m.refresh()
	}
	return m, tea.Batch(cmds...)
}

// submit is a no-op while the input is empty or a generation is in flight.
func (m Model) submit() (tea.Model, tea.Cmd) {
	prompt := m.textinput.Value()
	if m.inFlight || prompt == "" {
		return m, nil
	}
	m.inFlight = true
	m.alert = ""
	m.showHistory = false
	ctx, ctrl := m.ctx, m.ctrl
	run := func() tea.Msg {
		return doneMsg{err: ctrl.Submit(ctx, prompt)}
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 2
	m.viewport.Height = max(height-chromeHeight, 3)
	m.textinput.Width = width - 8
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-6, 20)),
	)
	if err == nil {
		m.renderer = renderer
	}
}

// refresh sets the viewport content from the current response or history.
func (m *Model) refresh() {
	if m.showHistory {
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return
	}
	m.viewport.SetContent(m.renderResponse())
}

// Run starts the interactive surface and blocks until the user quits.
func Run(ctx context.Context, source models.Source, conf controller.Config) error {
	var p *tea.Program
	m := newModel(ctx, source, conf, func(msg tea.Msg) {
		p.Send(msg)
	})
	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run tui: %w", err)
	}
	return nil
}
