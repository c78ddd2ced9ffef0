package tui

import (
	"strings"

	"github.com/baalimago/charadex/internal/controller"
	"github.com/baalimago/charadex/internal/models"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	var sb strings.Builder
	header := titleStyle.Render(title)
	if m.showHistory {
		header += " " + mutedStyle.Render("history")
	}
	sb.WriteString(header)
	sb.WriteString("\n\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.statusLine())
	sb.WriteString("\n")
	sb.WriteString(inputStyle.Render(m.textinput.View()))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(m.helpLine()))
	return sb.String()
}

func (m Model) statusLine() string {
	switch {
	case m.alert != "":
		return alertStyle.Render(m.alert)
	case m.inFlight:
		return m.spinner.View() + " " + mutedStyle.Render(controller.Placeholder)
	default:
		return ""
	}
}

func (m Model) helpLine() string {
	submit := "enter: generate"
	if m.inFlight || m.textinput.Value() == "" {
		submit = mutedStyle.Strikethrough(true).Render(submit)
	}
	return submit + " • tab: history • pgup/pgdn: scroll • esc: quit"
}

func (m Model) renderResponse() string {
	if m.response == "" {
		return mutedStyle.Render(EmptyResponse)
	}
	if m.renderer == nil {
		return m.response
	}
	rendered, err := m.renderer.Render(m.response)
	if err != nil {
		return m.response
	}
	return rendered
}

// renderHistory renders the conversation as bubbles, the user to the right and
// the model to the left.
func (m Model) renderHistory() string {
	history := m.ctrl.History()
	if len(history) == 0 {
		return mutedStyle.Render("No conversation yet.")
	}
	width := m.viewport.Width
	bubbleWidth := max(width*2/3, 10)
	var sb strings.Builder
	for _, msg := range history {
		if msg.Role == models.RoleUser {
			bubble := userBubble.Width(bubbleWidth).Render(msg.Content)
			sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble))
		} else {
			bubble := modelBubble.Width(bubbleWidth).Render(msg.Content)
			sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Left, bubble))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
