// Package gemini is the cloud generation capability, backed by the Google
// generative AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/baalimago/charadex/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/debug"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var Default = Gemini{
	Model:       "gemini-1.5-flash-8b",
	Temperature: 1.0,
	TopP:        0.95,
}

type Gemini struct {
	Model             string  `json:"model"`
	SystemInstruction string  `json:"system_instruction"`
	MaxTokens         *int32  `json:"max_tokens"` // Use a pointer to allow null value
	Temperature       float32 `json:"temperature"`
	TopP              float32 `json:"top_p"`
	// Endpoint overrides the API endpoint, empty means the SDK default.
	Endpoint string `json:"endpoint,omitempty"`

	client *genai.Client
	sender sender
	debug  bool
}

type responseIterator interface {
	Next() (*genai.GenerateContentResponse, error)
}

// sender is the subset of the SDK which is in use.
type sender interface {
	send(ctx context.Context, prompt string, history []models.Message) (*genai.GenerateContentResponse, error)
	stream(ctx context.Context, prompt string, history []models.Message) responseIterator
}

// Setup creates the SDK client. The client is owned by Gemini, release it with Close.
func (g *Gemini) Setup(ctx context.Context) error {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return errors.New("environment variable 'GEMINI_API_KEY' not set")
	}
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if g.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}
	g.client = client
	g.sender = sdkSender{model: g.generativeModel(client)}
	g.debug = misc.Truthy(os.Getenv("DEBUG")) || misc.Truthy(os.Getenv("GEMINI_DEBUG"))
	if g.debug {
		ancli.PrintOK(fmt.Sprintf("gemini setup: %v\n", debug.IndentedJsonFmt(g)))
	}
	return nil
}

func (g *Gemini) generativeModel(client *genai.Client) *genai.GenerativeModel {
	model := client.GenerativeModel(g.Model)
	model.SetTemperature(g.Temperature)
	model.SetTopP(g.TopP)
	if g.MaxTokens != nil {
		model.SetMaxOutputTokens(*g.MaxTokens)
	}
	if g.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(g.SystemInstruction)},
		}
	}
	return model
}

func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *Gemini) Generate(ctx context.Context, prompt string, history []models.Message) (string, error) {
	if g.sender == nil {
		return "", errors.New("gemini is not setup")
	}
	resp, err := g.sender.send(ctx, prompt, history)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return responseText(resp), nil
}

func (g *Gemini) GenerateStreaming(ctx context.Context, prompt string, history []models.Message) (*models.Stream, error) {
	if g.sender == nil {
		return nil, errors.New("gemini is not setup")
	}
	return models.NewStream(ctx, func(ctx context.Context, emit func(models.CompletionEvent) bool) {
		it := g.sender.stream(ctx, prompt, history)
		for {
			resp, err := it.Next()
			if errors.Is(err, iterator.Done) {
				emit(models.StopEvent{})
				return
			}
			if err != nil {
				emit(fmt.Errorf("failed to stream content: %w", err))
				return
			}
			text := responseText(resp)
			if g.debug {
				ancli.PrintOK(fmt.Sprintf("gemini chunk: %q\n", text))
			}
			if text == "" {
				continue
			}
			if !emit(text) {
				return
			}
		}
	}), nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// toContents converts the conversation into SDK history. Roles already match,
// system entries are dropped since the instruction is set on the model.
func toContents(history []models.Message) []*genai.Content {
	ret := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		if m.Role != models.RoleUser && m.Role != models.RoleModel {
			continue
		}
		ret = append(ret, &genai.Content{
			Role:  m.Role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return ret
}

type sdkSender struct {
	model *genai.GenerativeModel
}

func (s sdkSender) send(ctx context.Context, prompt string, history []models.Message) (*genai.GenerateContentResponse, error) {
	if len(history) == 0 {
		return s.model.GenerateContent(ctx, genai.Text(prompt))
	}
	cs := s.model.StartChat()
	cs.History = toContents(history)
	return cs.SendMessage(ctx, genai.Text(prompt))
}

func (s sdkSender) stream(ctx context.Context, prompt string, history []models.Message) responseIterator {
	if len(history) == 0 {
		return s.model.GenerateContentStream(ctx, genai.Text(prompt))
	}
	cs := s.model.StartChat()
	cs.History = toContents(history)
	return cs.SendMessageStream(ctx, genai.Text(prompt))
}
