package generic

import (
	"net/http"
)

// StreamCompleter talks to any OpenAI compatible chat completions endpoint,
// such as a locally hosted Ollama.
type StreamCompleter struct {
	Model            string
	FrequencyPenalty *float64
	MaxTokens        *int
	PresencePenalty  *float64
	Temperature      *float64
	TopP             *float64
	// SystemInstruction is sent as the first message of every request.
	SystemInstruction string
	URL               string
	client            *http.Client
	apiKey            string
	limiter           RateLimiter
	debug             bool
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionChunk struct {
	ID      string    `json:"id"`
	Object  string    `json:"object"`
	Created int       `json:"created"`
	Model   string    `json:"model"`
	Choices []Choice  `json:"choices"`
	Error   *apiError `json:"error,omitempty"`
}

type Choice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	Message      Delta   `json:"message"`
	FinishReason *string `json:"finish_reason"`
}

type Delta struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

type chatCompletion struct {
	ID      string    `json:"id"`
	Choices []Choice  `json:"choices"`
	Error   *apiError `json:"error,omitempty"`
}

type req struct {
	Model            string    `json:"model,omitempty"`
	Messages         []message `json:"messages,omitempty"`
	Stream           bool      `json:"stream"`
	FrequencyPenalty *float64  `json:"frequency_penalty,omitempty"`
	MaxTokens        *int      `json:"max_tokens,omitempty"`
	PresencePenalty  *float64  `json:"presence_penalty,omitempty"`
	Temperature      *float64  `json:"temperature,omitempty"`
	TopP             *float64  `json:"top_p,omitempty"`
}
