// Package ollama is the host provided assistant: a locally running Ollama
// (or any OpenAI compatible server) which may or may not be present.
package ollama

import (
	"github.com/baalimago/charadex/internal/text/generic"
)

const ChatURL = "http://localhost:11434/v1/chat/completions"

var Default = Ollama{
	Model:       "llama3",
	Temperature: 1.0,
	TopP:        1.0,
	URL:         ChatURL,
}

type Ollama struct {
	generic.StreamCompleter
	Model             string  `json:"model"`
	SystemInstruction string  `json:"system_instruction"`
	FrequencyPenalty  float64 `json:"frequency_penalty"`
	MaxTokens         *int    `json:"max_tokens"` // Use a pointer to allow null value
	PresencePenalty   float64 `json:"presence_penalty"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	URL               string  `json:"url"`
}
