package ollama

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/baalimago/charadex/internal/models"
)

const probeTimeout = 3 * time.Second

func (o *Ollama) Setup() error {
	if os.Getenv("OLLAMA_API_KEY") == "" {
		os.Setenv("OLLAMA_API_KEY", "ollama")
	}
	url := o.URL
	if env := os.Getenv("OLLAMA_URL"); env != "" {
		url = env
	}
	if url == "" {
		url = ChatURL
	}
	err := o.StreamCompleter.Setup("OLLAMA_API_KEY", url, "OLLAMA_DEBUG")
	if err != nil {
		return fmt.Errorf("failed to setup stream completer: %w", err)
	}
	o.StreamCompleter.Model = strings.TrimPrefix(o.Model, "ollama:")
	o.StreamCompleter.SystemInstruction = o.SystemInstruction
	o.StreamCompleter.FrequencyPenalty = &o.FrequencyPenalty
	o.StreamCompleter.MaxTokens = o.MaxTokens
	o.StreamCompleter.PresencePenalty = &o.PresencePenalty
	o.StreamCompleter.Temperature = &o.Temperature
	o.StreamCompleter.TopP = &o.TopP
	return nil
}

// ModelsURL is the listing endpoint next to the chat completions endpoint.
func (o *Ollama) ModelsURL() string {
	base := o.StreamCompleter.URL
	if base == "" {
		base = o.URL
	}
	return strings.TrimSuffix(base, "/chat/completions") + "/models"
}

// Probe checks that the server answers. It's meant to be passed to host.Resolve.
func (o *Ollama) Probe(ctx context.Context) (models.Capability, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.ModelsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe request: %w", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach assistant: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected probe status: %v", res.Status)
	}
	return o, nil
}
