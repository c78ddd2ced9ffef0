package generic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/baalimago/charadex/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/debug"
)

var (
	dataPrefix   = []byte("data:")
	doneSentinel = []byte("[DONE]")
)

// ErrTruncatedStream is returned when the server closes the stream before
// signalling that the completion is done.
var ErrTruncatedStream = errors.New("stream closed before completion")

// Generate returns the full completion of prompt in one request.
func (s *StreamCompleter) Generate(ctx context.Context, prompt string, history []models.Message) (string, error) {
	return s.Complete(ctx, s.messages(prompt, history))
}

// GenerateStreaming streams the completion of prompt. Cancelling the returned
// stream aborts the underlying request.
func (s *StreamCompleter) GenerateStreaming(ctx context.Context, prompt string, history []models.Message) (*models.Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	events, err := s.StreamCompletions(ctx, s.messages(prompt, history))
	if err != nil {
		cancel()
		return nil, err
	}
	return models.StreamFromChannel(events, cancel), nil
}

// messages converts the conversation into the wire format. The model role is
// called 'assistant' by OpenAI compatible endpoints.
func (s *StreamCompleter) messages(prompt string, history []models.Message) []message {
	ret := make([]message, 0, len(history)+2)
	if s.SystemInstruction != "" {
		ret = append(ret, message{Role: "system", Content: s.SystemInstruction})
	}
	for _, m := range history {
		role := m.Role
		if role == models.RoleModel {
			role = "assistant"
		}
		ret = append(ret, message{Role: role, Content: m.Content})
	}
	return append(ret, message{Role: "user", Content: prompt})
}

// StreamCompletions posts msgs and emits the streamed tokens on the returned channel.
// The channel is closed once the stream is done, failed or ctx is cancelled.
func (s *StreamCompleter) StreamCompletions(ctx context.Context, msgs []message) (chan models.CompletionEvent, error) {
	res, err := s.do(ctx, msgs, true)
	if err != nil {
		return nil, err
	}
	return s.handleStreamResponse(ctx, res), nil
}

// Complete posts msgs and returns the content of the first choice.
func (s *StreamCompleter) Complete(ctx context.Context, msgs []message) (string, error) {
	res, err := s.do(ctx, msgs, false)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	var completion chatCompletion
	if err := json.NewDecoder(res.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("completion error: %v", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

func (s *StreamCompleter) do(ctx context.Context, msgs []message, stream bool) (*http.Response, error) {
	s.limiter.WaitIfNeeded(ctx)
	req, err := s.createRequest(ctx, msgs, stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	client := s.client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if err := s.limiter.UpdateFromHeaders(res.Header); err != nil && s.debug {
		ancli.PrintWarn(fmt.Sprintf("failed to update rate limits: %v\n", err))
	}
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		res.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %v, body: %v", res.Status, string(body))
	}
	return res, nil
}

func (s *StreamCompleter) createRequest(ctx context.Context, msgs []message, stream bool) (*http.Request, error) {
	reqData := req{
		Model:            s.Model,
		Messages:         msgs,
		Stream:           stream,
		FrequencyPenalty: s.FrequencyPenalty,
		MaxTokens:        s.MaxTokens,
		PresencePenalty:  s.PresencePenalty,
		Temperature:      s.Temperature,
		TopP:             s.TopP,
	}
	if s.debug {
		ancli.PrintOK(fmt.Sprintf("generic streamcompleter request: %v\n", debug.IndentedJsonFmt(reqData)))
	}
	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %v", s.apiKey))
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Connection", "keep-alive")
	}
	return req, nil
}

func (s *StreamCompleter) handleStreamResponse(ctx context.Context, res *http.Response) chan models.CompletionEvent {
	outChan := make(chan models.CompletionEvent)
	send := func(ev models.CompletionEvent) bool {
		select {
		case outChan <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	go func() {
		defer func() {
			res.Body.Close()
			close(outChan)
		}()
		br := bufio.NewReader(res.Body)
		finished := false
		for {
			line, err := br.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				ev, done := s.parseStreamChunk(line)
				finished = finished || done
				if _, isNoop := ev.(models.NoopEvent); !isNoop {
					if !send(ev) {
						return
					}
				}
				switch ev.(type) {
				case models.StopEvent, error:
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					// Some servers close the stream without the [DONE] sentinel,
					// a finish reason is then required to count it as complete
					if finished {
						send(models.StopEvent{})
						return
					}
					if s.debug {
						ancli.PrintWarn("stream closed without [DONE] or finish reason\n")
					}
					send(ErrTruncatedStream)
					return
				}
				if ctx.Err() != nil {
					return
				}
				send(fmt.Errorf("failed to read line: %w", err))
				return
			}
		}
	}()
	return outChan
}

func (s *StreamCompleter) handleStreamChunk(token []byte) models.CompletionEvent {
	ev, _ := s.parseStreamChunk(token)
	return ev
}

// parseStreamChunk converts one SSE line into an event. finished reports if
// the line ends the completion, either by sentinel or by finish reason.
func (s *StreamCompleter) parseStreamChunk(token []byte) (ev models.CompletionEvent, finished bool) {
	token = bytes.TrimSpace(token)
	// SSE comments, used as keep-alives
	if bytes.HasPrefix(token, []byte(":")) {
		return models.NoopEvent{}, false
	}
	token = bytes.TrimSpace(bytes.TrimPrefix(token, dataPrefix))
	if bytes.Equal(token, doneSentinel) {
		return models.StopEvent{}, true
	}

	if s.debug {
		ancli.PrintOK(fmt.Sprintf("token: %+v\n", string(token)))
	}
	var chunk chatCompletionChunk
	if err := json.Unmarshal(token, &chunk); err != nil {
		// Expect some failing unmarshalls, such as 'event:' lines
		if s.debug {
			ancli.PrintWarn(fmt.Sprintf("failed to unmarshal token: %v, err: %v\n", string(token), err))
		}
		return models.NoopEvent{}, false
	}
	if chunk.Error != nil {
		return fmt.Errorf("stream error: %v", chunk.Error.Message), false
	}
	if len(chunk.Choices) == 0 {
		return models.NoopEvent{}, false
	}
	// Only the first choice is rendered, n > 1 is never requested
	choice := chunk.Choices[0]
	finished = choice.FinishReason != nil && *choice.FinishReason != ""
	if choice.Delta.Content == "" {
		return models.NoopEvent{}, finished
	}
	return choice.Delta.Content, finished
}
