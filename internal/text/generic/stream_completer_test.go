package generic

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/baalimago/charadex/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

func isNoop(ev any) bool {
	_, ok := ev.(models.NoopEvent)
	return ok
}

// roundTripFunc allows injecting errors in http.Client
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func sseServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl, _ := w.(http.Flusher)
		for _, l := range lines {
			fmt.Fprintf(w, "%s\n", l)
			if fl != nil {
				fl.Flush()
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestStreamCompletions_DoError(t *testing.T) {
	s := &StreamCompleter{client: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("boom")
	})}, apiKey: "k", URL: "http://example.invalid"}

	_, err := s.GenerateStreaming(context.Background(), "x", nil)
	if err == nil || !strings.Contains(err.Error(), "failed to execute request") {
		t.Fatalf("expected execute request error, got: %v", err)
	}
}

func TestStreamCompletions_Non200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_, _ = w.Write([]byte("bad"))
	}))
	defer ts.Close()
	s := &StreamCompleter{client: ts.Client(), apiKey: "k", URL: ts.URL}

	_, err := s.GenerateStreaming(context.Background(), "x", nil)
	if err == nil || !strings.Contains(err.Error(), "unexpected status code") {
		t.Fatalf("expected non-200 error, got: %v", err)
	}
}

func TestGenerateStreaming_HappyPath(t *testing.T) {
	ts := sseServer(t,
		`: keep-alive`,
		`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: [DONE]`,
	)
	s := &StreamCompleter{client: ts.Client(), apiKey: "k", URL: ts.URL}
	stream, err := s.GenerateStreaming(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	var got []string
	for {
		chunk, err := stream.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		got = append(got, chunk)
	}
	testboil.FailTestIfDiff(t, strings.Join(got, "|"), "Hel|lo")
}

func TestGenerateStreaming_EOFWithoutDoneIsTruncated(t *testing.T) {
	ts := sseServer(t, `data: {"choices":[{"delta":{"content":"only"}}]}`)
	s := &StreamCompleter{client: ts.Client(), URL: ts.URL}
	stream, err := s.GenerateStreaming(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_, err = models.Collect(context.Background(), stream)
	if !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got: %v", err)
	}
}

func TestGenerateStreaming_EOFAfterFinishReason(t *testing.T) {
	ts := sseServer(t,
		`data: {"choices":[{"delta":{"content":"only"}}]}`,
		`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
	)
	s := &StreamCompleter{client: ts.Client(), URL: ts.URL}
	stream, err := s.GenerateStreaming(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, err := models.Collect(context.Background(), stream)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	testboil.FailTestIfDiff(t, got, "only")
}

func TestGenerateStreaming_StreamError(t *testing.T) {
	ts := sseServer(t,
		`data: {"choices":[{"delta":{"content":"part"}}]}`,
		`data: {"error":{"message":"overloaded"}}`,
	)
	s := &StreamCompleter{client: ts.Client(), URL: ts.URL}
	stream, err := s.GenerateStreaming(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_, err = models.Collect(context.Background(), stream)
	if err == nil || !strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("expected stream error, got: %v", err)
	}
}

func TestGenerate_NonStreaming(t *testing.T) {
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"full"}}]}`)
	}))
	defer ts.Close()
	s := &StreamCompleter{client: ts.Client(), URL: ts.URL, Model: "llama3"}
	got, err := s.Generate(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	testboil.FailTestIfDiff(t, got, "full")
	if v, ok := gotBody["stream"].(bool); !ok || v {
		t.Fatalf("expected stream=false, got: %T %v", gotBody["stream"], gotBody["stream"])
	}
}

func TestGenerate_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer ts.Close()
	s := &StreamCompleter{client: ts.Client(), URL: ts.URL}
	got, err := s.Generate(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	testboil.FailTestIfDiff(t, got, "")
}

func TestMessages_MapsRolesAndSystemInstruction(t *testing.T) {
	s := &StreamCompleter{SystemInstruction: "be brief"}
	got := s.messages("now", []models.Message{
		{Role: models.RoleUser, Content: "before"},
		{Role: models.RoleModel, Content: "answer"},
	})
	want := []message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "before"},
		{Role: "assistant", Content: "answer"},
		{Role: "user", Content: "now"},
	}
	testboil.FailTestIfDiff(t, len(got), len(want))
	for i := range want {
		testboil.FailTestIfDiff(t, got[i], want[i])
	}
}

func TestCreateRequest_BodyAndHeaders(t *testing.T) {
	temp, top, max := 0.5, 0.9, 123
	s := &StreamCompleter{
		Model:       "m",
		Temperature: &temp,
		TopP:        &top,
		MaxTokens:   &max,
		apiKey:      "sekret",
		URL:         "http://example.invalid",
	}
	httpReq, err := s.createRequest(context.Background(), s.messages("c", nil), true)
	if err != nil {
		t.Fatalf("createRequest err: %v", err)
	}
	if got := httpReq.Header.Get("Authorization"); got != "Bearer sekret" {
		t.Fatalf("bad auth header: %q", got)
	}
	if got := httpReq.Header.Get("Accept"); got != "text/event-stream" {
		t.Fatalf("bad accept: %q", got)
	}

	b, _ := io.ReadAll(httpReq.Body)
	var body map[string]any
	if err := json.Unmarshal(b, &body); err != nil {
		t.Fatalf("unmarshal body: %v\nbody=%s", err, string(b))
	}
	if v, ok := body["stream"].(bool); !ok || !v {
		t.Fatalf("expected stream=true, got: %T %v", body["stream"], body["stream"])
	}
	if v, ok := body["model"].(string); !ok || v != s.Model {
		t.Fatalf("model mismatch: %v", body["model"])
	}
	if v, ok := body["temperature"].(float64); !ok || v != temp {
		t.Fatalf("temp mismatch: %v", body["temperature"])
	}
	if v, ok := body["max_tokens"].(float64); !ok || int(v) != max {
		t.Fatalf("max mismatch: %v", body["max_tokens"])
	}
	if _, ok := body["frequency_penalty"]; ok {
		t.Fatal("expected nil frequency_penalty to be omitted")
	}
}

func TestCreateRequest_NoAuthWithoutKey(t *testing.T) {
	s := &StreamCompleter{URL: "http://example.invalid"}
	httpReq, err := s.createRequest(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("createRequest err: %v", err)
	}
	if got := httpReq.Header.Get("Authorization"); got != "" {
		t.Fatalf("expected no auth header, got: %q", got)
	}
}

func TestHandleStreamResponse_ReadError(t *testing.T) {
	pr, pw := io.Pipe()
	res := &http.Response{StatusCode: 200, Body: pr}
	s := &StreamCompleter{}
	out := s.handleStreamResponse(context.Background(), res)

	go func() {
		bw := bufio.NewWriter(pw)
		fmt.Fprintf(bw, "data: %s\n", `{"choices":[{"delta":{"content":"first"}}]}`)
		bw.Flush()
		pw.CloseWithError(errors.New("connection reset"))
	}()

	select {
	case ev := <-out:
		if str, ok := ev.(string); !ok || str != "first" {
			t.Fatalf("expected 'first', got: %T %v", ev, ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for first event")
	}
	select {
	case ev := <-out:
		if _, ok := ev.(error); !ok {
			t.Fatalf("expected error event, got: %T %v", ev, ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error event")
	}
	if _, ok := <-out; ok {
		t.Fatal("expected channel to be closed")
	}
}

func TestHandleStreamResponse_StopsOnContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	res := &http.Response{StatusCode: 200, Body: pr}
	s := &StreamCompleter{}
	ctx, cancel := context.WithCancel(context.Background())
	out := s.handleStreamResponse(ctx, res)
	go func() {
		fmt.Fprintf(pw, "data: %s\n", `{"choices":[{"delta":{"content":"never read"}}]}`)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	pw.Close()
	select {
	case _, ok := <-out:
		if ok {
			// the pending event may be dropped or delivered, the channel must close after
			for range out {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestHandleStreamChunk(t *testing.T) {
	s := &StreamCompleter{}
	if ev := s.handleStreamChunk([]byte("data: [DONE]\n")); ev != (models.StopEvent{}) {
		t.Fatalf("expected StopEvent, got: %T %v", ev, ev)
	}
	if ev := s.handleStreamChunk([]byte("data: not json\n")); !isNoop(ev) {
		t.Fatalf("expected Noop for bad json, got: %T %v", ev, ev)
	}
	if ev := s.handleStreamChunk([]byte("data: {\"choices\":[]}\n")); !isNoop(ev) {
		t.Fatalf("expected Noop for empty choices, got: %T %v", ev, ev)
	}
	if ev := s.handleStreamChunk([]byte("data:{\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n")); ev != "hi" {
		t.Fatalf("expected 'hi' without space after prefix, got: %T %v", ev, ev)
	}
}

func TestParseStreamChunk_Finished(t *testing.T) {
	s := &StreamCompleter{}
	tcs := []struct {
		line         string
		wantFinished bool
	}{
		{"data: [DONE]", true},
		{`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`, true},
		{`data: {"choices":[{"delta":{"content":"bye"},"finish_reason":"length"}]}`, true},
		{`data: {"choices":[{"delta":{"content":"hi"},"finish_reason":null}]}`, false},
		{`data: {"choices":[{"delta":{"content":"hi"}}]}`, false},
		{": keep-alive", false},
	}
	for _, tc := range tcs {
		t.Run(tc.line, func(t *testing.T) {
			_, got := s.parseStreamChunk([]byte(tc.line))
			testboil.FailTestIfDiff(t, got, tc.wantFinished)
		})
	}
}
