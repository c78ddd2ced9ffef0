package models

import "context"

// CompletionEvent is emitted by streaming vendors. It's either a string (a chunk of text),
// an error, a StopEvent or a NoopEvent.
type CompletionEvent any

// StopEvent signals that the generation is complete.
type StopEvent struct{}

// NoopEvent is emitted for stream lines which carry no text, such as keep-alives.
type NoopEvent struct{}

// Generator produces a full response in one call.
type Generator interface {
	Generate(ctx context.Context, prompt string, history []Message) (string, error)
}

// StreamGenerator produces a response incrementally.
type StreamGenerator interface {
	GenerateStreaming(ctx context.Context, prompt string, history []Message) (*Stream, error)
}

// Capability is a generation session owned by someone else: a cloud SDK client or
// an assistant provided by the host. Consumers hold a reference, never close it.
type Capability interface {
	Generator
	StreamGenerator
}

// Source reports if a Capability is available right now.
type Source interface {
	Capability() (Capability, bool)
}
