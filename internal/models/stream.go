package models

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Stream is an ordered sequence of text chunks produced by a StreamGenerator.
// Next returns io.EOF once the generation is complete. Cancel stops the producer,
// it's safe to call more than once and after completion.
type Stream struct {
	events <-chan CompletionEvent
	cancel context.CancelFunc

	mu   sync.Mutex
	done error
}

// Producer pushes events into a stream using emit. Emit reports false once the
// stream is cancelled, after which the producer is expected to return.
type Producer func(ctx context.Context, emit func(CompletionEvent) bool)

// NewStream starts produce in its own goroutine. The stream is closed when
// produce returns.
func NewStream(ctx context.Context, produce Producer) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	events := make(chan CompletionEvent)
	go func() {
		defer close(events)
		produce(ctx, func(ev CompletionEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()
	return &Stream{events: events, cancel: cancel}
}

// StreamFromChannel wraps an already running event channel. Cancel is invoked
// when the stream is cancelled and may be nil.
func StreamFromChannel(events <-chan CompletionEvent, cancel context.CancelFunc) *Stream {
	if cancel == nil {
		cancel = func() {}
	}
	return &Stream{events: events, cancel: cancel}
}

// StreamOf returns a stream which emits chunks, in order, and then completes.
func StreamOf(ctx context.Context, chunks ...string) *Stream {
	return NewStream(ctx, func(ctx context.Context, emit func(CompletionEvent) bool) {
		for _, c := range chunks {
			if !emit(c) {
				return
			}
		}
		emit(StopEvent{})
	})
}

// Next blocks until the next chunk is available. Once Next has returned an error,
// including io.EOF, every consecutive call returns the same error.
func (s *Stream) Next(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return "", s.done
	}
	for {
		select {
		case <-ctx.Done():
			s.done = ctx.Err()
			return "", s.done
		case ev, ok := <-s.events:
			if !ok {
				s.done = io.EOF
				return "", s.done
			}
			switch cast := ev.(type) {
			case string:
				return cast, nil
			case error:
				s.done = cast
				return "", s.done
			case StopEvent:
				s.done = io.EOF
				return "", s.done
			case NoopEvent, nil:
				continue
			default:
				s.done = fmt.Errorf("unknown completion event: %T", ev)
				return "", s.done
			}
		}
	}
}

// Cancel stops the producer.
func (s *Stream) Cancel() {
	s.cancel()
}

// Collect drains the stream and returns the concatenated chunks.
func Collect(ctx context.Context, s *Stream) (string, error) {
	defer s.Cancel()
	var sb strings.Builder
	for {
		chunk, err := s.Next(ctx)
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(chunk)
	}
}
