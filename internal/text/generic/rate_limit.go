package generic

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

// defaultMinRemaining is the amount of remaining tokens below which requests are paused.
const defaultMinRemaining = 50

// RateLimiter parses vendor rate limit headers and pauses requests when the
// remaining token budget runs low. The zero value never pauses.
type RateLimiter struct {
	remainingHeader string
	resetHeader     string
	minRemaining    int

	mu              *sync.Mutex
	remainingTokens int
	resetTokens     time.Time

	debug bool
}

// NewRateLimiter creates a limiter using the provided header names.
func NewRateLimiter(remainingHeader, resetHeader string) RateLimiter {
	return RateLimiter{
		remainingHeader: strings.ToLower(remainingHeader),
		resetHeader:     strings.ToLower(resetHeader),
		minRemaining:    defaultMinRemaining,
		mu:              &sync.Mutex{},
		debug:           misc.Truthy(os.Getenv("DEBUG")) || misc.Truthy(os.Getenv("DEBUG_RATE_LIMIT")),
	}
}

// UpdateFromHeaders extracts rate limit information from a response, resetting
// previous values. Missing or malformed headers are reported as errors.
func (r *RateLimiter) UpdateFromHeaders(h http.Header) error {
	if r.remainingHeader == "" || r.resetHeader == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remainingTokens = 0
	r.resetTokens = time.Time{}

	remStr := h.Get(r.remainingHeader)
	if remStr == "" {
		return fmt.Errorf("missing header '%s'", r.remainingHeader)
	}
	rem, err := strconv.Atoi(remStr)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", r.remainingHeader, err)
	}
	r.remainingTokens = rem

	resetStr := h.Get(r.resetHeader)
	if resetStr == "" {
		return fmt.Errorf("missing header '%s'", r.resetHeader)
	}
	reset, err := parseReset(resetStr)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", r.resetHeader, err)
	}
	r.resetTokens = reset
	return nil
}

// parseReset accepts a duration ("2s"), a unix timestamp or fractional seconds.
func parseReset(s string) (time.Time, error) {
	if dur, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(dur), nil
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(ts, 0), nil
	}
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Now().Add(time.Duration(sec * float64(time.Second))), nil
	}
	return time.Time{}, fmt.Errorf("unknown reset format: '%v'", s)
}

// WaitIfNeeded pauses until the reset time when close to the limit, or until ctx is done.
func (r *RateLimiter) WaitIfNeeded(ctx context.Context) {
	if r.remainingHeader == "" {
		return
	}
	r.mu.Lock()
	remaining, reset := r.remainingTokens, r.resetTokens
	r.mu.Unlock()
	if remaining > r.minRemaining || reset.IsZero() {
		return
	}

	waitDuration := time.Until(reset)
	if waitDuration <= 0 {
		return
	}
	if r.debug {
		ancli.PrintWarn(fmt.Sprintf("rate limit reached, waiting %v\n", waitDuration.Round(time.Second)))
	}
	timer := time.NewTimer(waitDuration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
