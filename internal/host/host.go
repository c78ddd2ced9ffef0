// Package host tracks the availability of a generation capability which is
// provided by the environment, such as a locally running assistant. The
// capability is discovered asynchronously at startup and may never show up.
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/baalimago/charadex/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

// ErrNotResolved is returned by Err while discovery is still running.
var ErrNotResolved = errors.New("capability not yet resolved")

// Probe attempts to find the capability. A returned error marks it unavailable.
type Probe func(ctx context.Context) (models.Capability, error)

// Provider is a models.Source whose capability may arrive later, or never.
type Provider struct {
	mu       sync.RWMutex
	cap      models.Capability
	err      error
	resolved chan struct{}
}

// Resolve starts probe in the background and returns immediately.
func Resolve(ctx context.Context, name string, probe Probe) *Provider {
	p := &Provider{resolved: make(chan struct{})}
	go func() {
		c, err := probe(ctx)
		if err == nil && c == nil {
			err = fmt.Errorf("probe for '%v' returned no capability", name)
		}
		p.mu.Lock()
		p.cap = c
		p.err = err
		p.mu.Unlock()
		close(p.resolved)
		if err != nil {
			if misc.Truthy(os.Getenv("DEBUG")) {
				ancli.PrintWarn(fmt.Sprintf("host capability '%v' unavailable: %v\n", name, err))
			}
			return
		}
		if misc.Truthy(os.Getenv("DEBUG")) {
			ancli.PrintOK(fmt.Sprintf("host capability '%v' available\n", name))
		}
	}()
	return p
}

// Static returns a Provider which is resolved with c from the start.
func Static(c models.Capability) *Provider {
	p := &Provider{cap: c, resolved: make(chan struct{})}
	if c == nil {
		p.err = errors.New("no capability configured")
	}
	close(p.resolved)
	return p
}

// Capability never blocks. It reports false until the probe has succeeded.
func (p *Provider) Capability() (models.Capability, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.err != nil || p.cap == nil {
		return nil, false
	}
	return p.cap, true
}

// Wait blocks until discovery has settled or ctx is done, then returns Err.
func (p *Provider) Wait(ctx context.Context) error {
	select {
	case <-p.resolved:
		return p.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err reports why the capability is unavailable. It's nil once available.
func (p *Provider) Err() error {
	select {
	case <-p.resolved:
	default:
		return ErrNotResolved
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}
