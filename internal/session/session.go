// Package session stores the conversation of each web client.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/baalimago/charadex/internal/models"
)

var ErrNoID = errors.New("session id required")

// DefaultTTL is how long a conversation is kept after its last change.
const DefaultTTL = 24 * time.Hour

// Store is an append-only conversation store keyed by session id.
type Store interface {
	// Load returns the conversation, or an empty one if the session is unknown.
	Load(ctx context.Context, id string) ([]models.Message, error)
	Append(ctx context.Context, id string, msgs ...models.Message) error
	Reset(ctx context.Context, id string) error
	Close() error
}
