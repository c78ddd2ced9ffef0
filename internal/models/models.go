package models

import (
	"context"
)

const (
	RoleUser   = "user"
	RoleModel  = "model"
	RoleSystem = "system"
)

// Querier is the entrypoint of each command. Query blocks until the command is done.
type Querier interface {
	Query(ctx context.Context) error
}

// Message is one entry of a conversation. Role is either RoleUser or RoleModel,
// RoleSystem is only used when a vendor needs the system instruction inlined.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turn returns the user/model pair which is appended to a conversation
// after a completed generation.
func Turn(prompt, response string) []Message {
	return []Message{
		{Role: RoleUser, Content: prompt},
		{Role: RoleModel, Content: response},
	}
}

// CopyMessages returns a copy of msgs which is safe to hand to another goroutine.
func CopyMessages(msgs []Message) []Message {
	if len(msgs) == 0 {
		return nil
	}
	cpy := make([]Message, len(msgs))
	copy(cpy, msgs)
	return cpy
}
