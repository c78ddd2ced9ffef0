package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/baalimago/charadex/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "charadex:session:"

// Redis keeps each conversation as a list of JSON encoded entries.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to url, for instance redis://localhost:6379/0.
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func (r *Redis) Load(ctx context.Context, id string) ([]models.Message, error) {
	if id == "" {
		return nil, ErrNoID
	}
	raw, err := r.client.LRange(ctx, sessionKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	ret := make([]models.Message, 0, len(raw))
	for _, entry := range raw {
		var msg models.Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal session entry: %w", err)
		}
		ret = append(ret, msg)
	}
	return ret, nil
}

func (r *Redis) Append(ctx context.Context, id string, msgs ...models.Message) error {
	if id == "" {
		return ErrNoID
	}
	if len(msgs) == 0 {
		return nil
	}
	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		b, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal session entry: %w", err)
		}
		values = append(values, b)
	}
	key := sessionKey(id)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	return nil
}

func (r *Redis) Reset(ctx context.Context, id string) error {
	if id == "" {
		return ErrNoID
	}
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
