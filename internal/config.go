package internal

import (
	"fmt"
	"os"
	"time"

	"github.com/baalimago/charadex/internal/session"
)

const (
	VendorGemini = "gemini"
	VendorOllama = "ollama"
	VendorMock   = "mock"
)

// Config is the surface configuration, stored as config.json. Booleans are
// phrased so that false is the default, which keeps default merging from
// overwriting a disabled setting.
type Config struct {
	Vendor   string `json:"vendor"`
	Raw      bool   `json:"raw"`
	NoStream bool   `json:"no_stream"`
	NoMemory bool   `json:"no_memory"`
	Addr     string `json:"addr"`
	// RatePerSecond and RateBurst limit prompts per web client.
	RatePerSecond float64 `json:"rate_per_second"`
	RateBurst     int     `json:"rate_burst"`
	// SessionTTL is a duration, such as 24h, after which an idle web
	// conversation is dropped.
	SessionTTL string `json:"session_ttl"`
	// RedisURL stores web conversations in redis instead of in memory.
	// Overridden by CHARADEX_REDIS_URL.
	RedisURL string `json:"redis_url"`
}

var DefaultConfig = Config{
	Vendor:        VendorGemini,
	Addr:          ":8080",
	RatePerSecond: 1,
	RateBurst:     5,
	SessionTTL:    session.DefaultTTL.String(),
}

func (c Config) sessionTTL() time.Duration {
	ttl, err := time.ParseDuration(c.SessionTTL)
	if err != nil || ttl <= 0 {
		return session.DefaultTTL
	}
	return ttl
}

func (c Config) redisURL() string {
	if env := os.Getenv("CHARADEX_REDIS_URL"); env != "" {
		return env
	}
	return c.RedisURL
}

func (c Config) newStore() (session.Store, error) {
	url := c.redisURL()
	if url == "" {
		return session.NewMemory(c.sessionTTL()), nil
	}
	store, err := session.NewRedis(url, c.sessionTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to create redis session store: %w", err)
	}
	return store, nil
}
