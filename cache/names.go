package cache

import (
	"context"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
)

// Names maps "<contract>:<tokenId>" to the domain name minted for that token.
// A token's name never changes once minted, so entries only age out with ttl.
type Names struct {
	store *bigcache.BigCache
}

func NewNames(ttl time.Duration) (*Names, error) {
	if ttl <= 0 {
		return nil, errors.New("name cache ttl must be positive")
	}
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Verbose = false
	// a few thousand names at most per tld
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 64 * 1024
	cfg.MaxEntrySize = 64
	store, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return &Names{store: store}, nil
}

// GetString returns "" and false on a miss.
func (n *Names) GetString(key string) (string, bool) {
	by, err := n.store.Get(key)
	if err != nil || len(by) == 0 {
		return "", false
	}
	return string(by), true
}

// SetString ignores empty names so that unknown tokens are asked again later.
func (n *Names) SetString(key, name string) error {
	if name == "" {
		return nil
	}
	return n.store.Set(key, []byte(name))
}

func (n *Names) Len() int {
	return n.store.Len()
}

func (n *Names) Close() error {
	return n.store.Close()
}
