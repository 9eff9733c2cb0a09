package hns

import (
	"sync"
	"time"

	"github.com/hotdogs-ns/hns/schema"
)

// Cache holds what /info reports between refreshes.
type Cache struct {
	chainId     string
	tlds        []schema.TldEntry
	refreshedAt time.Time
	lock        sync.RWMutex
}

func NewCache(tlds []schema.TldEntry, refreshedAt time.Time) *Cache {
	if tlds == nil {
		tlds = make([]schema.TldEntry, 0)
	}
	return &Cache{tlds: tlds, refreshedAt: refreshedAt}
}

func (c *Cache) GetTlds() ([]schema.TldEntry, time.Time) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	out := make([]schema.TldEntry, len(c.tlds))
	copy(out, c.tlds)
	return out, c.refreshedAt
}

func (c *Cache) UpdateTlds(tlds []schema.TldEntry, at time.Time) {
	c.lock.Lock()
	c.tlds = tlds
	c.refreshedAt = at
	c.lock.Unlock()
}

func (c *Cache) GetChainId() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.chainId
}

func (c *Cache) UpdateChainId(id string) {
	c.lock.Lock()
	c.chainId = id
	c.lock.Unlock()
}
