package rag

import (
	"sync"
	"time"
)

type rememberedPage struct {
	content  string
	storedAt time.Time
}

// pageCache keeps the last scraped page per chat. Entries expire with the chat and the
// oldest one is dropped once max chats are remembered.
type pageCache struct {
	mu    sync.Mutex
	pages map[string]rememberedPage
	ttl   time.Duration
	max   int
	now   func() time.Time
}

func newPageCache(ttl time.Duration, max int) *pageCache {
	return &pageCache{pages: make(map[string]rememberedPage), ttl: ttl, max: max, now: time.Now}
}

func (c *pageCache) put(chatId, content string) {
	if chatId == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, p := range c.pages {
		if now.Sub(p.storedAt) > c.ttl {
			delete(c.pages, id)
		}
	}
	if _, ok := c.pages[chatId]; !ok && len(c.pages) >= c.max {
		c.evictOldest()
	}
	c.pages[chatId] = rememberedPage{content: content, storedAt: now}
}

func (c *pageCache) get(chatId string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[chatId]
	if !ok {
		return ""
	}
	if c.now().Sub(p.storedAt) > c.ttl {
		delete(c.pages, chatId)
		return ""
	}
	return p.content
}

func (c *pageCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

func (c *pageCache) evictOldest() {
	var oldestId string
	var oldest time.Time
	for id, p := range c.pages {
		if oldestId == "" || p.storedAt.Before(oldest) {
			oldestId, oldest = id, p.storedAt
		}
	}
	delete(c.pages, oldestId)
}
