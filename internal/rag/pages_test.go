package rag

import (
	"fmt"
	"testing"
	"time"
)

func TestPageCache(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newPageCache(time.Hour, 3)
	c.now = func() time.Time { return clock }

	c.put("", "ignored")
	if c.len() != 0 {
		t.Fatal("empty chat id should not be remembered")
	}

	for i := 0; i < 5; i++ {
		c.put(fmt.Sprintf("chat-%d", i), fmt.Sprintf("page %d", i))
		clock = clock.Add(time.Minute)
	}
	if c.len() != 3 {
		t.Errorf("cache holds %d pages, want 3", c.len())
	}
	if got := c.get("chat-0"); got != "" {
		t.Errorf("oldest chat should be evicted, got %q", got)
	}
	if got := c.get("chat-4"); got != "page 4" {
		t.Errorf("chat-4 = %q", got)
	}

	c.put("chat-4", "page 4 again")
	if c.len() != 3 || c.get("chat-4") != "page 4 again" {
		t.Error("updating a remembered chat should not evict another")
	}

	clock = clock.Add(2 * time.Hour)
	if got := c.get("chat-3"); got != "" {
		t.Errorf("expired page returned %q", got)
	}
	c.put("chat-new", "fresh")
	if c.len() != 1 {
		t.Errorf("expired pages should be pruned on put, len = %d", c.len())
	}
}
