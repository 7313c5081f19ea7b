package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/data/store"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
)

func turns(n int) []jobModel.ChatMessage {
	out := make([]jobModel.ChatMessage, 0, n)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		role := jobModel.RoleUser
		if i%2 == 1 {
			role = jobModel.RoleAI
		}
		out = append(out, jobModel.ChatMessage{Role: role, Content: fmt.Sprintf("message %d", i), Timestamp: base.Add(time.Duration(i) * time.Second)})
	}
	return out
}

func TestMessageStores(t *testing.T) {
	_, internalStore := newRedis(t)

	stores := []struct {
		name  string
		store jobModel.MessageStore
	}{
		{"in memory", store.InitMessageStore()},
		{"redis", store.TestMessageStore(internalStore)},
	}

	for _, tt := range stores {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "msg-trace")
			s := tt.store

			if s.ValidateChatId(ctx, "chat-1") {
				t.Fatal("chat valid before init")
			}
			if err := s.TrySaveChat(ctx, "chat-1", turns(1)...); !errors.Is(err, store.ErrUnknownChat) {
				t.Fatalf("save to unknown chat: got %v", err)
			}
			if _, err := s.GetMessageHistory(ctx, "chat-1", 5); !errors.Is(err, store.ErrUnknownChat) {
				t.Fatalf("history of unknown chat: got %v", err)
			}

			if err := s.InitNewChat(ctx, "chat-1"); err != nil {
				t.Fatal(err)
			}
			if !s.ValidateChatId(ctx, "chat-1") {
				t.Fatal("chat not valid after init")
			}

			history, err := s.GetMessageHistory(ctx, "chat-1", 5)
			if err != nil || len(history) != 0 {
				t.Fatalf("fresh chat history = %v, %v", history, err)
			}

			all := turns(8)
			for i := 0; i < len(all); i += 2 {
				if err := s.TrySaveChat(ctx, "chat-1", all[i], all[i+1]); err != nil {
					t.Fatal(err)
				}
			}

			history, err = s.GetMessageHistory(ctx, "chat-1", 5)
			if err != nil {
				t.Fatal(err)
			}
			if len(history) != 5 {
				t.Fatalf("len = %d, want 5", len(history))
			}
			for i, m := range history {
				want := all[3+i]
				if m.Content != want.Content || m.Role != want.Role || !m.Timestamp.Equal(want.Timestamp) {
					t.Errorf("history[%d] = %+v, want %+v", i, m, want)
				}
			}

			history, err = s.GetMessageHistory(ctx, "chat-1", 0)
			if err != nil || len(history) != 8 {
				t.Fatalf("full history len = %d, err = %v", len(history), err)
			}

			if err := s.InitNewChat(ctx, "chat-1"); err != nil {
				t.Fatal(err)
			}
			history, _ = s.GetMessageHistory(ctx, "chat-1", 0)
			if len(history) != 0 {
				t.Errorf("re-init kept %d messages", len(history))
			}
		})
	}
}

func TestRedisMessageStore_TTL(t *testing.T) {
	mr, internalStore := newRedis(t)
	s := store.TestMessageStore(internalStore)
	ctx := context.Background()

	if err := s.InitNewChat(ctx, "c"); err != nil {
		t.Fatal(err)
	}
	if err := s.TrySaveChat(ctx, "c", turns(2)...); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("chat:c:messages"); ttl != config.RedisMessageStoreTTL {
		t.Errorf("messages ttl = %v", ttl)
	}

	mr.FastForward(config.RedisMessageStoreTTL + time.Second)
	if s.ValidateChatId(ctx, "c") {
		t.Error("chat still valid after expiry")
	}
}
