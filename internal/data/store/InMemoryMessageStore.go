package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/akolanti/DocChat/internal/domain/jobModel"
)

var ErrUnknownChat = errors.New("unknown chat id")

// InMemoryMessageStore is the chat history used when redis is offline. Chats never expire.
type InMemoryMessageStore struct {
	mu    sync.RWMutex
	chats map[string][]jobModel.ChatMessage
}

func InitMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{chats: make(map[string][]jobModel.ChatMessage)}
}

func (s *InMemoryMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chats[chatId]
	return ok
}

// InitNewChat starts id with an empty history, dropping any previous one.
func (s *InMemoryMessageStore) InitNewChat(ctx context.Context, id string) error {
	s.mu.Lock()
	s.chats[id] = nil
	s.mu.Unlock()
	return nil
}

func (s *InMemoryMessageStore) TrySaveChat(ctx context.Context, id string, messages ...jobModel.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, ok := s.chats[id]
	if !ok {
		return ErrUnknownChat
	}
	s.chats[id] = append(history, messages...)
	inMemLogger.WithTrace(ctx).Debug("Saved chat messages", "chatId", id, "count", len(messages))
	return nil
}

func (s *InMemoryMessageStore) GetMessageHistory(ctx context.Context, chatId string, limit int) ([]jobModel.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.chats[chatId]
	if !ok {
		return nil, ErrUnknownChat
	}
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := slices.Clone(history)
	if out == nil {
		out = []jobModel.ChatMessage{}
	}
	return out, nil
}
