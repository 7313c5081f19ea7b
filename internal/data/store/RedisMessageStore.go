package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/data/redisStore"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

// A chat is a marker key holding its creation time plus a list of JSON messages.
const chatKeyPrefix = "chat:"

type RedisMessageStore struct {
	redis  *redisStore.Store
	logger *logger_i.Logger
}

// GetRedisMessageStore returns nil when redis is offline.
func GetRedisMessageStore(ctx context.Context, cfg config.RedisConfig) *RedisMessageStore {
	s := redisStore.GetRedisStore(ctx, cfg, config.RedisMessageStore)
	if s == nil {
		return nil
	}
	return &RedisMessageStore{
		redis:  s,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func TestMessageStore(store *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		redis:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}

func chatKey(id string) string     { return chatKeyPrefix + id }
func messagesKey(id string) string { return chatKeyPrefix + id + ":messages" }

func (s *RedisMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	found, err := s.redis.Has(ctx, chatKey(chatId))
	if err != nil {
		s.logger.WithTrace(ctx).Error("Failed to check if chatId exists", "chatId", chatId, "error", err)
		return false
	}
	return found
}

func (s *RedisMessageStore) InitNewChat(ctx context.Context, id string) error {
	log := s.logger.WithTrace(ctx).With("chatId", id)
	if err := s.redis.Remove(ctx, messagesKey(id)); err != nil {
		log.Error("Clearing chat failed", "error", err)
		return err
	}
	if err := s.redis.Put(ctx, chatKey(id), time.Now().UTC().Format(time.RFC3339), config.RedisMessageStoreTTL); err != nil {
		log.Error("Creating chat failed", "error", err)
		return err
	}
	log.Debug("Initialized new chat")
	return nil
}

func (s *RedisMessageStore) TrySaveChat(ctx context.Context, id string, messages ...jobModel.ChatMessage) error {
	log := s.logger.WithTrace(ctx).With("chatId", id)
	if !s.ValidateChatId(ctx, id) {
		log.Error("Failed validation before saving", "error", ErrUnknownChat)
		return ErrUnknownChat
	}

	values := make([]any, 0, len(messages))
	for _, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		values = append(values, data)
	}
	if err := s.redis.Append(ctx, messagesKey(id), config.RedisMessageStoreTTL, values...); err != nil {
		log.Error("Error saving chat", "error", err)
		return err
	}
	if err := s.redis.Touch(ctx, chatKey(id), config.RedisMessageStoreTTL); err != nil {
		log.Warn("Refreshing chat ttl failed", "error", err)
	}
	log.Debug("Saved chat messages", "count", len(messages))
	return nil
}

func (s *RedisMessageStore) GetMessageHistory(ctx context.Context, chatId string, limit int) ([]jobModel.ChatMessage, error) {
	log := s.logger.WithTrace(ctx).With("chatId", chatId)
	if !s.ValidateChatId(ctx, chatId) {
		return nil, ErrUnknownChat
	}

	raw, err := s.redis.Tail(ctx, messagesKey(chatId), limit)
	if err != nil {
		log.Error("Error getting history", "error", err)
		return nil, err
	}
	out := make([]jobModel.ChatMessage, 0, len(raw))
	for _, r := range raw {
		var m jobModel.ChatMessage
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			log.Warn("Skipping undecodable message", "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
