package jobModel

import (
	"context"
	"time"
)

const (
	RoleUser = "user"
	RoleAI   = "AI"
)

type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// JobStore is backed by redis DB 0, or by memory when redis is offline.
type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobId string)
}

// MessageStore keeps chat history, redis DB 1 or memory.
type MessageStore interface {
	ValidateChatId(ctx context.Context, id string) bool
	InitNewChat(ctx context.Context, id string) error
	TrySaveChat(ctx context.Context, id string, messages ...ChatMessage) error
	// GetMessageHistory returns the last limit messages, oldest first. limit <= 0 means all.
	GetMessageHistory(ctx context.Context, chatId string, limit int) ([]ChatMessage, error)
}
