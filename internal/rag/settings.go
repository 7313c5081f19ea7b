package rag

import (
	"sync"

	"github.com/akolanti/DocChat/internal/config"
)

// Settings control retrieval for chat. NResults is always at least 1.
type Settings struct {
	Enabled  bool `json:"enabled"`
	NResults int  `json:"n_results"`
}

func SettingsFromConfig(cfg config.RAGConfig) Settings {
	return Settings{Enabled: cfg.Enabled, NResults: cfg.NResults}.normalized()
}

func (s Settings) normalized() Settings {
	if s.NResults < 1 {
		s.NResults = config.DefaultNResults
	}
	return s
}

type settingsHolder struct {
	mu       sync.RWMutex
	settings Settings
}

func (h *settingsHolder) get() Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}

func (h *settingsHolder) set(s Settings) Settings {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings = s.normalized()
	return h.settings
}
