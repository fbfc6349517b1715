package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/vadim/socialops/internal/domain/content/entity"
)

// BrandVoiceFile stores the brand voice as an indented JSON file
type BrandVoiceFile struct {
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewBrandVoiceFile creates a file-backed brand voice store
func NewBrandVoiceFile(path string, logger *slog.Logger) *BrandVoiceFile {
	return &BrandVoiceFile{path: path, logger: logger}
}

// Get reads the brand voice. A missing or unreadable file yields the defaults.
func (s *BrandVoiceFile) Get(_ context.Context) (*entity.BrandVoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("reading brand voice, using defaults", "path", s.path, "error", err)
		}
		return entity.DefaultBrandVoice(), nil
	}

	var bv entity.BrandVoice
	if err := json.Unmarshal(data, &bv); err != nil {
		s.logger.Warn("decoding brand voice, using defaults", "path", s.path, "error", err)
		return entity.DefaultBrandVoice(), nil
	}
	if bv.Hashtags == nil {
		bv.Hashtags = map[string][]string{}
	}

	return &bv, nil
}

// Save replaces the brand voice file
func (s *BrandVoiceFile) Save(_ context.Context, bv *entity.BrandVoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(bv, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding brand voice: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating brand voice dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing brand voice: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing brand voice: %w", err)
	}

	return nil
}
