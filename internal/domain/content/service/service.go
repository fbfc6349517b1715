package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vadim/socialops/internal/domain/content/entity"
	platform "github.com/vadim/socialops/internal/domain/platform/entity"
	"github.com/vadim/socialops/internal/metrics"
)

// Temperature used for every drafting call
const Temperature float32 = 0.7

// Completer turns a system and a user prompt into model text
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float32) (string, error)
}

// BrandVoiceStore persists the brand voice
type BrandVoiceStore interface {
	Get(ctx context.Context) (*entity.BrandVoice, error)
	Save(ctx context.Context, bv *entity.BrandVoice) error
}

// Service drafts platform-specific posts in the configured brand voice
type Service struct {
	completer Completer
	voices    BrandVoiceStore
	validate  *validator.Validate
	logger    *slog.Logger
}

// New creates a new content service. completer may be nil, in which case Generate fails.
func New(completer Completer, voices BrandVoiceStore, logger *slog.Logger) *Service {
	return &Service{
		completer: completer,
		voices:    voices,
		validate:  validator.New(),
		logger:    logger,
	}
}

// BrandVoice returns the current brand voice
func (s *Service) BrandVoice(ctx context.Context) (*entity.BrandVoice, error) {
	return s.voices.Get(ctx)
}

// SetBrandVoice merges bv over the current brand voice and saves the result.
// Fields left empty keep their current value; bv holds the saved voice on return.
func (s *Service) SetBrandVoice(ctx context.Context, bv *entity.BrandVoice) error {
	if bv == nil {
		return entity.ErrInvalidBrandVoice
	}
	cur, err := s.voices.Get(ctx)
	if err != nil {
		return fmt.Errorf("reading current brand voice: %w", err)
	}
	bv.Merge(cur)

	if err := s.validate.Struct(bv); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidBrandVoice, err)
	}
	if bv.Hashtags == nil {
		bv.Hashtags = map[string][]string{}
	}
	return s.voices.Save(ctx, bv)
}

// Generate drafts one post per requested platform.
// The returned map is keyed by whatever names the model answered with.
func (s *Service) Generate(ctx context.Context, in entity.GenerateInput) (map[string]string, error) {
	if strings.TrimSpace(in.Topic) == "" {
		return nil, entity.ErrEmptyTopic
	}
	if len(in.Platforms) == 0 {
		return nil, entity.ErrNoPlatforms
	}
	if s.completer == nil {
		return nil, &entity.GenerationError{Stage: "completion", Err: entity.ErrNoCompleter}
	}

	bv, err := s.voices.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading brand voice: %w", err)
	}

	system := SystemPrompt(bv, in.Org, in.Tone)
	user := UserPrompt(in.Topic, in.Platforms)

	started := time.Now()
	raw, err := s.completer.Complete(ctx, system, user, Temperature)
	if err != nil {
		metrics.ObserveGeneration(started, false)
		return nil, &entity.GenerationError{Stage: "completion", Err: err}
	}

	drafts, err := ParseDrafts(raw)
	if err != nil {
		metrics.ObserveGeneration(started, false)
		s.logger.Warn("model answer is not a drafts object", "topic", in.Topic, "error", err)
		return nil, &entity.GenerationError{Stage: "parse", Err: err}
	}
	metrics.ObserveGeneration(started, true)

	s.logger.Info("drafts generated", "topic", in.Topic, "platforms", len(drafts), "duration", time.Since(started))
	return drafts, nil
}

// SystemPrompt builds the drafting instructions. Non-empty org and tone override the brand voice.
func SystemPrompt(bv *entity.BrandVoice, org, tone string) string {
	if org == "" {
		org = bv.OrgName
	}
	if tone == "" {
		tone = bv.Tone
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a social media content writer for %s.\n\n", org)
	b.WriteString("Brand Voice:\n")
	fmt.Fprintf(&b, "- Tone: %s\n", tone)
	fmt.Fprintf(&b, "- Values: %s\n", strings.Join(bv.Values, ", "))
	fmt.Fprintf(&b, "- Avoid: %s\n", strings.Join(bv.Avoid, ", "))
	fmt.Fprintf(&b, "- Audience: %s\n\n", bv.Audience)
	b.WriteString("Platform Guidelines:\n")
	b.WriteString("- BlueSky: Casual, conversational, 300 char max, use hashtags sparingly\n")
	b.WriteString("- Mastodon: Community-focused, can be longer (500 char), CW when appropriate\n")
	b.WriteString("- LinkedIn: Professional, thought leadership, calls to action\n")
	b.WriteString("- Facebook: Engagement-focused, questions work well, emoji acceptable\n")
	b.WriteString("- Instagram: Visual-first, caption supports image, hashtags in comments\n\n")
	b.WriteString("Generate a post for each requested platform. Each must respect the character limit.\n")
	b.WriteString(`Respond ONLY with valid JSON: {"platform_name": "post text", ...}` + "\n")
	b.WriteString("No markdown, no code fences, just the JSON object.")

	return b.String()
}

// UserPrompt lists the topic, the platforms and their limits
func UserPrompt(topic string, platforms []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Platforms: %s\n", strings.Join(platforms, ", "))
	b.WriteString("Platform limits:")
	for _, p := range platforms {
		fmt.Fprintf(&b, "\n- %s: max %d characters", p, platform.Platform(p).Limit())
	}
	return b.String()
}

// ParseDrafts decodes a model answer, tolerating a surrounding markdown code fence
func ParseDrafts(raw string) (map[string]string, error) {
	content := StripFence(raw)

	var drafts map[string]string
	if err := json.Unmarshal([]byte(content), &drafts); err != nil {
		return nil, fmt.Errorf("decoding drafts: %w", err)
	}
	if drafts == nil {
		return nil, fmt.Errorf("decoding drafts: answer is null")
	}
	return drafts, nil
}

// StripFence removes a leading ``` or ```json line and a trailing ``` line
func StripFence(raw string) string {
	content := strings.TrimSpace(raw)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	lines := strings.Split(content, "\n")
	if len(lines) > 1 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[1 : len(lines)-1]
	} else {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}
