package policy

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	content "github.com/vadim/socialops/internal/domain/content/entity"
	platform "github.com/vadim/socialops/internal/domain/platform/entity"
	"github.com/vadim/socialops/internal/domain/platform/registry"
	"github.com/vadim/socialops/internal/domain/queue/entity"
	"github.com/vadim/socialops/internal/domain/queue/service"
	"github.com/vadim/socialops/internal/metrics"
)

// ContentGenerator drafts posts and exposes the brand voice defaults
type ContentGenerator interface {
	Generate(ctx context.Context, in content.GenerateInput) (map[string]string, error)
	BrandVoice(ctx context.Context) (*content.BrandVoice, error)
}

// PlatformRegistry resolves platform names to adapters
type PlatformRegistry interface {
	Get(name string) (registry.Adapter, error)
}

// Policy orchestrates queue use-cases
type Policy struct {
	svc       *service.Service
	generator ContentGenerator
	platforms PlatformRegistry
	logger    *slog.Logger
}

// New creates a new queue policy
func New(svc *service.Service, generator ContentGenerator, platforms PlatformRegistry, logger *slog.Logger) *Policy {
	return &Policy{
		svc:       svc,
		generator: generator,
		platforms: platforms,
		logger:    logger,
	}
}

// CreateContentInput represents input for drafting and queueing content
type CreateContentInput struct {
	Topic     string
	Platforms []string
	Tone      string
	Org       string
}

// CreateContentOutput represents output from CreateContent
type CreateContentOutput struct {
	ContentID string            `json:"content_id"`
	Row       int               `json:"row"`
	Platforms []string          `json:"platforms"`
	Drafts    map[string]string `json:"drafts"`
}

// CreateContent generates drafts for a topic and appends them to the queue as a Draft item
func (p *Policy) CreateContent(ctx context.Context, in CreateContentInput) (*CreateContentOutput, error) {
	platforms := SplitPlatforms(in.Platforms)

	drafts, err := p.generator.Generate(ctx, content.GenerateInput{
		Topic:     in.Topic,
		Platforms: platforms,
		Tone:      in.Tone,
		Org:       in.Org,
	})
	if err != nil {
		return nil, err
	}

	bv, err := p.generator.BrandVoice(ctx)
	if err != nil {
		return nil, err
	}
	org := in.Org
	if org == "" {
		org = bv.OrgName
	}
	tone := in.Tone
	if tone == "" {
		tone = bv.Tone
	}

	byPlatform := make(map[platform.Platform]string, len(drafts))
	for name, text := range drafts {
		if pl, ok := platform.Parse(name); ok {
			byPlatform[pl] = text
		}
	}

	item, err := p.svc.Create(ctx, service.CreateInput{
		Topic:  in.Topic,
		Org:    org,
		Tone:   tone,
		Drafts: byPlatform,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("content queued", "content_id", item.ContentID, "row", item.Row, "platforms", platforms)

	return &CreateContentOutput{
		ContentID: item.ContentID,
		Row:       item.Row,
		Platforms: platforms,
		Drafts:    drafts,
	}, nil
}

// EditDraft overwrites one platform draft of a queue item
func (p *Policy) EditDraft(ctx context.Context, row int, platformName, text string) error {
	pl, ok := platform.Parse(platformName)
	if !ok {
		return &platform.UnknownPlatformError{Name: platformName, Valid: platform.Names(platform.All)}
	}
	return p.svc.UpdateDraft(ctx, row, pl, text)
}

// Approve marks a queue item Approved
func (p *Policy) Approve(ctx context.Context, row int) error {
	return p.svc.SetStatus(ctx, row, entity.StatusApproved)
}

// Schedule marks a queue item Scheduled for the given time
func (p *Policy) Schedule(ctx context.Context, row int, scheduledFor string) error {
	return p.svc.Schedule(ctx, row, scheduledFor)
}

// UpdateStatus sets any known status regardless of the current one
func (p *Policy) UpdateStatus(ctx context.Context, row int, status string) (entity.Status, error) {
	st, err := entity.ParseStatus(status)
	if err != nil {
		return "", err
	}
	if err := p.svc.SetStatus(ctx, row, st); err != nil {
		return "", err
	}
	return st, nil
}

// ListQueueInput represents input for listing the queue
type ListQueueInput struct {
	Status string
	Limit  int
}

// ListQueue returns queue items, optionally filtered by status
func (p *Policy) ListQueue(ctx context.Context, in ListQueueInput) ([]entity.QueueItem, error) {
	var filter *entity.Status
	if strings.TrimSpace(in.Status) != "" {
		st, err := entity.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		filter = &st
	}
	return p.svc.List(ctx, service.ListInput{Status: filter, Limit: in.Limit})
}

// GetItem returns one queue item
func (p *Policy) GetItem(ctx context.Context, row int) (*entity.QueueItem, error) {
	return p.svc.Get(ctx, row)
}

// PostNowInput represents input for posting a queue item
type PostNowInput struct {
	Row       int
	Platforms []string
	MediaURLs []string
}

// PostNowOutput represents output from PostNow
type PostNowOutput struct {
	Row      int                   `json:"row"`
	Status   entity.Status         `json:"status"`
	PostedAt string                `json:"posted_at"`
	Results  []platform.PostResult `json:"results"`
	PostIDs  map[string]string     `json:"post_ids"`
	Partial  bool                  `json:"partial"`
}

// PostNow publishes the drafts of a queue item to the requested platforms,
// or to every platform with a non-blank draft. The item becomes Posted when
// at least one platform succeeded and Failed otherwise.
func (p *Policy) PostNow(ctx context.Context, in PostNowInput) (*PostNowOutput, error) {
	item, err := p.svc.Get(ctx, in.Row)
	if err != nil {
		return nil, err
	}

	targets := SplitPlatforms(in.Platforms)
	if len(targets) == 0 {
		targets = platform.Names(item.DraftedPlatforms())
	}

	results := make([]platform.PostResult, len(targets))
	var g errgroup.Group
	for i, name := range targets {
		g.Go(func() error {
			results[i] = p.postDraft(ctx, item, name, in.MediaURLs)
			return nil
		})
	}
	_ = g.Wait()

	postIDs := make(map[string]string)
	failed := 0
	for _, r := range results {
		if r.Success {
			postIDs[r.Platform.String()] = r.PostID
		} else {
			failed++
		}
	}

	status := entity.StatusFailed
	if len(postIDs) > 0 {
		status = entity.StatusPosted
	}

	postedAt, err := p.svc.RecordPosting(ctx, in.Row, status, postIDs)
	if err != nil {
		return nil, err
	}

	p.logger.Info("queue item posted",
		"row", in.Row,
		"content_id", item.ContentID,
		"status", status,
		"succeeded", len(postIDs),
		"failed", failed,
	)

	return &PostNowOutput{
		Row:      in.Row,
		Status:   status,
		PostedAt: postedAt,
		Results:  results,
		PostIDs:  postIDs,
		Partial:  len(postIDs) > 0 && failed > 0,
	}, nil
}

func (p *Policy) postDraft(ctx context.Context, item *entity.QueueItem, name string, mediaURLs []string) platform.PostResult {
	pl, _ := platform.Parse(name)
	result := platform.PostResult{Platform: pl}

	text := item.Draft(pl)
	if strings.TrimSpace(text) == "" {
		result.Error = entity.ErrNoDraftText.Error()
		return result
	}

	adapter, err := p.platforms.Get(name)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	out, err := adapter.Post(ctx, text, mediaURLs)
	metrics.ObservePost(pl.String(), err == nil)
	if err != nil {
		p.logger.Warn("post failed", "platform", pl, "content_id", item.ContentID, "error", err)
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.PostID = out.PostID
	result.URL = out.URL
	return result
}

// PostTextInput represents input for a one-off post
type PostTextInput struct {
	Text      string
	Platform  string
	MediaURLs []string
}

// PostText posts directly to one platform without touching the queue
func (p *Policy) PostText(ctx context.Context, in PostTextInput) (*platform.PostOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, platform.ErrEmptyText
	}

	adapter, err := p.platforms.Get(in.Platform)
	if err != nil {
		return nil, err
	}

	out, err := adapter.Post(ctx, in.Text, in.MediaURLs)
	metrics.ObservePost(adapter.Platform().String(), err == nil)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SplitPlatforms trims names, drops blanks and splits comma-separated entries
func SplitPlatforms(names []string) []string {
	var out []string
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
