package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	platform "github.com/vadim/socialops/internal/domain/platform/entity"
	"github.com/vadim/socialops/internal/domain/queue/dao"
	"github.com/vadim/socialops/internal/domain/queue/entity"
)

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 20

// Service handles persistence rules for queue items
type Service struct {
	items dao.QueueRepository
	now   func() time.Time
}

// Option configures the Service
type Option func(*Service)

// WithClock overrides the clock used for ids and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a new queue service
func New(items dao.QueueRepository, opts ...Option) *Service {
	s := &Service{
		items: items,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock reading
func (s *Service) Now() time.Time {
	return s.now()
}

// CreateInput represents input for adding a queue item
type CreateInput struct {
	Topic  string
	Org    string
	Tone   string
	Drafts map[platform.Platform]string
}

// Create appends a Draft item and returns it with its row number
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.QueueItem, error) {
	now := s.now()

	item := &entity.QueueItem{
		ContentID: entity.NewContentID(now),
		Topic:     in.Topic,
		Org:       in.Org,
		Tone:      in.Tone,
		Status:    entity.StatusDraft,
		CreatedAt: now.Format(time.RFC3339),
	}
	for p, text := range in.Drafts {
		item.SetDraft(p, text)
	}

	row, err := s.items.Append(ctx, item)
	if err != nil {
		return nil, err
	}
	item.Row = row

	return item, nil
}

// Get returns the item at row
func (s *Service) Get(ctx context.Context, row int) (*entity.QueueItem, error) {
	item, err := s.items.Get(ctx, row)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w at row %d", entity.ErrItemNotFound, row)
	}
	return item, nil
}

// ListInput represents input for listing queue items
type ListInput struct {
	Status *entity.Status
	Limit  int
}

// List returns items in row order, optionally filtered by status
func (s *Service) List(ctx context.Context, in ListInput) ([]entity.QueueItem, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	all, err := s.items.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]entity.QueueItem, 0, limit)
	for _, item := range all {
		if in.Status != nil && item.Status != *in.Status {
			continue
		}
		items = append(items, item)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

// UpdateDraft overwrites the draft text of one platform
func (s *Service) UpdateDraft(ctx context.Context, row int, p platform.Platform, text string) error {
	col, ok := entity.DraftColumn(p)
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrNoDraftColumn, p)
	}
	if _, err := s.Get(ctx, row); err != nil {
		return err
	}
	return s.items.Update(ctx, row, map[string]string{col: text})
}

// SetStatus sets the status without checking the current one
func (s *Service) SetStatus(ctx context.Context, row int, status entity.Status) error {
	if _, err := s.Get(ctx, row); err != nil {
		return err
	}
	return s.items.Update(ctx, row, map[string]string{entity.ColStatus: string(status)})
}

// Schedule marks the item Scheduled and stores the publish time as given
func (s *Service) Schedule(ctx context.Context, row int, scheduledFor string) error {
	if scheduledFor == "" {
		return entity.ErrEmptySchedule
	}
	if _, err := s.Get(ctx, row); err != nil {
		return err
	}
	return s.items.Update(ctx, row, map[string]string{
		entity.ColStatus:       string(entity.StatusScheduled),
		entity.ColScheduledFor: scheduledFor,
	})
}

// RecordPosting stores the outcome of a posting attempt and returns posted_at
func (s *Service) RecordPosting(ctx context.Context, row int, status entity.Status, postIDs map[string]string) (string, error) {
	if postIDs == nil {
		postIDs = map[string]string{}
	}
	encoded, err := json.Marshal(postIDs)
	if err != nil {
		return "", fmt.Errorf("encoding post ids: %w", err)
	}

	postedAt := s.now().Format(time.RFC3339)
	err = s.items.Update(ctx, row, map[string]string{
		entity.ColStatus:   string(status),
		entity.ColPostedAt: postedAt,
		entity.ColPostIDs:  string(encoded),
	})
	if err != nil {
		return "", err
	}
	return postedAt, nil
}

// RecentPost is one posted (post_id, platform) pair from the queue
type RecentPost struct {
	PostID    string
	Platform  string
	ContentID string
	PostedAt  string
}

// RecentPosts scans the queue bottom-up for Posted items and collects their post ids.
// Items with malformed post_ids are skipped. Collection stops once limit pairs are gathered.
func (s *Service) RecentPosts(ctx context.Context, limit int) ([]RecentPost, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	all, err := s.items.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []RecentPost
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		item := all[i]
		if item.Status != entity.StatusPosted {
			continue
		}
		ids, err := item.ParsedPostIDs()
		if err != nil || len(ids) == 0 {
			continue
		}
		// post_ids is a JSON object, so iterate platforms in a stable order
		for _, p := range platform.All {
			pid := ids[p.String()]
			if pid == "" {
				continue
			}
			out = append(out, RecentPost{
				PostID:    pid,
				Platform:  p.String(),
				ContentID: item.ContentID,
				PostedAt:  item.PostedAt,
			})
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}
