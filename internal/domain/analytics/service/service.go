package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vadim/socialops/internal/domain/analytics/dao"
	"github.com/vadim/socialops/internal/domain/analytics/entity"
	platform "github.com/vadim/socialops/internal/domain/platform/entity"
	"github.com/vadim/socialops/internal/domain/platform/registry"
	queue "github.com/vadim/socialops/internal/domain/queue/service"
	"github.com/vadim/socialops/internal/metrics"
)

const (
	DefaultRecentLimit = 20
	DefaultListLimit   = 100
)

// PlatformRegistry resolves platform names to adapters
type PlatformRegistry interface {
	Get(name string) (registry.Adapter, error)
}

// RecentPostSource lists posted (post_id, platform) pairs, newest first
type RecentPostSource interface {
	RecentPosts(ctx context.Context, limit int) ([]queue.RecentPost, error)
}

// Service refreshes and reads engagement metrics
type Service struct {
	records   dao.RecordRepository
	posts     RecentPostSource
	platforms PlatformRegistry
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a new analytics service
func New(records dao.RecordRepository, posts RecentPostSource, platforms PlatformRegistry, logger *slog.Logger) *Service {
	return &Service{
		records:   records,
		posts:     posts,
		platforms: platforms,
		logger:    logger,
		now:       time.Now,
	}
}

// RefreshOutput is the outcome of refreshing one post
type RefreshOutput struct {
	PostID   string           `json:"post_id"`
	Platform string           `json:"platform"`
	Metrics  platform.Metrics `json:"metrics"`
	Appended bool             `json:"appended,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Refresh re-reads metrics for a post that already has an analytics record.
// When platformName is empty the post id must be unique across platforms.
func (s *Service) Refresh(ctx context.Context, postID, platformName string) (*RefreshOutput, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, entity.ErrEmptyPostID
	}

	rec, err := s.find(ctx, postID, platformName)
	if err != nil {
		return nil, err
	}

	appended, err := s.refresh(ctx, rec)
	if err != nil {
		return nil, err
	}

	return &RefreshOutput{
		PostID:   rec.PostID,
		Platform: rec.Platform,
		Metrics:  rec.Metrics(),
		Appended: appended,
	}, nil
}

func (s *Service) find(ctx context.Context, postID, platformName string) (*entity.Record, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}

	var want string
	if platformName != "" {
		p, _ := platform.Parse(platformName)
		want = p.String()
	}

	var found []entity.Record
	for _, r := range records {
		if r.PostID != postID {
			continue
		}
		if want != "" && !strings.EqualFold(r.Platform, want) {
			continue
		}
		found = append(found, r)
	}

	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: %s", entity.ErrRecordNotFound, postID)
	case len(found) > 1 && want == "":
		return nil, fmt.Errorf("%w: %s", entity.ErrAmbiguousPostID, postID)
	}
	return &found[0], nil
}

// refresh fetches metrics for rec and upserts it
func (s *Service) refresh(ctx context.Context, rec *entity.Record) (bool, error) {
	adapter, err := s.platforms.Get(rec.Platform)
	if err != nil {
		metrics.ObserveAnalyticsRefresh(rec.Platform, false)
		return false, err
	}

	rec.SetMetrics(adapter.GetMetrics(ctx, rec.PostID))
	rec.CollectedAt = s.now().Format(time.RFC3339)

	appended, err := s.records.Upsert(ctx, rec)
	metrics.ObserveAnalyticsRefresh(rec.Platform, err == nil)
	if err != nil {
		return false, err
	}
	return appended, nil
}

// RefreshRecent refreshes the most recently posted items from the queue.
// Per-post failures are reported in the output, not returned.
func (s *Service) RefreshRecent(ctx context.Context, limit int) ([]RefreshOutput, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	recent, err := s.posts.RecentPosts(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]RefreshOutput, 0, len(recent))
	for _, rp := range recent {
		rec := &entity.Record{
			PostID:    rp.PostID,
			Platform:  rp.Platform,
			ContentID: rp.ContentID,
			PostedAt:  rp.PostedAt,
		}

		res := RefreshOutput{PostID: rp.PostID, Platform: rp.Platform}
		appended, err := s.refresh(ctx, rec)
		if err != nil {
			s.logger.Warn("refreshing analytics", "post_id", rp.PostID, "platform", rp.Platform, "error", err)
			res.Error = err.Error()
		} else {
			res.Metrics = rec.Metrics()
			res.Appended = appended
		}
		out = append(out, res)
	}

	s.logger.Info("analytics refreshed", "posts", len(out))
	return out, nil
}

// ListInput represents input for reading analytics
type ListInput struct {
	Platform string
	Days     int
	Limit    int
}

// List returns analytics records in row order. Days > 0 keeps records collected
// within that many days; records with unreadable timestamps are kept.
func (s *Service) List(ctx context.Context, in ListInput) ([]entity.Record, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var since time.Time
	if in.Days > 0 {
		since = s.now().AddDate(0, 0, -in.Days)
	}

	want := ""
	if in.Platform != "" {
		p, _ := platform.Parse(in.Platform)
		want = p.String()
	}

	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]entity.Record, 0, limit)
	for _, r := range all {
		if want != "" && !strings.EqualFold(r.Platform, want) {
			continue
		}
		if in.Days > 0 && !r.CollectedWithin(since) {
			continue
		}
		out = append(out, r)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
