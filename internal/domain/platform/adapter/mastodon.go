package adapter

import (
	"context"
	"log/slog"

	"github.com/vadim/socialops/internal/domain/platform/entity"
	"github.com/vadim/socialops/internal/httpx/upstream/mastodon"
)

// Mastodon posts statuses through the Mastodon REST API
type Mastodon struct {
	client *mastodon.Client
	media  MediaFetcher
	logger *slog.Logger
}

// NewMastodon creates a live Mastodon adapter
func NewMastodon(client *mastodon.Client, media MediaFetcher, logger *slog.Logger) *Mastodon {
	return &Mastodon{
		client: client,
		media:  media,
		logger: logger,
	}
}

func (m *Mastodon) Platform() entity.Platform { return entity.PlatformMastodon }
func (m *Mastodon) Limit() int                { return entity.PlatformMastodon.Limit() }
func (m *Mastodon) Mode() entity.Mode         { return entity.ModeLive }

// Post truncates the text, uploads up to four attachments and publishes the status
func (m *Mastodon) Post(ctx context.Context, text string, mediaURLs []string) (*entity.PostOutput, error) {
	text = entity.Truncate(text, m.Limit())

	in := mastodon.CreateStatusInput{Status: text}

	if len(mediaURLs) > 0 {
		files, err := m.media.FetchAll(ctx, mediaURLs, entity.MaxMediaItems)
		if err != nil {
			return nil, m.publishError(err)
		}
		for _, f := range files {
			att, err := m.client.UploadMedia(ctx, mastodon.UploadMediaInput{
				Data:        f.Data,
				Filename:    f.Filename,
				ContentType: f.ContentType,
			})
			if err != nil {
				return nil, m.publishError(err)
			}
			in.MediaIDs = append(in.MediaIDs, att.ID)
		}
	}

	status, err := m.client.CreateStatus(ctx, in)
	if err != nil {
		return nil, m.publishError(err)
	}

	return &entity.PostOutput{
		PostID: status.ID,
		URL:    status.URL,
	}, nil
}

// GetMetrics returns favourite/reblog/reply counts. Mastodon does not expose impressions.
func (m *Mastodon) GetMetrics(ctx context.Context, postID string) entity.Metrics {
	status, err := m.client.GetStatus(ctx, postID)
	if err != nil {
		m.logger.Debug("mastodon metrics unavailable", "post_id", postID, "error", err)
		return entity.Metrics{}
	}

	return entity.Metrics{
		Likes:   status.FavouritesCount,
		Reposts: status.ReblogsCount,
		Replies: status.RepliesCount,
	}
}

// VerifyCredentials checks the access token against the instance
func (m *Mastodon) VerifyCredentials(ctx context.Context) bool {
	if _, err := m.client.VerifyCredentials(ctx); err != nil {
		m.logger.Debug("mastodon credential check failed", "error", err)
		return false
	}
	return true
}

func (m *Mastodon) publishError(err error) error {
	return &entity.PublishError{Platform: entity.PlatformMastodon, Err: err}
}
