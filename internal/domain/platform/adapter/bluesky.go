package adapter

import (
	"context"
	"log/slog"

	"github.com/vadim/socialops/internal/domain/platform/entity"
	"github.com/vadim/socialops/internal/httpx/upstream/bluesky"
	"github.com/vadim/socialops/internal/httpx/upstream/mediafetch"
)

// MediaFetcher downloads media URLs for re-upload
type MediaFetcher interface {
	FetchAll(ctx context.Context, urls []string, limit int) ([]*mediafetch.File, error)
}

// Bluesky posts through the AT Protocol
type Bluesky struct {
	client *bluesky.Client
	media  MediaFetcher
	logger *slog.Logger
}

// NewBluesky creates a live BlueSky adapter
func NewBluesky(client *bluesky.Client, media MediaFetcher, logger *slog.Logger) *Bluesky {
	return &Bluesky{
		client: client,
		media:  media,
		logger: logger,
	}
}

func (b *Bluesky) Platform() entity.Platform { return entity.PlatformBluesky }
func (b *Bluesky) Limit() int                { return entity.PlatformBluesky.Limit() }
func (b *Bluesky) Mode() entity.Mode         { return entity.ModeLive }

// Post truncates the text, uploads up to four images and creates the post record
func (b *Bluesky) Post(ctx context.Context, text string, mediaURLs []string) (*entity.PostOutput, error) {
	text = entity.Truncate(text, b.Limit())

	in := bluesky.CreatePostInput{Text: text}

	if len(mediaURLs) > 0 {
		files, err := b.media.FetchAll(ctx, mediaURLs, entity.MaxMediaItems)
		if err != nil {
			return nil, b.publishError(err)
		}
		for _, f := range files {
			blob, err := b.client.UploadBlob(ctx, f.Data)
			if err != nil {
				return nil, b.publishError(err)
			}
			in.Images = append(in.Images, blob)
		}
	}

	out, err := b.client.CreatePost(ctx, in)
	if err != nil {
		return nil, b.publishError(err)
	}

	return &entity.PostOutput{
		PostID: out.URI,
		URL:    bluesky.PostURL(b.client.Handle(), out.URI),
	}, nil
}

// GetMetrics returns like/repost/reply counts. BlueSky does not expose impressions.
func (b *Bluesky) GetMetrics(ctx context.Context, postID string) entity.Metrics {
	post, err := b.client.GetPost(ctx, postID)
	if err != nil {
		b.logger.Debug("bluesky metrics unavailable", "post_id", postID, "error", err)
		return entity.Metrics{}
	}

	return entity.Metrics{
		Likes:   post.LikeCount,
		Reposts: post.RepostCount,
		Replies: post.ReplyCount,
	}
}

// VerifyCredentials logs in and resolves the account profile
func (b *Bluesky) VerifyCredentials(ctx context.Context) bool {
	did, err := b.client.GetProfileDID(ctx, b.client.Handle())
	if err != nil {
		b.logger.Debug("bluesky credential check failed", "error", err)
		return false
	}
	return did != ""
}

func (b *Bluesky) publishError(err error) error {
	return &entity.PublishError{Platform: entity.PlatformBluesky, Err: err}
}
