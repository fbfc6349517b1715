package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadim/socialops/internal/domain/queue/entity"
	queue "github.com/vadim/socialops/internal/domain/queue/policy"
	"github.com/vadim/socialops/internal/domain/queue/service"
)

// defaultPlatforms is used by sm_create_content when no platforms are given
const defaultPlatforms = "bluesky,mastodon"

type createContentArgs struct {
	Topic     string `json:"topic" jsonschema:"the content topic or idea to generate posts about"`
	Platforms string `json:"platforms,omitempty" jsonschema:"comma-separated platform names, default bluesky,mastodon"`
	Tone      string `json:"tone,omitempty" jsonschema:"tone override, defaults to the brand voice"`
	Org       string `json:"org,omitempty" jsonschema:"organization name override, defaults to the brand voice"`
}

type editDraftArgs struct {
	QueueRow int    `json:"queue_row" jsonschema:"row number of the queue item"`
	Platform string `json:"platform" jsonschema:"platform whose draft to replace"`
	NewText  string `json:"new_text" jsonschema:"the new draft text"`
}

type listQueueArgs struct {
	Status string `json:"status,omitempty" jsonschema:"filter by status: Draft, Pending Review, Approved, Scheduled, Posted, Failed"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum items to return, default 20"`
}

type rowArgs struct {
	QueueRow int `json:"queue_row" jsonschema:"row number of the queue item"`
}

type scheduleArgs struct {
	QueueRow     int    `json:"queue_row" jsonschema:"row number of the queue item"`
	ScheduledFor string `json:"scheduled_for" jsonschema:"ISO 8601 time to publish at"`
}

type updateStatusArgs struct {
	QueueRow int    `json:"queue_row" jsonschema:"row number of the queue item"`
	Status   string `json:"status" jsonschema:"new status: Draft, Pending Review, Approved, Scheduled, Posted, Failed"`
}

type postNowArgs struct {
	QueueRow  int      `json:"queue_row" jsonschema:"row number of the queue item"`
	Platforms string   `json:"platforms,omitempty" jsonschema:"comma-separated platforms, empty posts every drafted platform"`
	MediaURLs []string `json:"media_urls,omitempty" jsonschema:"image URLs to attach, at most 4 are used"`
}

type postTextArgs struct {
	Text      string   `json:"text" jsonschema:"the text to post"`
	Platform  string   `json:"platform" jsonschema:"target platform"`
	MediaURLs []string `json:"media_urls,omitempty" jsonschema:"image URLs to attach, at most 4 are used"`
}

func (s *Server) registerQueueTools() {
	addTool(s, &mcp.Tool{
		Name:        "sm_create_content",
		Description: "Generate AI content drafts for a topic and save them to the content queue as a Draft item.",
	}, s.createContent)

	addTool(s, &mcp.Tool{
		Name:        "sm_edit_draft",
		Description: "Replace the draft text of one platform on a queue item.",
	}, func(ctx context.Context, in editDraftArgs) (payload, error) {
		if err := s.queue.EditDraft(ctx, in.QueueRow, in.Platform, in.NewText); err != nil {
			return nil, err
		}
		return payload{"row": in.QueueRow, "platform": in.Platform}, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "sm_list_queue",
		Description: "List content queue items, optionally filtered by status.",
	}, func(ctx context.Context, in listQueueArgs) (payload, error) {
		limit := in.Limit
		if limit <= 0 {
			limit = service.DefaultListLimit
		}
		items, err := s.queue.ListQueue(ctx, queue.ListQueueInput{Status: in.Status, Limit: limit})
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []entity.QueueItem{}
		}
		return payload{"count": len(items), "items": items}, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "sm_approve",
		Description: "Mark a queue item as Approved for posting.",
	}, func(ctx context.Context, in rowArgs) (payload, error) {
		if err := s.queue.Approve(ctx, in.QueueRow); err != nil {
			return nil, err
		}
		return payload{"row": in.QueueRow, "status": entity.StatusApproved}, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "sm_schedule",
		Description: "Mark a queue item Scheduled for a publish time. Nothing posts it automatically.",
	}, func(ctx context.Context, in scheduleArgs) (payload, error) {
		if err := s.queue.Schedule(ctx, in.QueueRow, in.ScheduledFor); err != nil {
			return nil, err
		}
		return payload{
			"row":           in.QueueRow,
			"status":        entity.StatusScheduled,
			"scheduled_for": in.ScheduledFor,
		}, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "sm_update_status",
		Description: "Set a queue item's status without transition checks.",
	}, func(ctx context.Context, in updateStatusArgs) (payload, error) {
		st, err := s.queue.UpdateStatus(ctx, in.QueueRow, in.Status)
		if err != nil {
			return nil, err
		}
		return payload{"row": in.QueueRow, "status": st}, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "sm_post_now",
		Description: "Post a queue item immediately to the given platforms, or to every platform with a draft.",
	}, func(ctx context.Context, in postNowArgs) (payload, error) {
		out, err := s.queue.PostNow(ctx, queue.PostNowInput{
			Row:       in.QueueRow,
			Platforms: []string{in.Platforms},
			MediaURLs: in.MediaURLs,
		})
		if err != nil {
			return nil, err
		}
		return payload{
			"row":       out.Row,
			"status":    out.Status,
			"posted_at": out.PostedAt,
			"results":   out.Results,
			"post_ids":  out.PostIDs,
			"partial":   out.Partial,
		}, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "sm_post_text",
		Description: "Post text directly to one platform, bypassing the queue.",
	}, func(ctx context.Context, in postTextArgs) (payload, error) {
		out, err := s.queue.PostText(ctx, queue.PostTextInput{
			Text:      in.Text,
			Platform:  in.Platform,
			MediaURLs: in.MediaURLs,
		})
		if err != nil {
			return nil, err
		}
		return payload{"platform": in.Platform, "result": out}, nil
	})
}

func (s *Server) createContent(ctx context.Context, in createContentArgs) (payload, error) {
	platforms := in.Platforms
	if platforms == "" {
		platforms = defaultPlatforms
	}

	out, err := s.queue.CreateContent(ctx, queue.CreateContentInput{
		Topic:     in.Topic,
		Platforms: []string{platforms},
		Tone:      in.Tone,
		Org:       in.Org,
	})
	if err != nil {
		return nil, err
	}

	return payload{
		"content_id": out.ContentID,
		"row":        out.Row,
		"platforms":  out.Platforms,
		"drafts":     out.Drafts,
	}, nil
}
