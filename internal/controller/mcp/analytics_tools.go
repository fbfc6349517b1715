package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	analyticsentity "github.com/vadim/socialops/internal/domain/analytics/entity"
	analytics "github.com/vadim/socialops/internal/domain/analytics/service"
)

// defaultAnalyticsDays is the look-back window of sm_get_analytics
const defaultAnalyticsDays = 7

type getAnalyticsArgs struct {
	Platform string `json:"platform,omitempty" jsonschema:"filter by platform, empty for all"`
	Days     *int   `json:"days,omitempty" jsonschema:"days to look back, default 7, 0 for everything"`
}

type refreshAnalyticsArgs struct {
	PostID   string `json:"post_id,omitempty" jsonschema:"vendor post id to refresh, empty refreshes recent posts"`
	Platform string `json:"platform,omitempty" jsonschema:"platform of post_id, needed when the id exists on several platforms"`
	Limit    int    `json:"limit,omitempty" jsonschema:"how many recent posts to refresh, default 20"`
}

func (s *Server) registerAnalyticsTools() {
	addTool(s, &mcp.Tool{
		Name:        "sm_get_analytics",
		Description: "View collected engagement metrics.",
	}, func(ctx context.Context, in getAnalyticsArgs) (payload, error) {
		days := defaultAnalyticsDays
		if in.Days != nil {
			days = *in.Days
		}
		records, err := s.analytics.List(ctx, analytics.ListInput{Platform: in.Platform, Days: days})
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []analyticsentity.Record{}
		}

		name := in.Platform
		if strings.TrimSpace(name) == "" {
			name = "all"
		}
		return payload{
			"days":      days,
			"platform":  name,
			"count":     len(records),
			"analytics": records,
		}, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "sm_refresh_analytics",
		Description: "Fetch fresh engagement metrics from the platform APIs.",
	}, func(ctx context.Context, in refreshAnalyticsArgs) (payload, error) {
		if strings.TrimSpace(in.PostID) != "" {
			out, err := s.analytics.Refresh(ctx, in.PostID, in.Platform)
			if err != nil {
				return nil, err
			}
			return payload{
				"post_id":  out.PostID,
				"platform": out.Platform,
				"metrics":  out.Metrics,
			}, nil
		}

		refreshed, err := s.analytics.RefreshRecent(ctx, in.Limit)
		if err != nil {
			return nil, err
		}
		if refreshed == nil {
			refreshed = []analytics.RefreshOutput{}
		}
		return payload{"refreshed": refreshed}, nil
	})
}
