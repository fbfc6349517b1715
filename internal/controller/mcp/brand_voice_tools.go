package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	content "github.com/vadim/socialops/internal/domain/content/entity"
)

type setBrandVoiceArgs struct {
	VoiceJSON string `json:"voice_json" jsonschema:"JSON object with org_name, tone, values, avoid, audience, hashtags"`
}

func (s *Server) registerBrandVoiceTools() {
	addTool(s, &mcp.Tool{
		Name:        "sm_get_brand_voice",
		Description: "Return the current brand voice configuration.",
	}, func(ctx context.Context, _ struct{}) (payload, error) {
		bv, err := s.brandVoice.BrandVoice(ctx)
		if err != nil {
			return nil, err
		}
		return payload{"brand_voice": bv}, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "sm_set_brand_voice",
		Description: "Update the brand voice configuration. Omitted fields keep their current value.",
	}, func(ctx context.Context, in setBrandVoiceArgs) (payload, error) {
		var bv content.BrandVoice
		if err := json.Unmarshal([]byte(in.VoiceJSON), &bv); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		if err := s.brandVoice.SetBrandVoice(ctx, &bv); err != nil {
			return nil, err
		}
		return payload{"brand_voice": &bv}, nil
	})
}
