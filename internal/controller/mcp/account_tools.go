package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type testAccountArgs struct {
	Platform string `json:"platform" jsonschema:"platform whose credentials to verify"`
}

func (s *Server) registerAccountTools() {
	addTool(s, &mcp.Tool{
		Name:        "sm_list_accounts",
		Description: "Show platform accounts, whether credentials are configured and whether each is live or stub.",
	}, func(_ context.Context, _ struct{}) (payload, error) {
		return payload{"accounts": s.accounts.ListAccounts()}, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "sm_test_account",
		Description: "Verify that credentials work for a platform.",
	}, func(ctx context.Context, in testAccountArgs) (payload, error) {
		out, err := s.accounts.TestAccount(ctx, in.Platform)
		if err != nil {
			return nil, err
		}
		return payload{"platform": out.Platform, "verified": out.Verified}, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "sm_get_platform_status",
		Description: "Show which platforms are live and which are stubs.",
	}, func(_ context.Context, _ struct{}) (payload, error) {
		st := s.accounts.PlatformStatus()
		return payload{"live": st.Live, "stub": st.Stub}, nil
	})
}
