package policy

import (
	"context"
	"log/slog"
	"sort"

	"github.com/vadim/socialops/internal/domain/platform/entity"
	"github.com/vadim/socialops/internal/domain/platform/registry"
)

// PlatformRegistry exposes the registered adapters
type PlatformRegistry interface {
	Get(name string) (registry.Adapter, error)
	All() []registry.Adapter
}

// CredentialChecker reports whether credentials for a platform are present
type CredentialChecker interface {
	Configured(p entity.Platform) bool
}

// Policy answers account and platform status questions
type Policy struct {
	platforms   PlatformRegistry
	credentials CredentialChecker
	logger      *slog.Logger
}

// New creates a new platform policy
func New(platforms PlatformRegistry, credentials CredentialChecker, logger *slog.Logger) *Policy {
	return &Policy{
		platforms:   platforms,
		credentials: credentials,
		logger:      logger,
	}
}

// Account describes one platform account
type Account struct {
	Platform   entity.Platform `json:"platform"`
	Configured bool            `json:"configured"`
	Mode       entity.Mode     `json:"mode"`
}

// ListAccounts returns every registered platform sorted by name.
// Configured only looks at credentials and makes no network call.
func (p *Policy) ListAccounts() []Account {
	adapters := p.platforms.All()
	out := make([]Account, 0, len(adapters))
	for _, a := range adapters {
		out = append(out, Account{
			Platform:   a.Platform(),
			Configured: p.credentials.Configured(a.Platform()),
			Mode:       a.Mode(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out
}

// TestAccountOutput represents the result of a credential check
type TestAccountOutput struct {
	Platform entity.Platform `json:"platform"`
	Verified bool            `json:"verified"`
}

// TestAccount verifies credentials against the vendor. Only an unknown name is an error.
func (p *Policy) TestAccount(ctx context.Context, name string) (*TestAccountOutput, error) {
	a, err := p.platforms.Get(name)
	if err != nil {
		return nil, err
	}

	verified := a.VerifyCredentials(ctx)
	p.logger.Info("credentials checked", "platform", a.Platform(), "verified", verified)

	return &TestAccountOutput{Platform: a.Platform(), Verified: verified}, nil
}

// Status lists platforms by integration mode
type Status struct {
	Live []string `json:"live"`
	Stub []string `json:"stub"`
}

// PlatformStatus returns which platforms are live and which are stubs, in canonical order
func (p *Policy) PlatformStatus() Status {
	st := Status{Live: []string{}, Stub: []string{}}
	for _, a := range p.platforms.All() {
		switch a.Mode() {
		case entity.ModeLive:
			st.Live = append(st.Live, a.Platform().String())
		default:
			st.Stub = append(st.Stub, a.Platform().String())
		}
	}
	return st
}
