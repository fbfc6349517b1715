package policy

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/socialops/internal/domain/platform/adapter"
	"github.com/vadim/socialops/internal/domain/platform/entity"
	"github.com/vadim/socialops/internal/domain/platform/registry"
)

type liveAdapter struct {
	*adapter.Stub
	verified bool
}

func (l *liveAdapter) Mode() entity.Mode                      { return entity.ModeLive }
func (l *liveAdapter) VerifyCredentials(context.Context) bool { return l.verified }

type credentials map[entity.Platform]bool

func (c credentials) Configured(p entity.Platform) bool { return c[p] }

func newPolicy() *Policy {
	reg := registry.New(
		&liveAdapter{Stub: adapter.NewStub(entity.PlatformBluesky, ""), verified: true},
		&liveAdapter{Stub: adapter.NewStub(entity.PlatformMastodon, "")},
		adapter.NewFacebook(),
		adapter.NewInstagram(),
		adapter.NewLinkedIn(),
		adapter.NewTwitter(),
	)
	creds := credentials{entity.PlatformBluesky: true, entity.PlatformLinkedIn: true}
	return New(reg, creds, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListAccounts(t *testing.T) {
	accounts := newPolicy().ListAccounts()
	require.Len(t, accounts, 6)

	assert.Equal(t, Account{Platform: entity.PlatformBluesky, Configured: true, Mode: entity.ModeLive}, accounts[0])
	assert.Equal(t, entity.PlatformFacebook, accounts[1].Platform)
	assert.Equal(t, Account{Platform: entity.PlatformLinkedIn, Configured: true, Mode: entity.ModeStub}, accounts[3])
	assert.Equal(t, Account{Platform: entity.PlatformTwitter, Configured: false, Mode: entity.ModeStub}, accounts[5])
}

func TestTestAccount(t *testing.T) {
	p := newPolicy()
	ctx := context.Background()

	out, err := p.TestAccount(ctx, "BlueSky")
	require.NoError(t, err)
	assert.True(t, out.Verified)

	out, err = p.TestAccount(ctx, "twitter")
	require.NoError(t, err)
	assert.False(t, out.Verified)

	_, err = p.TestAccount(ctx, "myspace")
	var unknown *entity.UnknownPlatformError
	assert.ErrorAs(t, err, &unknown)
}

func TestPlatformStatus(t *testing.T) {
	st := newPolicy().PlatformStatus()
	assert.Equal(t, []string{"bluesky", "mastodon"}, st.Live)
	assert.Equal(t, []string{"facebook", "instagram", "linkedin", "twitter"}, st.Stub)
}
