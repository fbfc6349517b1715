package adapter

import (
	"context"

	"github.com/vadim/socialops/internal/domain/platform/entity"
)

// Stub stands in for a platform that has no live integration yet.
// Post always fails and never touches the network.
type Stub struct {
	platform entity.Platform
	step     string
}

// NewStub creates a stub adapter; step names what is missing for a live integration
func NewStub(platform entity.Platform, step string) *Stub {
	return &Stub{platform: platform, step: step}
}

// NewFacebook returns the Facebook stub
func NewFacebook() *Stub {
	return NewStub(entity.PlatformFacebook, "Requires Meta Graph API page access token and app review.")
}

// NewInstagram returns the Instagram stub
func NewInstagram() *Stub {
	return NewStub(entity.PlatformInstagram, "Requires Meta Graph API OAuth app approval.")
}

// NewLinkedIn returns the LinkedIn stub
func NewLinkedIn() *Stub {
	return NewStub(entity.PlatformLinkedIn, "Requires LinkedIn OAuth 2.0 app approval.")
}

// NewTwitter returns the X/Twitter stub
func NewTwitter() *Stub {
	return NewStub(entity.PlatformTwitter, "X/Twitter is excluded by policy; stub only.")
}

func (s *Stub) Platform() entity.Platform { return s.platform }
func (s *Stub) Limit() int                { return s.platform.Limit() }
func (s *Stub) Mode() entity.Mode         { return entity.ModeStub }

func (s *Stub) Post(_ context.Context, _ string, _ []string) (*entity.PostOutput, error) {
	return nil, &entity.NotConfiguredError{Platform: s.platform, Step: s.step}
}

func (s *Stub) GetMetrics(_ context.Context, _ string) entity.Metrics {
	return entity.Metrics{}
}

func (s *Stub) VerifyCredentials(_ context.Context) bool {
	return false
}
