package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/bluesky-social/indigo/xrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/socialops/internal/domain/platform/entity"
	"github.com/vadim/socialops/internal/httpx/upstream/bluesky"
	"github.com/vadim/socialops/internal/httpx/upstream/mastodon"
	"github.com/vadim/socialops/internal/httpx/upstream/mediafetch"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBlueskyServer(t *testing.T, logins *atomic.Int32, record *atomic.Value) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/com.atproto.server.createSession", func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"accessJwt": "access",
			"handle":    "coalition.bsky.social",
			"did":       "did:plc:abc",
		})
	})
	mux.HandleFunc("/xrpc/com.atproto.repo.uploadBlob", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"blob":{"$type":"blob","ref":{"$link":"bafkreieprs5x3t2g4c6h2uzgk5e2nql5cfqjhjv2sxsee5samddw7vfinq"},"mimeType":"image/png","size":4}}`))
	})
	mux.HandleFunc("/xrpc/com.atproto.repo.createRecord", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		record.Store(string(body))
		_, _ = w.Write([]byte(`{"uri":"at://did:plc:abc/app.bsky.feed.post/3kxyz","cid":"bafyrec"}`))
	})
	mux.HandleFunc("/xrpc/app.bsky.feed.getPosts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "at://did:plc:abc/app.bsky.feed.post/3kxyz", r.URL.Query().Get("uris"))
		_, _ = w.Write([]byte(`{"posts":[{"uri":"at://did:plc:abc/app.bsky.feed.post/3kxyz","likeCount":5,"repostCount":2,"replyCount":1}]}`))
	})
	mux.HandleFunc("/xrpc/app.bsky.actor.getProfile", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"did":"did:plc:abc","handle":"coalition.bsky.social"}`))
	})
	mux.HandleFunc("/media/pic.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBlueskyPost(t *testing.T) {
	var logins atomic.Int32
	var record atomic.Value
	srv := newBlueskyServer(t, &logins, &record)

	client := bluesky.New("coalition.bsky.social", "app-pass", bluesky.WithBaseURL(srv.URL))
	b := NewBluesky(client, mediafetch.New(srv.Client()), discardLogger())

	out, err := b.Post(context.Background(), strings.Repeat("x", 400), []string{srv.URL + "/media/pic.png"})
	require.NoError(t, err)
	assert.Equal(t, "at://did:plc:abc/app.bsky.feed.post/3kxyz", out.PostID)
	assert.Equal(t, "https://bsky.app/profile/coalition.bsky.social/post/3kxyz", out.URL)

	var sent struct {
		Repo   string `json:"repo"`
		Record struct {
			Text  string `json:"text"`
			Embed struct {
				Type   string            `json:"$type"`
				Images []json.RawMessage `json:"images"`
			} `json:"embed"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal([]byte(record.Load().(string)), &sent))
	assert.Equal(t, "did:plc:abc", sent.Repo)
	assert.Equal(t, 300, utf8.RuneCountInString(sent.Record.Text))
	assert.Equal(t, "app.bsky.embed.images", sent.Record.Embed.Type)
	assert.Len(t, sent.Record.Embed.Images, 1)

	// session is reused
	_, err = b.Post(context.Background(), "second", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), logins.Load())
}

func TestBlueskyMetricsAndVerify(t *testing.T) {
	var logins atomic.Int32
	var record atomic.Value
	srv := newBlueskyServer(t, &logins, &record)

	client := bluesky.New("coalition.bsky.social", "app-pass", bluesky.WithBaseURL(srv.URL))
	b := NewBluesky(client, mediafetch.New(nil), discardLogger())

	m := b.GetMetrics(context.Background(), "at://did:plc:abc/app.bsky.feed.post/3kxyz")
	assert.Equal(t, entity.Metrics{Likes: 5, Reposts: 2, Replies: 1}, m)
	assert.True(t, b.VerifyCredentials(context.Background()))
}

func TestBlueskyLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"AuthenticationRequired","message":"Invalid identifier or password"}`))
	}))
	defer srv.Close()

	client := bluesky.New("coalition.bsky.social", "wrong", bluesky.WithBaseURL(srv.URL))
	b := NewBluesky(client, mediafetch.New(nil), discardLogger())

	_, err := b.Post(context.Background(), "hello", nil)
	require.Error(t, err)

	var pubErr *entity.PublishError
	require.True(t, errors.As(err, &pubErr))
	assert.Equal(t, entity.PlatformBluesky, pubErr.Platform)

	var xrpcErr *xrpc.XRPCError
	require.True(t, errors.As(err, &xrpcErr))
	assert.Equal(t, "AuthenticationRequired", xrpcErr.ErrStr)

	assert.False(t, b.VerifyCredentials(context.Background()))
	assert.Equal(t, entity.Metrics{}, b.GetMetrics(context.Background(), "at://x"))
}

func TestBlueskyWithoutCredentialsStaysLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"InvalidRequest","message":"Input/identifier must be a string"}`))
	}))
	defer srv.Close()

	b := NewBluesky(bluesky.New("", "", bluesky.WithBaseURL(srv.URL)), mediafetch.New(nil), discardLogger())
	assert.Equal(t, entity.ModeLive, b.Mode())

	_, err := b.Post(context.Background(), "hello", nil)
	var pubErr *entity.PublishError
	require.True(t, errors.As(err, &pubErr))
	assert.False(t, b.VerifyCredentials(context.Background()))
}

func TestMastodonPost(t *testing.T) {
	var statusBody atomic.Value

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/media", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		_, _ = w.Write([]byte(`{"id":"m1","type":"image","url":"https://files/m1.png"}`))
	})
	mux.HandleFunc("/api/v1/statuses", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		statusBody.Store(string(body))
		_, _ = w.Write([]byte(`{"id":"1099","url":"https://mastodon.social/@coalition/1099"}`))
	})
	mux.HandleFunc("/api/v1/statuses/1099", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"1099","favourites_count":7,"reblogs_count":3,"replies_count":2}`))
	})
	mux.HandleFunc("/api/v1/accounts/verify_credentials", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"1","username":"coalition","acct":"coalition"}`))
	})
	mux.HandleFunc("/pic.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("\x89PNG\r\n\x1a\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mastodon.New("token", mastodon.WithInstance(srv.URL))
	m := NewMastodon(client, mediafetch.New(nil), discardLogger())

	out, err := m.Post(context.Background(), "Hello fediverse", []string{srv.URL + "/pic.png"})
	require.NoError(t, err)
	assert.Equal(t, "1099", out.PostID)
	assert.Equal(t, "https://mastodon.social/@coalition/1099", out.URL)
	assert.JSONEq(t, `{"status":"Hello fediverse","media_ids":["m1"]}`, statusBody.Load().(string))

	assert.Equal(t, entity.Metrics{Likes: 7, Reposts: 3, Replies: 2}, m.GetMetrics(context.Background(), "1099"))
	assert.True(t, m.VerifyCredentials(context.Background()))
}

func TestMastodonRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"Validation failed: Text can't be blank"}`))
	}))
	defer srv.Close()

	client := mastodon.New("token", mastodon.WithInstance(srv.URL))
	m := NewMastodon(client, mediafetch.New(nil), discardLogger())

	_, err := m.Post(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Validation failed")

	var apiErr *mastodon.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.False(t, m.VerifyCredentials(context.Background()))
}

func TestStubNeverPosts(t *testing.T) {
	for _, s := range []*Stub{NewFacebook(), NewInstagram(), NewLinkedIn(), NewTwitter()} {
		t.Run(s.Platform().String(), func(t *testing.T) {
			_, err := s.Post(context.Background(), "hello", nil)
			var notConfigured *entity.NotConfiguredError
			require.True(t, errors.As(err, &notConfigured))
			assert.Equal(t, entity.ModeStub, s.Mode())
		})
	}
}
