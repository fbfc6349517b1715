package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analyticsentity "github.com/vadim/socialops/internal/domain/analytics/entity"
	analytics "github.com/vadim/socialops/internal/domain/analytics/service"
	content "github.com/vadim/socialops/internal/domain/content/entity"
	platform "github.com/vadim/socialops/internal/domain/platform/entity"
	platformpolicy "github.com/vadim/socialops/internal/domain/platform/policy"
	"github.com/vadim/socialops/internal/domain/queue/entity"
	"github.com/vadim/socialops/internal/domain/queue/policy"
	"github.com/vadim/socialops/internal/storage"
)

type fakeQueue struct {
	err     error
	items   []entity.QueueItem
	created policy.CreateContentInput
	postNow policy.PostNowInput
	edited  string
}

func (f *fakeQueue) CreateContent(_ context.Context, in policy.CreateContentInput) (*policy.CreateContentOutput, error) {
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &policy.CreateContentOutput{ContentID: "SM-20250314-092653", Row: 2, Platforms: in.Platforms}, nil
}

func (f *fakeQueue) EditDraft(_ context.Context, row int, name, text string) error {
	f.edited = fmt.Sprintf("%d/%s/%s", row, name, text)
	return f.err
}

func (f *fakeQueue) ListQueue(context.Context, policy.ListQueueInput) ([]entity.QueueItem, error) {
	return f.items, f.err
}

func (f *fakeQueue) GetItem(_ context.Context, row int) (*entity.QueueItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.QueueItem{Row: row, ContentID: "SM-1", Status: entity.StatusDraft}, nil
}

func (f *fakeQueue) Approve(context.Context, int) error { return f.err }

func (f *fakeQueue) Schedule(context.Context, int, string) error { return f.err }

func (f *fakeQueue) UpdateStatus(_ context.Context, _ int, status string) (entity.Status, error) {
	if f.err != nil {
		return "", f.err
	}
	return entity.ParseStatus(status)
}

func (f *fakeQueue) PostNow(_ context.Context, in policy.PostNowInput) (*policy.PostNowOutput, error) {
	f.postNow = in
	if f.err != nil {
		return nil, f.err
	}
	return &policy.PostNowOutput{Row: in.Row, Status: entity.StatusPosted}, nil
}

func (f *fakeQueue) PostText(context.Context, policy.PostTextInput) (*platform.PostOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &platform.PostOutput{PostID: "1099", URL: "https://m.test/@org/1099"}, nil
}

type fakeAnalytics struct {
	err error
}

func (f *fakeAnalytics) List(context.Context, analytics.ListInput) ([]analyticsentity.Record, error) {
	return nil, f.err
}

func (f *fakeAnalytics) Refresh(_ context.Context, postID, name string) (*analytics.RefreshOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &analytics.RefreshOutput{PostID: postID, Platform: name}, nil
}

func (f *fakeAnalytics) RefreshRecent(context.Context, int) ([]analytics.RefreshOutput, error) {
	return nil, f.err
}

type fakeBrandVoice struct {
	saved *content.BrandVoice
	err   error
}

func (f *fakeBrandVoice) BrandVoice(context.Context) (*content.BrandVoice, error) {
	return content.DefaultBrandVoice(), nil
}

func (f *fakeBrandVoice) SetBrandVoice(_ context.Context, bv *content.BrandVoice) error {
	if f.err != nil {
		return f.err
	}
	f.saved = bv
	return nil
}

type fakeAccounts struct{}

func (fakeAccounts) ListAccounts() []platformpolicy.Account {
	return []platformpolicy.Account{{Platform: platform.PlatformBluesky, Configured: true, Mode: platform.ModeLive}}
}

func (fakeAccounts) TestAccount(_ context.Context, name string) (*platformpolicy.TestAccountOutput, error) {
	p, ok := platform.Parse(name)
	if !ok {
		return nil, &platform.UnknownPlatformError{Name: name, Valid: platform.Names(platform.All)}
	}
	return &platformpolicy.TestAccountOutput{Platform: p, Verified: true}, nil
}

func (fakeAccounts) PlatformStatus() platformpolicy.Status {
	return platformpolicy.Status{Live: []string{"bluesky", "mastodon"}, Stub: []string{"twitter"}}
}

type fakeUploader struct {
	err error
}

func (f *fakeUploader) Upload(_ context.Context, in storage.UploadInput) (*storage.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Reader)
	return &storage.UploadOutput{Key: "2025/03/14/x.png", URL: "http://cdn.test/2025/03/14/x.png", Size: int64(len(b))}, nil
}

type fixture struct {
	queue      *fakeQueue
	analytics  *fakeAnalytics
	brandVoice *fakeBrandVoice
	uploader   *fakeUploader
	router     chi.Router
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		queue:      &fakeQueue{},
		analytics:  &fakeAnalytics{},
		brandVoice: &fakeBrandVoice{},
		uploader:   &fakeUploader{},
		router:     chi.NewRouter(),
	}
	NewSwaggerHandler("socialops", []byte("openapi: 3.0.3\n")).RegisterRoutes(f.router)
	f.router.Route("/api/v1", func(r chi.Router) {
		NewQueueHandler(f.queue, logger).RegisterRoutes(r)
		NewAnalyticsHandler(f.analytics, logger).RegisterRoutes(r)
		NewAccountHandler(fakeAccounts{}, logger).RegisterRoutes(r)
		NewBrandVoiceHandler(f.brandVoice, logger).RegisterRoutes(r)
		NewMediaHandler(f.uploader, logger).RegisterRoutes(r)
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCreateContent(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/api/v1/content", `{"topic":"solar policy","platforms":["bluesky","mastodon"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "SM-20250314-092653", decodeBody(t, rec)["content_id"])
	assert.Equal(t, []string{"bluesky", "mastodon"}, f.queue.created.Platforms)

	rec = f.do(t, http.MethodPost, "/api/v1/content", `{"platforms":["bluesky"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Topic is required", decodeBody(t, rec)["error"])

	rec = f.do(t, http.MethodPost, "/api/v1/content", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("%w at row 9", entity.ErrItemNotFound), http.StatusNotFound},
		{"invalid row", entity.ErrInvalidRow, http.StatusBadRequest},
		{"unknown platform", &platform.UnknownPlatformError{Name: "myspace"}, http.StatusBadRequest},
		{"stub platform", &platform.NotConfiguredError{Platform: platform.PlatformTwitter}, http.StatusUnprocessableEntity},
		{"vendor rejected", &platform.PublishError{Platform: platform.PlatformMastodon, Err: errors.New("422")}, http.StatusBadGateway},
		{"completion failed", &content.GenerationError{Stage: "completion", Err: errors.New("timeout")}, http.StatusBadGateway},
		{"unparseable drafts", &content.GenerationError{Stage: "parse", Err: errors.New("eof")}, http.StatusUnprocessableEntity},
		{"no provider", &content.GenerationError{Stage: "completion", Err: content.ErrNoCompleter}, http.StatusServiceUnavailable},
		{"storage", errors.New("sheets quota"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.queue.err = tc.err

			rec := f.do(t, http.MethodPost, "/api/v1/posts", `{"text":"hello","platform":"mastodon"}`)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestQueueRoutes(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/api/v1/queue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decodeBody(t, rec)["count"])

	rec = f.do(t, http.MethodGet, "/api/v1/queue?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/queue/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SM-1", decodeBody(t, rec)["content_id"])

	rec = f.do(t, http.MethodGet, "/api/v1/queue/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/queue/3/drafts/bluesky", `{"text":"new"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3/bluesky/new", f.queue.edited)

	rec = f.do(t, http.MethodPost, "/api/v1/queue/3/approve", "")
	assert.Equal(t, "Approved", decodeBody(t, rec)["status"])

	rec = f.do(t, http.MethodPost, "/api/v1/queue/3/schedule", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/queue/3/status", `{"status":"pending review"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pending Review", decodeBody(t, rec)["status"])

	rec = f.do(t, http.MethodPost, "/api/v1/queue/3/post", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, f.queue.postNow.Row)
	assert.Empty(t, f.queue.postNow.Platforms)

	rec = f.do(t, http.MethodPost, "/api/v1/queue/3/post", `{"platforms":["mastodon"],"media_urls":["not a url"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsRoutes(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/api/v1/analytics?days=30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(30), decodeBody(t, rec)["days"])

	rec = f.do(t, http.MethodGet, "/api/v1/analytics?days=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/analytics/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, decodeBody(t, rec)["refreshed"])

	rec = f.do(t, http.MethodPost, "/api/v1/analytics/refresh", `{"post_id":"1099","platform":"mastodon"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1099", decodeBody(t, rec)["post_id"])

	f.analytics.err = analyticsentity.ErrAmbiguousPostID
	rec = f.do(t, http.MethodPost, "/api/v1/analytics/refresh", `{"post_id":"shared"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAccountAndBrandVoiceRoutes(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/api/v1/accounts", "")
	assert.Equal(t, float64(1), decodeBody(t, rec)["total"])

	rec = f.do(t, http.MethodPost, "/api/v1/accounts/myspace/test", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/accounts/bluesky/test", "")
	assert.Equal(t, true, decodeBody(t, rec)["verified"])

	rec = f.do(t, http.MethodGet, "/api/v1/platforms", "")
	assert.Len(t, decodeBody(t, rec)["live"], 2)

	rec = f.do(t, http.MethodGet, "/api/v1/brand-voice", "")
	assert.Equal(t, "Coalition", decodeBody(t, rec)["org_name"])

	rec = f.do(t, http.MethodPut, "/api/v1/brand-voice", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, f.brandVoice.saved)

	// partial updates reach the service, which merges them
	rec = f.do(t, http.MethodPut, "/api/v1/brand-voice", `{"org_name":"Green Coop"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Green Coop", f.brandVoice.saved.OrgName)
	assert.Empty(t, f.brandVoice.saved.Tone)

	f.brandVoice.err = content.ErrInvalidBrandVoice
	rec = f.do(t, http.MethodPut, "/api/v1/brand-voice", `{"values":[""]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="flyer.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestMediaUpload(t *testing.T) {
	f := newFixture()

	body, ct := multipartBody(t, "image/png")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "http://cdn.test/2025/03/14/x.png", decodeBody(t, rec)["url"])

	body, ct = multipartBody(t, "application/pdf")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.uploader.err = errors.New("bucket missing")
	body, ct = multipartBody(t, "image/png")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSwaggerRoutes(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/docs/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "openapi: 3.0.3\n", rec.Body.String())

	rec = f.do(t, http.MethodGet, "/docs", "")
	assert.Contains(t, rec.Body.String(), "socialops - API Documentation")
}
