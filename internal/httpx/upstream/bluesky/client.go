package bluesky

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
)

const (
	defaultBaseURL = "https://bsky.social"
	defaultTimeout = 30 * time.Second

	postCollection = "app.bsky.feed.post"
	imagesEmbed    = "app.bsky.embed.images"
	createdAtFmt   = "2006-01-02T15:04:05.000Z"
)

var ErrPostNotFound = errors.New("bluesky post not found")

// Client posts to BlueSky through the indigo XRPC bindings
type Client struct {
	baseURL     string
	handle      string
	appPassword string
	httpClient  *http.Client
	now         func() time.Time

	mu   sync.Mutex
	auth *xrpc.AuthInfo
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets the PDS base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClock overrides the clock used for record timestamps
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a new BlueSky client. No network call is made until the first request.
func New(handle, appPassword string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		handle:      handle,
		appPassword: appPassword,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Handle returns the account handle the client logs in with
func (c *Client) Handle() string {
	return c.handle
}

// xrpcClient returns a request-scoped XRPC client carrying auth, so
// concurrent calls never share a mutable client
func (c *Client) xrpcClient(auth *xrpc.AuthInfo) *xrpc.Client {
	return &xrpc.Client{
		Client: c.httpClient,
		Host:   c.baseURL,
		Auth:   auth,
	}
}

// CreateSession logs in with the handle and app password
func (c *Client) CreateSession(ctx context.Context) (*xrpc.AuthInfo, error) {
	out, err := comatproto.ServerCreateSession(ctx, c.xrpcClient(nil), &comatproto.ServerCreateSession_Input{
		Identifier: c.handle,
		Password:   c.appPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &xrpc.AuthInfo{
		AccessJwt:  out.AccessJwt,
		RefreshJwt: out.RefreshJwt,
		Handle:     out.Handle,
		Did:        out.Did,
	}, nil
}

// currentSession returns the cached session, logging in on first use
func (c *Client) currentSession(ctx context.Context) (*xrpc.AuthInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.auth != nil {
		return c.auth, nil
	}

	auth, err := c.CreateSession(ctx)
	if err != nil {
		return nil, err
	}
	c.auth = auth
	return auth, nil
}

func (c *Client) dropSession(auth *xrpc.AuthInfo) {
	c.mu.Lock()
	if c.auth == auth {
		c.auth = nil
	}
	c.mu.Unlock()
}

// withSession runs fn with a logged-in client, logging in again once if the token expired
func (c *Client) withSession(ctx context.Context, fn func(*xrpc.Client, *xrpc.AuthInfo) error) error {
	auth, err := c.currentSession(ctx)
	if err != nil {
		return err
	}

	err = fn(c.xrpcClient(auth), auth)
	if !isExpired(err) {
		return err
	}

	c.dropSession(auth)
	auth, err = c.currentSession(ctx)
	if err != nil {
		return err
	}
	return fn(c.xrpcClient(auth), auth)
}

func isExpired(err error) bool {
	var xe *xrpc.XRPCError
	if !errors.As(err, &xe) {
		return false
	}
	return xe.ErrStr == "ExpiredToken" || xe.ErrStr == "InvalidToken"
}

// UploadBlob uploads binary media and returns the blob reference to embed in a record
func (c *Client) UploadBlob(ctx context.Context, data []byte) (*lexutil.LexBlob, error) {
	var blob *lexutil.LexBlob

	err := c.withSession(ctx, func(xc *xrpc.Client, _ *xrpc.AuthInfo) error {
		out, err := comatproto.RepoUploadBlob(ctx, xc, bytes.NewReader(data))
		if err != nil {
			return err
		}
		blob = out.Blob
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("uploading blob: %w", err)
	}

	return blob, nil
}

// CreatePostInput represents input for creating a post record
type CreatePostInput struct {
	Text   string
	Images []*lexutil.LexBlob
}

// CreateRecordOutput represents output from createRecord
type CreateRecordOutput struct {
	URI string
	CID string
}

// CreatePost writes an app.bsky.feed.post record to the logged-in repo
func (c *Client) CreatePost(ctx context.Context, in CreatePostInput) (*CreateRecordOutput, error) {
	post := &bsky.FeedPost{
		LexiconTypeID: postCollection,
		Text:          in.Text,
		CreatedAt:     c.now().UTC().Format(createdAtFmt),
	}
	if len(in.Images) > 0 {
		images := make([]*bsky.EmbedImages_Image, 0, len(in.Images))
		for _, blob := range in.Images {
			images = append(images, &bsky.EmbedImages_Image{Alt: "", Image: blob})
		}
		post.Embed = &bsky.FeedPost_Embed{
			EmbedImages: &bsky.EmbedImages{LexiconTypeID: imagesEmbed, Images: images},
		}
	}

	var out *comatproto.RepoCreateRecord_Output
	err := c.withSession(ctx, func(xc *xrpc.Client, auth *xrpc.AuthInfo) error {
		var err error
		out, err = comatproto.RepoCreateRecord(ctx, xc, &comatproto.RepoCreateRecord_Input{
			Repo:       auth.Did,
			Collection: postCollection,
			Record:     &lexutil.LexiconTypeDecoder{Val: post},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating post record: %w", err)
	}

	return &CreateRecordOutput{URI: out.Uri, CID: out.Cid}, nil
}

// PostCounts holds the engagement counters of a post view
type PostCounts struct {
	URI         string
	LikeCount   int
	RepostCount int
	ReplyCount  int
}

// GetPost fetches the view of a single post by AT-URI
func (c *Client) GetPost(ctx context.Context, uri string) (*PostCounts, error) {
	var out *bsky.FeedGetPosts_Output
	err := c.withSession(ctx, func(xc *xrpc.Client, _ *xrpc.AuthInfo) error {
		var err error
		out, err = bsky.FeedGetPosts(ctx, xc, []string{uri})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting post: %w", err)
	}
	if len(out.Posts) == 0 || out.Posts[0] == nil {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, uri)
	}

	view := out.Posts[0]
	return &PostCounts{
		URI:         view.Uri,
		LikeCount:   count(view.LikeCount),
		RepostCount: count(view.RepostCount),
		ReplyCount:  count(view.ReplyCount),
	}, nil
}

func count(n *int64) int {
	if n == nil {
		return 0
	}
	return int(*n)
}

// GetProfileDID resolves an actor to its DID
func (c *Client) GetProfileDID(ctx context.Context, actor string) (string, error) {
	var did string
	err := c.withSession(ctx, func(xc *xrpc.Client, _ *xrpc.AuthInfo) error {
		profile, err := bsky.ActorGetProfile(ctx, xc, actor)
		if err != nil {
			return err
		}
		did = profile.Did
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("getting profile: %w", err)
	}

	return did, nil
}

// PostURL builds the public web URL of a post from its AT-URI
// at://did:plc:xxx/app.bsky.feed.post/<rkey>
func PostURL(handle, uri string) string {
	rkey := uri
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		rkey = uri[i+1:]
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", handle, rkey)
}
