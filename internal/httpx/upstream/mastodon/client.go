package mastodon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const (
	defaultInstance = "https://mastodon.social"
	defaultTimeout  = 30 * time.Second
)

// Client is a Mastodon REST API client authenticated with an access token
type Client struct {
	instance    string
	accessToken string
	httpClient  *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithInstance sets the instance base URL
func WithInstance(instance string) ClientOption {
	return func(c *Client) {
		if instance != "" {
			c.instance = strings.TrimRight(instance, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new Mastodon client
func New(accessToken string, opts ...ClientOption) *Client {
	c := &Client{
		instance:    defaultInstance,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an error from the Mastodon API
type APIError struct {
	Status      int    `json:"-"`
	Message     string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mastodon API error: %s (status: %d)", e.Message, e.Status)
}

// Attachment is the response of a media upload
type Attachment struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// UploadMediaInput represents input for uploading a media attachment
type UploadMediaInput struct {
	Data        []byte
	Filename    string
	ContentType string
}

// UploadMedia uploads a file as a media attachment
// POST /api/v1/media
func (c *Client) UploadMedia(ctx context.Context, in UploadMediaInput) (*Attachment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	filename := in.Filename
	if filename == "" {
		filename = "image.jpg"
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("creating multipart part: %w", err)
	}
	if _, err := part.Write(in.Data); err != nil {
		return nil, fmt.Errorf("writing multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/media", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out Attachment
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("uploading media: %w", err)
	}

	return &out, nil
}

// CreateStatusInput represents input for publishing a status
type CreateStatusInput struct {
	Status   string   `json:"status"`
	MediaIDs []string `json:"media_ids,omitempty"`
}

// Status is the subset of a status entity used by this service
type Status struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	FavouritesCount int    `json:"favourites_count"`
	ReblogsCount    int    `json:"reblogs_count"`
	RepliesCount    int    `json:"replies_count"`
}

// CreateStatus publishes a status
// POST /api/v1/statuses
func (c *Client) CreateStatus(ctx context.Context, in CreateStatusInput) (*Status, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding status: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/statuses", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out Status
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("creating status: %w", err)
	}

	return &out, nil
}

// GetStatus fetches a status by ID
// GET /api/v1/statuses/{id}
func (c *Client) GetStatus(ctx context.Context, id string) (*Status, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/statuses/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var out Status
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("getting status: %w", err)
	}

	return &out, nil
}

// Account is the subset of the authenticated account returned by verify_credentials
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Acct     string `json:"acct"`
}

// VerifyCredentials checks the access token
// GET /api/v1/accounts/verify_credentials
func (c *Client) VerifyCredentials(ctx context.Context) (*Account, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/accounts/verify_credentials", nil)
	if err != nil {
		return nil, err
	}

	var out Account
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("verifying credentials: %w", err)
	}

	return &out, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/api/v1%s", c.instance, path)

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	return req, nil
}

// do executes an HTTP request and decodes the response
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
