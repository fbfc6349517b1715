package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// ErrEmptyCompletion is returned when the model produced no text
var ErrEmptyCompletion = errors.New("gemini returned no text")

// Client generates text with the Gemini API
type Client struct {
	client *genai.Client
	model  string
}

// New creates a Gemini client. An empty model selects the default.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Model returns the configured model
func (c *Client) Model() string {
	return c.model
}

// Complete runs a single-turn generation with a system instruction
func (c *Client) Complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temperature,
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), cfg)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
