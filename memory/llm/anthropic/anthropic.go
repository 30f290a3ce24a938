// Package anthropic adapts the Anthropic Messages API to the memory.LLM
// interface.
package anthropic

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
)

// Client calls the Anthropic Messages API for single-shot completions.
type Client struct {
	client    *sdk.Client
	maxTokens int64
}

// Option configures a Client.
type Option func(*Client)

// WithMaxTokens overrides the response token limit (default 4096).
func WithMaxTokens(n int64) Option {
	return func(c *Client) { c.maxTokens = n }
}

// New wraps an Anthropic SDK client.
func New(client *sdk.Client, opts ...Option) *Client {
	c := &Client{
		client:    client,
		maxTokens: 4096,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends the prompt as a single user message and returns the
// concatenated text blocks of the response.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64, model string) (string, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(model),
		MaxTokens:   c.maxTokens,
		Temperature: sdk.Float(temperature),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("calling messages API: %w", err)
	}

	var out string
	for _, block := range resp.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out, nil
}
