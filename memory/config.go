package memory

import "time"

// Config holds Manager tuning knobs.
type Config struct {
	// Model is the language model used for extraction and reconciliation.
	Model string

	// Temperature is the sampling temperature for both LLM calls.
	// The reference behavior uses 0.7; treat it as tunable.
	Temperature float64

	// TopK is the number of nearest memories retrieved per fact.
	TopK int

	// LLMTimeout bounds each language model round trip.
	LLMTimeout time.Duration

	// EmbedTimeout bounds each embedding round trip.
	EmbedTimeout time.Duration
}

// DefaultConfig returns sensible defaults for local development.
var DefaultConfig = &Config{
	Model:        "claude-sonnet-4-20250514",
	Temperature:  0.7,
	TopK:         5,
	LLMTimeout:   30 * time.Second,
	EmbedTimeout: 10 * time.Second,
}

// withDefaults fills zero fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		out := *DefaultConfig
		return &out
	}
	out := *c
	if out.Model == "" {
		out.Model = DefaultConfig.Model
	}
	if out.Temperature == 0 {
		out.Temperature = DefaultConfig.Temperature
	}
	if out.TopK == 0 {
		out.TopK = DefaultConfig.TopK
	}
	if out.LLMTimeout == 0 {
		out.LLMTimeout = DefaultConfig.LLMTimeout
	}
	if out.EmbedTimeout == 0 {
		out.EmbedTimeout = DefaultConfig.EmbedTimeout
	}
	return &out
}
