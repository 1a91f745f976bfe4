// Package provider constructs the Anthropic client used by the agent.
package provider

import (
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const DefaultModel = anthropic.ModelClaude3_7SonnetLatest

// Options override the SDK defaults. Zero values keep the SDK behaviour,
// which reads ANTHROPIC_API_KEY and ANTHROPIC_BASE_URL from the env.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
}

// NewAnthropicClient returns a client configured from opts.
func NewAnthropicClient(opts Options) *anthropic.Client {
	var reqOpts []option.RequestOption
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	if opts.MaxRetries > 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(opts.MaxRetries))
	}
	c := anthropic.NewClient(reqOpts...)
	return &c
}
