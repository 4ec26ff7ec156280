package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ClientOptions holds configuration for the instrumented client.
type ClientOptions struct {
	client         *http.Client
	providerName   string
	tracer         trace.Tracer
	baseURL        string
	headers        map[string]string
	requestTimeout *time.Duration
}

// ClientOption configures a ClientOptions.
type ClientOption func(*ClientOptions)

// NewClientOptions builds ClientOptions from a list of ClientOption.
func NewClientOptions(opts ...ClientOption) *ClientOptions {
	options := &ClientOptions{
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithHTTPClient sets a custom underlying http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *ClientOptions) {
		o.client = client
	}
}

// WithProviderName sets the provider name used in metrics attributes.
func WithProviderName(name string) ClientOption {
	return func(o *ClientOptions) {
		o.providerName = name
	}
}

// WithTracer sets a custom tracer.
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(o *ClientOptions) {
		o.tracer = tracer
	}
}

// WithBaseURL sets the base URL prepended to request paths.
func WithBaseURL(baseURL string) ClientOption {
	return func(o *ClientOptions) {
		o.baseURL = baseURL
	}
}

// WithDefaultHeader adds a header sent with every request.
func WithDefaultHeader(key, value string) ClientOption {
	return func(o *ClientOptions) {
		o.headers[key] = value
	}
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *ClientOptions) {
		o.requestTimeout = &timeout
	}
}
