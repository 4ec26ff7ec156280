package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request is a fluent builder for HTTP requests.
type Request interface {
	// SetQueryParam adds a URL query parameter.
	SetQueryParam(key, value string) Request
	// SetHeader sets a request header.
	SetHeader(key, value string) Request
	// SetResult sets the target into which a 2xx JSON response body is decoded.
	SetResult(result any) Request
	// Get executes a GET request against path (joined to the base URL).
	Get(ctx context.Context, path string) (*Response, error)
}

// Response holds the outcome of an executed request.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type requestBuilder struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	providerName   string
	tracer         trace.Tracer
	baseURL        string
	headers        map[string]string
	queryParams    map[string]string
	result         any
}

func (r *requestBuilder) SetQueryParam(key, value string) Request {
	r.queryParams[key] = value
	return r
}

func (r *requestBuilder) SetHeader(key, value string) Request {
	r.headers[key] = value
	return r
}

func (r *requestBuilder) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *requestBuilder) Get(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, path)
}

func (r *requestBuilder) execute(ctx context.Context, method, path string) (*Response, error) {
	fullURL, err := r.buildURL(path)
	if err != nil {
		return nil, fmt.Errorf("building url: %w", err)
	}

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("http.%s", method),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", fullURL),
			attribute.String("provider", r.providerName),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	r.requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", r.providerName),
		attribute.String("method", method),
	))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	body, err := ReadBody(resp)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	out := &Response{StatusCode: resp.StatusCode, Body: body}

	if out.IsSuccess() && r.result != nil {
		if err := json.Unmarshal(body, r.result); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return out, fmt.Errorf("decoding response: %w", err)
		}
	}

	return out, nil
}

func (r *requestBuilder) buildURL(path string) (string, error) {
	u, err := url.Parse(r.baseURL + path)
	if err != nil {
		return "", err
	}
	if len(r.queryParams) > 0 {
		q := u.Query()
		for k, v := range r.queryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
