package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	"github.com/autopeer-io/tripdash/internal/pkg/metrics"
	"github.com/autopeer-io/tripdash/pkg/log"
	"github.com/autopeer-io/tripdash/pkg/options"
)

// BasePath is prepended to every endpoint.
const BasePath = "/api"

const maxErrorBody = 1024

// Body is a pre-encoded request body. Any other non-nil input to Do is sent as JSON.
type Body struct {
	ContentType string
	Reader      io.Reader
}

// Client talks to the telemetry gateway. It keeps no per-call state and is
// safe for concurrent use.
type Client struct {
	base      string
	apiKey    string
	userAgent string

	http    *http.Client
	limiter *rate.Limiter
	log     log.Logger
}

// New creates a client for opts. A nil jar gets a fresh in-memory cookie jar,
// which carries the session cookie between calls.
func New(opts *options.ApiOptions, jar http.CookieJar) (*Client, error) {
	if jar == nil {
		j, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		jar = j
	}

	var limiter *rate.Limiter
	if opts.QPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.QPS), opts.Burst)
	}

	return &Client{
		base:      strings.TrimRight(opts.Server, "/") + BasePath,
		apiKey:    opts.APIKey,
		userAgent: opts.UserAgent,
		http: &http.Client{
			Timeout: opts.Timeout,
			Jar:     jar,
		},
		limiter: limiter,
		log:     log.WithName("apiclient"),
	}, nil
}

// Jar exposes the cookie jar so the session can be persisted.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// BaseURL is the server URL including BasePath.
func (c *Client) BaseURL() string {
	return c.base
}

// Do sends one request to endpoint (relative to BasePath, query included).
//
// A 401 answer yields errdefs.ErrUnauthorized, any other status outside
// 200-299 an *errdefs.APIError, and transport failures an *errdefs.NetworkError.
// On success a JSON body is decoded into out; other content types are
// delivered as text into a *string and leave any other out untouched.
// A *[]byte receives the raw body either way.
// out may be nil to discard the body.
func (c *Client) Do(ctx context.Context, method, endpoint string, in, out any) error {
	req, err := c.newRequest(ctx, method, endpoint, in)
	if err != nil {
		return err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &errdefs.NetworkError{Op: method, URL: endpoint, Err: err}
		}
	}

	resource := resourceOf(endpoint)
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GatewayRequestLatency.WithLabelValues(method, resource).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(method, resource, "error").Inc()
		c.log.Debug("Gateway request failed", "method", method, "endpoint", endpoint, "error", err)
		return &errdefs.NetworkError{Op: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	metrics.GatewayRequestsTotal.WithLabelValues(method, resource, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%s %s: %w", method, endpoint, errdefs.ErrUnauthorized)
		}
		return &errdefs.APIError{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Body:       string(body),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errdefs.NetworkError{Op: method, URL: endpoint, Err: err}
	}

	return decode(resp.Header.Get("Content-Type"), data, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, in any) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
	)

	switch v := in.(type) {
	case nil:
	case *Body:
		body, contentType = v.Reader, v.ContentType
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	return req, nil
}

func decode(contentType string, data []byte, out any) error {
	switch v := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*v = data
		return nil
	}

	if isJSON(contentType) {
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	if s, ok := out.(*string); ok {
		*s = string(data)
	}
	// a non-JSON success leaves any other out untouched
	return nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// statusText returns "Not Found" for a response with Status "404 Not Found".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// resourceOf keeps metric labels bounded: "/devices/d1/notes?page=0" -> "devices".
func resourceOf(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "/")
	if i := strings.IndexAny(endpoint, "/?"); i >= 0 {
		endpoint = endpoint[:i]
	}
	if endpoint == "" {
		return "root"
	}
	return endpoint
}
