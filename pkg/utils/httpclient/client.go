// Package httpclient 提供带有限重试和追踪头传播的 HTTP 客户端，供外部 API 供应商复用。
package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kart-io/loan-advisor/pkg/utils/json"
)

// maxErrorBody 错误响应体最多读取的字节数。
const maxErrorBody = 4 << 10

// StatusError 表示上游返回了非 2xx 状态码。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status code %d: %s", e.StatusCode, e.Body)
}

// Client is a wrapper around http.Client with bounded retries.
type Client struct {
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTransport 替换底层 Transport。
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithBackoff 设置重试间隔基数，第 n 次重试等待 n*backoff。
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

// NewClient creates a new HTTP client wrapper.
// maxRetries 为 0 时只发送一次请求。
func NewClient(timeout time.Duration, maxRetries int, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: max(maxRetries, 0),
		backoff:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest executes an HTTP request, retrying transport errors and 5xx responses.
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	c.injectTraceContext(req)

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		_ = req.Body.Close()
	}

	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := c.httpClient.Do(req)
		if err == nil {
			if resp.StatusCode < http.StatusInternalServerError {
				return resp, nil
			}
			lastErr = readStatusError(resp)
		} else {
			lastErr = err
		}

		if i < c.maxRetries {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(time.Duration(i+1) * c.backoff):
			}
		}
	}
	return nil, lastErr
}

// DoJSON executes a request and decodes a 2xx JSON response into v.
// 非 2xx 响应返回 *StatusError。
func (c *Client) DoJSON(req *http.Request, v any) error {
	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return readStatusError(resp)
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func readStatusError(resp *http.Response) *StatusError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	return &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
}

// injectTraceContext 将当前 Span 的 W3C Trace Context 写入请求头，没有活跃 Span 时不写入。
func (c *Client) injectTraceContext(req *http.Request) {
	if req == nil {
		return
	}
	otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
}
