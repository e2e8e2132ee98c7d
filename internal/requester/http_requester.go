package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brizzai/oauth-login/internal/auth/constants"
	"github.com/brizzai/oauth-login/internal/config"
	"github.com/brizzai/oauth-login/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// maxBodyBytes caps how much of an upstream response is buffered
const maxBodyBytes = 1 << 20

// HTTPRequester executes outbound calls to the identity provider with a bounded timeout
type HTTPRequester struct {
	client *http.Client
}

type HTTPRequesterParams struct {
	fx.In

	ProviderConfig *config.ProviderConfig
}

// NewHTTPRequester creates a requester whose client times out after the provider timeout
func NewHTTPRequester(params HTTPRequesterParams) *HTTPRequester {
	timeout := constants.DefaultUpstreamTimeout
	if params.ProviderConfig != nil && params.ProviderConfig.Timeout > 0 {
		timeout = params.ProviderConfig.Timeout
	}
	return NewWithClient(&http.Client{Timeout: timeout})
}

// NewWithClient wraps an existing client
func NewWithClient(client *http.Client) *HTTPRequester {
	return &HTTPRequester{client: client}
}

// Client exposes the underlying client so other libraries (oauth2) share its timeout
func (r *HTTPRequester) Client() *http.Client {
	return r.client
}

// Get performs a GET with the given auth applied
func (r *HTTPRequester) Get(ctx context.Context, url string, auth AuthManager) (*Response, error) {
	return r.Do(ctx, &Request{Method: http.MethodGet, URL: url, Auth: auth})
}

// Do builds and executes req. Transport failures are returned wrapped so callers
// can still inspect them with errors.As.
func (r *HTTPRequester) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if req.Auth != nil {
		if err := req.Auth.ApplyAuth(httpReq); err != nil {
			return nil, fmt.Errorf("failed to apply authentication: %w", err)
		}
	}

	start := time.Now()
	resp, err := r.execute(httpReq)
	if err != nil {
		return nil, err
	}
	logger.Debug("upstream request",
		zap.String("method", req.Method),
		zap.String("host", httpReq.URL.Host),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func (r *HTTPRequester) execute(httpReq *http.Request) (*Response, error) {
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}, nil
}
