package tests

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/oauth-login/internal/config"
	"github.com/brizzai/oauth-login/internal/requester"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockAuthManager implements the AuthManager interface for testing
type MockAuthManager struct {
	err error
}

func (m *MockAuthManager) ApplyAuth(req *http.Request) error {
	return m.err
}

func TestHTTPRequester(t *testing.T) {
	tests := []struct {
		name           string
		request        *requester.Request
		timeout        time.Duration
		serverResponse func(w http.ResponseWriter, r *http.Request)
		checkResponse  func(t *testing.T, response *requester.Response, err error)
	}{
		{
			name:    "Simple GET Request",
			request: &requester.Request{Method: http.MethodGet, Auth: &MockAuthManager{}},
			timeout: 5 * time.Second,
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				w.WriteHeader(http.StatusOK)
				if err := json.NewEncoder(w).Encode(map[string]string{"status": "success"}); err != nil {
					t.Errorf("Failed to encode response: %v", err)
				}
			},
			checkResponse: func(t *testing.T, response *requester.Response, err error) {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, response.StatusCode)
				assert.True(t, response.OK())

				var body map[string]string
				require.NoError(t, json.Unmarshal(response.Body, &body))
				assert.Equal(t, "success", body["status"])
			},
		},
		{
			name: "Request with Headers",
			request: &requester.Request{
				Method:  http.MethodGet,
				Headers: map[string]string{"X-Test-Header": "test-value"},
			},
			timeout: 5 * time.Second,
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "test-value", r.Header.Get("X-Test-Header"))
				w.WriteHeader(http.StatusOK)
			},
			checkResponse: func(t *testing.T, response *requester.Response, err error) {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, response.StatusCode)
			},
		},
		{
			name:    "Non 2xx is not an error",
			request: &requester.Request{Method: http.MethodGet},
			timeout: 5 * time.Second,
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"msg":"this access token does not exist"}`))
			},
			checkResponse: func(t *testing.T, response *requester.Response, err error) {
				require.NoError(t, err)
				assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
				assert.False(t, response.OK())
			},
		},
		{
			name:    "Auth failure aborts before sending",
			request: &requester.Request{Method: http.MethodGet, Auth: &MockAuthManager{err: errors.New("boom")}},
			timeout: 5 * time.Second,
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				t.Error("server should not be called")
			},
			checkResponse: func(t *testing.T, response *requester.Response, err error) {
				require.Error(t, err)
				assert.Nil(t, response)
			},
		},
		{
			name:    "Request Timeout",
			request: &requester.Request{Method: http.MethodGet},
			timeout: 100 * time.Millisecond,
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
				w.WriteHeader(http.StatusOK)
			},
			checkResponse: func(t *testing.T, response *requester.Response, err error) {
				require.Error(t, err)
				assert.Nil(t, response)

				var netErr net.Error
				require.True(t, errors.As(err, &netErr))
				assert.True(t, netErr.Timeout())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			r := requester.NewHTTPRequester(requester.HTTPRequesterParams{
				ProviderConfig: &config.ProviderConfig{Timeout: tt.timeout},
			})
			tt.request.URL = server.URL

			resp, err := r.Do(context.Background(), tt.request)
			tt.checkResponse(t, resp, err)
		})
	}
}

func TestNewHTTPRequester_DefaultTimeout(t *testing.T) {
	r := requester.NewHTTPRequester(requester.HTTPRequesterParams{})
	assert.Equal(t, 10*time.Second, r.Client().Timeout)

	r = requester.NewHTTPRequester(requester.HTTPRequesterParams{
		ProviderConfig: &config.ProviderConfig{Timeout: 2 * time.Second},
	})
	assert.Equal(t, 2*time.Second, r.Client().Timeout)
}
