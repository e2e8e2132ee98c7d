package requester

import (
	"io"
	"net/http"
)

// Request describes a single outbound call
type Request struct {
	Method  string
	URL     string
	Body    io.Reader
	Headers map[string]string
	Auth    AuthManager
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// OK reports whether the upstream answered with a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
