// Package httputil provides the HTTP transport abstraction used to reach the solver.
package httputil

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"
)

// HTTPClient abstracts HTTP operations for testability.
// Use NewStandardClient for production; MockHTTPClient for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StandardClient wraps *http.Client to implement HTTPClient.
type StandardClient struct {
	*http.Client
}

// NewStandardClient creates a client whose overall and header timeouts are both
// bounded by timeout. A zero timeout means no limit.
func NewStandardClient(timeout time.Duration) *StandardClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// The solver may spend most of the request integrating before it writes headers.
	transport.ResponseHeaderTimeout = timeout

	return &StandardClient{Client: &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}}
}

// Do sends an HTTP request.
func (c *StandardClient) Do(req *http.Request) (*http.Response, error) {
	return c.Client.Do(req)
}

// MockHTTPClient returns canned responses in order and records requests.
type MockHTTPClient struct {
	mu           sync.Mutex
	DoFunc       func(req *http.Request) (*http.Response, error)
	Requests     []*http.Request
	Bodies       [][]byte
	Responses    []*MockResponse
	responseIdx  int
	DefaultError error
}

// MockResponse defines a canned HTTP response for testing.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    http.Header
	Error      error
}

// NewMockHTTPClient creates a new mock HTTP client.
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{}
}

// AddResponse queues a response to be returned by subsequent requests.
func (m *MockHTTPClient) AddResponse(statusCode int, body string) *MockHTTPClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = append(m.Responses, &MockResponse{
		StatusCode: statusCode,
		Body:       body,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
	})
	return m
}

// AddErrorResponse queues a transport error.
func (m *MockHTTPClient) AddErrorResponse(err error) *MockHTTPClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = append(m.Responses, &MockResponse{Error: err})
	return m
}

// Do records the request and returns the next queued response.
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.Bodies = append(m.Bodies, body)
	doFunc := m.DoFunc
	m.mu.Unlock()

	// DoFunc may block (slow solver), so it runs unlocked.
	if doFunc != nil {
		return doFunc(req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	if m.responseIdx < len(m.Responses) {
		resp := m.Responses[m.responseIdx]
		m.responseIdx++

		if resp.Error != nil {
			return nil, resp.Error
		}
		return &http.Response{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       io.NopCloser(bytes.NewBufferString(resp.Body)),
			Header:     resp.Headers,
			Request:    req,
		}, nil
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     http.StatusText(http.StatusOK),
		Body:       io.NopCloser(bytes.NewBufferString("")),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// RequestCount returns the number of recorded requests.
func (m *MockHTTPClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// Body returns the body of the nth recorded request.
func (m *MockHTTPClient) Body(n int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 || n >= len(m.Bodies) {
		return nil
	}
	return m.Bodies[n]
}
