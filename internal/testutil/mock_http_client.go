package testutil

import (
	"context"
	"net/http"
	"sync"

	"github.com/flexprice/cashier/internal/httpclient"
)

var _ httpclient.Client = (*MockHTTPClient)(nil)

// MockHTTPClient replays scripted replies in order and records every request
type MockHTTPClient struct {
	mu       sync.Mutex
	replies  []MockResponse
	requests []*httpclient.Request
}

// MockResponse is one scripted reply. Err is returned instead of a response when set.
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
	Err        error
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{}
}

// Enqueue appends replies to the script
func (m *MockHTTPClient) Enqueue(replies ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

// Requests returns the requests sent so far
func (m *MockHTTPClient) Requests() []*httpclient.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*httpclient.Request(nil), m.requests...)
}

// Send implements the httpclient.Client interface. An exhausted script answers
// with an empty 200, which the gateway client treats as no response.
func (m *MockHTTPClient) Send(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if len(m.replies) == 0 {
		return &httpclient.Response{StatusCode: http.StatusOK, Headers: map[string]string{}}, nil
	}

	reply := m.replies[0]
	m.replies = m.replies[1:]
	if reply.Err != nil {
		return nil, reply.Err
	}
	if reply.StatusCode >= http.StatusBadRequest {
		return nil, httpclient.NewError(reply.StatusCode, reply.Body)
	}
	return &httpclient.Response{
		StatusCode: reply.StatusCode,
		Body:       reply.Body,
		Headers:    reply.Headers,
	}, nil
}

// Clear removes all scripted replies and recorded requests
func (m *MockHTTPClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = nil
	m.requests = nil
}
