// Package testutil provides testing utilities for the explorer.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockRequest is a decoded GraphQL request received by the mock.
type MockRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// MockResponse defines the behavior for one mocked operation.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockGraphQL is a configurable upstream GraphQL endpoint for testing.
// Handlers are keyed by operation name.
type MockGraphQL struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, req MockRequest)

	requestCount int
	requests     []MockRequest
	lastHeader   http.Header
}

// NewMockGraphQL starts a new mock endpoint.
func NewMockGraphQL() *MockGraphQL {
	mock := &MockGraphQL{
		handlers: make(map[string]func(w http.ResponseWriter, req MockRequest)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req MockRequest
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)

		mock.mu.Lock()
		mock.requestCount++
		mock.requests = append(mock.requests, req)
		mock.lastHeader = r.Header.Clone()
		handler, exists := mock.handlers[req.OperationName]
		mock.mu.Unlock()

		if exists {
			handler(w, req)
			return
		}

		writeJSON(w, http.StatusOK, `{"data":null}`)
	}))

	return mock
}

// URL returns the mock endpoint URL.
func (m *MockGraphQL) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGraphQL) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockGraphQL) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.requests = nil
	m.lastHeader = nil
}

// SetHandler sets a custom handler for an operation.
func (m *MockGraphQL) SetHandler(operation string, handler func(w http.ResponseWriter, req MockRequest)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[operation] = handler
}

// SetResponse configures a fixed response for an operation.
func (m *MockGraphQL) SetResponse(operation string, resp MockResponse) {
	m.SetHandler(operation, func(w http.ResponseWriter, req MockRequest) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		writeJSON(w, resp.StatusCode, resp.Body)
	})
}

// SetData answers an operation with {"data": data}.
func (m *MockGraphQL) SetData(operation string, data any) {
	m.SetResponse(operation, NewDataResponse(data))
}

// RequestCount returns the number of requests made to the server.
func (m *MockGraphQL) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// Requests returns a copy of the received requests in order.
func (m *MockGraphQL) Requests() []MockRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]MockRequest(nil), m.requests...)
}

// LastHeader returns the headers of the most recent request.
func (m *MockGraphQL) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != "" {
		_, _ = w.Write([]byte(body))
	}
}

// NewDataResponse creates a 200 OK response carrying data.
func NewDataResponse(data any) MockResponse {
	raw, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		panic(err)
	}
	return MockResponse{StatusCode: http.StatusOK, Body: string(raw)}
}

// NewGraphQLErrorResponse creates a 200 OK response with an errors array.
func NewGraphQLErrorResponse(messages ...string) MockResponse {
	errs := make([]map[string]string, 0, len(messages))
	for _, msg := range messages {
		errs = append(errs, map[string]string{"message": msg})
	}
	raw, err := json.Marshal(map[string]any{"data": nil, "errors": errs})
	if err != nil {
		panic(err)
	}
	return MockResponse{StatusCode: http.StatusOK, Body: string(raw)}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// NewBadRequestResponse creates a 400 Bad Request response.
func NewBadRequestResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       `{"error": "Bad request"}`,
	}
}

// NewFlakyHandler fails with 500 for the first failures calls, then
// answers with data.
func NewFlakyHandler(failures int, data any) func(w http.ResponseWriter, req MockRequest) {
	var mu sync.Mutex
	calls := 0
	ok := NewDataResponse(data)
	return func(w http.ResponseWriter, req MockRequest) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		if n <= failures {
			writeJSON(w, http.StatusInternalServerError, `{"error": "temporary"}`)
			return
		}
		writeJSON(w, ok.StatusCode, ok.Body)
	}
}
