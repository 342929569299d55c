package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"skycam/edgeagent/pkg/fetch"
)

// fakeClient records every outbound request and answers through a
// test-provided handler.
type fakeClient struct {
	mu      sync.Mutex
	calls   []*fetch.Request
	handler func(req *fetch.Request) (*fetch.Response, error)
}

func (c *fakeClient) Do(_ context.Context, req *fetch.Request) (*fetch.Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()
	return c.handler(req)
}

func (c *fakeClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func okResponse(contentType, body string) *fetch.Response {
	return &fetch.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {contentType}},
		Body:       []byte(body),
	}
}

// fakeClock records backoff sleeps instead of waiting them out.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) recordedSleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}
