package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

var (
	// ErrTimeout is returned by WithTimeout when the timer wins the race.
	ErrTimeout = errors.New("network timeout")
)

// Request is an outbound request as seen by the engine: method, absolute URL,
// headers and an optional body.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a snapshot of an HTTP response: status, headers and the fully
// read body. Snapshots are what the cache stores, so nothing here holds onto
// a live connection.
type Response struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Client performs outbound HTTP requests. Implemented by HTTPClient in
// production and by fakes in tests.
type Client interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

type HTTPClient struct {
	client *http.Client
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{client: &http.Client{}}
}

func (c *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header.Clone(),
		Body:       respBody,
	}, nil
}

// WithTimeout races op against a timer. If the timer wins, ErrTimeout is
// returned and the in-flight operation's eventual result is discarded; the
// operation sees its context cancelled and releases whatever it held.
func WithTimeout(ctx context.Context, d time.Duration, op func(ctx context.Context) (*Response, error)) (*Response, error) {
	opCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		resp *Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := op(opCtx)
		done <- result{resp, err}
	}()

	select {
	case <-opCtx.Done():
		// Ambient cancellation is not a timeout verdict; the caller
		// needs to tell the two apart.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrTimeout
	case r := <-done:
		return r.resp, r.err
	}
}
