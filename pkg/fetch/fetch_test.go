package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeout_OperationWins(t *testing.T) {
	resp, err := WithTimeout(context.Background(), time.Second, func(_ context.Context) (*Response, error) {
		return &Response{StatusCode: 200}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestWithTimeout_TimerWins(t *testing.T) {
	start := time.Now()
	_, err := WithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second, "must not wait for the slow operation")
}

func TestWithTimeout_ParentCancellationIsNotATimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithTimeout(ctx, time.Minute, func(ctx context.Context) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestWithTimeout_OperationErrorPassesThrough(t *testing.T) {
	wantErr := errors.New("connection refused")
	_, err := WithTimeout(context.Background(), time.Second, func(_ context.Context) (*Response, error) {
		return nil, wantErr
	})

	assert.ErrorIs(t, err, wantErr)
}

func TestResponse_OK(t *testing.T) {
	assert.True(t, (&Response{StatusCode: 200}).OK())
	assert.True(t, (&Response{StatusCode: 204}).OK())
	assert.False(t, (&Response{StatusCode: 302}).OK())
	assert.False(t, (&Response{StatusCode: 404}).OK())
	assert.False(t, (&Response{StatusCode: 500}).OK())

	var nilResp *Response
	assert.False(t, nilResp.OK())
}

func TestHTTPClient_SnapshotsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "value", r.Header.Get("X-Test"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewHTTPClient()
	resp, err := client.Do(context.Background(), &Request{
		Method: "GET",
		URL:    srv.URL,
		Header: http.Header{"X-Test": {"value"}},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
}

func TestHTTPClient_SendsBody(t *testing.T) {
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := make([]byte, r.ContentLength)
		r.Body.Read(b)
		received = b
	}))
	defer srv.Close()

	client := NewHTTPClient()
	_, err := client.Do(context.Background(), &Request{
		Method: "POST",
		URL:    srv.URL,
		Body:   []byte(`{"event":"motion"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, `{"event":"motion"}`, string(received))
}
