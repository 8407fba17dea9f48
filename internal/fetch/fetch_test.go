package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient(maxRetries int) *Client {
	return NewClient(Options{
		Timeout:     2 * time.Second,
		MaxRetries:  maxRetries,
		BaseBackoff: time.Millisecond,
		RetryJitter: 0.1,
	})
}

func TestFetchText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	got := fastClient(0).FetchText(context.Background(), srv.URL)
	assert.Equal(t, "hello", got)
}

func TestFetchTextFailureReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	got := fastClient(2).FetchText(context.Background(), srv.URL)
	assert.Equal(t, "", got)
}

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"value"}`))
	}))
	defer srv.Close()

	var into struct {
		Name string `json:"name"`
	}
	ok := fastClient(0).FetchJSON(context.Background(), srv.URL, &into)
	require.True(t, ok)
	assert.Equal(t, "value", into.Name)
}

func TestFetchJSONDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	var into map[string]any
	assert.False(t, fastClient(0).FetchJSON(context.Background(), srv.URL, &into))
}

func TestRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	got := fastClient(2).FetchText(context.Background(), srv.URL)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetriesOnTooManyRequests(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	got := fastClient(1).FetchText(context.Background(), srv.URL)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	got := fastClient(3).FetchText(context.Background(), srv.URL)
	assert.Equal(t, "", got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx must not be retried")
}

func TestRetryBudgetExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	got := fastClient(2).FetchText(context.Background(), srv.URL)
	assert.Equal(t, "", got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "first attempt plus two retries")
}

func TestUserAgentHeader(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(Options{UserAgent: "newsflow-test/1.0"})
	client.FetchText(context.Background(), srv.URL)
	assert.Equal(t, "newsflow-test/1.0", ua)
}

func TestContextCancellationStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(Options{MaxRetries: 5, BaseBackoff: 50 * time.Millisecond})
	start := time.Now()
	got := client.FetchText(ctx, srv.URL)
	assert.Equal(t, "", got)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPerHostRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(Options{RateLimit: 20})
	start := time.Now()
	for i := 0; i < 3; i++ {
		client.FetchText(context.Background(), srv.URL)
	}
	// Bucket size 1 at 20 req/s: the second and third calls each wait ~50ms.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}
