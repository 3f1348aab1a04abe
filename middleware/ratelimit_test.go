package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsBurstThenThrottles(t *testing.T) {
	// rps 1 with burst 3: the bucket holds exactly 3 tokens up front, and
	// refill is far too slow to matter within the test.
	rl := NewRateLimiter(1, 3)
	handler := rl.Handler(okHandler())

	for i := 0; i < 3; i++ {
		rec := hit(handler, "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := hit(handler, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many requests")
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestRateLimiterIsolatesPeers(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	handler := rl.Handler(okHandler())

	require.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1:1234").Code)

	// A different peer has its own bucket.
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2:5678").Code)
}
