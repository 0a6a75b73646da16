package httputil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketsim/pkg/logger"
)

func TestNew(t *testing.T) {
	client := New(logger.Nop())
	require.NotNil(t, client.httpClient)
	assert.Equal(t, 3, client.retryConfig.MaxRetries)
	assert.True(t, client.retryConfig.Enabled)

	client = NewWithTimeout(logger.Nop(), 5*time.Second).WithRetry(5, 2*time.Second)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 5, client.retryConfig.MaxRetries)
	assert.Equal(t, 2*time.Second, client.retryConfig.InitialDelay)

	assert.False(t, client.DisableRetry().retryConfig.Enabled)
}

func TestGetBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("<table></table>"))
	}))
	defer server.Close()

	client := New(logger.Nop())

	body, err := client.GetBody(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<table></table>", string(body))

	_, err = client.GetBody(context.Background(), server.URL+"/missing")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestRetryOn5xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(logger.Nop()).WithRetry(3, 10*time.Millisecond)

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRetry_GivesUp(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(logger.Nop()).WithRetry(2, time.Millisecond)

	_, err := client.GetBody(context.Background(), server.URL)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRetry_StopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(logger.Nop()).WithRetry(5, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, server.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{201, false},
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.statusCode))
		})
	}
}
