package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get_SendsHeaders(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Mozilla/5.0 (compatible; RSS-Reader)", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/rss+xml", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()
	client := New(Options{Timeout: time.Second})

	// Act
	resp, err := client.Get(context.Background(), srv.URL, map[string]string{
		"User-Agent": "Mozilla/5.0 (compatible; RSS-Reader)",
		"Accept":     "application/rss+xml",
	})

	// Assert
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
}

func TestClient_Get_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
		{"rate limited", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			resp, err := New(Options{}).Get(context.Background(), srv.URL, nil)

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, domain.ErrUpstreamStatus)
			assert.Equal(t, int32(1), calls.Load(), "no retries")
		})
	}
}

func TestClient_Get_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Get(ctx, srv.URL, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
