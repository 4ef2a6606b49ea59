package emailclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/httpretry"
	"github.com/ignite/newsletter/internal/service/subscription"
)

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	c, err := New(config.EmailClientConfig{
		BaseURL:            baseURL,
		SenderEmail:        "sender@example.com",
		AuthorizationToken: "server-token",
		TimeoutMillis:      int(timeout / time.Millisecond),
	})
	require.NoError(t, err)
	return c
}

func recipient(t *testing.T) domain.SubscriberEmail {
	t.Helper()
	e, err := domain.ParseEmail("ursula@example.com")
	require.NoError(t, err)
	return e
}

func TestSendEmail_RequestShape(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/email", r.URL.Path)
		assert.Equal(t, "server-token", r.Header.Get(AuthHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{
			"From":     "sender@example.com",
			"To":       "ursula@example.com",
			"Subject":  "Welcome!",
			"HtmlBody": "<p>hi</p>",
			"TextBody": "hi",
		}, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/", time.Second)
	require.NoError(t, c.SendEmail(context.Background(), recipient(t), "Welcome!", "<p>hi</p>", "hi"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSendEmail_Non2xxFails(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"ErrorCode":500}`))
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL, time.Second).SendEmail(context.Background(), recipient(t), "s", "h", "t")
	require.Error(t, err)

	var ne *subscription.NotifierError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusInternalServerError, ne.StatusCode)
	assert.Contains(t, err.Error(), "ErrorCode")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "request path sends once")
}

func TestSendEmail_TimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(3 * time.Minute):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	err := newTestClient(t, srv.URL, 200*time.Millisecond).SendEmail(context.Background(), recipient(t), "s", "h", "t")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var ne *subscription.NotifierError
	require.True(t, errors.As(err, &ne))
	assert.Zero(t, ne.StatusCode)
}

func TestSendEmail_WithRetryingDoer(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.EmailClientConfig{BaseURL: srv.URL, SenderEmail: "sender@example.com", TimeoutMillis: 5000}
	c, err := NewWithDoer(cfg, httpretry.New(srv.Client(), httpretry.Options{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}))
	require.NoError(t, err)

	require.NoError(t, c.SendEmail(context.Background(), recipient(t), "s", "h", "t"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNew_RejectsInvalidSender(t *testing.T) {
	_, err := New(config.EmailClientConfig{BaseURL: "http://x", SenderEmail: "not-an-email"})
	assert.Error(t, err)
}
