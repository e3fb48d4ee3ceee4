package twitter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport(t *testing.T) {
	var gotAuth, gotPath, gotBody, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.RequestURI()
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("X-Rate-Limit-Remaining", "3")
		w.Header().Set("X-Rate-Limit-Reset", "1700000000")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"j1","type":"tweets","status":"created"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{
		BearerToken: "secret",
		BaseURL:     srv.URL,
		Transport:   NewHTTPTransport(srv.Client()),
	})
	require.NoError(t, err)

	job, err := c.CreateComplianceJob(context.Background(), ComplianceTweets, "nightly", false)
	require.NoError(t, err)

	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/2/compliance/jobs", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"type":"tweets","name":"nightly","resumable":false}`, gotBody)

	rl, known := c.RateLimit("CreateCompliance")
	require.True(t, known)
	assert.Equal(t, 3, rl.Remaining)
}

func TestHTTPTransportLowercasesHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "4")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	body, headers, status, err := NewHTTPTransport(nil).DoWithHeaderOrder("GET", srv.URL, map[string]string{"accept-encoding": "br"}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, body)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "4", headers["retry-after"])
}

func TestHTTPTransportConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	doer := NewHTTPTransport(nil)
	c, err := NewClient(ClientConfig{
		BearerToken: "t",
		BaseURL:     addr,
		Transport:   doer,
		Retry:       RetryPolicy{ServerErrorAttempts: 1},
	})
	require.NoError(t, err)

	_, err = c.GetTweet(context.Background(), "1", nil)
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, KindConnection, tErr.Kind)
}

func TestInvalidStatusIsMalformed(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{{status: 0}}}
	c, _ := newTestClient(t, doer, testPolicy())

	_, err := c.GetTweet(context.Background(), "1", nil)
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, KindMalformed, tErr.Kind)
	assert.Len(t, doer.Calls(), 1)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://storage.test/upload", redactURL("https://storage.test/upload?X-Goog-Signature=abc&X-Goog-Date=1"))
	assert.Equal(t, "https://api.test/2/tweets?ids=1", redactURL("https://api.test/2/tweets?ids=1"))
	assert.True(t, strings.HasPrefix(redactURL("::bad"), "::bad"))
}

func TestDefaultTransportIsStealth(t *testing.T) {
	c, err := NewClient(ClientConfig{BearerToken: "t"})
	require.NoError(t, err)
	assert.NotNil(t, c.transport)
	_, isHTTP := c.transport.(*httpTransport)
	assert.False(t, isHTTP)
}

func TestHTTPTransportAbortsOnDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := NewClient(ClientConfig{
		BearerToken: "t",
		BaseURL:     srv.URL,
		Transport:   NewHTTPTransport(srv.Client()),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = c.GetTweet(ctx, "1", nil)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
