package twitter

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tweetBody = `{"data":{"id":"1","text":"hello"}}`

func TestTooManyRequestsWithoutHeadersBacksOffThenFails(t *testing.T) {
	doer := &fakeDoer{handler: func(int, recordedCall) fakeResponse {
		return fakeResponse{status: 429, body: `{"title":"Too Many Requests","detail":"Too Many Requests","type":"about:blank","status":429}`}
	}}
	c, clock := newTestClient(t, doer, testPolicy())

	_, err := c.GetTweet(context.Background(), "1", nil)

	var rle *RateLimitExceeded
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 4, rle.Attempts)
	assert.Len(t, doer.Calls(), 4)

	sleeps := clock.Sleeps()
	require.Len(t, sleeps, 3)
	for i := 1; i < len(sleeps); i++ {
		assert.Greater(t, sleeps[i], sleeps[i-1], "backoff must grow: %v", sleeps)
	}
	assert.Equal(t, sleeps[0]+sleeps[1]+sleeps[2], rle.Waited)
}

func TestTooManyRequestsHonoursRetryAfter(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{
		{status: 429, headers: map[string]string{"retry-after": "7"}},
		ok(tweetBody),
	}}
	c, clock := newTestClient(t, doer, testPolicy())

	resp, err := c.GetTweet(context.Background(), "1", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Data.Text)
	assert.Equal(t, []time.Duration{7 * time.Second}, clock.Sleeps())
}

func TestTooManyRequestsWaitsForAdvertisedReset(t *testing.T) {
	reset := testEpoch.Add(3 * time.Minute)
	doer := &fakeDoer{responses: []fakeResponse{
		{status: 429, headers: map[string]string{
			"x-rate-limit-remaining": "0",
			"x-rate-limit-reset":     strconv.FormatInt(reset.Unix(), 10),
		}},
		ok(tweetBody),
	}}
	c, clock := newTestClient(t, doer, testPolicy())

	_, err := c.GetTweet(context.Background(), "1", nil)
	require.NoError(t, err)

	calls := doer.Calls()
	require.Len(t, calls, 2)
	assert.True(t, calls[1].at.Equal(reset))
	assert.Equal(t, []time.Duration{3 * time.Minute}, clock.Sleeps())
}

func TestServiceUnavailableUsesRateLimitPath(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{
		{status: 503, headers: map[string]string{"retry-after": "2"}},
		ok(tweetBody),
	}}
	var rateLimited int
	policy := testPolicy()
	c, clock := newTestClient(t, doer, policy)
	c.cfg.MetricsHook = func(_ string, _, limited bool) {
		if limited {
			rateLimited++
		}
	}

	_, err := c.GetTweet(context.Background(), "1", nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second}, clock.Sleeps())
	assert.Equal(t, 1, rateLimited)
}

func TestRateLimitWaitBeyondBudgetFails(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{
		{status: 429, headers: map[string]string{"retry-after": "3600"}},
	}}
	policy := testPolicy()
	policy.MaxTotalWait = 10 * time.Minute
	c, clock := newTestClient(t, doer, policy)

	_, err := c.GetTweet(context.Background(), "1", nil)

	var rle *RateLimitExceeded
	require.ErrorAs(t, err, &rle)
	assert.Len(t, doer.Calls(), 1)
	assert.Empty(t, clock.Sleeps())
}

func TestHugeRetryAfterFailsInsteadOfRetrying(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{
		{status: 429, headers: map[string]string{"retry-after": "9223372036854775807"}},
		{status: 200, body: tweetBody},
	}}
	c, clock := newTestClient(t, doer, testPolicy())

	_, err := c.GetTweet(context.Background(), "1", nil)

	var rle *RateLimitExceeded
	require.ErrorAs(t, err, &rle)
	assert.Len(t, doer.Calls(), 1)
	assert.Empty(t, clock.Sleeps())
}

func TestNotFoundIsNotRetried(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{{
		status: 404,
		body:   `{"title":"Not Found Error","detail":"Could not find tweet with id: [1].","type":"https://api.twitter.com/2/problems/resource-not-found"}`,
	}}}
	c, clock := newTestClient(t, doer, testPolicy())

	_, err := c.GetTweet(context.Background(), "1", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.True(t, apiErr.IsNotFound())
	assert.True(t, apiErr.IsClientError())
	assert.Equal(t, "Could not find tweet with id: [1].", apiErr.Detail)
	assert.Len(t, doer.Calls(), 1)
	assert.Empty(t, clock.Sleeps())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	for _, status := range []int{400, 401, 403, 409} {
		t.Run(strconv.Itoa(status), func(t *testing.T) {
			doer := &fakeDoer{responses: []fakeResponse{{status: status, body: `{"errors":[{"message":"nope"}]}`}}}
			c, _ := newTestClient(t, doer, testPolicy())

			_, err := c.GetTweet(context.Background(), "1", nil)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, status, apiErr.StatusCode)
			assert.Contains(t, apiErr.Error(), "nope")
			assert.Len(t, doer.Calls(), 1)
		})
	}
}

func TestServerErrorsRetryWithinBudget(t *testing.T) {
	doer := &fakeDoer{handler: func(int, recordedCall) fakeResponse {
		return fakeResponse{status: 500, body: `{"title":"Internal Error"}`}
	}}
	c, clock := newTestClient(t, doer, testPolicy())

	_, err := c.GetTweet(context.Background(), "1", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Len(t, doer.Calls(), 3)
	assert.Len(t, clock.Sleeps(), 2)
}

func TestServerErrorThenSuccess(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{{status: 502}, ok(tweetBody)}}
	c, _ := newTestClient(t, doer, testPolicy())

	resp, err := c.GetTweet(context.Background(), "1", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", resp.Data.ID)
	assert.Len(t, doer.Calls(), 2)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestTransportErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantKind  TransportErrorKind
		wantCalls int
	}{
		{"connection retried", errors.New("dial tcp: connection refused"), KindConnection, 3},
		{"timeout retried", timeoutErr{}, KindTimeout, 3},
		{"malformed not retried", errors.New("malformed HTTP response"), KindMalformed, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &fakeDoer{handler: func(int, recordedCall) fakeResponse { return fakeResponse{err: tt.err} }}
			c, _ := newTestClient(t, doer, testPolicy())

			_, err := c.GetTweet(context.Background(), "1", nil)

			var tErr *TransportError
			require.ErrorAs(t, err, &tErr)
			assert.Equal(t, tt.wantKind, tErr.Kind)
			assert.Equal(t, "TweetByID", tErr.Endpoint)
			assert.Len(t, doer.Calls(), tt.wantCalls)
		})
	}
}

func TestTransportErrorThenSuccess(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{
		{err: errors.New("connection reset by peer")},
		ok(tweetBody),
	}}
	c, _ := newTestClient(t, doer, testPolicy())

	_, err := c.GetTweet(context.Background(), "1", nil)
	require.NoError(t, err)
	assert.Len(t, doer.Calls(), 2)
}

func TestCancelledContextSendsNothing(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{ok(tweetBody)}}
	c, _ := newTestClient(t, doer, testPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetTweet(ctx, "1", nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, doer.Calls())
}

func TestRequestHeaders(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{ok(tweetBody)}}
	c, _ := newTestClient(t, doer, testPolicy())

	_, err := c.GetTweet(context.Background(), "1", nil)
	require.NoError(t, err)

	call := doer.Calls()[0]
	assert.Equal(t, "GET", call.method)
	assert.Equal(t, "Bearer test-token", call.headers["authorization"])
	assert.Equal(t, "application/json", call.headers["accept"])
	assert.NotContains(t, call.headers, "content-type")
}

func TestMetricsHook(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{
		{status: 429, headers: map[string]string{"retry-after": "1"}},
		{status: 500},
		ok(tweetBody),
	}}
	c, _ := newTestClient(t, doer, testPolicy())

	type event struct {
		endpoint             string
		success, rateLimited bool
	}
	var (
		mu     sync.Mutex
		events []event
	)
	c.cfg.MetricsHook = func(endpoint string, success, rateLimited bool) {
		mu.Lock()
		events = append(events, event{endpoint, success, rateLimited})
		mu.Unlock()
	}

	_, err := c.GetTweet(context.Background(), "1", nil)
	require.NoError(t, err)
	assert.Equal(t, []event{
		{"TweetByID", false, true},
		{"TweetByID", false, false},
		{"TweetByID", true, false},
	}, events)
}

func TestPacerSpacesRequests(t *testing.T) {
	doer := &fakeDoer{handler: func(int, recordedCall) fakeResponse { return ok(tweetBody) }}
	c, err := NewClient(ClientConfig{
		BearerToken:       "t",
		Transport:         doer,
		RequestsPerSecond: 1000,
		Burst:             1,
	})
	require.NoError(t, err)
	require.NotNil(t, c.pacer)

	for range 3 {
		_, err := c.GetTweet(context.Background(), "1", nil)
		require.NoError(t, err)
	}
	assert.Len(t, doer.Calls(), 3)
}
