package twitter

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testEpoch = time.Unix(1_700_000_000, 0)

// fakeClock is a manual clock whose Sleep advances time instead of blocking.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock { return &fakeClock{now: testEpoch} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// fakeResponse is one scripted transport result.
type fakeResponse struct {
	status  int
	headers map[string]string
	body    string
	err     error
}

// recordedCall is what the fake transport received.
type recordedCall struct {
	method  string
	url     string
	headers map[string]string
	body    []byte
	at      time.Time
}

func (c recordedCall) query(t *testing.T) url.Values {
	t.Helper()
	u, err := url.Parse(c.url)
	require.NoError(t, err)
	return u.Query()
}

// fakeDoer replays scripted responses in order, or asks handler when set.
type fakeDoer struct {
	mu        sync.Mutex
	clock     *fakeClock
	responses []fakeResponse
	handler   func(n int, call recordedCall) fakeResponse
	calls     []recordedCall
}

func (f *fakeDoer) DoWithHeaderOrder(method, rawURL string, headers map[string]string, body io.Reader, _ []string) ([]byte, map[string]string, int, error) {
	var data []byte
	if body != nil {
		b, err := io.ReadAll(body)
		if err != nil {
			return nil, nil, 0, err
		}
		data = b
	}
	call := recordedCall{method: method, url: rawURL, headers: headers, body: data}
	if f.clock != nil {
		call.at = f.clock.Now()
	}

	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, call)
	var resp fakeResponse
	switch {
	case f.handler != nil:
		f.mu.Unlock()
		resp = f.handler(n, call)
		f.mu.Lock()
	case n < len(f.responses):
		resp = f.responses[n]
	default:
		resp = fakeResponse{err: fmt.Errorf("malformed: unexpected call %d to %s", n+1, rawURL)}
	}
	f.mu.Unlock()

	if resp.err != nil {
		return nil, nil, 0, resp.err
	}
	return []byte(resp.body), resp.headers, resp.status, nil
}

func (f *fakeDoer) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

// testPolicy retries quickly and deterministically.
func testPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:            time.Second,
		MaxDelay:             time.Hour,
		MaxAttempts:          4,
		MaxTotalWait:         24 * time.Hour,
		ServerErrorAttempts:  3,
		ServerErrorBaseDelay: time.Second,
	}
}

// newTestClient wires a client to doer and a fake clock.
func newTestClient(t *testing.T, doer *fakeDoer, policy RetryPolicy) (*Client, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	doer.clock = clock
	c, err := NewClient(ClientConfig{
		BearerToken: "test-token",
		BaseURL:     "https://api.test",
		Transport:   doer,
		Retry:       policy,
	})
	require.NoError(t, err)
	c.now = clock.Now
	c.sleep = clock.Sleep
	return c, clock
}

func ok(body string) fakeResponse {
	return fakeResponse{status: 200, body: body}
}

func limited(remaining int, reset time.Time, body string) fakeResponse {
	return fakeResponse{
		status: 200,
		body:   body,
		headers: map[string]string{
			"x-rate-limit-limit":     "450",
			"x-rate-limit-remaining": strconv.Itoa(remaining),
			"x-rate-limit-reset":     strconv.FormatInt(reset.Unix(), 10),
		},
	}
}
