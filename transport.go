package twitter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Doer performs one HTTP exchange. A non-2xx status is not an error: it is
// returned as data together with the body and lower-cased response headers.
// *stealth.BrowserClient satisfies Doer.
type Doer interface {
	DoWithHeaderOrder(method, url string, headers map[string]string, body io.Reader, order []string) ([]byte, map[string]string, int, error)
}

// ContextDoer is a Doer that can abort an in-flight call when ctx ends.
// The client prefers DoContext when the transport provides it.
type ContextDoer interface {
	Doer
	DoContext(ctx context.Context, method, url string, headers map[string]string, body io.Reader) ([]byte, map[string]string, int, error)
}

// StreamDoer opens a long-lived response whose body is read incrementally.
// The caller closes the returned body.
type StreamDoer interface {
	OpenStream(ctx context.Context, method, url string, headers map[string]string) (io.ReadCloser, map[string]string, int, error)
}

// RawResponse is what the transport saw on the wire.
type RawResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Header returns a response header by case-insensitive name.
func (r *RawResponse) Header(name string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	if v, ok := r.Headers[strings.ToLower(name)]; ok {
		return v
	}
	return r.Headers[name]
}

// newStealthTransport builds the default transport.
func newStealthTransport(proxy string) (Doer, error) {
	opts := []stealth.ClientOption{
		stealth.WithHeaderOrder(apiHeaderOrder),
	}
	if proxy != "" {
		opts = append(opts, stealth.WithProxy(proxy))
		slog.Debug("twitter: using proxy", slog.String("proxy", stealth.MaskProxy(proxy)))
	}
	bc, err := stealth.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("stealth client: %w", err)
	}
	return bc, nil
}

// send issues exactly one network call for req. HTTP error statuses come
// back as data; only transport failures produce an error.
func (c *Client) send(ctx context.Context, req Request) (*RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := req.URL(c.cfg.BaseURL)
	var headers map[string]string
	if req.Unauthenticated {
		headers = uploadHeaders()
	} else {
		headers = apiHeaders(c.cfg.BearerToken, req.Body != nil)
	}
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	slog.Debug("twitter: request",
		slog.String("endpoint", req.Endpoint.Name),
		slog.String("method", req.Endpoint.Method),
		slog.String("url", redactURL(target)))

	var (
		respBody []byte
		respHdrs map[string]string
		status   int
		err      error
	)
	if cd, ok := c.transport.(ContextDoer); ok {
		respBody, respHdrs, status, err = cd.DoContext(ctx, req.Endpoint.Method, target, headers, body)
	} else {
		respBody, respHdrs, status, err = c.transport.DoWithHeaderOrder(req.Endpoint.Method, target, headers, body, apiHeaderOrder)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classifyTransportError(req.Endpoint.Name, err)
	}
	if status < 100 || status > 599 {
		return nil, &TransportError{
			Kind:     KindMalformed,
			Endpoint: req.Endpoint.Name,
			Err:      fmt.Errorf("invalid status code %d", status),
		}
	}
	return &RawResponse{StatusCode: status, Headers: respHdrs, Body: respBody}, nil
}

// redactURL strips query signatures from presigned URLs before logging.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Query().Has("X-Goog-Signature") || u.Query().Has("Signature") {
		u.RawQuery = ""
	}
	return u.String()
}

// httpTransport adapts a plain *http.Client to Doer.
type httpTransport struct {
	client *http.Client
}

// NewHTTPTransport returns a Doer backed by net/http. A nil client uses http.DefaultClient.
func NewHTTPTransport(client *http.Client) Doer {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpTransport{client: client}
}

func (t *httpTransport) DoWithHeaderOrder(method, rawURL string, headers map[string]string, body io.Reader, _ []string) ([]byte, map[string]string, int, error) {
	return t.DoContext(context.Background(), method, rawURL, headers, body)
}

// DoContext is DoWithHeaderOrder bound to ctx: cancelling ctx aborts the call.
func (t *httpTransport) DoContext(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader) ([]byte, map[string]string, int, error) {
	resp, err := t.roundTrip(ctx, method, rawURL, headers, body)
	if err != nil {
		return nil, nil, 0, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("malformed response body: %w", err)
	}
	return data, lowerHeaders(resp.Header), resp.StatusCode, nil
}

// OpenStream returns the live response body for streaming endpoints.
func (t *httpTransport) OpenStream(ctx context.Context, method, rawURL string, headers map[string]string) (io.ReadCloser, map[string]string, int, error) {
	resp, err := t.roundTrip(ctx, method, rawURL, headers, nil)
	if err != nil {
		return nil, nil, 0, err
	}
	return resp.Body, lowerHeaders(resp.Header), resp.StatusCode, nil
}

func (t *httpTransport) roundTrip(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		if strings.EqualFold(k, "accept-encoding") {
			// net/http negotiates gzip itself and decodes transparently.
			continue
		}
		req.Header.Set(k, v)
	}
	return t.client.Do(req)
}

func lowerHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}
