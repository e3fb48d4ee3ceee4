package twitter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/url"
	"strconv"
	"time"
)

// ErrStreamClosed is yielded when the server keeps closing a stream without
// delivering anything and the reconnect budget is spent.
var ErrStreamClosed = errors.New("twitter: stream closed by server")

// StreamOptions configures the filtered stream.
type StreamOptions struct {
	Fields *Fields
	// BackfillMinutes (0..5) replays events missed while disconnected.
	BackfillMinutes int
	StartTime       time.Time
	EndTime         time.Time
}

// ComplianceStreamOptions configures a compliance stream.
type ComplianceStreamOptions struct {
	// Partition is 1..4; zero selects 1. Events are spread over all four.
	Partition       int
	BackfillMinutes int
	StartTime       time.Time
	EndTime         time.Time
}

// FilteredStream yields tweets matching the app's stream rules. Dropped
// connections, 429 and 5xx responses reconnect with backoff. The sequence
// ends when the consumer stops, when ctx ends, or with the first error that
// cannot be recovered by reconnecting.
func (c *Client) FilteredStream(ctx context.Context, opts *StreamOptions) (iter.Seq2[*StreamTweet, error], error) {
	ep := endpoint("FilteredStream")
	if opts == nil {
		opts = &StreamOptions{}
	}
	if err := checkBackfill(ep.Name, opts.BackfillMinutes); err != nil {
		return nil, err
	}
	q := url.Values{}
	opts.Fields.tweetQuery(q)
	setBackfill(q, opts.BackfillMinutes)
	setTime(q, "start_time", opts.StartTime)
	setTime(q, "end_time", opts.EndTime)
	return streamSeq(ctx, c, NewRequest(ep, nil, q), decodeStreamTweet), nil
}

// TweetComplianceStream yields tweet compliance events for one partition.
func (c *Client) TweetComplianceStream(ctx context.Context, opts *ComplianceStreamOptions) (iter.Seq2[*ComplianceEvent, error], error) {
	return c.complianceStream(ctx, endpoint("TweetComplianceStream"), opts)
}

// UserComplianceStream yields user compliance events for one partition.
func (c *Client) UserComplianceStream(ctx context.Context, opts *ComplianceStreamOptions) (iter.Seq2[*ComplianceEvent, error], error) {
	return c.complianceStream(ctx, endpoint("UserComplianceStream"), opts)
}

func (c *Client) complianceStream(ctx context.Context, ep Endpoint, opts *ComplianceStreamOptions) (iter.Seq2[*ComplianceEvent, error], error) {
	if opts == nil {
		opts = &ComplianceStreamOptions{}
	}
	partition := opts.Partition
	if partition == 0 {
		partition = 1
	}
	if partition < 1 || partition > 4 {
		return nil, fmt.Errorf("%s: %w: partition %d outside 1..4", ep.Name, ErrInvalidArgument, opts.Partition)
	}
	if err := checkBackfill(ep.Name, opts.BackfillMinutes); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("partition", strconv.Itoa(partition))
	setBackfill(q, opts.BackfillMinutes)
	setTime(q, "start_time", opts.StartTime)
	setTime(q, "end_time", opts.EndTime)
	return streamSeq(ctx, c, NewRequest(ep, nil, q), decodeComplianceEvent), nil
}

func checkBackfill(op string, minutes int) error {
	if minutes < 0 || minutes > 5 {
		return fmt.Errorf("%s: %w: backfill %d minutes outside 0..5", op, ErrInvalidArgument, minutes)
	}
	return nil
}

func setBackfill(q url.Values, minutes int) {
	if minutes > 0 {
		q.Set("backfill_minutes", strconv.Itoa(minutes))
	}
}

// streamSeq drives a line-delimited JSON stream. Keep-alive blank lines are
// skipped and malformed lines are logged and dropped. Reconnects share the
// server-error budget: Retry.ServerErrorAttempts consecutive connections that
// deliver nothing end the sequence.
func streamSeq[T any](ctx context.Context, c *Client, req Request, decode func(string, []byte) (*T, error)) iter.Seq2[*T, error] {
	name := req.Endpoint.Name
	policy := c.cfg.Retry
	return func(yield func(*T, error) bool) {
		failures := 0
		for {
			delivered, stop, err := readStream(ctx, c, req, decode, yield)
			if stop {
				return
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(nil, ctxErr)
				return
			}
			if err != nil && !reconnectable(err) {
				yield(nil, err)
				return
			}
			if delivered {
				failures = 0
			}
			failures++
			if failures >= policy.ServerErrorAttempts {
				if err == nil {
					err = fmt.Errorf("%s: %w", name, ErrStreamClosed)
				}
				yield(nil, err)
				return
			}
			delay := policy.serverErrorBackoff(failures - 1)
			slog.Warn("twitter: stream disconnected, reconnecting",
				slog.String("endpoint", name),
				slog.Int("attempt", failures),
				slog.Duration("backoff", delay),
				slog.Any("error", err))
			if err := c.sleep(ctx, delay); err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// readStream consumes one connection. stop reports that the consumer is done.
func readStream[T any](ctx context.Context, c *Client, req Request, decode func(string, []byte) (*T, error), yield func(*T, error) bool) (delivered, stop bool, err error) {
	name := req.Endpoint.Name
	body, err := c.openStream(ctx, req)
	if err != nil {
		return false, false, err
	}
	defer body.Close() // nolint:errcheck // best-effort cleanup

	r := bufio.NewReaderSize(body, 64*1024)
	for {
		line, readErr := r.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			item, err := decode(name, line)
			var schemaErr *SchemaError
			switch {
			case err == nil:
				delivered = true
				if !yield(item, nil) {
					return delivered, true, nil
				}
			case errors.As(err, &schemaErr):
				slog.Warn("twitter: dropping malformed stream line",
					slog.String("endpoint", name),
					slog.Any("error", schemaErr.Err),
					slog.String("line", truncateBytes(line, 200)))
			default:
				return delivered, false, err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return delivered, false, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return delivered, false, ctxErr
			}
			return delivered, false, classifyTransportError(name, readErr)
		}
	}
}

// openStream connects to a streaming endpoint. Non-2xx responses become
// *APIError.
func (c *Client) openStream(ctx context.Context, req Request) (io.ReadCloser, error) {
	name := req.Endpoint.Name
	var waited time.Duration
	if err := c.waitForQuota(ctx, name, &waited, 0); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := req.URL(c.cfg.BaseURL)
	slog.Info("twitter: opening stream",
		slog.String("endpoint", name),
		slog.String("url", redactURL(target)))

	body, hdrs, status, err := c.streamer.OpenStream(ctx, req.Endpoint.Method, target, apiHeaders(c.cfg.BearerToken, false))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.recordAPICall(name, false, false)
		return nil, classifyTransportError(name, err)
	}
	c.limits.observe(name, hdrs)
	if status < 200 || status >= 300 {
		defer body.Close() // nolint:errcheck // best-effort cleanup
		data, _ := io.ReadAll(io.LimitReader(body, 64*1024))
		c.recordAPICall(name, false, status == 429)
		return nil, newAPIError(name, status, data)
	}
	c.recordAPICall(name, true, false)
	return body, nil
}

// reconnectable reports whether a stream failure is worth another connection.
func reconnectable(err error) bool {
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

// streamProblem turns an errors-only stream message into an error. Disconnect
// notices become a connection TransportError so the stream reconnects.
func streamProblem(endpoint string, env *envelope) error {
	err := singleError(endpoint, env)
	var apiErr *APIError
	if errors.As(err, &apiErr) && classifyProblem(apiErr.Type) == problemConnection {
		return &TransportError{Kind: KindConnection, Endpoint: endpoint, Err: apiErr}
	}
	return err
}

func decodeStreamTweet(endpoint string, line []byte) (*StreamTweet, error) {
	var tw Tweet
	env, err := decodeEnvelope(endpoint, line, &tw, false)
	if err != nil {
		return nil, err
	}
	if !env.hasData() {
		return nil, streamProblem(endpoint, env)
	}
	var extra struct {
		MatchingRules []Rule `json:"matching_rules"`
	}
	if err := json.Unmarshal(line, &extra); err != nil {
		return nil, &SchemaError{Endpoint: endpoint, Err: fmt.Errorf("decode matching_rules: %w", err), Body: line}
	}
	out := &StreamTweet{Tweet: tw, MatchingRules: extra.MatchingRules, Errors: env.Errors}
	if env.Includes != nil {
		out.Includes = *env.Includes
	}
	return out, nil
}

func decodeComplianceEvent(endpoint string, line []byte) (*ComplianceEvent, error) {
	env, err := decodeEnvelope(endpoint, line, nil, false)
	if err != nil {
		return nil, err
	}
	if !env.hasData() {
		return nil, streamProblem(endpoint, env)
	}
	var events map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &events); err != nil {
		return nil, &SchemaError{Endpoint: endpoint, Err: fmt.Errorf("decode event: %w", err), Body: line}
	}
	if len(events) != 1 {
		return nil, &SchemaError{Endpoint: endpoint, Err: fmt.Errorf("want one compliance event, got %d", len(events)), Body: line}
	}
	for typ, raw := range events {
		var ev struct {
			Tweet *struct {
				ID       string `json:"id"`
				AuthorID string `json:"author_id"`
			} `json:"tweet"`
			User *struct {
				ID string `json:"id"`
			} `json:"user"`
			EventAt             time.Time `json:"event_at"`
			WithheldInCountries []string  `json:"withheld_in_countries"`
			UpToTweetID         string    `json:"up_to_tweet_id"`
		}
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, &SchemaError{Endpoint: endpoint, Err: fmt.Errorf("decode %s event: %w", typ, err), Body: line}
		}
		out := &ComplianceEvent{
			Type:                typ,
			EventAt:             ev.EventAt,
			WithheldInCountries: ev.WithheldInCountries,
			UpToTweetID:         ev.UpToTweetID,
			Raw:                 raw,
		}
		if ev.Tweet != nil {
			out.TweetID = ev.Tweet.ID
			out.AuthorID = ev.Tweet.AuthorID
		}
		if ev.User != nil {
			out.UserID = ev.User.ID
		}
		return out, nil
	}
	return nil, nil
}
