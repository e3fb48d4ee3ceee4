package twitter

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SearchOptions filters a search query.
type SearchOptions struct {
	Fields    *Fields
	StartTime time.Time
	EndTime   time.Time
	SinceID   string
	UntilID   string
	// SortOrder is "recency" or "relevancy"; empty leaves the API default.
	SortOrder string
	PageOptions
}

// CountsOptions filters a tweet counts query.
type CountsOptions struct {
	StartTime time.Time
	EndTime   time.Time
	SinceID   string
	UntilID   string
	// Granularity is "minute", "hour" or "day"; empty leaves the API default.
	Granularity string
	PageOptions
}

// TimelineOptions filters a user's tweet timeline.
type TimelineOptions struct {
	Fields    *Fields
	StartTime time.Time
	EndTime   time.Time
	SinceID   string
	UntilID   string
	// Exclude holds "replies" and/or "retweets".
	Exclude []string
	PageOptions
}

// ListOptions applies to plain paginated lists.
type ListOptions struct {
	Fields *Fields
	PageOptions
}

func (o *ListOptions) page() PageOptions {
	if o == nil {
		return PageOptions{}
	}
	return o.PageOptions
}

func (o *ListOptions) fields() *Fields {
	if o == nil {
		return nil
	}
	return o.Fields
}

// GetTweet looks up a single tweet.
func (c *Client) GetTweet(ctx context.Context, id string, fields *Fields) (*Response[Tweet], error) {
	id, err := requireID("TweetByID", id)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	fields.tweetQuery(q)
	return getOne[Tweet](ctx, c, NewRequest(endpoint("TweetByID"), map[string]string{"id": id}, q))
}

// TweetsByIDs looks up tweets in batches of 100, one request per batch, in
// the order of ids.
func (c *Client) TweetsByIDs(ctx context.Context, ids []string, fields *Fields) (*Pager[Tweet], error) {
	q := url.Values{}
	fields.tweetQuery(q)
	return newBatchPager(ctx, c, endpoint("TweetsByIDs"), "ids", ids, q, func(t Tweet) string { return t.ID })
}

// SearchRecent searches the last seven days of tweets.
func (c *Client) SearchRecent(ctx context.Context, query string, opts *SearchOptions) (*Pager[Tweet], error) {
	return c.search(ctx, endpoint("SearchRecent"), query, opts)
}

// SearchAll searches the full archive. It requires academic or pro access.
func (c *Client) SearchAll(ctx context.Context, query string, opts *SearchOptions) (*Pager[Tweet], error) {
	return c.search(ctx, endpoint("SearchAll"), query, opts)
}

func (c *Client) search(ctx context.Context, ep Endpoint, query string, opts *SearchOptions) (*Pager[Tweet], error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%s: %w: empty query", ep.Name, ErrInvalidArgument)
	}
	switch opts.SortOrder {
	case "", "recency", "relevancy":
	default:
		return nil, fmt.Errorf("%s: %w: sort order %q", ep.Name, ErrInvalidArgument, opts.SortOrder)
	}

	q := url.Values{}
	q.Set("query", query)
	opts.Fields.tweetQuery(q)
	setTime(q, "start_time", opts.StartTime)
	setTime(q, "end_time", opts.EndTime)
	setString(q, "since_id", opts.SinceID)
	setString(q, "until_id", opts.UntilID)
	setString(q, "sort_order", opts.SortOrder)
	return newPager[Tweet](ctx, c, NewRequest(ep, nil, q), opts.PageOptions), nil
}

// CountsRecent returns tweet volume for a query over the last seven days.
func (c *Client) CountsRecent(ctx context.Context, query string, opts *CountsOptions) (*Pager[SearchCount], error) {
	return c.counts(ctx, endpoint("CountsRecent"), query, opts)
}

// CountsAll returns tweet volume for a query over the full archive.
func (c *Client) CountsAll(ctx context.Context, query string, opts *CountsOptions) (*Pager[SearchCount], error) {
	return c.counts(ctx, endpoint("CountsAll"), query, opts)
}

func (c *Client) counts(ctx context.Context, ep Endpoint, query string, opts *CountsOptions) (*Pager[SearchCount], error) {
	if opts == nil {
		opts = &CountsOptions{}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%s: %w: empty query", ep.Name, ErrInvalidArgument)
	}
	switch opts.Granularity {
	case "", "minute", "hour", "day":
	default:
		return nil, fmt.Errorf("%s: %w: granularity %q", ep.Name, ErrInvalidArgument, opts.Granularity)
	}

	q := url.Values{}
	q.Set("query", query)
	setTime(q, "start_time", opts.StartTime)
	setTime(q, "end_time", opts.EndTime)
	setString(q, "since_id", opts.SinceID)
	setString(q, "until_id", opts.UntilID)
	setString(q, "granularity", opts.Granularity)
	return newPager[SearchCount](ctx, c, NewRequest(ep, nil, q), opts.PageOptions), nil
}

// QuoteTweets lists tweets quoting the given tweet.
func (c *Client) QuoteTweets(ctx context.Context, id string, opts *ListOptions) (*Pager[Tweet], error) {
	id, err := requireID("QuoteTweets", id)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	opts.fields().tweetQuery(q)
	req := NewRequest(endpoint("QuoteTweets"), map[string]string{"id": id}, q)
	return newPager[Tweet](ctx, c, req, opts.page()), nil
}

// RetweetedBy lists users who retweeted the given tweet.
func (c *Client) RetweetedBy(ctx context.Context, id string, opts *ListOptions) (*Pager[User], error) {
	id, err := requireID("RetweetedBy", id)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	opts.fields().userQuery(q)
	req := NewRequest(endpoint("RetweetedBy"), map[string]string{"id": id}, q)
	return newPager[User](ctx, c, req, opts.page()), nil
}

// UserTweets lists tweets authored by a user, newest first.
func (c *Client) UserTweets(ctx context.Context, userID string, opts *TimelineOptions) (*Pager[Tweet], error) {
	userID, err := requireID("UserTweets", userID)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &TimelineOptions{}
	}
	for _, e := range opts.Exclude {
		if e != "replies" && e != "retweets" {
			return nil, fmt.Errorf("UserTweets: %w: exclude %q", ErrInvalidArgument, e)
		}
	}

	q := url.Values{}
	opts.Fields.tweetQuery(q)
	setTime(q, "start_time", opts.StartTime)
	setTime(q, "end_time", opts.EndTime)
	setString(q, "since_id", opts.SinceID)
	setString(q, "until_id", opts.UntilID)
	setString(q, "exclude", strings.Join(opts.Exclude, ","))
	req := NewRequest(endpoint("UserTweets"), map[string]string{"id": userID}, q)
	return newPager[Tweet](ctx, c, req, opts.PageOptions), nil
}

func requireID(op, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyIDs)
	}
	return id, nil
}
