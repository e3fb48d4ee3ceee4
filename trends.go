package twitter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// TrendsByWOEID returns up to maxTrends (1..50, default 20) trends for a
// Yahoo where-on-earth location id.
func (c *Client) TrendsByWOEID(ctx context.Context, woeid int64, maxTrends int) ([]Trend, error) {
	ep := endpoint("TrendsByWOEID")
	if woeid <= 0 {
		return nil, fmt.Errorf("%s: %w: woeid %d", ep.Name, ErrInvalidArgument, woeid)
	}
	switch {
	case maxTrends == 0:
		maxTrends = 20
	case maxTrends < 1 || maxTrends > 50:
		return nil, fmt.Errorf("%s: %w: max trends %d outside 1..50", ep.Name, ErrInvalidArgument, maxTrends)
	}

	q := url.Values{}
	q.Set("max_trends", strconv.Itoa(maxTrends))
	q.Set("trend.fields", "trend_name,tweet_count")
	req := NewRequest(ep, map[string]string{"woeid": strconv.FormatInt(woeid, 10)}, q)

	resp, err := getOne[[]Trend](ctx, c, req)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}
