package twitter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Usage reports the project's tweet consumption over the last days (1..90,
// zero for the API default of 7).
func (c *Client) Usage(ctx context.Context, days int) (*Usage, error) {
	ep := endpoint("UsageTweets")
	q := url.Values{}
	if days != 0 {
		if days < 1 || days > 90 {
			return nil, fmt.Errorf("%s: %w: days %d outside 1..90", ep.Name, ErrInvalidArgument, days)
		}
		q.Set("days", strconv.Itoa(days))
	}
	q.Set("usage.fields", "cap_reset_day,daily_client_app_usage,daily_project_usage,project_cap,project_id,project_usage")

	resp, err := getOne[Usage](ctx, c, NewRequest(ep, nil, q))
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
