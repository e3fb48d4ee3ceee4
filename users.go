package twitter

import (
	"context"
	"net/url"
	"strings"
)

// GetUser looks up a user by numeric id.
func (c *Client) GetUser(ctx context.Context, id string, fields *Fields) (*Response[User], error) {
	id, err := requireID("UserByID", id)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	fields.userQuery(q)
	return getOne[User](ctx, c, NewRequest(endpoint("UserByID"), map[string]string{"id": id}, q))
}

// GetUserByUsername looks up a user by handle. A leading "@" is ignored.
func (c *Client) GetUserByUsername(ctx context.Context, username string, fields *Fields) (*Response[User], error) {
	username, err := requireID("UserByUsername", normalizeUsername(username))
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	fields.userQuery(q)
	return getOne[User](ctx, c, NewRequest(endpoint("UserByUsername"), map[string]string{"username": username}, q))
}

// UsersByIDs looks up users in batches of 100 in the order of ids.
func (c *Client) UsersByIDs(ctx context.Context, ids []string, fields *Fields) (*Pager[User], error) {
	q := url.Values{}
	fields.userQuery(q)
	return newBatchPager(ctx, c, endpoint("UsersByIDs"), "ids", ids, q, func(u User) string { return u.ID })
}

// UsersByUsernames looks up users in batches of 100 in the order of names.
func (c *Client) UsersByUsernames(ctx context.Context, names []string, fields *Fields) (*Pager[User], error) {
	cleaned := make([]string, len(names))
	for i, n := range names {
		cleaned[i] = normalizeUsername(n)
	}
	q := url.Values{}
	fields.userQuery(q)
	return newBatchPager(ctx, c, endpoint("UsersByUsernames"), "usernames", cleaned, q, func(u User) string { return u.Username })
}

// Followers lists accounts following the user.
func (c *Client) Followers(ctx context.Context, userID string, opts *ListOptions) (*Pager[User], error) {
	return c.follows(ctx, endpoint("Followers"), userID, opts)
}

// Following lists accounts the user follows.
func (c *Client) Following(ctx context.Context, userID string, opts *ListOptions) (*Pager[User], error) {
	return c.follows(ctx, endpoint("Following"), userID, opts)
}

func (c *Client) follows(ctx context.Context, ep Endpoint, userID string, opts *ListOptions) (*Pager[User], error) {
	userID, err := requireID(ep.Name, userID)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	opts.fields().userQuery(q)
	req := NewRequest(ep, map[string]string{"id": userID}, q)
	return newPager[User](ctx, c, req, opts.page()), nil
}

func normalizeUsername(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}

// ResolveUserID returns idOrUsername unchanged when it is numeric, otherwise
// looks the handle up.
func (c *Client) ResolveUserID(ctx context.Context, idOrUsername string) (string, error) {
	s := strings.TrimSpace(idOrUsername)
	if s != "" && strings.Trim(s, "0123456789") == "" {
		return s, nil
	}
	resp, err := c.GetUserByUsername(ctx, s, &Fields{User: []string{}, Expansions: []string{}, Tweet: []string{}})
	if err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}
