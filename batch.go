package twitter

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// batchPlan drives a Pager over pre-split lookup requests instead of
// continuation tokens.
type batchPlan[T any] struct {
	reqs []Request
	keys [][]string
	key  func(T) string
}

// order sorts one batch's results back into the caller's input order. Items
// the API did not return are simply absent; unknown keys go last. Keys
// compare case-insensitively since usernames do.
func (b *batchPlan[T]) order(batch int, data []T) []T {
	pos := make(map[string]int, len(b.keys[batch]))
	for i, k := range b.keys[batch] {
		k = strings.ToLower(k)
		if _, dup := pos[k]; !dup {
			pos[k] = i
		}
	}
	rank := func(item T) int {
		if i, ok := pos[strings.ToLower(b.key(item))]; ok {
			return i
		}
		return len(pos)
	}
	slices.SortStableFunc(data, func(x, y T) int { return rank(x) - rank(y) })
	return data
}

// chunk splits ids into groups of at most size, preserving order.
func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// cleanIDs rejects empty sets and blank identifiers.
func cleanIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyIDs
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: blank identifier at index %d", ErrInvalidArgument, i)
		}
		out[i] = id
	}
	return out, nil
}

// newBatchPager validates ids and plans one request per group of at most
// ep.BatchSize, each carrying param=<comma-joined ids>.
func newBatchPager[T any](ctx context.Context, c *Client, ep Endpoint, param string, ids []string, query url.Values, key func(T) string) (*Pager[T], error) {
	ids, err := cleanIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ep.Name, err)
	}
	base := NewRequest(ep, nil, query)
	plan := &batchPlan[T]{key: key}
	for _, group := range chunk(ids, ep.BatchSize) {
		plan.reqs = append(plan.reqs, base.WithQuery(param, strings.Join(group, ",")))
		plan.keys = append(plan.keys, group)
	}
	return &Pager[T]{ctx: ctx, c: c, req: base, batch: plan}, nil
}
