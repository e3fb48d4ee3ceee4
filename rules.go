package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// RulesResult is the outcome of adding or deleting filtered stream rules.
type RulesResult struct {
	Rules   []Rule
	Summary RuleSummary
	Errors  []ErrorDetail
}

// Rules lists the app's filtered stream rules, optionally restricted to ids.
func (c *Client) Rules(ctx context.Context, ids []string, opts *PageOptions) (*Pager[Rule], error) {
	q := url.Values{}
	if len(ids) > 0 {
		cleaned, err := cleanIDs(ids)
		if err != nil {
			return nil, fmt.Errorf("StreamRules: %w", err)
		}
		q.Set("ids", strings.Join(cleaned, ","))
	}
	var po PageOptions
	if opts != nil {
		po = *opts
	}
	return newPager[Rule](ctx, c, NewRequest(endpoint("StreamRules"), nil, q), po), nil
}

// AddRules adds filtered stream rules. With dryRun the API validates them
// without applying.
func (c *Client) AddRules(ctx context.Context, rules []Rule, dryRun bool) (*RulesResult, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("ChangeStreamRules: %w", ErrEmptyIDs)
	}
	add := make([]Rule, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.Value) == "" {
			return nil, fmt.Errorf("ChangeStreamRules: %w: rule %d has no value", ErrInvalidArgument, i)
		}
		add[i] = Rule{Value: r.Value, Tag: r.Tag}
	}
	return c.changeRules(ctx, map[string]any{"add": add}, dryRun)
}

// DeleteRules deletes filtered stream rules by id.
func (c *Client) DeleteRules(ctx context.Context, ids []string, dryRun bool) (*RulesResult, error) {
	cleaned, err := cleanIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("ChangeStreamRules: %w", err)
	}
	return c.changeRules(ctx, map[string]any{"delete": map[string][]string{"ids": cleaned}}, dryRun)
}

func (c *Client) changeRules(ctx context.Context, payload map[string]any, dryRun bool) (*RulesResult, error) {
	ep := endpoint("ChangeStreamRules")
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode body: %w", ep.Name, err)
	}
	q := url.Values{}
	if dryRun {
		q.Set("dry_run", strconv.FormatBool(dryRun))
	}
	req := NewRequest(ep, nil, q)
	req.Body = body

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	page, err := decodePage[Rule](ep.Name, resp.Body)
	if err != nil {
		return nil, err
	}
	out := &RulesResult{Rules: page.Data, Errors: page.Errors}
	if page.Meta.Summary != nil {
		out.Summary = *page.Meta.Summary
	}
	return out, nil
}
