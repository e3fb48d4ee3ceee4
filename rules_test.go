package twitter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRules(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{ok(`{
		"data":[{"id":"1","value":"cat has:images","tag":"cats"}],
		"meta":{"sent":"2023-01-01T00:00:00.000Z","summary":{"created":1,"not_created":1,"valid":1,"invalid":1}},
		"errors":[{"value":"((","title":"UnprocessableEntity","detail":"bad rule","type":"https://api.twitter.com/2/problems/invalid-rules"}]
	}`)}}
	c, _ := newTestClient(t, doer, testPolicy())

	res, err := c.AddRules(context.Background(), []Rule{
		{Value: "cat has:images", Tag: "cats", ID: "ignored"},
		{Value: "(("},
	}, true)
	require.NoError(t, err)
	require.Len(t, res.Rules, 1)
	assert.Equal(t, "cats", res.Rules[0].Tag)
	assert.Equal(t, 1, res.Summary.Created)
	assert.Equal(t, 1, res.Summary.Invalid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "((", res.Errors[0].Value)

	call := doer.Calls()[0]
	assert.Equal(t, "POST", call.method)
	assert.Equal(t, "true", call.query(t).Get("dry_run"))
	assert.JSONEq(t, `{"add":[{"value":"cat has:images","tag":"cats"},{"value":"(("}]}`, string(call.body))
}

func TestDeleteRules(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{ok(`{"meta":{"sent":"2023-01-01T00:00:00.000Z","summary":{"deleted":2,"not_deleted":0}}}`)}}
	c, _ := newTestClient(t, doer, testPolicy())

	res, err := c.DeleteRules(context.Background(), []string{"1", " 2 "}, false)
	require.NoError(t, err)
	assert.Empty(t, res.Rules)
	assert.Equal(t, 2, res.Summary.Deleted)

	call := doer.Calls()[0]
	assert.False(t, call.query(t).Has("dry_run"))
	assert.JSONEq(t, `{"delete":{"ids":["1","2"]}}`, string(call.body))
}

func TestListRules(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{ok(`{"data":[{"id":"1","value":"a"},{"id":"2","value":"b"}],"meta":{"result_count":2}}`)}}
	c, _ := newTestClient(t, doer, testPolicy())

	p, err := c.Rules(context.Background(), []string{"1", "2"}, &PageOptions{PageSize: 50})
	require.NoError(t, err)
	rules, err := p.All()
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	q := doer.Calls()[0].query(t)
	assert.Equal(t, "1,2", q.Get("ids"))
	assert.Equal(t, "50", q.Get("max_results"))
}

func TestRulesValidation(t *testing.T) {
	doer := &fakeDoer{}
	c, _ := newTestClient(t, doer, testPolicy())
	ctx := context.Background()

	_, err := c.AddRules(ctx, nil, false)
	require.ErrorIs(t, err, ErrEmptyIDs)
	_, err = c.AddRules(ctx, []Rule{{Value: "  "}}, false)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.DeleteRules(ctx, []string{"1", ""}, false)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.Rules(ctx, []string{""}, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, doer.Calls())
}
