package twitter

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		size int
		want [][]string
	}{
		{"split with remainder", []string{"1", "2", "3"}, 2, [][]string{{"1", "2"}, {"3"}}},
		{"exact fit", []string{"1", "2"}, 2, [][]string{{"1", "2"}}},
		{"single", []string{"1"}, 100, [][]string{{"1"}}},
		{"empty", nil, 100, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunk(tt.in, tt.size))
		})
	}
}

func TestChunkDoesNotAlias(t *testing.T) {
	in := []string{"1", "2", "3"}
	groups := chunk(in, 2)
	groups[0] = append(groups[0], "x")
	assert.Equal(t, []string{"1", "2", "3"}, in)
}

// echoLookup answers a batched lookup with the requested ids in reverse order.
func echoLookup(param string) func(int, recordedCall) fakeResponse {
	return func(_ int, call recordedCall) fakeResponse {
		u, err := url.Parse(call.url)
		if err != nil {
			return fakeResponse{err: err}
		}
		requested := strings.Split(u.Query().Get(param), ",")
		slices.Reverse(requested)
		var items []string
		for _, id := range requested {
			items = append(items, fmt.Sprintf(`{"id":%q,"text":"t","name":"n","username":%q}`, id, "user"+id))
		}
		return ok(fmt.Sprintf(`{"data":[%s]}`, strings.Join(items, ",")))
	}
}

func TestTweetsByIDsSplitsAndPreservesOrder(t *testing.T) {
	in := make([]string, 250)
	for i := range in {
		in[i] = strconv.Itoa(1000 + i)
	}
	doer := &fakeDoer{handler: echoLookup("ids")}
	c, _ := newTestClient(t, doer, testPolicy())

	p, err := c.TweetsByIDs(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Empty(t, doer.Calls())

	tweets, err := p.All()
	require.NoError(t, err)
	assert.Equal(t, in, tweetIDs(tweets))

	calls := doer.Calls()
	require.Len(t, calls, 3)
	sizes := []int{100, 100, 50}
	offset := 0
	for i, call := range calls {
		got := strings.Split(call.query(t).Get("ids"), ",")
		assert.Len(t, got, sizes[i])
		assert.Equal(t, in[offset:offset+sizes[i]], got)
		offset += sizes[i]
		assert.Contains(t, call.url, "/2/tweets?")
	}
}

func TestBatchOfThreeWithMaxTwo(t *testing.T) {
	ep := endpoint("TweetsByIDs")
	ep.BatchSize = 2
	doer := &fakeDoer{handler: echoLookup("ids")}
	c, _ := newTestClient(t, doer, testPolicy())

	p, err := newBatchPager(context.Background(), c, ep, "ids", []string{"1", "2", "3"}, nil, func(tw Tweet) string { return tw.ID })
	require.NoError(t, err)
	tweets, err := p.All()
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, tweetIDs(tweets))
	calls := doer.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "1,2", calls[0].query(t).Get("ids"))
	assert.Equal(t, "3", calls[1].query(t).Get("ids"))
}

func TestBatchStopsEarlyWhenConsumerStops(t *testing.T) {
	in := make([]string, 150)
	for i := range in {
		in[i] = strconv.Itoa(i + 1)
	}
	doer := &fakeDoer{handler: echoLookup("ids")}
	c, _ := newTestClient(t, doer, testPolicy())

	p, err := c.UsersByIDs(context.Background(), in, nil)
	require.NoError(t, err)
	for u, err := range p.Items() {
		require.NoError(t, err)
		assert.Equal(t, "1", u.ID)
		break
	}
	assert.Len(t, doer.Calls(), 1)
}

func TestBatchMissingItemsAndPartialErrors(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{ok(`{
		"data":[{"id":"3","text":"c"},{"id":"1","text":"a"}],
		"errors":[{"value":"2","detail":"Could not find tweet with ids: [2].","resource_type":"tweet","type":"https://api.twitter.com/2/problems/resource-not-found"}]
	}`)}}
	c, _ := newTestClient(t, doer, testPolicy())

	p, err := c.TweetsByIDs(context.Background(), []string{"1", "2", "3"}, nil)
	require.NoError(t, err)
	for page, err := range p.Pages() {
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "3"}, tweetIDs(page.Data))
		require.Len(t, page.Errors, 1)
		assert.Equal(t, "2", page.Errors[0].Value)
	}
}

func TestBatchAllMissing(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{ok(`{"errors":[{"value":"9","detail":"Could not find tweet with ids: [9]."}]}`)}}
	c, _ := newTestClient(t, doer, testPolicy())

	p, err := c.TweetsByIDs(context.Background(), []string{"9"}, nil)
	require.NoError(t, err)
	tweets, err := p.All()
	require.NoError(t, err)
	assert.Empty(t, tweets)
}

func TestUsersByUsernamesOrdersCaseInsensitively(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{ok(`{"data":[
		{"id":"2","name":"B","username":"Bob"},
		{"id":"1","name":"A","username":"alice"}
	]}`)}}
	c, _ := newTestClient(t, doer, testPolicy())

	p, err := c.UsersByUsernames(context.Background(), []string{"@Alice", "bob"}, nil)
	require.NoError(t, err)
	users, err := p.All()
	require.NoError(t, err)

	require.Len(t, users, 2)
	assert.Equal(t, "1", users[0].ID)
	assert.Equal(t, "2", users[1].ID)
	assert.Equal(t, "Alice,bob", doer.Calls()[0].query(t).Get("usernames"))
	assert.Contains(t, doer.Calls()[0].url, "/2/users/by?")
}

func TestBatchValidation(t *testing.T) {
	doer := &fakeDoer{}
	c, _ := newTestClient(t, doer, testPolicy())
	ctx := context.Background()

	_, err := c.TweetsByIDs(ctx, nil, nil)
	require.ErrorIs(t, err, ErrEmptyIDs)

	_, err = c.UsersByIDs(ctx, []string{}, nil)
	require.ErrorIs(t, err, ErrEmptyIDs)

	_, err = c.UsersByIDs(ctx, []string{"1", "  "}, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.UsersByUsernames(ctx, []string{"@"}, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	assert.Empty(t, doer.Calls())
}
