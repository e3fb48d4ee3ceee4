package twitter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequestResolvesPath(t *testing.T) {
	req := NewRequest(endpoint("UserByUsername"), map[string]string{"username": "jack smith"}, nil)
	assert.Equal(t, "/2/users/by/username/jack%20smith", req.Path)
	assert.NotNil(t, req.Query)

	req = NewRequest(endpoint("QuoteTweets"), map[string]string{"id": "20"}, nil)
	assert.Equal(t, "/2/tweets/20/quote_tweets", req.Path)
}

func TestRequestURL(t *testing.T) {
	q := url.Values{}
	q.Set("query", "from:jack")
	req := NewRequest(endpoint("SearchRecent"), nil, q)

	assert.Equal(t, "https://api.test/2/tweets/search/recent?query=from%3Ajack", req.URL("https://api.test"))
	assert.Equal(t,
		"https://api.test/2/tweets/search/recent?next_token=abc&query=from%3Ajack",
		req.WithToken("abc").URL("https://api.test"))

	assert.Empty(t, req.Token, "WithToken must not modify the original")
	assert.Len(t, req.Query, 1, "token must not leak into the original query")
}

func TestRequestURLPassesThroughAbsolute(t *testing.T) {
	req := Request{Endpoint: endpoint("ComplianceUpload"), Path: "https://storage.test/upload?sig=x"}
	assert.Equal(t, "https://storage.test/upload?sig=x", req.URL("https://api.test"))

	req.Query = url.Values{"a": {"b"}}
	assert.Equal(t, "https://storage.test/upload?sig=x&a=b", req.URL("https://api.test"))
}

func TestWithQueryCopies(t *testing.T) {
	base := NewRequest(endpoint("TweetsByIDs"), nil, url.Values{"tweet.fields": {"id"}})
	a := base.WithQuery("ids", "1,2")
	b := base.WithQuery("ids", "3")

	assert.Empty(t, base.Query.Get("ids"))
	assert.Equal(t, "1,2", a.Query.Get("ids"))
	assert.Equal(t, "3", b.Query.Get("ids"))
	assert.Equal(t, "id", b.Query.Get("tweet.fields"))
}

func TestClampResults(t *testing.T) {
	search := endpoint("SearchRecent")
	tests := []struct {
		in, want int
	}{
		{0, 100}, {-1, 100}, {5, 10}, {10, 10}, {55, 55}, {100, 100}, {101, 100},
	}
	for _, tt := range tests {
		if got := search.clampResults(tt.in); got != tt.want {
			t.Fatalf("clampResults(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	assert.Equal(t, 500, endpoint("SearchAll").clampResults(0))
	assert.Zero(t, endpoint("CountsRecent").clampResults(50))
}

func TestEndpointsAreConsistent(t *testing.T) {
	for name, ep := range Endpoints {
		assert.Equal(t, name, ep.Name)
		assert.Contains(t, []string{"GET", "POST", "PUT"}, ep.Method, name)
		if ep.MaxResults > 0 {
			assert.NotEmpty(t, ep.TokenParam, name)
			assert.LessOrEqual(t, ep.MinResults, ep.MaxResults, name)
		}
	}
	assert.Panics(t, func() { endpoint("NoSuchEndpoint") })
}
