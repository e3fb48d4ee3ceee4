package twitter

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoint describes one API operation. Name doubles as the rate-limit key.
type Endpoint struct {
	Name   string
	Method string
	// Path is a template; ":id", ":username" and ":woeid" are substituted.
	Path string
	// TokenParam is the query parameter carrying the continuation token.
	TokenParam string
	// MinResults and MaxResults bound the max_results page size; zero means
	// the endpoint does not page by max_results.
	MinResults int
	MaxResults int
	// BatchSize is the maximum number of identifiers per lookup call.
	BatchSize int
}

// Endpoints maps operation names to their definitions.
var Endpoints = map[string]Endpoint{
	"TweetByID":             {Name: "TweetByID", Method: "GET", Path: "/2/tweets/:id"},
	"TweetsByIDs":           {Name: "TweetsByIDs", Method: "GET", Path: "/2/tweets", BatchSize: 100},
	"SearchRecent":          {Name: "SearchRecent", Method: "GET", Path: "/2/tweets/search/recent", TokenParam: "next_token", MinResults: 10, MaxResults: 100},
	"SearchAll":             {Name: "SearchAll", Method: "GET", Path: "/2/tweets/search/all", TokenParam: "next_token", MinResults: 10, MaxResults: 500},
	"CountsRecent":          {Name: "CountsRecent", Method: "GET", Path: "/2/tweets/counts/recent", TokenParam: "next_token"},
	"CountsAll":             {Name: "CountsAll", Method: "GET", Path: "/2/tweets/counts/all", TokenParam: "next_token"},
	"QuoteTweets":           {Name: "QuoteTweets", Method: "GET", Path: "/2/tweets/:id/quote_tweets", TokenParam: "pagination_token", MinResults: 10, MaxResults: 100},
	"RetweetedBy":           {Name: "RetweetedBy", Method: "GET", Path: "/2/tweets/:id/retweeted_by", TokenParam: "pagination_token", MinResults: 1, MaxResults: 100},
	"UserByID":              {Name: "UserByID", Method: "GET", Path: "/2/users/:id"},
	"UserByUsername":        {Name: "UserByUsername", Method: "GET", Path: "/2/users/by/username/:username"},
	"UsersByIDs":            {Name: "UsersByIDs", Method: "GET", Path: "/2/users", BatchSize: 100},
	"UsersByUsernames":      {Name: "UsersByUsernames", Method: "GET", Path: "/2/users/by", BatchSize: 100},
	"Followers":             {Name: "Followers", Method: "GET", Path: "/2/users/:id/followers", TokenParam: "pagination_token", MinResults: 1, MaxResults: 1000},
	"Following":             {Name: "Following", Method: "GET", Path: "/2/users/:id/following", TokenParam: "pagination_token", MinResults: 1, MaxResults: 1000},
	"UserTweets":            {Name: "UserTweets", Method: "GET", Path: "/2/users/:id/tweets", TokenParam: "pagination_token", MinResults: 5, MaxResults: 100},
	"TrendsByWOEID":         {Name: "TrendsByWOEID", Method: "GET", Path: "/2/trends/by/woeid/:woeid"},
	"UsageTweets":           {Name: "UsageTweets", Method: "GET", Path: "/2/usage/tweets"},
	"ComplianceJobs":        {Name: "ComplianceJobs", Method: "GET", Path: "/2/compliance/jobs"},
	"ComplianceJob":         {Name: "ComplianceJob", Method: "GET", Path: "/2/compliance/jobs/:id"},
	"CreateCompliance":      {Name: "CreateCompliance", Method: "POST", Path: "/2/compliance/jobs"},
	"ComplianceUpload":      {Name: "ComplianceUpload", Method: "PUT"},
	"ComplianceResults":     {Name: "ComplianceResults", Method: "GET"},
	"StreamRules":           {Name: "StreamRules", Method: "GET", Path: "/2/tweets/search/stream/rules", TokenParam: "pagination_token", MinResults: 1, MaxResults: 1000},
	"ChangeStreamRules":     {Name: "ChangeStreamRules", Method: "POST", Path: "/2/tweets/search/stream/rules"},
	"FilteredStream":        {Name: "FilteredStream", Method: "GET", Path: "/2/tweets/search/stream"},
	"TweetComplianceStream": {Name: "TweetComplianceStream", Method: "GET", Path: "/2/tweets/compliance/stream"},
	"UserComplianceStream":  {Name: "UserComplianceStream", Method: "GET", Path: "/2/users/compliance/stream"},
}

// endpoint returns a registered endpoint or panics on a programming error.
func endpoint(name string) Endpoint {
	ep, ok := Endpoints[name]
	if !ok {
		panic(fmt.Sprintf("twitter: unknown endpoint %q", name))
	}
	return ep
}

// clampResults keeps a requested page size inside the endpoint's bounds.
// Zero selects the maximum.
func (e Endpoint) clampResults(n int) int {
	if e.MaxResults == 0 {
		return 0
	}
	if n <= 0 || n > e.MaxResults {
		return e.MaxResults
	}
	if n < e.MinResults {
		return e.MinResults
	}
	return n
}

// Request describes one call. It is treated as immutable: WithToken and
// WithQuery return modified copies.
type Request struct {
	Endpoint Endpoint
	// Path is the resolved path, or a full URL for presigned compliance URLs.
	Path  string
	Query url.Values
	// Token is the continuation token sent as Endpoint.TokenParam.
	Token string
	Body  []byte
	// Unauthenticated suppresses the bearer header.
	Unauthenticated bool
}

// NewRequest resolves path parameters for ep.
func NewRequest(ep Endpoint, params map[string]string, query url.Values) Request {
	path := ep.Path
	for k, v := range params {
		path = strings.ReplaceAll(path, ":"+k, url.PathEscape(v))
	}
	if query == nil {
		query = url.Values{}
	}
	return Request{Endpoint: ep, Path: path, Query: query}
}

// WithToken returns a copy carrying the continuation token.
func (r Request) WithToken(token string) Request {
	r.Token = token
	return r
}

// WithQuery returns a copy with key set to value.
func (r Request) WithQuery(key, value string) Request {
	q := make(url.Values, len(r.Query)+1)
	for k, v := range r.Query {
		q[k] = append([]string(nil), v...)
	}
	q.Set(key, value)
	r.Query = q
	return r
}

// URL returns the absolute URL for the request against base.
func (r Request) URL(base string) string {
	target := r.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = base + target
	}
	q := r.Query
	if r.Token != "" && r.Endpoint.TokenParam != "" {
		q = make(url.Values, len(r.Query)+1)
		for k, v := range r.Query {
			q[k] = v
		}
		q.Set(r.Endpoint.TokenParam, r.Token)
	}
	if len(q) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + q.Encode()
}
