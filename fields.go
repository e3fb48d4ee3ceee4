package twitter

import (
	"net/url"
	"strings"
	"time"
)

// Default field selectors. They request every field the v2 API exposes for
// app-only authentication.
var (
	TweetFields = []string{
		"article", "attachments", "author_id", "card_uri", "context_annotations", "conversation_id",
		"created_at", "display_text_range", "edit_controls", "edit_history_tweet_ids", "entities",
		"geo", "id", "in_reply_to_user_id", "lang", "media_metadata", "note_tweet",
		"possibly_sensitive", "public_metrics", "referenced_tweets", "reply_settings", "scopes",
		"source", "text", "withheld",
	}
	TweetExpansions = []string{
		"article.cover_media", "article.media_entities", "attachments.media_keys",
		"attachments.media_source_tweet", "attachments.poll_ids", "author_id",
		"edit_history_tweet_ids", "entities.mentions.username", "geo.place_id",
		"in_reply_to_user_id", "entities.note.mentions.username", "referenced_tweets.id",
		"referenced_tweets.id.author_id",
	}
	UserFields = []string{
		"affiliation", "connection_status", "created_at", "description", "entities", "id",
		"location", "most_recent_tweet_id", "name", "pinned_tweet_id", "profile_banner_url",
		"profile_image_url", "protected", "public_metrics", "receives_your_dm",
		"subscription_type", "url", "username", "verified", "verified_type", "withheld",
	}
	UserExpansions = []string{"affiliation.user_id", "most_recent_tweet_id", "pinned_tweet_id"}
	MediaFields    = []string{
		"media_key", "duration_ms", "height", "preview_image_url", "type", "url", "width",
		"public_metrics", "alt_text", "variants",
	}
	PollFields  = []string{"duration_minutes", "end_datetime", "id", "options", "voting_status"}
	PlaceFields = []string{
		"contained_within", "country", "country_code", "full_name", "geo", "id", "name", "place_type",
	}
)

// Fields selects which object fields and expansions a call returns. A nil
// slice means the package default; an empty non-nil slice omits the parameter.
type Fields struct {
	Tweet      []string
	User       []string
	Media      []string
	Poll       []string
	Place      []string
	Expansions []string
}

// tweetQuery applies tweet-oriented selectors to q.
func (f *Fields) tweetQuery(q url.Values) {
	if f == nil {
		f = &Fields{}
	}
	setList(q, "tweet.fields", f.Tweet, TweetFields)
	setList(q, "expansions", f.Expansions, TweetExpansions)
	setList(q, "user.fields", f.User, UserFields)
	setList(q, "media.fields", f.Media, MediaFields)
	setList(q, "poll.fields", f.Poll, PollFields)
	setList(q, "place.fields", f.Place, PlaceFields)
}

// userQuery applies user-oriented selectors to q.
func (f *Fields) userQuery(q url.Values) {
	if f == nil {
		f = &Fields{}
	}
	setList(q, "user.fields", f.User, UserFields)
	setList(q, "expansions", f.Expansions, UserExpansions)
	setList(q, "tweet.fields", f.Tweet, TweetFields)
}

func setList(q url.Values, key string, v, def []string) {
	if v == nil {
		v = def
	}
	if len(v) == 0 {
		return
	}
	q.Set(key, strings.Join(v, ","))
}

// setTime writes t in the API's second-granularity RFC 3339 form.
func setTime(q url.Values, key string, t time.Time) {
	if t.IsZero() {
		return
	}
	q.Set(key, t.UTC().Format("2006-01-02T15:04:05Z"))
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}
