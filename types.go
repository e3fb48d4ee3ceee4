package twitter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tweet is a Twitter API v2 Tweet object. Optional fields are pointers or
// nil slices when the corresponding field selector was not requested.
type Tweet struct {
	ID                  string              `json:"id"`
	Text                string              `json:"text"`
	AuthorID            string              `json:"author_id,omitempty"`
	ConversationID      string              `json:"conversation_id,omitempty"`
	CreatedAt           *time.Time          `json:"created_at,omitempty"`
	InReplyToUserID     string              `json:"in_reply_to_user_id,omitempty"`
	Lang                string              `json:"lang,omitempty"`
	Source              string              `json:"source,omitempty"`
	ReplySettings       string              `json:"reply_settings,omitempty"`
	PossiblySensitive   *bool               `json:"possibly_sensitive,omitempty"`
	EditHistoryTweetIDs []string            `json:"edit_history_tweet_ids,omitempty"`
	ReferencedTweets    []ReferencedTweet   `json:"referenced_tweets,omitempty"`
	Attachments         *Attachments        `json:"attachments,omitempty"`
	Entities            *Entities           `json:"entities,omitempty"`
	Geo                 *TweetGeo           `json:"geo,omitempty"`
	ContextAnnotations  []ContextAnnotation `json:"context_annotations,omitempty"`
	PublicMetrics       *TweetMetrics       `json:"public_metrics,omitempty"`
	NoteTweet           *NoteTweet          `json:"note_tweet,omitempty"`
	EditControls        *EditControls       `json:"edit_controls,omitempty"`
	Withheld            *Withheld           `json:"withheld,omitempty"`
}

// ReferencedTweet links a tweet to the one it quotes, retweets or replies to.
type ReferencedTweet struct {
	Type string `json:"type"` // retweeted, quoted, replied_to
	ID   string `json:"id"`
}

type Attachments struct {
	MediaKeys []string `json:"media_keys,omitempty"`
	PollIDs   []string `json:"poll_ids,omitempty"`
}

type Entities struct {
	Hashtags []TagEntity     `json:"hashtags,omitempty"`
	Cashtags []TagEntity     `json:"cashtags,omitempty"`
	Mentions []MentionEntity `json:"mentions,omitempty"`
	URLs     []URLEntity     `json:"urls,omitempty"`
}

type TagEntity struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Tag   string `json:"tag"`
}

type MentionEntity struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Username string `json:"username"`
	ID       string `json:"id,omitempty"`
}

type URLEntity struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url,omitempty"`
	DisplayURL  string `json:"display_url,omitempty"`
	MediaKey    string `json:"media_key,omitempty"`
}

type TweetGeo struct {
	PlaceID     string       `json:"place_id,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Coordinates struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type ContextAnnotation struct {
	Domain ContextEntity `json:"domain"`
	Entity ContextEntity `json:"entity"`
}

type ContextEntity struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type TweetMetrics struct {
	RetweetCount    int `json:"retweet_count"`
	ReplyCount      int `json:"reply_count"`
	LikeCount       int `json:"like_count"`
	QuoteCount      int `json:"quote_count"`
	BookmarkCount   int `json:"bookmark_count,omitempty"`
	ImpressionCount int `json:"impression_count,omitempty"`
}

type NoteTweet struct {
	Text     string    `json:"text"`
	Entities *Entities `json:"entities,omitempty"`
}

type EditControls struct {
	EditsRemaining int        `json:"edits_remaining"`
	IsEditEligible bool       `json:"is_edit_eligible"`
	EditableUntil  *time.Time `json:"editable_until,omitempty"`
}

type Withheld struct {
	Copyright    bool     `json:"copyright,omitempty"`
	CountryCodes []string `json:"country_codes,omitempty"`
	Scope        string   `json:"scope,omitempty"`
}

// User is a Twitter API v2 User object.
type User struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Username          string       `json:"username"`
	CreatedAt         *time.Time   `json:"created_at,omitempty"`
	Description       string       `json:"description,omitempty"`
	Location          string       `json:"location,omitempty"`
	PinnedTweetID     string       `json:"pinned_tweet_id,omitempty"`
	MostRecentTweetID string       `json:"most_recent_tweet_id,omitempty"`
	ProfileImageURL   string       `json:"profile_image_url,omitempty"`
	ProfileBannerURL  string       `json:"profile_banner_url,omitempty"`
	Protected         *bool        `json:"protected,omitempty"`
	URL               string       `json:"url,omitempty"`
	Verified          *bool        `json:"verified,omitempty"`
	VerifiedType      string       `json:"verified_type,omitempty"`
	SubscriptionType  string       `json:"subscription_type,omitempty"`
	PublicMetrics     *UserMetrics `json:"public_metrics,omitempty"`
	Withheld          *Withheld    `json:"withheld,omitempty"`
}

type UserMetrics struct {
	FollowersCount int `json:"followers_count"`
	FollowingCount int `json:"following_count"`
	TweetCount     int `json:"tweet_count"`
	ListedCount    int `json:"listed_count"`
	LikeCount      int `json:"like_count,omitempty"`
	MediaCount     int `json:"media_count,omitempty"`
}

// Media is an expanded attachment from includes.media.
type Media struct {
	MediaKey        string         `json:"media_key"`
	Type            string         `json:"type"`
	URL             string         `json:"url,omitempty"`
	PreviewImageURL string         `json:"preview_image_url,omitempty"`
	DurationMS      int            `json:"duration_ms,omitempty"`
	Height          int            `json:"height,omitempty"`
	Width           int            `json:"width,omitempty"`
	AltText         string         `json:"alt_text,omitempty"`
	PublicMetrics   map[string]int `json:"public_metrics,omitempty"`
	Variants        []MediaVariant `json:"variants,omitempty"`
}

type MediaVariant struct {
	BitRate     int    `json:"bit_rate,omitempty"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

type Poll struct {
	ID              string       `json:"id"`
	Options         []PollOption `json:"options"`
	DurationMinutes int          `json:"duration_minutes,omitempty"`
	EndDatetime     *time.Time   `json:"end_datetime,omitempty"`
	VotingStatus    string       `json:"voting_status,omitempty"`
}

type PollOption struct {
	Position int    `json:"position"`
	Label    string `json:"label"`
	Votes    int    `json:"votes"`
}

type Place struct {
	ID              string    `json:"id"`
	FullName        string    `json:"full_name"`
	Name            string    `json:"name,omitempty"`
	Country         string    `json:"country,omitempty"`
	CountryCode     string    `json:"country_code,omitempty"`
	PlaceType       string    `json:"place_type,omitempty"`
	ContainedWithin []string  `json:"contained_within,omitempty"`
	Geo             *PlaceGeo `json:"geo,omitempty"`
}

type PlaceGeo struct {
	Type string    `json:"type"`
	BBox []float64 `json:"bbox"`
}

// Includes carries objects expanded via the expansions parameter.
type Includes struct {
	Tweets []Tweet `json:"tweets,omitempty"`
	Users  []User  `json:"users,omitempty"`
	Media  []Media `json:"media,omitempty"`
	Places []Place `json:"places,omitempty"`
	Polls  []Poll  `json:"polls,omitempty"`
}

// User returns the expanded user with the given id.
func (in *Includes) User(id string) (User, bool) {
	if in == nil {
		return User{}, false
	}
	for _, u := range in.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// Tweet returns the expanded tweet with the given id.
func (in *Includes) Tweet(id string) (Tweet, bool) {
	if in == nil {
		return Tweet{}, false
	}
	for _, t := range in.Tweets {
		if t.ID == id {
			return t, true
		}
	}
	return Tweet{}, false
}

// Meta is the pagination and summary block of a response.
type Meta struct {
	ResultCount     int          `json:"result_count"`
	NextToken       string       `json:"next_token,omitempty"`
	PreviousToken   string       `json:"previous_token,omitempty"`
	NewestID        string       `json:"newest_id,omitempty"`
	OldestID        string       `json:"oldest_id,omitempty"`
	TotalTweetCount int          `json:"total_tweet_count,omitempty"`
	Sent            string       `json:"sent,omitempty"`
	Summary         *RuleSummary `json:"summary,omitempty"`
}

// ErrorDetail is one entry of a response's errors array (partial errors on
// 2xx, or the problem list on 4xx). Fields are copied verbatim.
type ErrorDetail struct {
	Title        string `json:"title,omitempty"`
	Detail       string `json:"detail,omitempty"`
	Type         string `json:"type,omitempty"`
	Value        string `json:"value,omitempty"`
	Parameter    string `json:"parameter,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`
	Section      string `json:"section,omitempty"`
	Message      string `json:"message,omitempty"`
	Code         int    `json:"code,omitempty"`
}

// SearchCount is one bucket of a tweet counts response.
type SearchCount struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	TweetCount int       `json:"tweet_count"`
}

// Trend is a trending topic for a location.
type Trend struct {
	TrendName  string `json:"trend_name"`
	TweetCount int    `json:"tweet_count,omitempty"`
}

// Usage reports project consumption for the current billing cycle.
type Usage struct {
	ProjectID           string           `json:"project_id,omitempty"`
	ProjectCap          FlexInt          `json:"project_cap,omitempty"`
	ProjectUsage        FlexInt          `json:"project_usage,omitempty"`
	CapResetDay         FlexInt          `json:"cap_reset_day,omitempty"`
	DailyProjectUsage   *DailyUsage      `json:"daily_project_usage,omitempty"`
	DailyClientAppUsage []ClientAppUsage `json:"daily_client_app_usage,omitempty"`
}

type DailyUsage struct {
	ProjectID FlexString   `json:"project_id,omitempty"`
	Usage     []UsageEntry `json:"usage,omitempty"`
}

type ClientAppUsage struct {
	ClientAppID      FlexString   `json:"client_app_id"`
	Usage            []UsageEntry `json:"usage,omitempty"`
	UsageResultCount FlexInt      `json:"usage_result_count,omitempty"`
}

type UsageEntry struct {
	Date  time.Time `json:"date"`
	Usage FlexInt   `json:"usage"`
}

// FlexInt decodes integers that Twitter sends either as JSON numbers or as
// decimal strings.
type FlexInt int64

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("flex int %s: %w", b, err)
	}
	*n = FlexInt(v)
	return nil
}

// FlexString decodes identifiers sent either as strings or as numbers.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("flex string %s: %w", b, err)
	}
	*s = FlexString(num.String())
	return nil
}

// ComplianceJobType selects tweet or user compliance.
type ComplianceJobType string

const (
	ComplianceTweets ComplianceJobType = "tweets"
	ComplianceUsers  ComplianceJobType = "users"
)

// ComplianceJobStatus is the lifecycle state of a batch compliance job.
type ComplianceJobStatus string

const (
	ComplianceCreated    ComplianceJobStatus = "created"
	ComplianceInProgress ComplianceJobStatus = "in_progress"
	ComplianceFailed     ComplianceJobStatus = "failed"
	ComplianceComplete   ComplianceJobStatus = "complete"
	ComplianceExpired    ComplianceJobStatus = "expired"
)

// ComplianceJob is a batch compliance job.
type ComplianceJob struct {
	ID                string              `json:"id"`
	Type              ComplianceJobType   `json:"type"`
	Status            ComplianceJobStatus `json:"status"`
	Name              string              `json:"name,omitempty"`
	Resumable         bool                `json:"resumable,omitempty"`
	CreatedAt         *time.Time          `json:"created_at,omitempty"`
	UploadURL         string              `json:"upload_url"`
	UploadExpiresAt   *time.Time          `json:"upload_expires_at,omitempty"`
	DownloadURL       string              `json:"download_url"`
	DownloadExpiresAt *time.Time          `json:"download_expires_at,omitempty"`
}

// ComplianceResult is one line of a finished compliance job's result file.
type ComplianceResult struct {
	ID         string     `json:"id"`
	Action     string     `json:"action"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	RedactedAt *time.Time `json:"redacted_at,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// Rule is a filtered stream rule.
type Rule struct {
	ID    string `json:"id,omitempty"`
	Value string `json:"value"`
	Tag   string `json:"tag,omitempty"`
}

// RuleSummary reports the effect of a rules change.
type RuleSummary struct {
	Created    int `json:"created,omitempty"`
	NotCreated int `json:"not_created,omitempty"`
	Deleted    int `json:"deleted,omitempty"`
	NotDeleted int `json:"not_deleted,omitempty"`
	Valid      int `json:"valid,omitempty"`
	Invalid    int `json:"invalid,omitempty"`
}

// StreamTweet is one delivery of the filtered stream.
type StreamTweet struct {
	Tweet         Tweet         `json:"data"`
	Includes      Includes      `json:"includes"`
	MatchingRules []Rule        `json:"matching_rules,omitempty"`
	Errors        []ErrorDetail `json:"errors,omitempty"`
}

// ComplianceEvent is one event of a tweet or user compliance stream.
type ComplianceEvent struct {
	// Type is the event name: "delete", "withheld", "user_suspend", "scrub_geo"
	// and so on.
	Type                string    `json:"type"`
	EventAt             time.Time `json:"event_at"`
	TweetID             string    `json:"tweet_id,omitempty"`
	AuthorID            string    `json:"author_id,omitempty"`
	UserID              string    `json:"user_id,omitempty"`
	WithheldInCountries []string  `json:"withheld_in_countries,omitempty"`
	UpToTweetID         string    `json:"up_to_tweet_id,omitempty"`

	// Raw is the event object as sent, for fields not mapped above.
	Raw json.RawMessage `json:"raw,omitempty"`
}
