package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	twitter "github.com/anatolykoptev/go-twitterapi"
)

// listing is a drained pager: items, merged expansions and partial errors.
type listing[T any] struct {
	Items    []T                   `json:"data"`
	Includes twitter.Includes      `json:"includes"`
	Errors   []twitter.ErrorDetail `json:"errors,omitempty"`
}

// collect drains a pager, merging expansions across pages.
func collect[T any](p *twitter.Pager[T]) (*listing[T], error) {
	out := &listing[T]{}
	for page, err := range p.Pages() {
		if err != nil {
			return out, err
		}
		out.Items = append(out.Items, page.Data...)
		out.Includes.Users = append(out.Includes.Users, page.Includes.Users...)
		out.Includes.Tweets = append(out.Includes.Tweets, page.Includes.Tweets...)
		out.Errors = append(out.Errors, page.Errors...)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}

func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	// Footers carry counts like "2 tweets"; keep them as written.
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(header)
	return t
}

func render(w io.Writer, t table.Writer) error {
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func renderTweets(w io.Writer, tweets []twitter.Tweet, inc twitter.Includes) error {
	t := newTable(table.Row{"ID", "Author", "Created", "Likes", "RTs", "Text"})
	for _, tw := range tweets {
		author := tw.AuthorID
		if u, ok := inc.User(tw.AuthorID); ok {
			author = "@" + u.Username
		}
		likes, rts := 0, 0
		if m := tw.PublicMetrics; m != nil {
			likes, rts = m.LikeCount, m.RetweetCount
		}
		t.AppendRow(table.Row{tw.ID, author, formatTime(tw.CreatedAt), likes, rts, shorten(tw.Text, 80)})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("%d tweets", len(tweets))})
	return render(w, t)
}

func renderUsers(w io.Writer, users []twitter.User) error {
	t := newTable(table.Row{"ID", "Username", "Name", "Followers", "Following", "Tweets"})
	for _, u := range users {
		var m twitter.UserMetrics
		if u.PublicMetrics != nil {
			m = *u.PublicMetrics
		}
		t.AppendRow(table.Row{u.ID, "@" + u.Username, u.Name, m.FollowersCount, m.FollowingCount, m.TweetCount})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("%d users", len(users))})
	return render(w, t)
}

func renderCounts(w io.Writer, counts []twitter.SearchCount) error {
	t := newTable(table.Row{"Start", "End", "Tweets"})
	total := 0
	for _, c := range counts {
		t.AppendRow(table.Row{c.Start.UTC().Format(time.RFC3339), c.End.UTC().Format(time.RFC3339), c.TweetCount})
		total += c.TweetCount
	}
	t.AppendFooter(table.Row{"", "Total", total})
	return render(w, t)
}

func renderTrends(w io.Writer, trends []twitter.Trend) error {
	t := newTable(table.Row{"#", "Trend", "Tweets"})
	for i, tr := range trends {
		t.AppendRow(table.Row{i + 1, tr.TrendName, tr.TweetCount})
	}
	return render(w, t)
}

func renderUsage(w io.Writer, u *twitter.Usage) error {
	t := newTable(table.Row{"Project", "Usage", "Cap", "Cap reset day"})
	t.AppendRow(table.Row{u.ProjectID, int64(u.ProjectUsage), int64(u.ProjectCap), int64(u.CapResetDay)})
	if err := render(w, t); err != nil {
		return err
	}
	if u.DailyProjectUsage == nil || len(u.DailyProjectUsage.Usage) == 0 {
		return nil
	}
	daily := newTable(table.Row{"Date", "Tweets"})
	for _, e := range u.DailyProjectUsage.Usage {
		daily.AppendRow(table.Row{e.Date.UTC().Format(time.DateOnly), int64(e.Usage)})
	}
	return render(w, daily)
}

func renderRules(w io.Writer, rules []twitter.Rule) error {
	t := newTable(table.Row{"ID", "Value", "Tag"})
	for _, r := range rules {
		t.AppendRow(table.Row{r.ID, r.Value, r.Tag})
	}
	return render(w, t)
}

func renderJobs(w io.Writer, jobs []twitter.ComplianceJob) error {
	t := newTable(table.Row{"ID", "Type", "Status", "Name", "Created"})
	for _, j := range jobs {
		t.AppendRow(table.Row{j.ID, string(j.Type), string(j.Status), j.Name, formatTime(j.CreatedAt)})
	}
	return render(w, t)
}

func renderComplianceResults(w io.Writer, results []twitter.ComplianceResult) error {
	t := newTable(table.Row{"ID", "Action", "Reason", "Created", "Redacted"})
	for _, r := range results {
		t.AppendRow(table.Row{r.ID, r.Action, r.Reason, formatTime(r.CreatedAt), formatTime(r.RedactedAt)})
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d results", len(results))})
	return render(w, t)
}

// printPartialErrors reports per-item errors the API returned with a 200.
func printPartialErrors(w io.Writer, errs []twitter.ErrorDetail) {
	for _, e := range errs {
		msg := e.Detail
		if msg == "" {
			msg = e.Message
		}
		_, _ = fmt.Fprintf(w, "warning: %s %s: %s\n", e.ResourceType, e.Value, msg)
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
