package twitter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// CreateComplianceJob creates a batch compliance job. The returned job carries
// the presigned upload URL for UploadComplianceIDs.
func (c *Client) CreateComplianceJob(ctx context.Context, typ ComplianceJobType, name string, resumable bool) (*ComplianceJob, error) {
	ep := endpoint("CreateCompliance")
	if err := checkJobType(ep.Name, typ); err != nil {
		return nil, err
	}
	body, err := json.Marshal(struct {
		Type      ComplianceJobType `json:"type"`
		Name      string            `json:"name,omitempty"`
		Resumable bool              `json:"resumable"`
	}{typ, name, resumable})
	if err != nil {
		return nil, fmt.Errorf("%s: encode body: %w", ep.Name, err)
	}
	req := NewRequest(ep, nil, nil)
	req.Body = body

	resp, err := getOne[ComplianceJob](ctx, c, req)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ComplianceJobs lists recent jobs of a type, optionally filtered by status.
func (c *Client) ComplianceJobs(ctx context.Context, typ ComplianceJobType, status ComplianceJobStatus) ([]ComplianceJob, error) {
	ep := endpoint("ComplianceJobs")
	if err := checkJobType(ep.Name, typ); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("type", string(typ))
	setString(q, "status", string(status))

	resp, err := c.do(ctx, NewRequest(ep, nil, q))
	if err != nil {
		return nil, err
	}
	page, err := decodePage[ComplianceJob](ep.Name, resp.Body)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

// ComplianceJob fetches a single job by id.
func (c *Client) ComplianceJob(ctx context.Context, id string) (*ComplianceJob, error) {
	id, err := requireID("ComplianceJob", id)
	if err != nil {
		return nil, err
	}
	resp, err := getOne[ComplianceJob](ctx, c, NewRequest(endpoint("ComplianceJob"), map[string]string{"id": id}, nil))
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UploadComplianceIDs uploads newline-separated ids to the job's presigned
// upload URL. No bearer token is sent.
func (c *Client) UploadComplianceIDs(ctx context.Context, job *ComplianceJob, ids io.Reader) error {
	ep := endpoint("ComplianceUpload")
	if job == nil || job.UploadURL == "" {
		return fmt.Errorf("%s: %w: job has no upload URL", ep.Name, ErrInvalidArgument)
	}
	body, err := io.ReadAll(ids)
	if err != nil {
		return fmt.Errorf("%s: read ids: %w", ep.Name, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%s: %w", ep.Name, ErrEmptyIDs)
	}
	req := Request{Endpoint: ep, Path: job.UploadURL, Body: body, Unauthenticated: true}
	_, err = c.do(ctx, req)
	return err
}

// DownloadComplianceResults fetches and parses the JSON lines result file of
// a completed job.
func (c *Client) DownloadComplianceResults(ctx context.Context, job *ComplianceJob) ([]ComplianceResult, error) {
	ep := endpoint("ComplianceResults")
	if job == nil || job.DownloadURL == "" {
		return nil, fmt.Errorf("%s: %w: job has no download URL", ep.Name, ErrInvalidArgument)
	}
	if job.Status != "" && job.Status != ComplianceComplete {
		return nil, fmt.Errorf("%s: %w: job %s is %s", ep.Name, ErrInvalidArgument, job.ID, job.Status)
	}
	resp, err := c.do(ctx, Request{Endpoint: ep, Path: job.DownloadURL, Unauthenticated: true})
	if err != nil {
		return nil, err
	}
	return parseComplianceResults(ep.Name, resp.Body)
}

func parseComplianceResults(endpoint string, body []byte) ([]ComplianceResult, error) {
	var out []ComplianceResult
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var r ComplianceResult
		if err := json.Unmarshal([]byte(text), &r); err != nil {
			return out, &SchemaError{Endpoint: endpoint, Err: fmt.Errorf("line %d: %w", line, err), Body: []byte(text)}
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		return out, &SchemaError{Endpoint: endpoint, Err: err, Body: body}
	}
	return out, nil
}

func checkJobType(op string, typ ComplianceJobType) error {
	if typ != ComplianceTweets && typ != ComplianceUsers {
		return fmt.Errorf("%s: %w: job type %q", op, ErrInvalidArgument, typ)
	}
	return nil
}
