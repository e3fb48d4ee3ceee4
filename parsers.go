package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// envelope is the common v2 response wrapper.
type envelope struct {
	Data     json.RawMessage `json:"data"`
	Includes *Includes       `json:"includes,omitempty"`
	Meta     *Meta           `json:"meta,omitempty"`
	Errors   []ErrorDetail   `json:"errors,omitempty"`
}

func (e *envelope) hasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// decodeEnvelope parses body and decodes its data member into out. A list
// response carrying only meta is an empty page. Any other response with
// neither data nor errors violates the contract.
func decodeEnvelope(endpoint string, body []byte, out any, list bool) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &SchemaError{Endpoint: endpoint, Err: fmt.Errorf("decode envelope: %w", err), Body: body}
	}

	if !env.hasData() {
		switch {
		case len(env.Errors) > 0:
			return &env, nil
		case list && env.Meta != nil:
			return &env, nil
		default:
			return nil, &SchemaError{Endpoint: endpoint, Err: errors.New("response has neither data nor errors"), Body: body}
		}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, &SchemaError{Endpoint: endpoint, Err: fmt.Errorf("decode data: %w", err), Body: body}
		}
	}
	return &env, nil
}

// singleError turns a data-less single-object response into an APIError
// carrying the API's own problem detail. Twitter reports a missing tweet or
// user this way with HTTP 200.
func singleError(endpoint string, env *envelope) error {
	if env.hasData() || len(env.Errors) == 0 {
		return nil
	}
	first := env.Errors[0]
	detail := first.Detail
	if detail == "" {
		detail = first.Message
	}
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: 200,
		Title:      first.Title,
		Detail:     detail,
		Type:       first.Type,
		Errors:     env.Errors,
	}
}

// decodePage decodes a list response into a typed page.
func decodePage[T any](endpoint string, body []byte) (*Page[T], error) {
	var data []T
	env, err := decodeEnvelope(endpoint, body, &data, true)
	if err != nil {
		return nil, err
	}
	page := &Page[T]{Data: data, Errors: env.Errors}
	if env.Includes != nil {
		page.Includes = *env.Includes
	}
	if env.Meta != nil {
		page.Meta = *env.Meta
	}
	return page, nil
}

// Response is a decoded single-object response.
type Response[T any] struct {
	Data     T
	Includes Includes
	Errors   []ErrorDetail
}

// getOne runs a single-object lookup. A 200 response that carries only
// errors becomes an *APIError.
func getOne[T any](ctx context.Context, c *Client, req Request) (*Response[T], error) {
	var data T
	env, err := c.getJSON(ctx, req, &data)
	if err != nil {
		return nil, err
	}
	if err := singleError(req.Endpoint.Name, env); err != nil {
		return nil, err
	}
	out := &Response[T]{Data: data, Errors: env.Errors}
	if env.Includes != nil {
		out.Includes = *env.Includes
	}
	return out, nil
}
