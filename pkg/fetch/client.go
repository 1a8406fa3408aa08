// Package fetch issues a single GET against a card API endpoint, validates the
// status and decodes the JSON body into a caller-chosen type.
//
// A Client holds configuration only. Every call builds the URL, performs one
// request and either decodes or fails with a classified error; nothing is
// carried between calls, so a Client may be shared across goroutines.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samvad-hq/mtg-card-harvester/internal/domain"
	"github.com/samvad-hq/mtg-card-harvester/pkg/endpoint"
	fetcherrors "github.com/samvad-hq/mtg-card-harvester/pkg/errors"
	"github.com/samvad-hq/mtg-card-harvester/pkg/httpclient"
)

// Client fetches one endpoint.
type Client struct {
	endpoint endpoint.Endpoint
	http     httpclient.Client
	log      Logger
}

// NewClient wires a client for ep. A nil transport falls back to the shared
// resty client; a nil logger discards output.
func NewClient(ep endpoint.Endpoint, client httpclient.Client, log Logger) *Client {
	if client == nil {
		client = httpclient.Shared()
	}
	return &Client{
		endpoint: ep,
		http:     client,
		log:      ensureLogger(log),
	}
}

// Endpoint returns the endpoint the client targets.
func (c *Client) Endpoint() endpoint.Endpoint { return c.endpoint }

// FetchRaw performs the request and returns the body of a 2xx response unchanged.
func (c *Client) FetchRaw(ctx context.Context) ([]byte, error) {
	body, _, err := c.fetchRaw(ctx)
	return body, err
}

func (c *Client) fetchRaw(ctx context.Context) ([]byte, string, error) {
	u, err := c.endpoint.URL()
	if err != nil {
		c.log.WarnObj("request target rejected", "fetch_error", map[string]any{
			"host":  c.endpoint.Host(),
			"path":  c.endpoint.Path().String(),
			"error": err.Error(),
		})
		return nil, "", err
	}
	target := u.String()
	c.log.DebugObj("request target built", "url", target)

	resp, err := c.http.Get(ctx, target, nil)
	if err != nil {
		return nil, target, fmt.Errorf("get %s: %w", target, err)
	}

	status := resp.StatusCode()
	c.log.DebugObj("response received", "fetch_response", map[string]any{
		"url":    target,
		"status": status,
		"bytes":  len(resp.Body()),
	})
	if status < 200 || status > 299 {
		c.log.WarnObj("response status rejected", "fetch_error", map[string]any{
			"url":    target,
			"status": status,
			"body":   httpclient.Snippet(resp.Body()),
		})
		return nil, target, fetcherrors.NewInvalidResponse(target, status)
	}

	return resp.Body(), target, nil
}

// Fetch performs the request and decodes the body as JSON into T. On failure
// the zero T is returned.
func Fetch[T any](ctx context.Context, c *Client) (T, error) {
	var zero T

	body, target, err := c.fetchRaw(ctx)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		c.log.DebugObj("response body rejected by decoder", "fetch_decode", map[string]any{
			"url":   target,
			"error": err.Error(),
			"body":  httpclient.Snippet(body),
		})
		return zero, fetcherrors.NewDecodingFailed(target, err)
	}

	c.log.DebugObj("response decoded", "url", target)
	return out, nil
}

// FetchCards decodes the endpoint's body as a card search result.
func (c *Client) FetchCards(ctx context.Context) (domain.CardsResponse, error) {
	return Fetch[domain.CardsResponse](ctx, c)
}
