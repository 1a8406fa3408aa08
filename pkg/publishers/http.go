package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/mtg-card-harvester/pkg/httpclient"
)

type webhookTransport struct {
	cfg    HTTPPublisherConfig
	client *resty.Client
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	block, err := normalizeBlock(cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("http publisher %q: %w", cfg.ID, err)
	}
	out := &webhookTransport{
		cfg:    *block,
		client: httpclient.NewRestyHTTPClient(time.Duration(block.TimeoutSeconds) * time.Second),
	}
	return newSinkPublisher(cfg.ID, TypeHTTP, out, log), nil
}

// deliver sends the event as the request body. Any non-2xx status is an
// error carrying a short excerpt of the response.
func (t *webhookTransport) deliver(ctx context.Context, body []byte, _ map[string]string) (string, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeaders(t.cfg.Headers).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Execute(t.cfg.Method, t.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", t.cfg.Method, t.cfg.URL, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%s %s: status %d: %s", t.cfg.Method, t.cfg.URL, resp.StatusCode(), httpclient.Snippet(resp.Body()))
	}
	return resp.Header().Get("X-Request-Id"), nil
}

func (t *webhookTransport) close() error {
	t.client.GetClient().CloseIdleConnections()
	return nil
}
