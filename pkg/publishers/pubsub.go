package publishers

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

type pubsubTransport struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// newGCPPubSubPublisher dials Pub/Sub. PUBSUB_EMULATOR_HOST is honoured by
// the client library itself.
func newGCPPubSubPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	block, err := normalizeBlock(cfg.PubSub)
	if err != nil {
		return nil, fmt.Errorf("gcp_pubsub publisher %q: %w", cfg.ID, err)
	}

	var opts []option.ClientOption
	if block.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(block.CredentialsFile))
	}
	if block.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(block.Endpoint))
	}
	client, err := pubsub.NewClient(ctx, block.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	out := &pubsubTransport{client: client, topic: client.Topic(block.Topic)}
	return newSinkPublisher(cfg.ID, TypeGCPPubSub, out, log), nil
}

// deliver blocks until the server acknowledges the message.
func (t *pubsubTransport) deliver(ctx context.Context, body []byte, attrs map[string]string) (string, error) {
	res := t.topic.Publish(ctx, &pubsub.Message{
		Data:       body,
		Attributes: stringAttributes(attrs, func(v string) string { return v }),
	})
	id, err := res.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("pubsub publish to %s: %w", t.topic.ID(), err)
	}
	return id, nil
}

// close flushes pending messages and releases the client.
func (t *pubsubTransport) close() error {
	t.topic.Stop()
	return t.client.Close()
}
