package publishers

import (
	"context"
	"encoding/json"
	"fmt"
)

// transport moves one encoded event to a broker and returns the id the
// broker assigned to it, if any.
type transport interface {
	deliver(ctx context.Context, body []byte, attrs map[string]string) (string, error)
	close() error
}

// sinkPublisher is the Publisher every configured type is built as. It owns
// encoding and delivery logging so transports only deal with their client.
type sinkPublisher struct {
	id  string
	typ string
	out transport
	log Logger
}

func newSinkPublisher(id, typ string, out transport, log Logger) *sinkPublisher {
	return &sinkPublisher{id: id, typ: typ, out: out, log: ensureLogger(log)}
}

func (p *sinkPublisher) ID() string   { return p.id }
func (p *sinkPublisher) Type() string { return p.typ }
func (p *sinkPublisher) Close() error { return p.out.close() }

// Publish encodes evt as JSON and hands it to the transport with the event's
// routing attributes.
func (p *sinkPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", evt.CardID, err)
	}

	fields := map[string]any{
		"publisher_id": p.id,
		"type":         p.typ,
		"query_id":     evt.QueryID,
		"card_id":      evt.CardID,
	}
	msgID, err := p.out.deliver(ctx, body, evt.attributes())
	if err != nil {
		fields["error"] = err.Error()
		p.log.ErrorObj("event delivery failed", "publisher_error", fields)
		return err
	}
	if msgID != "" {
		fields["message_id"] = msgID
	}
	p.log.DebugObj("event delivered", "publisher_delivery", fields)
	return nil
}
