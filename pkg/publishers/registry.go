package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps a publisher type to the builder for it.
type Registry map[string]Builder

// DefaultRegistry knows every type the publishers file accepts.
func DefaultRegistry() Registry {
	return Registry{
		TypeHTTP:      newHTTPPublisher,
		TypeSQS:       newSQSPublisher,
		TypeSNS:       newSNSPublisher,
		TypeGCPPubSub: newGCPPubSubPublisher,
	}
}

// Build runs the builder registered for cfg.Type.
func (r Registry) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	build, ok := r[typ]
	if !ok || build == nil {
		return nil, fmt.Errorf("no builder for publisher type %q", cfg.Type)
	}
	return build(ctx, cfg, ensureLogger(log))
}

// BuildAll builds a publisher per config, in order. On failure the ones
// already built are closed and nothing is returned.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.Build(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(
				fmt.Errorf("build publisher %q: %w", cfg.ID, err),
				NewFanout(pubs).Close(),
			)
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}
