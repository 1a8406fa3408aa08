package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/mtg-card-harvester/internal/domain"
)

// Store remembers, per query, which cards have already been published
// downstream. A card published by one query is still fresh for another.
type Store interface {
	Close() error
	SeenCard(queryID, cardID string) (bool, error)
	MarkCard(queryID string, card domain.Card) error
	// Count returns the number of cards held for queryID, or for every
	// query when queryID is empty.
	Count(queryID string) (int, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	CardTTL         time.Duration
	CleanupInterval time.Duration
}

const (
	defaultCardTTL         = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	if opts.CardTTL <= 0 {
		opts.CardTTL = defaultCardTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}

	switch typ = strings.ToLower(strings.TrimSpace(typ)); typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

// noopStore never remembers anything, so every card is published each pass.
type noopStore struct{}

func (noopStore) Close() error                          { return nil }
func (noopStore) SeenCard(string, string) (bool, error) { return false, nil }
func (noopStore) MarkCard(string, domain.Card) error    { return nil }
func (noopStore) Count(string) (int, error)             { return 0, nil }
