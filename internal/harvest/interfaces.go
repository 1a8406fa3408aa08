package harvest

import (
	"context"

	"github.com/samvad-hq/mtg-card-harvester/internal/domain"
	"github.com/samvad-hq/mtg-card-harvester/pkg/publishers"
	"github.com/samvad-hq/mtg-card-harvester/pkg/queries"
)

// CardFetcher runs a single query against the card API.
type CardFetcher interface {
	FetchCards(ctx context.Context, q queries.Query) (domain.CardsResponse, error)
}

// EventPublisher publishes fresh cards downstream. It returns the number of
// sinks that accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which cards each query already published.
type Deduper interface {
	SeenCard(queryID, cardID string) (bool, error)
	MarkCard(queryID string, card domain.Card) error
}
