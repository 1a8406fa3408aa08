package harvest

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/mtg-card-harvester/internal/domain"
	"github.com/samvad-hq/mtg-card-harvester/internal/logger"
	"github.com/samvad-hq/mtg-card-harvester/pkg/publishers"
	"github.com/samvad-hq/mtg-card-harvester/pkg/queries"
)

// QueryProcessor runs one query: fetch, drop already-published cards, publish
// the rest and remember them.
type QueryProcessor struct {
	fetcher   CardFetcher
	publisher EventPublisher
	log       logger.Logger
	deduper   Deduper
}

// NewQueryProcessor wires a processor. A nil logger discards output and a nil
// deduper treats every card as fresh.
func NewQueryProcessor(fetcher CardFetcher, pub EventPublisher, log logger.Logger, deduper Deduper) *QueryProcessor {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &QueryProcessor{
		fetcher:   fetcher,
		publisher: pub,
		log:       log,
		deduper:   deduper,
	}
}

// Process fetches q and publishes every card not seen before. Publish failures
// are joined; a card is marked only once at least one sink accepted it.
func (p *QueryProcessor) Process(ctx context.Context, q queries.Query, position int) error {
	resp, err := p.fetcher.FetchCards(ctx, q)
	if err != nil {
		return fmt.Errorf("fetch query %s: %w", q.ID, err)
	}

	fresh := p.filterNewCards(q, resp.Cards)
	p.log.InfoObj("query fetched", "query_result", map[string]any{
		"query_id":    q.ID,
		"position":    position,
		"cards_total": len(resp.Cards),
		"cards_new":   len(fresh),
	})

	if p.publisher == nil || len(fresh) == 0 {
		return nil
	}

	var errs []error
	published := 0
	for _, card := range fresh {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		evt := publishers.NewEvent(q.ID, q.Name, card)
		n, err := p.publisher.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish card %s (%s): %w", card.Name, evt.CardID, err))
		}
		if n == 0 {
			continue
		}
		published++
		if p.deduper != nil {
			if err := p.deduper.MarkCard(q.ID, card); err != nil {
				p.log.WarnObj("mark card failed", "storage_error", map[string]any{
					"query_id": q.ID,
					"card_id":  evt.CardID,
					"error":    err.Error(),
				})
			}
		}
	}

	p.log.InfoObj("query published", "query_publish", map[string]any{
		"query_id":  q.ID,
		"published": published,
		"failed":    len(errs),
	})
	return errors.Join(errs...)
}

// filterNewCards drops cards already published and duplicates within the
// same response. Cards whose lookup fails are kept.
func (p *QueryProcessor) filterNewCards(q queries.Query, cards []domain.Card) []domain.Card {
	if len(cards) == 0 {
		return nil
	}

	out := make([]domain.Card, 0, len(cards))
	inBatch := make(map[string]struct{}, len(cards))
	for _, card := range cards {
		id := card.ID()
		if _, dup := inBatch[id]; dup {
			continue
		}
		inBatch[id] = struct{}{}

		if p.deduper != nil {
			seen, err := p.deduper.SeenCard(q.ID, id)
			if err != nil {
				p.log.WarnObj("seen lookup failed; publishing anyway", "storage_error", map[string]any{
					"query_id": q.ID,
					"card_id":  id,
					"error":    err.Error(),
				})
			} else if seen {
				continue
			}
		}
		out = append(out, card)
	}
	return out
}
