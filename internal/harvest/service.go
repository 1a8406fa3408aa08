// Package harvest runs the configured card queries and publishes cards that
// have not been seen before.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/mtg-card-harvester/internal/logger"
	fetcherrors "github.com/samvad-hq/mtg-card-harvester/pkg/errors"
	"github.com/samvad-hq/mtg-card-harvester/pkg/queries"
)

// Service coordinates a harvest pass across multiple queries.
type Service struct {
	processor *QueryProcessor
	log       logger.Logger
	sleep     func(ctx context.Context, d time.Duration) bool
}

// NewService wires a harvest service.
func NewService(fetcher CardFetcher, pub EventPublisher, log logger.Logger, deduper Deduper) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		processor: NewQueryProcessor(fetcher, pub, log, deduper),
		log:       log,
		sleep:     sleepContext,
	}
}

// Run executes one pass over qs in order. Failures of individual queries are
// logged and joined; cancellation stops the pass without an error.
func (s *Service) Run(ctx context.Context, qs []queries.Query) error {
	if s == nil || s.processor == nil || s.processor.fetcher == nil {
		return fmt.Errorf("harvest service is not initialized")
	}
	if len(qs) == 0 {
		return fmt.Errorf("no queries configured for harvesting")
	}

	errs := s.runAll(ctx, qs)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runAll(ctx context.Context, qs []queries.Query) []error {
	errs := make([]error, 0, len(qs))

	for i, q := range qs {
		if ctx.Err() != nil {
			s.log.InfoObj("harvest pass interrupted", "harvest_state", map[string]any{
				"remaining": len(qs) - i,
			})
			break
		}

		if err := s.processor.Process(ctx, q, i); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				break
			}
			errs = append(errs, err)
			fields := map[string]any{
				"query_id": q.ID,
				"error":    err.Error(),
			}
			if kind, ok := fetcherrors.KindOf(err); ok {
				fields["kind"] = string(kind)
			}
			s.log.ErrorObj("query harvest failed", "query_error", fields)
		}

		if i < len(qs)-1 && !s.sleep(ctx, q.RequestDelay()) {
			break
		}
	}

	return errs
}

// sleepContext waits for d and reports false if ctx ended first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
