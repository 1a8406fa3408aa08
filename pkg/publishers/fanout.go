package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Fanout delivers each event to every configured publisher in order.
type Fanout struct {
	publishers []Publisher
}

// NewFanout drops nil entries and keeps the rest in order.
func NewFanout(pubs []Publisher) *Fanout {
	kept := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return &Fanout{publishers: kept}
}

// Publish hands evt to each publisher and reports how many accepted it. One
// sink failing does not stop delivery to the others.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f.Size() == 0 {
		return 0, nil
	}

	delivered := 0
	var errs []error
	for _, p := range f.publishers {
		err := p.Publish(ctx, evt)
		if err == nil {
			delivered++
			continue
		}
		errs = append(errs, describe(p, "publish", err))
	}
	return delivered, errors.Join(errs...)
}

// Close closes every publisher and joins the failures.
func (f *Fanout) Close() error {
	var errs []error
	for _, p := range f.all() {
		if err := p.Close(); err != nil {
			errs = append(errs, describe(p, "close", err))
		}
	}
	return errors.Join(errs...)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int { return len(f.all()) }

func (f *Fanout) all() []Publisher {
	if f == nil {
		return nil
	}
	return f.publishers
}

func describe(p Publisher, op string, err error) error {
	return fmt.Errorf("%s %s publisher[%s]: %w", op, p.Type(), p.ID(), err)
}
