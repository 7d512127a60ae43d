package events

import (
	"context"
	"errors"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, event domain.QuotaEvent) error
}

// Fanout hands every event to all publishers and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event domain.QuotaEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
