package ports

import (
	"context"

	"github.com/bnema/goalpanel/internal/domain"
)

type Link interface {
	// Begin starts a join; completion is observed through Connected.
	Begin(ctx context.Context) error
	Connected(ctx context.Context) bool
	Disconnect() error
}

type MetricsFetcher interface {
	Fetch(ctx context.Context) (domain.Reading, error)
}
