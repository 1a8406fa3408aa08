package harvest

import (
	"context"

	"github.com/samvad-hq/mtg-card-harvester/internal/domain"
	"github.com/samvad-hq/mtg-card-harvester/internal/logger"
	"github.com/samvad-hq/mtg-card-harvester/pkg/fetch"
	"github.com/samvad-hq/mtg-card-harvester/pkg/httpclient"
	"github.com/samvad-hq/mtg-card-harvester/pkg/queries"
)

// APIFetcher resolves each query to an endpoint and fetches it with a fresh
// fetch.Client over a shared transport.
type APIFetcher struct {
	defaultHost string
	http        httpclient.Client
	log         logger.Logger
}

// NewAPIFetcher builds a fetcher. Queries without their own host use defaultHost.
func NewAPIFetcher(defaultHost string, client httpclient.Client, log logger.Logger) *APIFetcher {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &APIFetcher{defaultHost: defaultHost, http: client, log: log}
}

// FetchCards implements CardFetcher.
func (f *APIFetcher) FetchCards(ctx context.Context, q queries.Query) (domain.CardsResponse, error) {
	return fetch.NewClient(q.Endpoint(f.defaultHost), f.http, f.log).FetchCards(ctx)
}
