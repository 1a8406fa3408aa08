package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/mtg-card-harvester/internal/config"
	"github.com/samvad-hq/mtg-card-harvester/internal/harvest"
	"github.com/samvad-hq/mtg-card-harvester/internal/logger"
	"github.com/samvad-hq/mtg-card-harvester/internal/storage"
	"github.com/samvad-hq/mtg-card-harvester/pkg/httpclient"
	"github.com/samvad-hq/mtg-card-harvester/pkg/publishers"
	"github.com/samvad-hq/mtg-card-harvester/pkg/queries"
)

// Harvester is the card harvester runtime. It runs the configured queries on
// an interval, publishing unseen cards through the configured publishers.
type Harvester struct {
	cfg           *config.Config
	queryReg      *queries.Registry
	fanout        *publishers.Fanout
	service       *harvest.Service
	crawlInterval time.Duration
	log           logger.Logger
	store         storage.Store
}

// Option customizes a Harvester.
type Option func(*harvesterOptions)

type harvesterOptions struct {
	http httpclient.Client
}

// WithHTTPClient overrides the transport used for card API requests.
func WithHTTPClient(c httpclient.Client) Option {
	return func(o *harvesterOptions) { o.http = c }
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	queryReg, err := queries.LoadRegistry(cfg.QueriesFile)
	if err != nil {
		return nil, fmt.Errorf("load queries registry: %w", err)
	}
	queryList := queryReg.All()
	queryIDs := make([]string, 0, len(queryList))
	for _, q := range queryList {
		queryIDs = append(queryIDs, q.ID)
	}
	log.InfoObj("queries registry loaded", "queries_meta", map[string]any{
		"count": len(queryIDs),
		"ids":   queryIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		CardTTL:         cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		if closeErr := fanout.Close(); closeErr != nil {
			log.ErrorObj("publisher close failed", "error", closeErr)
		}
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"card_ttl_seconds":         int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	var o harvesterOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.http == nil {
		o.http = httpclient.NewRestyClient(cfg.HTTPTimeout)
	}
	fetcher := harvest.NewAPIFetcher(cfg.APIHost, o.http, log)

	return &Harvester{
		cfg:           cfg,
		queryReg:      queryReg,
		fanout:        fanout,
		service:       harvest.NewService(fetcher, fanout, log, store),
		crawlInterval: cfg.CrawlInterval,
		log:           log,
		store:         store,
	}, nil
}

// Run starts the harvest loop until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.service == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	qs := h.queryReg.All()
	if len(qs) == 0 {
		h.log.WarnObj("no queries configured; harvester idle", "queries_file", h.cfg.QueriesFile)
		<-ctx.Done()
		return ctx.Err()
	}

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"queries_count":    len(qs),
		"publishers_count": h.fanout.Size(),
		"crawl_interval":   h.crawlInterval.String(),
	})

	if err := h.runOnce(ctx, qs); err != nil {
		h.log.ErrorObj("initial harvest failed", "error", err)
	}

	ticker := time.NewTicker(h.crawlInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := h.runOnce(ctx, qs); err != nil {
				h.log.ErrorObj("scheduled harvest failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single pass and releases resources afterwards.
func (h *Harvester) RunOnce(ctx context.Context) error {
	if h == nil || h.service == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()
	return h.runOnce(ctx, h.queryReg.All())
}

// runOnce performs a single harvest pass across all queries.
func (h *Harvester) runOnce(ctx context.Context, qs []queries.Query) error {
	start := time.Now()
	h.log.InfoObj("harvest started", "harvest_meta", map[string]any{
		"queries_count": len(qs),
		"started_at":    start.UTC(),
	})
	if err := h.service.Run(ctx, qs); err != nil {
		return err
	}
	meta := map[string]any{
		"queries_count": len(qs),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	}
	if n, err := h.store.Count(""); err == nil {
		meta["seen_cards"] = n
	}
	h.log.InfoObj("harvest completed", "harvest_meta", meta)
	return nil
}

// close releases publishers and the store, logging any errors encountered.
func (h *Harvester) close() {
	if h == nil {
		return
	}
	if err := h.fanout.Close(); err != nil {
		h.log.ErrorObj("publisher close failed", "error", err)
	}
	if h.store == nil {
		return
	}
	if err := h.store.Close(); err != nil {
		h.log.ErrorObj("storage close failed", "error", err)
	}
}
