package app

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/samvad-hq/mtg-card-harvester/internal/config"
	"github.com/samvad-hq/mtg-card-harvester/internal/domain"
	"github.com/samvad-hq/mtg-card-harvester/internal/logger"
	"github.com/samvad-hq/mtg-card-harvester/internal/presenter"
	"github.com/samvad-hq/mtg-card-harvester/pkg/endpoint"
	"github.com/samvad-hq/mtg-card-harvester/pkg/fetch"
	"github.com/samvad-hq/mtg-card-harvester/pkg/httpclient"
)

// LookupRequest describes a one-shot card search.
type LookupRequest struct {
	Host   string
	Path   endpoint.PathKind
	Params []endpoint.QueryParam
	// Raw writes the response body unchanged instead of a table.
	Raw bool
}

// Lookup performs a single fetch and renders the cards as a table.
type Lookup struct {
	cfg       *config.Config
	http      httpclient.Client
	log       logger.Logger
	presenter *presenter.Presenter
}

// NewLookup wires a lookup. A nil transport uses a resty client with the
// configured timeout.
func NewLookup(cfg *config.Config, client httpclient.Client, log logger.Logger) (*Lookup, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if client == nil {
		client = httpclient.NewRestyClient(cfg.HTTPTimeout)
	}
	return &Lookup{
		cfg:       cfg,
		http:      client,
		log:       log,
		presenter: presenter.ForLocale(cfg.Locale),
	}, nil
}

// Run fetches req and writes the result to out.
func (l *Lookup) Run(ctx context.Context, req LookupRequest, out io.Writer) error {
	host := req.Host
	if host == "" {
		host = l.cfg.APIHost
	}

	client := fetch.NewClient(endpoint.New(host, req.Path, req.Params...), l.http, l.log)
	if req.Raw {
		body, err := client.FetchRaw(ctx)
		if err != nil {
			return err
		}
		_, err = out.Write(body)
		return err
	}

	resp, err := client.FetchCards(ctx)
	if err != nil {
		return err
	}

	l.log.InfoObj("lookup completed", "lookup_result", map[string]any{
		"host":  host,
		"path":  req.Path.String(),
		"cards": len(resp.Cards),
	})
	return renderCards(out, resp.Cards, l.presenter)
}

// Describe renders err for the person running the command.
func (l *Lookup) Describe(err error) string {
	return l.presenter.Message(err)
}

func renderCards(out io.Writer, cards []domain.Card, p *presenter.Presenter) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSET\tNUMBER\tCMC\tPOWER\tARTIST")
	for _, c := range cards {
		cmc := "-"
		if c.ConvertedManaCost != nil {
			cmc = strconv.Itoa(*c.ConvertedManaCost)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Name, c.SetName, orDash(c.CollectorNumber), cmc, orDash(c.Power), orDash(c.Artist))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("render cards: %w", err)
	}
	_, err := fmt.Fprintln(out, p.CardsFound(len(cards)))
	return err
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
