package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/mtg-card-harvester/internal/app"
	"github.com/samvad-hq/mtg-card-harvester/internal/config"
	"github.com/samvad-hq/mtg-card-harvester/internal/logger"
	"github.com/samvad-hq/mtg-card-harvester/pkg/endpoint"
	"github.com/samvad-hq/mtg-card-harvester/pkg/queries"
)

// runtime carries what every subcommand needs once the root has set up.
type runtime struct {
	cfg *config.Config
	log logger.Logger
}

func newRootCommand() *cobra.Command {
	rt := &runtime{}
	var logLevel string

	root := &cobra.Command{
		Use:   "cardfetch",
		Short: "Fetch and harvest cards from the card API",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log, err := logger.Init(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			rt.cfg, rt.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	root.AddCommand(newFetchCommand(rt), newHarvestCommand(rt))
	return root
}

func newFetchCommand(rt *runtime) *cobra.Command {
	var (
		hostFlag  string
		pathFlag  string
		paramFlag []string
		queryFlag string
		rawFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run a single card search and print the result",
		Example: `  cardfetch fetch --param "name=Opt|Black Lotus"
  cardfetch fetch --query opt-or-lotus
  cardfetch fetch --path unreachable
  cardfetch fetch --param set=KTK --raw`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := lookupRequest(rt.cfg, queryFlag, hostFlag, pathFlag, paramFlag)
			if err != nil {
				return err
			}
			req.Raw = rawFlag

			lookup, err := app.NewLookup(rt.cfg, nil, rt.log)
			if err != nil {
				return err
			}
			if err := lookup.Run(cmd.Context(), req, cmd.OutOrStdout()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), lookup.Describe(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&hostFlag, "host", "", "API host (defaults to API_HOST)")
	cmd.Flags().StringVar(&pathFlag, "path", "cards", "path kind: cards or unreachable")
	cmd.Flags().StringArrayVar(&paramFlag, "param", nil, "query parameter as name=value, repeatable, order kept")
	cmd.Flags().StringVar(&queryFlag, "query", "", "run a query from the queries file by id")
	cmd.Flags().BoolVar(&rawFlag, "raw", false, "print the response body unchanged")
	return cmd
}

func newHarvestCommand(rt *runtime) *cobra.Command {
	var onceFlag bool

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Run the configured queries on an interval and publish new cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt.log.InfoObj("harvester starting", "config", rt.cfg)

			harvester, err := app.NewHarvester(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				rt.log.ErrorObj("failed to initialize harvester", "error", err)
				return err
			}
			if onceFlag {
				return harvester.RunOnce(cmd.Context())
			}
			if err := harvester.Run(cmd.Context()); err != nil {
				return fmt.Errorf("harvester run: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&onceFlag, "once", false, "run a single pass and exit")
	return cmd
}

// lookupRequest resolves flags, or a named query, into a lookup request.
func lookupRequest(cfg *config.Config, queryID, host, path string, params []string) (app.LookupRequest, error) {
	if queryID != "" {
		reg, err := queries.LoadRegistry(cfg.QueriesFile)
		if err != nil {
			return app.LookupRequest{}, fmt.Errorf("load queries registry: %w", err)
		}
		q, ok := reg.ByID(queryID)
		if !ok {
			return app.LookupRequest{}, fmt.Errorf("query %q not found in %s", queryID, cfg.QueriesFile)
		}
		ep := q.Endpoint(cfg.APIHost)
		return app.LookupRequest{Host: ep.Host(), Path: ep.Path(), Params: ep.Query()}, nil
	}

	kind, err := endpoint.ParsePathKind(path)
	if err != nil {
		return app.LookupRequest{}, err
	}
	parsed, err := parseParams(params)
	if err != nil {
		return app.LookupRequest{}, err
	}
	return app.LookupRequest{Host: host, Path: kind, Params: parsed}, nil
}

// parseParams splits name=value flags on the first '='. Values are kept verbatim.
func parseParams(raw []string) ([]endpoint.QueryParam, error) {
	out := make([]endpoint.QueryParam, 0, len(raw))
	for _, p := range raw {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --param %q (want name=value)", p)
		}
		out = append(out, endpoint.QueryParam{Name: strings.TrimSpace(name), Value: value})
	}
	return out, nil
}

