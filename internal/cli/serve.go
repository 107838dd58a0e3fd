package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/conceptmap/pkg/buildinfo"
	"github.com/matzehuels/conceptmap/pkg/glossary"
	"github.com/matzehuels/conceptmap/pkg/observability"
	"github.com/matzehuels/conceptmap/pkg/pipeline"
	"github.com/matzehuels/conceptmap/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		maxNodes int
		caching  cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve [glossary]",
		Short: "Serve concept-map layouts over HTTP",
		Long: `Serve concept-map layouts over HTTP.

With a glossary, its sections are available under /v1/sections and
/v1/sections/{section}/layout. POST /v1/layout lays out any posted node
and relation list, with or without a glossary.

The server stops gracefully on interrupt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := c.settings()
			if !cmd.Flags().Changed("addr") && file.Server.Addr != "" {
				addr = file.Server.Addr
			}
			if !cmd.Flags().Changed("max-nodes") && file.Server.MaxNodes > 0 {
				maxNodes = file.Server.MaxNodes
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return c.runServe(cmd.Context(), path, caching,
				server.WithAddr(addr),
				server.WithMaxNodes(maxNodes),
				server.WithVersion(buildinfo.Version))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", server.DefaultMaxNodes, "node limit for POST /v1/layout")
	caching.register(cmd)
	completeGlossary(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, path string, caching cacheFlags, opts ...server.Option) error {
	logger := loggerFromContext(ctx)

	var doc *glossary.Document
	if path != "" {
		var err error
		doc, err = pipeline.Load(pipeline.Options{GlossaryPath: path})
		if err != nil {
			return fmt.Errorf("load glossary %s: %w", path, err)
		}
		logger.Info("loaded glossary", "path", path, "terms", len(doc.Terms), "sections", len(doc.Sections()))
	}

	runner, err := c.newRunner(ctx, caching)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	observability.SetHTTPHooks(observability.NewLogHooks(logger))

	srv := server.New(runner, doc, logger, opts...)
	printInfo("Serving concept maps")
	printKeyValue("Address", StyleLink.Render(srv.Addr()))
	if doc != nil {
		printKeyValue("Glossary", path)
		printKeyValue("Sections", strings.Join(doc.Sections(), ", "))
	} else {
		printWarning("No glossary loaded; only POST /v1/layout is available")
	}
	return srv.Run(ctx)
}
