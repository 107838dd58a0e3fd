package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/conceptmap/pkg/errors"
	"github.com/matzehuels/conceptmap/pkg/pipeline"
)

// renderCommand creates the render command for generating diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formats string
		caching cacheFlags
		layout  layoutFlags
		output  string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [glossary]",
		Short: "Render a glossary as a concept map",
		Long: `Render a glossary, or one of its sections, as a concept map.

Formats:
  svg       standalone SVG drawn from the layout (default)
  json      layout with display labels, for web front ends
  dot       Graphviz DOT source with one rank per level
  graphviz  SVG laid out by Graphviz from the DOT source
  png, pdf  converted from the SVG with rsvg-convert

With one format, --output names the file. With several it is a base path
and each format adds its extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.GlossaryPath = args[0]
			opts.Formats = parseFormats(formats)
			opts.Config = layout.resolve(cmd, c.settings())
			opts.Logger = c.Logger
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), opts, output, caching)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (one format) or base path (several)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): svg (default), json, dot, graphviz, png, pdf (comma-separated)")
	cmd.Flags().StringVarP(&opts.Section, "section", "s", "", "render only this section")
	cmd.Flags().BoolVar(&opts.ShowLabels, "labels", false, "draw relation labels")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached layouts and artifacts")
	caching.register(cmd)
	layout.register(cmd)
	completeGlossary(cmd)

	return cmd
}

// runRender executes the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, caching cacheFlags) error {
	logger := loggerFromContext(ctx)

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, caching)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		if errors.Is(err, errors.ErrCodeUnsupported) {
			printDetail("PNG and PDF need rsvg-convert (librsvg) on PATH")
		}
		return err
	}
	spinner.Stop()
	prog.done("Rendered " + opts.GlossaryPath)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(output, opts)
	if output == "-" && len(opts.Formats) == 1 {
		_, err := stdout.Write(result.Artifacts[opts.Formats[0]])
		return err
	}

	printSuccess("Render complete")
	for _, format := range opts.Formats {
		path := paths[format]
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		logger.Debug("wrote artifact", "format", format, "path", path, "bytes", len(result.Artifacts[format]))
		printFile(path)
	}
	printStats(result.Stats.TermCount, result.Stats.EdgeCount, result.Stats.LevelCount, result.CacheInfo.LayoutHit)
	return nil
}

// outputPaths maps each format to its output file. A single format with an
// explicit --output uses that path verbatim.
func outputPaths(output string, opts pipeline.Options) map[string]string {
	paths := make(map[string]string, len(opts.Formats))
	if output != "" && output != "-" && len(opts.Formats) == 1 {
		paths[opts.Formats[0]] = output
		return paths
	}

	base := outputBase(opts.GlossaryPath, opts.Section)
	if output != "" && output != "-" {
		base = output
		if ext := filepath.Ext(base); isFormatExtension(ext) {
			base = strings.TrimSuffix(base, ext)
		}
	}
	for _, format := range opts.Formats {
		paths[format] = base + pipeline.FormatExtensions[format]
	}
	return paths
}

func isFormatExtension(ext string) bool {
	for _, e := range pipeline.FormatExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
