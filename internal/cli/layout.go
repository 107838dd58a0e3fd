package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/conceptmap/pkg/pipeline"
)

// layoutCommand creates the layout command for computing concept-map layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		section string
		refresh bool
		caching cacheFlags
		layout  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [glossary]",
		Short: "Compute the layout of a glossary",
		Long: `Compute the layout of a glossary or one of its sections.

The glossary is a TOML or JSON file of terms and relations. The output is
the engine's layout as JSON: every term with its level and top-left corner,
every surviving relation with its routed control points, and the bounding
box. Use 'render' for drawings.

Results are cached; --refresh recomputes and overwrites the cached entry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				GlossaryPath: args[0],
				Section:      section,
				Refresh:      refresh,
				Config:       layout.resolve(cmd, c.settings()),
				Logger:       c.Logger,
			}
			return c.runLayout(cmd.Context(), opts, output, caching)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <glossary>[.<section>].layout.json, - for stdout)")
	cmd.Flags().StringVarP(&section, "section", "s", "", "lay out only this section")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached layouts")
	caching.register(cmd)
	layout.register(cmd)
	completeGlossary(cmd)

	return cmd
}

// runLayout loads the glossary, computes the layout, and writes it as JSON.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, caching cacheFlags) error {
	if err := opts.ValidateForLoad(); err != nil {
		return err
	}
	if err := opts.ValidateForLayout(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, caching)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	doc, err := runner.Load(opts)
	if err != nil {
		return fmt.Errorf("load glossary %s: %w", opts.GlossaryPath, err)
	}
	view, err := pipeline.SelectView(doc, opts.Section)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	l, hit, err := runner.LayoutView(ctx, view, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	prog.done("Computed layout")

	if ctx.Err() != nil {
		return ctx.Err()
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	data = append(data, '\n')

	if output == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if output == "" {
		output = outputBase(opts.GlossaryPath, opts.Section) + ".layout.json"
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(len(l.Nodes), len(l.Edges), l.LevelCount(), hit)
	printNewline()
	printNextStep("Render", appName+" render "+opts.GlossaryPath)
	return nil
}
