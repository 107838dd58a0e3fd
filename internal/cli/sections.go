package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/glossary"
	"github.com/matzehuels/conceptmap/pkg/pipeline"
)

// sectionRow summarizes one section of a glossary.
type sectionRow struct {
	name      string
	terms     int
	relations int // relations with both endpoints in the section
	levels    int
}

// sectionsCommand creates the sections command.
func (c *CLI) sectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sections [glossary]",
		Short: "List the sections of a glossary",
		Long: `List the sections of a glossary with their term, relation, and level
counts. Any section name can be passed to 'layout', 'render', or 'inspect'
with --section.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := pipeline.Load(pipeline.Options{GlossaryPath: args[0]})
			if err != nil {
				return err
			}
			rows, err := summarizeSections(doc)
			if err != nil {
				return err
			}
			title := doc.Title
			if title == "" {
				title = args[0]
			}
			fmt.Fprintln(stdout, StyleTitle.Render(title))
			fmt.Fprintln(stdout, sectionsTable(rows))
			return nil
		},
	}
	completeGlossary(cmd)
	return cmd
}

// summarizeSections lays out every section plus the whole document, which
// comes last under the name "(all)".
func summarizeSections(doc *glossary.Document) ([]sectionRow, error) {
	names := append(doc.Sections(), "")
	rows := make([]sectionRow, 0, len(names))
	for _, name := range names {
		v, err := pipeline.SelectView(doc, name)
		if err != nil {
			return nil, err
		}
		l := conceptmap.ComputeLayout(v.NodeIDs, v.Relations)
		row := sectionRow{name: name, terms: len(v.NodeIDs), relations: len(l.Edges), levels: l.LevelCount()}
		if name == "" {
			row.name = "(all)"
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func sectionsTable(rows []sectionRow) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{r.name, strconv.Itoa(r.terms), strconv.Itoa(r.relations), strconv.Itoa(r.levels)}
	}
	last := len(rows) - 1

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Section", "Terms", "Relations", "Levels").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return StyleHeader.Padding(0, 1)
			case row == last:
				return base.Foreground(colorGray)
			case col == 0:
				return base.Foreground(colorCyan)
			default:
				return base.Foreground(colorWhite).Align(lipgloss.Right)
			}
		}).
		Render()
}
