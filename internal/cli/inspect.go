package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/glossary"
	"github.com/matzehuels/conceptmap/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		section string
		caching cacheFlags
		layout  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "inspect [glossary]",
		Short: "Browse the levels of a glossary interactively",
		Long: `Browse a glossary level by level in the terminal.

Keys:
  ←/→ h/l     previous / next level
  ↑/↓ k/j     move between terms of a level
  tab         next section (shift+tab: previous)
  q           quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				GlossaryPath: args[0],
				Config:       layout.resolve(cmd, c.settings()),
				Logger:       c.Logger,
			}
			return c.runInspect(cmd.Context(), opts, section, caching)
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "", "start in this section")
	caching.register(cmd)
	layout.register(cmd)
	completeGlossary(cmd)

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, opts pipeline.Options, start string, caching cacheFlags) error {
	runner, err := c.newRunner(ctx, caching)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	doc, err := runner.Load(opts)
	if err != nil {
		return fmt.Errorf("load glossary %s: %w", opts.GlossaryPath, err)
	}

	var sections []inspectSection
	for _, name := range append([]string{""}, doc.Sections()...) {
		v, err := pipeline.SelectView(doc, name)
		if err != nil {
			return err
		}
		l, _, err := runner.LayoutWithCacheInfo(ctx, v, opts.Config)
		if err != nil {
			return fmt.Errorf("layout %q: %w", name, err)
		}
		sections = append(sections, inspectSection{Name: name, Layout: l})
	}

	m := NewInspectModel(doc, sections)
	if start != "" && !m.selectSection(start) {
		return fmt.Errorf("unknown section %q", start)
	}

	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// InspectModel - Interactive level browser
// =============================================================================

// inspectSection is one browsable layout.
type inspectSection struct {
	Name   string // Empty for the whole glossary
	Layout conceptmap.Layout
}

// InspectModel is the bubbletea model for browsing levels.
type InspectModel struct {
	Title    string
	Labels   map[string]string
	Sections []inspectSection
	Section  int
	Level    int
	Cursor   int
	Height   int

	rows [][]string
}

// NewInspectModel creates a model over precomputed section layouts.
func NewInspectModel(doc *glossary.Document, sections []inspectSection) InspectModel {
	m := InspectModel{
		Title:    doc.Title,
		Labels:   doc.Labels(),
		Sections: sections,
		Height:   15,
	}
	m.loadRows()
	return m
}

func (m *InspectModel) selectSection(name string) bool {
	for i, s := range m.Sections {
		if s.Name == name {
			m.Section = i
			m.Level, m.Cursor = 0, 0
			m.loadRows()
			return true
		}
	}
	return false
}

func (m *InspectModel) loadRows() {
	l := m.current()
	byLevel := l.Rows()
	m.rows = make([][]string, l.LevelCount())
	for level := range m.rows {
		m.rows[level] = byLevel[level]
	}
}

// current returns the active layout.
func (m InspectModel) current() conceptmap.Layout {
	if len(m.Sections) == 0 {
		return conceptmap.Layout{}
	}
	return m.Sections[m.Section].Layout
}

// Selected returns the ID of the term under the cursor, or "".
func (m InspectModel) Selected() string {
	if m.Level >= len(m.rows) || m.Cursor >= len(m.rows[m.Level]) {
		return ""
	}
	return m.rows[m.Level][m.Cursor]
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			if m.Level > 0 {
				m.Level--
				m.Cursor = 0
			}
		case "right", "l":
			if m.Level < len(m.rows)-1 {
				m.Level++
				m.Cursor = 0
			}
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Level < len(m.rows) && m.Cursor < len(m.rows[m.Level])-1 {
				m.Cursor++
			}
		case "tab", "shift+tab":
			if n := len(m.Sections); n > 0 {
				step := 1
				if msg.String() == "shift+tab" {
					step = n - 1
				}
				m.Section = (m.Section + step) % n
				m.Level, m.Cursor = 0, 0
				m.loadRows()
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-14, 5)
	}
	return m, nil
}

func (m InspectModel) View() string {
	var b strings.Builder

	title := m.Title
	if title == "" {
		title = "Concept Map"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.sectionTabs())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ level  ↑/↓ term  tab section  q quit"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(listDimStyle.Render("  (no terms)"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(StyleHighlight.Render(fmt.Sprintf("Level %d/%d", m.Level+1, len(m.rows))))
	b.WriteString("\n")
	b.WriteString(m.levelTable())
	b.WriteString("\n")
	b.WriteString(m.details())
	return b.String()
}

func (m InspectModel) sectionTabs() string {
	tabs := make([]string, len(m.Sections))
	for i, s := range m.Sections {
		name := s.Name
		if name == "" {
			name = "all"
		}
		if i == m.Section {
			tabs[i] = listSelectedStyle.Render("[" + name + "]")
		} else {
			tabs[i] = listDimStyle.Render(" " + name + " ")
		}
	}
	return strings.Join(tabs, " ")
}

// degree counts the edges into and out of id in the active layout.
func (m InspectModel) degree(id string) (in, out int) {
	for _, e := range m.current().Edges {
		if e.To == id {
			in++
		}
		if e.From == id {
			out++
		}
	}
	return in, out
}

func (m InspectModel) label(id string) string {
	if l, ok := m.Labels[id]; ok && l != "" {
		return l
	}
	return id
}

func (m InspectModel) levelTable() string {
	ids := m.rows[m.Level]
	offset := 0
	if m.Cursor >= m.Height {
		offset = m.Cursor - m.Height + 1
	}
	end := min(offset+m.Height, len(ids))

	rows := [][]string{}
	for i := offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = iconCursor + " "
		}
		in, out := m.degree(ids[i])
		rows = append(rows, []string{cursor, ids[i], m.label(ids[i]), fmt.Sprint(in), fmt.Sprint(out)})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Term", "Name", "In", "Out").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return StyleHeader
			}
			if offset+row == m.Cursor {
				return listSelectedStyle
			}
			return listNormalStyle
		}).
		Render()
}

// details lists the relations of the selected term.
func (m InspectModel) details() string {
	id := m.Selected()
	if id == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(listNormalStyle.Render(m.label(id)))
	b.WriteString("\n")
	for _, e := range m.current().Edges {
		var line string
		switch id {
		case e.To:
			line = fmt.Sprintf("  %s %s %s", m.label(e.From), iconArrow, e.Kind)
		case e.From:
			line = fmt.Sprintf("  %s %s %s", iconArrow, m.label(e.To), e.Kind)
		default:
			continue
		}
		if e.Label != "" {
			line += " (" + e.Label + ")"
		}
		b.WriteString(listDimStyle.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
