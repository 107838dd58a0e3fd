package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/glossary"
)

func testInspectModel() InspectModel {
	doc := &glossary.Document{
		Title: "Sets",
		Terms: []glossary.Term{
			{ID: "set", Name: "Set", Section: "base"},
			{ID: "map", Name: "Function", Section: "base"},
			{ID: "rel", Section: "base"},
			{ID: "group", Section: "algebra"},
		},
	}
	relations := []conceptmap.Relation{
		{From: "set", To: "map", Kind: conceptmap.Prerequisite},
		{From: "set", To: "rel", Kind: conceptmap.Variant, Label: "generalizes"},
	}
	all := conceptmap.ComputeLayout([]string{"set", "map", "rel", "group"}, relations)
	base := conceptmap.ComputeLayout([]string{"set", "map", "rel"}, relations)
	algebra := conceptmap.ComputeLayout([]string{"group"}, nil)

	return NewInspectModel(doc, []inspectSection{
		{Name: "", Layout: all},
		{Name: "base", Layout: base},
		{Name: "algebra", Layout: algebra},
	})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m InspectModel, keys ...string) InspectModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(InspectModel)
	}
	return m
}

func TestInspectNavigation(t *testing.T) {
	m := testInspectModel()
	if got := m.Selected(); got != "set" {
		t.Fatalf("initial Selected() = %q, want set", got)
	}

	tests := []struct {
		name string
		keys []string
		want string
	}{
		{"NextLevel", []string{"right"}, "map"},
		{"DownInLevel", []string{"l", "down"}, "rel"},
		{"DownClamped", []string{"l", "j", "j", "j"}, "rel"},
		{"LevelClamped", []string{"l", "l", "l"}, "map"},
		{"BackToTop", []string{"l", "h", "h"}, "set"},
		{"UpClamped", []string{"k"}, "set"},
		{"SectionResetsCursor", []string{"l", "j", "tab"}, "set"},
		{"PreviousSectionWraps", []string{"shift+tab"}, "group"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := press(m, tt.keys...).Selected(); got != tt.want {
				t.Errorf("Selected() after %v = %q, want %q", tt.keys, got, tt.want)
			}
		})
	}
}

func TestInspectSelectSection(t *testing.T) {
	m := testInspectModel()
	if !m.selectSection("algebra") || m.Selected() != "group" {
		t.Errorf("selectSection(algebra) selected %q", m.Selected())
	}
	if m.selectSection("topology") {
		t.Error("selectSection(topology) should fail")
	}
}

func TestInspectQuit(t *testing.T) {
	for _, k := range []string{"q", "esc"} {
		var msg tea.KeyMsg
		if k == "esc" {
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		} else {
			msg = key(k)
		}
		_, cmd := testInspectModel().Update(msg)
		if cmd == nil {
			t.Errorf("%s: expected quit command", k)
			continue
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: command did not quit", k)
		}
	}
}

func TestInspectView(t *testing.T) {
	m := press(testInspectModel(), "right")
	view := m.View()
	for _, want := range []string{"Sets", "[all]", "Level 2/2", "Function", "rel", "Set " + iconArrow + " prerequisite"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	m = press(m, "down")
	if view := m.View(); !strings.Contains(view, "(generalizes)") {
		t.Errorf("View() missing relation label:\n%s", view)
	}
}

func TestInspectDegree(t *testing.T) {
	m := testInspectModel()
	if in, out := m.degree("set"); in != 0 || out != 2 {
		t.Errorf("degree(set) = %d/%d, want 0/2", in, out)
	}
	if in, out := m.degree("rel"); in != 1 || out != 0 {
		t.Errorf("degree(rel) = %d/%d, want 1/0", in, out)
	}
}

func TestInspectEmpty(t *testing.T) {
	m := NewInspectModel(&glossary.Document{}, nil)
	if m.Selected() != "" {
		t.Errorf("Selected() = %q, want empty", m.Selected())
	}
	if !strings.Contains(m.View(), "(no terms)") {
		t.Errorf("View() = %q", m.View())
	}
	press(m, "tab", "right", "down")
}

func TestInspectWindowSize(t *testing.T) {
	next, _ := testInspectModel().Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	if h := next.(InspectModel).Height; h != 5 {
		t.Errorf("Height = %d, want minimum 5", h)
	}
}
