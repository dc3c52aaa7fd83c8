// Package tui implements an interactive ranked-file browser over a
// completed rank.Rank result, in the style of the teacher pack's
// bubbletea-based "find" command: a bubbles/list.Model driving
// selection, lipgloss for styling, with a plain tab-separated fallback
// when stdout is not a terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ctxspine/repomap/internal/rank"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type rankedItem struct {
	bucket string
	file   rank.RankedFile
}

func (i rankedItem) Title() string {
	return fmt.Sprintf("%.2f  %s", i.file.Score, i.file.Path)
}

func (i rankedItem) Description() string {
	reasons := strings.Join(i.file.Reasons, ", ")
	return fmt.Sprintf("[%s] %s", i.bucket, reasons)
}

func (i rankedItem) FilterValue() string {
	return i.file.Path
}

// model is the bubbletea model for the interactive browser.
type model struct {
	list     list.Model
	selected string
	width    int
	height   int
}

func newModel(buckets rank.Buckets) model {
	items := bucketItems(buckets)

	delegate := list.NewDefaultDelegate()
	l := list.New(items, delegate, 100, 24)
	l.Title = "repomap context spine"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)

	return model{list: l, width: 100, height: 24}
}

func bucketItems(buckets rank.Buckets) []list.Item {
	var items []list.Item
	add := func(bucket string, files []rank.RankedFile) {
		for _, f := range files {
			items = append(items, rankedItem{bucket: bucket, file: f})
		}
	}
	add("primary", buckets.Primary)
	add("causal", buckets.Causal)
	add("contract", buckets.Contract)
	add("guardrail", buckets.Guardrail)
	return items
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(rankedItem); ok {
				m.selected = item.file.Path
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-4)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("repomap — context spine"))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("↑/↓ navigate · / filter · enter select · q quit"))
	b.WriteString("\n\n")
	b.WriteString(m.list.View())
	return b.String()
}
