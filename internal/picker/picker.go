// Package picker implements the interactive Bubble Tea picker used by
// "uninstall --pick". It lists every removable install under the target root
// (each version of a versioned plugin, each flat install, each dev-link),
// narrows the list with a fuzzy filter as the user types, and returns the
// checked entries after a confirmation screen.
package picker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/kb-labs/plugins/internal/layout"
)

// ErrCancelled is returned when the user quits without confirming.
var ErrCancelled = errors.New("selection cancelled")

// Item is one removable install.
type Item struct {
	Plugin layout.Installed
	// Version is set for a single version of a versioned install and empty
	// for flat installs and dev-links, which are removed whole.
	Version string
}

// Label returns the text shown and matched for the item.
func (it Item) Label() string {
	switch it.Plugin.State.Kind {
	case layout.Symlinked:
		return it.Plugin.ID() + " -> " + it.Plugin.State.Target
	case layout.Flat:
		return it.Plugin.ID() + " (flat)"
	}
	return it.Plugin.ID() + "@" + it.Version
}

// Items expands scanned plugins into removable entries. Versioned plugins
// without any installed version are skipped.
func Items(installed []layout.Installed) []Item {
	var out []Item
	for _, p := range installed {
		switch p.State.Kind {
		case layout.Symlinked, layout.Flat:
			out = append(out, Item{Plugin: p})
		case layout.Versioned:
			for _, v := range p.State.Versions {
				out = append(out, Item{Plugin: p, Version: v})
			}
		}
	}
	return out
}

// Run shows the picker and returns the confirmed selection.
func Run(items []Item) ([]Item, error) {
	if len(items) == 0 {
		return nil, nil
	}
	p := tea.NewProgram(newModel(items), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	result := final.(pickerModel)
	if result.cancelled {
		return nil, ErrCancelled
	}
	return result.selected(), nil
}

// ── styles ────────────────────────────────────────────────────────────────────

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle     = dimStyle
)

// ── model stages ─────────────────────────────────────────────────────────────

type stage int

const (
	stageSelect  stage = iota // filtering and checking entries
	stageConfirm              // confirm / cancel
)

type checkItem struct {
	item    Item
	checked bool
}

type pickerModel struct {
	items     []checkItem
	visible   []int // indexes into items matching the filter
	filter    textinput.Model
	stage     stage
	cursor    int
	cancelled bool
	confirmed bool
}

func newModel(items []Item) pickerModel {
	fi := textinput.New()
	fi.Placeholder = "type to filter"
	fi.Prompt = "/ "
	fi.Focus()
	fi.Width = 40

	checks := make([]checkItem, len(items))
	for i, it := range items {
		checks[i] = checkItem{item: it}
	}
	m := pickerModel{items: checks, filter: fi, stage: stageSelect}
	m.applyFilter()
	return m
}

// ── tea.Model interface ───────────────────────────────────────────────────────

func (m pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(key)
	}
	var cmd tea.Cmd
	if m.stage == stageSelect {
		m.filter, cmd = m.filter.Update(msg)
	}
	return m, cmd
}

func (m pickerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageSelect:
		return m.handleSelectKey(msg)
	case stageConfirm:
		return m.handleConfirmKey(msg)
	}
	return m, nil
}

func (m pickerModel) handleSelectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
		return m, nil
	case "tab":
		m.toggleCursor()
		return m, nil
	case "enter":
		if len(m.selected()) == 0 {
			// Enter on an unchecked list removes the entry under the cursor.
			m.toggleCursor()
		}
		if len(m.selected()) > 0 {
			m.stage = stageConfirm
		}
		return m, nil
	}

	var cmd tea.Cmd
	before := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

func (m pickerModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "n", "N":
		m.cancelled = true
		return m, tea.Quit
	case "esc":
		m.stage = stageSelect
		return m, nil
	case "enter", "y", "Y":
		m.confirmed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *pickerModel) toggleCursor() {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return
	}
	i := m.visible[m.cursor]
	m.items[i].checked = !m.items[i].checked
}

// applyFilter recomputes the visible rows, best fuzzy match first. An empty
// query shows everything in scan order.
func (m *pickerModel) applyFilter() {
	m.visible = filter(m.items, m.filter.Value())
	if m.cursor >= len(m.visible) {
		m.cursor = max(0, len(m.visible)-1)
	}
}

type labels []checkItem

func (l labels) String(i int) string { return strings.ToLower(l[i].item.Label()) }
func (l labels) Len() int            { return len(l) }

func filter(items []checkItem, query string) []int {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		idx := make([]int, len(items))
		for i := range items {
			idx[i] = i
		}
		return idx
	}
	matches := fuzzy.FindFrom(query, labels(items))
	idx := make([]int, len(matches))
	for i, match := range matches {
		idx[i] = match.Index
	}
	return idx
}

// ── View ──────────────────────────────────────────────────────────────────────

func (m pickerModel) View() string {
	switch m.stage {
	case stageSelect:
		return m.viewSelect()
	case stageConfirm:
		return m.viewConfirm()
	}
	return ""
}

func (m pickerModel) viewSelect() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  kb-plugins") + "  select plugins to uninstall\n\n")
	b.WriteString("  " + m.filter.View() + "\n\n")

	if len(m.visible) == 0 {
		b.WriteString(dimStyle.Render("  no installed plugin matches") + "\n")
	}
	for row, i := range m.visible {
		b.WriteString(m.renderItem(row, m.items[i]))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  ↑↓ move · tab toggle · enter uninstall · esc quit"))
	return b.String()
}

func (m pickerModel) renderItem(row int, ci checkItem) string {
	cursor := "  "
	if row == m.cursor {
		cursor = focusStyle.Render(" ▶")
	}
	check := "○"
	style := normalStyle
	if ci.checked {
		check = selectedStyle.Render("◉")
		style = selectedStyle
	}
	return fmt.Sprintf("%s %s  %-40s  %s\n",
		cursor, check,
		style.Render(ci.item.Label()),
		dimStyle.Render(ci.item.Plugin.State.Kind.String()),
	)
}

func (m pickerModel) viewConfirm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  kb-plugins") + "  ready to uninstall\n\n")
	for _, it := range m.selected() {
		b.WriteString("  " + warnStyle.Render("✖ "+it.Label()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  Press enter to uninstall · esc back · n to cancel"))
	return b.String()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (m pickerModel) selected() []Item {
	var out []Item
	for _, ci := range m.items {
		if ci.checked {
			out = append(out, ci.item)
		}
	}
	return out
}
