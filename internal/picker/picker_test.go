package picker

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kb-labs/plugins/internal/layout"
)

// sampleInstalled returns one plugin of every kind.
func sampleInstalled() []layout.Installed {
	return []layout.Installed{
		{Publisher: "acme", Name: "alpha", State: layout.State{Kind: layout.Versioned, Versions: []string{"1.0.0", "2.0.0"}}},
		{Publisher: "acme", Name: "beta", State: layout.State{Kind: layout.Flat}},
		{Publisher: "zeta.io", Name: "gamma", State: layout.State{Kind: layout.Symlinked, Target: "/src/gamma/dist"}},
		{Publisher: "acme", Name: "leftover", State: layout.State{Kind: layout.Versioned}},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m pickerModel, keys ...string) pickerModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(pickerModel)
	}
	return m
}

// ── Items / Label ────────────────────────────────────────────────────────────

// TestItemsExpandsVersions verifies one entry per version, one per flat
// install or link, and none for an empty versioned directory.
func TestItemsExpandsVersions(t *testing.T) {
	items := Items(sampleInstalled())

	var got []string
	for _, it := range items {
		got = append(got, it.Label())
	}
	want := []string{
		"acme/alpha@1.0.0",
		"acme/alpha@2.0.0",
		"acme/beta (flat)",
		"zeta.io/gamma -> /src/gamma/dist",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("labels = %v, want %v", got, want)
	}
	if items[2].Version != "" || items[3].Version != "" {
		t.Error("flat and linked items must not carry a version")
	}
}

// ── filter ───────────────────────────────────────────────────────────────────

// TestFilterEmptyQueryShowsAll verifies scan order for an empty query.
func TestFilterEmptyQueryShowsAll(t *testing.T) {
	m := newModel(Items(sampleInstalled()))
	if len(m.visible) != 4 {
		t.Fatalf("visible = %v, want 4 rows", m.visible)
	}
	for i, v := range m.visible {
		if v != i {
			t.Errorf("visible[%d] = %d, want %d", i, v, i)
		}
	}
}

// TestFilterFuzzyMatches verifies that typing narrows the list.
func TestFilterFuzzyMatches(t *testing.T) {
	m := press(newModel(Items(sampleInstalled())), "gmm")
	if len(m.visible) != 1 || m.items[m.visible[0]].item.Plugin.Name != "gamma" {
		t.Errorf("visible after 'gmm' = %v, want only gamma", m.visible)
	}

	m = press(newModel(Items(sampleInstalled())), "qqq")
	if len(m.visible) != 0 || m.cursor != 0 {
		t.Errorf("visible after 'qqq' = %v cursor %d, want none", m.visible, m.cursor)
	}
}

// ── key handling ─────────────────────────────────────────────────────────────

// TestToggleAndConfirm verifies tab toggles the row under the cursor and
// enter moves to the confirmation screen.
func TestToggleAndConfirm(t *testing.T) {
	m := press(newModel(Items(sampleInstalled())), "down", "tab", "down", "down", "tab", "enter")

	if m.stage != stageConfirm {
		t.Fatalf("stage = %v, want confirm", m.stage)
	}
	sel := m.selected()
	if len(sel) != 2 || sel[0].Label() != "acme/alpha@2.0.0" || sel[1].Label() != "zeta.io/gamma -> /src/gamma/dist" {
		t.Errorf("selected = %v", sel)
	}

	m = press(m, "y")
	if !m.confirmed || m.cancelled {
		t.Errorf("confirmed = %v cancelled = %v after y", m.confirmed, m.cancelled)
	}
}

// TestEnterWithoutSelectionPicksCursor verifies that enter alone selects the
// row under the cursor.
func TestEnterWithoutSelectionPicksCursor(t *testing.T) {
	m := press(newModel(Items(sampleInstalled())), "be", "enter")
	sel := m.selected()
	if m.stage != stageConfirm || len(sel) != 1 || sel[0].Plugin.Name != "beta" {
		t.Errorf("stage = %v selected = %v, want beta in confirm", m.stage, sel)
	}
}

// TestEscBackFromConfirm verifies esc returns to selection and n cancels.
func TestEscBackFromConfirm(t *testing.T) {
	m := press(newModel(Items(sampleInstalled())), "enter", "esc")
	if m.stage != stageSelect || m.cancelled {
		t.Errorf("stage = %v cancelled = %v after esc, want select", m.stage, m.cancelled)
	}
	m = press(m, "enter", "n")
	if !m.cancelled {
		t.Error("n on confirm did not cancel")
	}
}

// TestEscCancels verifies esc on the selection screen cancels.
func TestEscCancels(t *testing.T) {
	m := press(newModel(Items(sampleInstalled())), "esc")
	if !m.cancelled {
		t.Error("esc did not cancel")
	}
}

// TestCursorStaysInBounds verifies navigation clamps at both ends.
func TestCursorStaysInBounds(t *testing.T) {
	m := press(newModel(Items(sampleInstalled())), "up")
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up at top, want 0", m.cursor)
	}
	m = press(m, "down", "down", "down", "down", "down")
	if m.cursor != 3 {
		t.Errorf("cursor = %d after overshooting, want 3", m.cursor)
	}
}

// TestViewListsItems verifies the selection view renders every visible label.
func TestViewListsItems(t *testing.T) {
	out := newModel(Items(sampleInstalled())).View()
	for _, want := range []string{"acme/alpha@1.0.0", "acme/beta (flat)", "zeta.io/gamma"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

// TestRunEmpty verifies that Run with nothing to pick returns immediately.
func TestRunEmpty(t *testing.T) {
	sel, err := Run(nil)
	if err != nil || sel != nil {
		t.Errorf("Run(nil) = %v, %v; want nil, nil", sel, err)
	}
}
