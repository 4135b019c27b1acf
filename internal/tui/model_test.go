package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/KaramelBytes/salesdash/internal/dashboard"
	"github.com/KaramelBytes/salesdash/internal/dataset"
)

func testTable(t *testing.T, csv string) *dataset.Table {
	t.Helper()
	ds, err := dataset.Load(strings.NewReader(csv), dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return ds.Table
}

func retail(t *testing.T) *dataset.Table {
	return testTable(t, "sku,sales,adspend\nA,100,10\nA,200,20\nB,50,5\nC,70,7\nC,90,8\n")
}

func press(m Model, k string) Model {
	var msg tea.KeyMsg
	switch k {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func TestInitialSelection(t *testing.T) {
	m := New(retail(t), dashboard.DefaultSettings(), Options{})
	if m.Selected() != "A" || m.Current().Rows != 2 {
		t.Fatalf("selected %q rows %d", m.Selected(), m.Current().Rows)
	}
	m = New(retail(t), dashboard.DefaultSettings(), Options{Initial: "C"})
	if m.Selected() != "C" {
		t.Fatalf("selected %q, want C", m.Selected())
	}
	m = New(retail(t), dashboard.DefaultSettings(), Options{Initial: "Z"})
	if m.Selected() != "A" {
		t.Fatalf("unknown initial should fall back to the first option, got %q", m.Selected())
	}
}

func TestNavigationReruns(t *testing.T) {
	m := New(retail(t), dashboard.DefaultSettings(), Options{})
	m = press(m, "j")
	if m.Selected() != "B" || m.Current().Selected != "B" || m.Current().Rows != 1 {
		t.Fatalf("after j: %q view=%+v", m.Selected(), m.Current())
	}
	m = press(m, "down")
	m = press(m, "down")
	if m.Selected() != "C" {
		t.Fatalf("cursor should stop at the last option, got %q", m.Selected())
	}
	m = press(m, "k")
	m = press(m, "up")
	m = press(m, "up")
	if m.Selected() != "A" {
		t.Fatalf("cursor should stop at the first option, got %q", m.Selected())
	}
	m = press(m, "G")
	if m.Selected() != "C" || m.Current().Rows != 2 {
		t.Fatalf("after G: %q", m.Selected())
	}
}

func TestQuit(t *testing.T) {
	m := New(retail(t), dashboard.DefaultSettings(), Options{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
}

func TestViewShowsSidebarAndCharts(t *testing.T) {
	m := New(retail(t), dashboard.DefaultSettings(), Options{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 80})
	m = updated.(Model)
	out := ansi.Strip(m.View())
	for _, want := range []string{"Filter Options", "Select SKU:", "▸ A", "1/3", "📈 Sales Distribution", "q quit"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestMissingIdentifier(t *testing.T) {
	m := New(testTable(t, "store,sales,adspend\nA,1,2\nB,3,4\n"), dashboard.DefaultSettings(), Options{})
	if m.Selected() != "" || m.Current().Filtered {
		t.Fatalf("view = %+v", m.Current())
	}
	m = press(m, "j")
	if len(m.Current().Warnings) != 1 || m.Current().Rows != 2 {
		t.Fatalf("view = %+v", m.Current())
	}
	if !strings.Contains(ansi.Strip(m.View()), "'sku' column") {
		t.Fatalf("sidebar should carry the warning:\n%s", m.View())
	}
}

func TestDiagnosticEveryRerun(t *testing.T) {
	m := New(testTable(t, "sku,sales\nA,1\nB,2\n"), dashboard.DefaultSettings(), Options{})
	for range 3 {
		if m.Current().Diagnostic == "" || len(m.Current().Charts) != 0 {
			t.Fatalf("view = %+v", m.Current())
		}
		m = press(m, "j")
	}
}
