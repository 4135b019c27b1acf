// Package tui is the interactive terminal dashboard: a sidebar select box
// over the identifier values and a scrollable pane holding the charts for
// the current selection. Every selection change reruns the whole page.
package tui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/KaramelBytes/salesdash/internal/dashboard"
	"github.com/KaramelBytes/salesdash/internal/dataset"
	"github.com/KaramelBytes/salesdash/internal/termplot"
)

const sidebarWidth = 24

// Options configures the model.
type Options struct {
	// Initial is the first selection; empty or unknown means the first option.
	Initial string
	Color   bool
	Keys    *KeyMap
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	table *dataset.Table
	cfg   dashboard.Settings
	keys  KeyMap
	color bool
	theme termplot.Theme
	r     *lipgloss.Renderer

	options    []string
	filterable bool
	cursor     int

	width, height int
	pane          viewport.Model

	view dashboard.View
	err  error
}

// New builds the model and performs the first rerun.
func New(t *dataset.Table, cfg dashboard.Settings, opt Options) Model {
	m := Model{
		table:  t,
		cfg:    cfg,
		keys:   DefaultKeyMap,
		color:  opt.Color,
		theme:  termplot.DefaultTheme,
		width:  100,
		height: 30,
	}
	if opt.Keys != nil {
		m.keys = *opt.Keys
	}
	var sink bytes.Buffer
	m.r = termplot.NewRenderer(&sink, opt.Color)
	m.options, m.filterable = dashboard.FilterOptions(t, cfg.Roles.Identifier)
	for i, o := range m.options {
		if o == opt.Initial {
			m.cursor = i
			break
		}
	}
	m.resize()
	m.rerun()
	return m
}

// Selected is the current selection, empty when nothing can be selected.
func (m Model) Selected() string {
	if len(m.options) == 0 {
		return ""
	}
	return m.options[m.cursor]
}

// Current returns what the last rerun drew.
func (m Model) Current() dashboard.View { return m.view }

// Err returns the last rerun's plotting failure, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.rerun()
		return m, nil
	case tea.KeyMsg:
		prev := m.cursor
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.cursor = max(0, m.cursor-1)
		case key.Matches(msg, m.keys.Down):
			m.cursor = max(0, min(len(m.options)-1, m.cursor+1))
		case key.Matches(msg, m.keys.Home):
			m.cursor = 0
		case key.Matches(msg, m.keys.End):
			m.cursor = max(0, len(m.options)-1)
		case key.Matches(msg, m.keys.ScrollUp):
			m.pane.LineUp(1)
		case key.Matches(msg, m.keys.ScrollDown):
			m.pane.LineDown(1)
		case key.Matches(msg, m.keys.PageUp):
			m.pane.HalfViewUp()
		case key.Matches(msg, m.keys.PageDown):
			m.pane.HalfViewDown()
		}
		if m.cursor != prev {
			m.rerun()
		}
	}
	return m, nil
}

func (m *Model) resize() {
	m.pane.Width = max(20, m.width-sidebarWidth-1)
	m.pane.Height = max(3, m.height-1)
}

// rerun draws the page for the current selection into the chart pane.
func (m *Model) rerun() {
	var buf bytes.Buffer
	page := termplot.NewPage(&buf, m.color)
	page.Selection = m.Selected()
	plotter := termplot.New(&buf, termplot.Options{Width: m.pane.Width - 2, Height: max(8, m.pane.Height/2), Color: m.color})
	m.view, m.err = dashboard.Run(page, plotter, m.table, m.cfg)
	if m.err != nil {
		page.Error(m.err.Error())
	}
	m.pane.SetContent(buf.String())
	m.pane.GotoTop()
}

func (m Model) sidebar() string {
	var sb strings.Builder
	head := m.r.NewStyle().Bold(true).Foreground(m.theme.Heading)
	faint := m.r.NewStyle().Foreground(m.theme.FaintText)
	sel := m.r.NewStyle().Bold(true).Foreground(m.theme.Selected)

	sb.WriteString(head.Render(dashboard.SidebarTitle) + "\n")
	if !m.filterable {
		sb.WriteString(m.r.NewStyle().Foreground(m.theme.Warning).Render(ansi.Wordwrap(m.cfg.MissingIdentifierWarning(), sidebarWidth-1, "")) + "\n")
		return sb.String()
	}
	sb.WriteString(faint.Render(m.cfg.SelectLabel()) + "\n")

	rows := max(1, m.height-4)
	first := 0
	if m.cursor >= rows {
		first = m.cursor - rows + 1
	}
	last := min(len(m.options), first+rows)
	for i := first; i < last; i++ {
		label := ansi.Truncate(m.options[i], sidebarWidth-3, "…")
		if i == m.cursor {
			sb.WriteString(sel.Render("▸ "+label) + "\n")
		} else {
			sb.WriteString("  " + label + "\n")
		}
	}
	if len(m.options) > 0 {
		sb.WriteString(faint.Render(fmt.Sprintf("%d/%d", m.cursor+1, len(m.options))) + "\n")
	}
	return sb.String()
}

func (m Model) help() string {
	parts := make([]string, 0, 5)
	for _, b := range m.keys.help() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.r.NewStyle().Foreground(m.theme.FaintText).Render(strings.Join(parts, " • "))
}

func (m Model) View() string {
	side := m.r.NewStyle().Width(sidebarWidth).Height(m.pane.Height).Render(m.sidebar())
	body := lipgloss.JoinHorizontal(lipgloss.Top, side, " ", m.pane.View())
	return body + "\n" + m.help()
}

// Run starts the dashboard in the alternate screen and blocks until quit.
func Run(t *dataset.Table, cfg dashboard.Settings, opt Options) (dashboard.View, error) {
	final, err := tea.NewProgram(New(t, cfg, opt), tea.WithAltScreen()).Run()
	if err != nil {
		return dashboard.View{}, err
	}
	m := final.(Model)
	return m.view, m.err
}
