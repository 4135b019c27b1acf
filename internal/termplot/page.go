package termplot

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/KaramelBytes/salesdash/internal/dashboard"
)

// Page is a dashboard.Host that prints one rerun to a writer.
type Page struct {
	w     io.Writer
	r     *lipgloss.Renderer
	theme Theme
	// Selection is returned by SelectBox when it is one of the options;
	// otherwise the first option is used.
	Selection string
	// ShowOptions lists every option under the select box.
	ShowOptions bool
}

// NewPage creates a page writing to w.
func NewPage(w io.Writer, color bool) *Page {
	return &Page{w: w, r: NewRenderer(w, color), theme: DefaultTheme}
}

func (p *Page) style(c lipgloss.Color) lipgloss.Style {
	return p.r.NewStyle().Foreground(c)
}

func (p *Page) SetPageConfig(title, layout string) {
	fmt.Fprintln(p.w, p.style(p.theme.Heading).Bold(true).Render(title))
	fmt.Fprintln(p.w, p.style(p.theme.FaintText).Render(strings.Repeat("═", max(8, lipgloss.Width(title)))))
}

func (p *Page) SidebarTitle(text string) {
	fmt.Fprintln(p.w, p.style(p.theme.Axis).Bold(true).Render(text))
}

func (p *Page) SelectBox(label string, options []string) string {
	choice := dashboard.DefaultSelection(options)
	if dashboard.IsOption(options, p.Selection) {
		choice = p.Selection
	}
	fmt.Fprintf(p.w, "%s %s %s\n", label, p.style(p.theme.Selected).Bold(true).Render(choice),
		p.style(p.theme.FaintText).Render(fmt.Sprintf("(%d options)", len(options))))
	if p.ShowOptions {
		for _, o := range options {
			marker := "  "
			if o == choice {
				marker = "▸ "
			}
			fmt.Fprintln(p.w, p.style(p.theme.FaintText).Render(marker+o))
		}
	}
	fmt.Fprintln(p.w)
	return choice
}

func (p *Page) Warning(text string) {
	fmt.Fprintln(p.w, p.style(p.theme.Warning).Render("⚠ "+text))
}

func (p *Page) Error(text string) {
	fmt.Fprintln(p.w, p.style(p.theme.Error).Render("✗ "+text))
}

func (p *Page) Heading(text string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.style(p.theme.Heading).Bold(true).Render(text))
}

func (p *Page) Subheading(text string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.style(p.theme.Heading).Underline(true).Render(text))
}

// Figure prints text figures as is. Binary figures are summarized.
func (p *Page) Figure(f dashboard.Figure) {
	if f.Format == "text" {
		io.WriteString(p.w, string(f.Body))
		return
	}
	fmt.Fprintln(p.w, p.style(p.theme.FaintText).Render(fmt.Sprintf("[%s figure, %d bytes]", f.Format, len(f.Body))))
}
