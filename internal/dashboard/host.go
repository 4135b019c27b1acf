package dashboard

import (
	"fmt"

	"github.com/KaramelBytes/salesdash/internal/dataset"
)

// Figure is a rendered chart.
type Figure struct {
	Title  string
	Kind   ChartKind
	Format string // "png" or "text"
	Body   []byte
}

// Host is the UI surface a rerun draws on.
type Host interface {
	SetPageConfig(title, layout string)
	SidebarTitle(text string)
	// SelectBox shows options and returns the current choice.
	SelectBox(label string, options []string) string
	Warning(text string)
	Error(text string)
	Heading(text string)
	Subheading(text string)
	Figure(f Figure)
}

// Plotter turns chart requests into figures.
type Plotter interface {
	Histogram(d Distribution) (Figure, error)
	Scatter(s Scatter) (Figure, error)
	Heatmap(h Heatmap) (Figure, error)
}

// Plot dispatches c to the matching Plotter method.
func Plot(p Plotter, c ChartRequest) (Figure, error) {
	switch r := c.(type) {
	case Distribution:
		return p.Histogram(r)
	case Scatter:
		return p.Scatter(r)
	case Heatmap:
		return p.Heatmap(r)
	default:
		return Figure{}, fmt.Errorf("unsupported chart %T", c)
	}
}

// Run performs one full rerun of the page on host: page config, the filter
// select box (or a warning), then either the heading and three figures or
// the diagnostic. It returns the View it drew. A plotting failure stops the
// rerun and is returned.
func Run(host Host, plotter Plotter, t *dataset.Table, cfg Settings) (View, error) {
	host.SetPageConfig(cfg.Title, cfg.Layout)
	host.SidebarTitle(SidebarTitle)
	selected := ""
	if opts, ok := FilterOptions(t, cfg.Roles.Identifier); ok {
		selected = host.SelectBox(cfg.SelectLabel(), opts)
	}
	v := Render(t, selected, cfg)
	for _, w := range v.Warnings {
		host.Warning(w)
	}
	if v.Diagnostic != "" {
		host.Error(v.Diagnostic)
		return v, nil
	}
	host.Heading(cfg.Heading)
	for _, c := range v.Charts {
		title := cfg.Subheading(c.Kind())
		host.Subheading(title)
		fig, err := Plot(plotter, c)
		if err != nil {
			return v, fmt.Errorf("plot %s: %w", c.Kind(), err)
		}
		if fig.Title == "" {
			fig.Title = title
		}
		fig.Kind = c.Kind()
		host.Figure(fig)
	}
	return v, nil
}
