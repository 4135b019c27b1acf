// Package dashboard turns a cleaned table and a filter selection into chart
// requests, and drives a UI host through one rerun of the page.
package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KaramelBytes/salesdash/internal/dataset"
)

// Roles names the columns the page treats specially.
type Roles struct {
	Identifier string `json:"identifier"`
	Date       string `json:"date"`
	Outcome    string `json:"outcome"`
	Driver     string `json:"driver"`
}

// DefaultRoles returns the retail column names.
func DefaultRoles() Roles {
	return Roles{Identifier: "sku", Date: "salesdate", Outcome: "sales", Driver: "adspend"}
}

// Labels are the display names used in headings.
type Labels struct {
	Outcome string
	Driver  string
}

// Settings configures the page.
type Settings struct {
	Title      string
	Layout     string
	Heading    string
	Roles      Roles
	Labels     Labels
	Bins       int
	ColorScale string
}

// DefaultSettings returns the BSS retail page.
func DefaultSettings() Settings {
	return Settings{
		Title:      "BSS Retail Dashboard",
		Layout:     "wide",
		Heading:    "📊 BSS Retail Interactive Dashboard",
		Roles:      DefaultRoles(),
		Labels:     Labels{Outcome: "Sales", Driver: "Ad Spend"},
		Bins:       30,
		ColorScale: "coolwarm",
	}
}

// SidebarTitle is shown above the filter control.
const SidebarTitle = "Filter Options"

// SelectLabel is the filter control label.
func (s Settings) SelectLabel() string {
	return fmt.Sprintf("Select %s:", strings.ToUpper(s.Roles.Identifier))
}

// MissingIdentifierWarning is shown when the table cannot be filtered.
func (s Settings) MissingIdentifierWarning() string {
	return fmt.Sprintf("'%s' column is not available.", s.Roles.Identifier)
}

// Subheading returns the heading shown above a chart.
func (s Settings) Subheading(kind ChartKind) string {
	switch kind {
	case KindDistribution:
		return fmt.Sprintf("📈 %s Distribution", s.Labels.Outcome)
	case KindScatter:
		return fmt.Sprintf("💸 %s vs %s", s.Labels.Driver, s.Labels.Outcome)
	case KindHeatmap:
		return "🔍 Correlation Heatmap"
	}
	return string(kind)
}

// View is everything one rerun shows for a given selection.
type View struct {
	Options    []string
	Selected   string
	Filtered   bool
	Rows       int
	Warnings   []string
	Charts     []ChartRequest
	Diagnostic string
}

// Render filters t to the rows whose identifier equals selected and dispatches
// charts for them. When the identifier column is absent it warns and uses t
// as is. Render is pure: the same table and selection give the same View.
func Render(t *dataset.Table, selected string, cfg Settings) View {
	var v View
	work := t
	if opts, ok := FilterOptions(t, cfg.Roles.Identifier); ok {
		v.Options = opts
		v.Selected = selected
		v.Filtered = true
		work = Select(t, cfg.Roles.Identifier, selected)
	} else {
		v.Warnings = append(v.Warnings, cfg.MissingIdentifierWarning())
	}
	v.Rows = work.Rows()
	res := Dispatch(work, cfg.Roles, cfg.Bins, cfg.ColorScale)
	v.Charts = res.Charts
	v.Diagnostic = res.Diagnostic
	return v
}

// DefaultSelection is the option a fresh select box starts on: the first one.
func DefaultSelection(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[0]
}

// MarshalJSON tags every chart with its kind.
func (v View) MarshalJSON() ([]byte, error) {
	charts := make([]json.RawMessage, 0, len(v.Charts))
	for _, c := range v.Charts {
		b, err := MarshalChart(c)
		if err != nil {
			return nil, err
		}
		charts = append(charts, b)
	}
	return json.Marshal(struct {
		Options    []string          `json:"options,omitempty"`
		Selected   string            `json:"selected,omitempty"`
		Filtered   bool              `json:"filtered"`
		Rows       int               `json:"rows"`
		Warnings   []string          `json:"warnings,omitempty"`
		Charts     []json.RawMessage `json:"charts"`
		Diagnostic string            `json:"diagnostic,omitempty"`
	}{v.Options, v.Selected, v.Filtered, v.Rows, v.Warnings, charts, v.Diagnostic})
}
