package dashboard

import (
	"encoding/json"
	"fmt"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/dataset"
)

// ChartKind tags the variants of ChartRequest.
type ChartKind string

const (
	KindDistribution ChartKind = "distribution"
	KindScatter      ChartKind = "scatter"
	KindHeatmap      ChartKind = "heatmap"
)

// ChartRequest describes one chart for a plotting engine. It is one of
// Distribution, Scatter or Heatmap.
type ChartRequest interface {
	Kind() ChartKind
}

// Distribution asks for a histogram of Values with an optional density overlay.
type Distribution struct {
	Column  string    `json:"column"`
	Values  []float64 `json:"values"`
	Bins    int       `json:"bins"`
	Density bool      `json:"density"`
}

// Scatter pairs XValues with YValues row for row.
type Scatter struct {
	X       string    `json:"x"`
	Y       string    `json:"y"`
	XValues []float64 `json:"x_values"`
	YValues []float64 `json:"y_values"`
}

// Heatmap asks for a correlation matrix drawn with a diverging color scale.
type Heatmap struct {
	Matrix     *analysis.CorrMatrix `json:"matrix"`
	Annotated  bool                 `json:"annotated"`
	ColorScale string               `json:"color_scale"`
}

func (Distribution) Kind() ChartKind { return KindDistribution }
func (Scatter) Kind() ChartKind      { return KindScatter }
func (Heatmap) Kind() ChartKind      { return KindHeatmap }

// Columns returns the matrix columns, the numeric columns of the charted table.
func (h Heatmap) Columns() []string {
	if h.Matrix == nil {
		return nil
	}
	return h.Matrix.Columns
}

// Result is the outcome of Dispatch: either three chart requests or a
// diagnostic, never both.
type Result struct {
	Charts     []ChartRequest
	Diagnostic string
}

// Dispatch emits the distribution, scatter and heatmap requests when both the
// outcome and driver columns are present and numeric in t. Otherwise it
// returns a single diagnostic.
func Dispatch(t *dataset.Table, roles Roles, bins int, scale string) Result {
	outcome, ok1 := t.Column(roles.Outcome)
	driver, ok2 := t.Column(roles.Driver)
	if !ok1 || !ok2 || outcome.Kind() != dataset.KindNumeric || driver.Kind() != dataset.KindNumeric {
		return Result{Diagnostic: fmt.Sprintf("Required columns like '%s' or '%s' are missing.", roles.Outcome, roles.Driver)}
	}

	sc := Scatter{X: driver.Name(), Y: outcome.Name()}
	for i := 0; i < t.Rows(); i++ {
		x, okx := driver.Float(i)
		y, oky := outcome.Float(i)
		if okx && oky {
			sc.XValues = append(sc.XValues, x)
			sc.YValues = append(sc.YValues, y)
		}
	}
	return Result{Charts: []ChartRequest{
		Distribution{Column: outcome.Name(), Values: outcome.Floats(), Bins: bins, Density: true},
		sc,
		Heatmap{Matrix: analysis.Correlate(t), Annotated: true, ColorScale: scale},
	}}
}

// MarshalChart encodes a request with its kind tag.
func MarshalChart(c ChartRequest) ([]byte, error) {
	return json.Marshal(struct {
		Kind    ChartKind    `json:"kind"`
		Request ChartRequest `json:"request"`
	}{c.Kind(), c})
}
