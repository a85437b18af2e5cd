package visualization

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"fringerestore/pkg/sparse"
)

// phaseColors runs from deep blue through pale yellow to dark red.
var phaseColors = []string{
	"#313695", "#4575b4", "#74add1", "#abd9e9",
	"#e0f3f8", "#ffffbf", "#fee090", "#fdae61",
	"#f46d43", "#d73027", "#a50026",
}

// RenderChart writes an HTML page plotting the sparse result as a scatter
// of (col, row) points coloured by phase within the result's peaks.
func RenderChart(w io.Writer, res *sparse.Result, title string) error {
	data := make([]opts.ScatterData, 0, len(res.Matrix))
	for _, t := range res.Matrix {
		data = append(data, opts.ScatterData{Value: []interface{}{t.Col, t.Row, t.Value}})
	}

	lo, hi := res.Peaks[0], res.Peaks[1]
	if hi <= lo {
		hi = lo + 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("points=%d peaks=[%.4f, %.4f]", len(data), res.Peaks[0], res.Peaks[1])}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "col", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "row", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: phaseColors},
		}),
	)

	scatter.AddSeries("phase", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
