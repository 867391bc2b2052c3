package frameanalysis

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Render writes an HTML page with one line chart per analysis: timestamps,
// timestamp differences, CPI indices, CPI differences, sync flags, overdrive
// flags, frame types and IF gains, all against file index.
func Render(w io.Writer, a *Analysis) error {
	x := make([]int, len(a.Indices))
	copy(x, a.Indices)
	xDiff := x
	if len(x) > 1 {
		xDiff = x[1:]
	}

	page := components.NewPage()
	page.PageTitle = "IQ Frame Analysis"
	page.AddCharts(
		lineChart("Timestamp", "Timestamp [s]", x, series{"timestamp", a.Timestamps}),
		lineChart("Timestamp difference", "Difference [s]", xDiff, series{"diff", a.TimestampDiffs}),
		lineChart("CPI index", "CPI index", x, series{"cpi", toFloats(a.CPIIndices)}),
		lineChart("CPI index difference", "Difference", xDiff, series{"diff", a.CPIDiffs}),
		lineChart("Synchronisation", "Sync flags", x,
			series{"Delay sync", toFloats(a.DelaySync)}, series{"IQ sync", toFloats(a.IQSync)}),
		lineChart("Overdrive", "Overdrive flag", x, channelSeries(a.Overdrive)...),
		lineChart("Frame types", "Frame type", x, series{"type", toFloats(a.FrameTypes)}),
		lineChart("IF gains", "Gain [dB]", x, gainSeries(a.IFGainsDB)...),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render frame analysis: %w", err)
	}
	return nil
}

type series struct {
	name   string
	values []float64
}

func lineChart(title, yName string, x []int, ss ...series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(ss) > 1)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "File index"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(x)
	for _, s := range ss {
		data := make([]opts.LineData, len(s.values))
		for i, v := range s.values {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(s.name, data)
	}
	return line
}

func channelSeries(flags [][]int) []series {
	out := make([]series, len(flags))
	for ch, f := range flags {
		vals := make([]float64, len(f))
		for i, v := range f {
			vals[i] = float64(v)
		}
		out[ch] = series{fmt.Sprintf("Channel:%d", ch), vals}
	}
	return out
}

func gainSeries(gains [][]float64) []series {
	out := make([]series, len(gains))
	for ch, g := range gains {
		out[ch] = series{fmt.Sprintf("Channel:%d", ch), g}
	}
	return out
}

func toFloats(v []uint32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
