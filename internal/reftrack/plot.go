package reftrack

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vgimg"

	"github.com/banshee-data/reftrack/internal/fsutil"
)

// SavePlot renders bistatic range and Doppler against block index as a PNG
// with the two panels stacked vertically.
func SavePlot(fsys fsutil.FileSystem, path string, tr *ReferenceTrack) error {
	if len(tr.Rows) == 0 {
		return fmt.Errorf("target %d: no rows to plot", tr.TargetID)
	}

	rangePts := make(plotter.XYs, len(tr.Rows))
	dopplerPts := make(plotter.XYs, len(tr.Rows))
	for i, r := range tr.Rows {
		rangePts[i] = plotter.XY{X: float64(r.BlockIndex), Y: r.BistaticRange / 1000}
		dopplerPts[i] = plotter.XY{X: float64(r.BlockIndex), Y: r.BistaticDoppler}
	}

	pRange := plot.New()
	pRange.Title.Text = fmt.Sprintf("Target %d - Bistatic Range", tr.TargetID)
	pRange.X.Label.Text = "Block index"
	pRange.Y.Label.Text = "Range [km]"
	pRange.Add(plotter.NewGrid())

	pDoppler := plot.New()
	pDoppler.Title.Text = fmt.Sprintf("Target %d - Bistatic Doppler", tr.TargetID)
	pDoppler.X.Label.Text = "Block index"
	pDoppler.Y.Label.Text = "Doppler [Hz]"
	pDoppler.Add(plotter.NewGrid())

	rangeLine, err := plotter.NewLine(rangePts)
	if err != nil {
		return fmt.Errorf("range line: %w", err)
	}
	rangeLine.Width = vg.Points(1)
	rangeLine.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	pRange.Add(rangeLine)

	dopplerLine, err := plotter.NewLine(dopplerPts)
	if err != nil {
		return fmt.Errorf("doppler line: %w", err)
	}
	dopplerLine.Width = vg.Points(1)
	dopplerLine.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	pDoppler.Add(dopplerLine)

	const width, height = 14 * vg.Inch, 8 * vg.Inch
	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Millimeter * 4}
	canvases := plot.Align([][]*plot.Plot{{pRange}, {pDoppler}}, tiles, dc)
	pRange.Draw(canvases[0][0])
	pDoppler.Draw(canvases[1][0])

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return f.Close()
}
