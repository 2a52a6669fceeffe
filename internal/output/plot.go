package output

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/daryltucker/pfr-console/internal/model"
)

var (
	temperatureColor = color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
	concentrationCol = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
	previousColor    = color.RGBA{R: 0x94, G: 0xa3, B: 0xb8, A: 0xff}
)

// SavePlots renders temperature and concentration profiles of current (with previous
// dashed underneath, if given) as two PNG files in dir. It returns the written paths.
func SavePlots(dir, base string, current, previous *model.SimulationResult) ([]string, error) {
	if current.Len() == 0 {
		return nil, ErrNoResult
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	panels := []struct {
		suffix, title, yLabel string
		col                   color.Color
		profile               func(r *model.SimulationResult) []float64
	}{
		{"temperature", "Temperature Profile", "Temperature (K)", temperatureColor,
			func(r *model.SimulationResult) []float64 { return r.TemperatureProfile }},
		{"concentration", "Concentration Profile", "Concentration (mol/m3)", concentrationCol,
			func(r *model.SimulationResult) []float64 { return r.ConcentrationProfile }},
	}

	var paths []string
	for _, panel := range panels {
		p := plot.New()
		p.Title.Text = panel.title
		p.X.Label.Text = "z (m)"
		p.Y.Label.Text = panel.yLabel

		if previous.Len() > 0 {
			prevLine, err := plotter.NewLine(xys(previous.ZAxis, panel.profile(previous)))
			if err != nil {
				return paths, fmt.Errorf("%s previous line: %w", panel.suffix, err)
			}
			prevLine.Color = previousColor
			prevLine.Width = vg.Points(1)
			prevLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
			p.Add(prevLine)
			p.Legend.Add("previous", prevLine)
		}

		line, err := plotter.NewLine(xys(current.ZAxis, panel.profile(current)))
		if err != nil {
			return paths, fmt.Errorf("%s line: %w", panel.suffix, err)
		}
		line.Color = panel.col
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add("current", line)

		p.Legend.Top = true
		p.Legend.Left = false
		p.Legend.XOffs = -10
		p.Legend.YOffs = -10

		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", base, panel.suffix))
		if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("save %s plot: %w", panel.suffix, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func xys(z, v []float64) plotter.XYs {
	n := len(z)
	if len(v) < n {
		n = len(v)
	}
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i] = plotter.XY{X: z[i], Y: v[i]}
	}
	return pts
}
