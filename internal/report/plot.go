package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lvx-convert/internal/lvx"
)

var axisColors = [3]color.Color{
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
}

// IMU plot size.
const (
	plotWidth  = 14 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// PlotIMU builds a time series of samples. acc selects the accelerometer
// axes instead of the gyroscope. Time is in seconds from the first sample.
func PlotIMU(samples []lvx.ImuSample, title string, acc bool) (*plot.Plot, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no IMU samples to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	if acc {
		p.Y.Label.Text = "Acceleration (g)"
	} else {
		p.Y.Label.Text = "Angular rate (rad/s)"
	}

	t0 := samples[0].Timestamp
	var series [3]plotter.XYs
	for i := range series {
		series[i] = make(plotter.XYs, len(samples))
	}
	for i, s := range samples {
		x := float64(int64(s.Timestamp-t0)) / 1e9
		v := [3]float32{s.GyroX, s.GyroY, s.GyroZ}
		if acc {
			v = [3]float32{s.AccX, s.AccY, s.AccZ}
		}
		for a := range series {
			series[a][i] = plotter.XY{X: x, Y: float64(v[a])}
		}
	}

	for a, name := range []string{"x", "y", "z"} {
		line, err := plotter.NewLine(series[a])
		if err != nil {
			return nil, err
		}
		line.Color = axisColors[a]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePNG renders p as a PNG image to w.
func WritePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}
