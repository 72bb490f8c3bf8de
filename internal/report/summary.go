package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lvx-convert/internal/convert"
	"github.com/banshee-data/lvx-convert/internal/fsutil"
	"github.com/banshee-data/lvx-convert/internal/lvx/chunk"
	"github.com/banshee-data/lvx-convert/internal/monitoring"
	"github.com/banshee-data/lvx-convert/internal/security"
)

// SummaryFileName is the HTML page written by Write.
const SummaryFileName = "lvx_summary.html"

// ErrPlotCollision is returned when two input files would share IMU plot
// file names.
var ErrPlotCollision = errors.New("inputs share a plot file name")

// FileSummary pairs a file result with its chunk statistics.
type FileSummary struct {
	Result convert.FileResult
	Chunks []ChunkStats
}

// Report is everything rendered for one batch.
type Report struct {
	RunID     string
	Generated time.Time
	Summary   convert.Summary
	Files     []FileSummary
}

// Build assembles a report from batch results and the statistics c
// collected while they ran. c may be nil.
func Build(runID string, generated time.Time, results []convert.FileResult, c *Collector) *Report {
	r := &Report{
		RunID:     runID,
		Generated: generated,
		Summary:   convert.Summarize(results),
	}
	for _, res := range results {
		fs := FileSummary{Result: res}
		if c != nil {
			fs.Chunks = c.Chunks(res.Path)
		}
		r.Files = append(r.Files, fs)
	}
	return r
}

func fileLabel(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func chunkLabel(l chunk.Label) string {
	if l.Kind == chunk.KindAll {
		return fmt.Sprintf("%s:all", fileLabel(l.Path))
	}
	return fmt.Sprintf("%s:%d", fileLabel(l.Path), l.Index)
}

// WriteSummaryHTML renders the per-file and per-chunk charts to w.
func WriteSummaryHTML(w io.Writer, r *Report) error {
	subtitle := fmt.Sprintf("files=%d failed=%d empty=%d points=%d generated=%s",
		r.Summary.Files, r.Summary.Failed, r.Summary.Empty, r.Summary.Points, r.Generated.Format(time.RFC3339))
	if r.RunID != "" {
		subtitle = "run=" + r.RunID + " " + subtitle
	}

	names := make([]string, 0, len(r.Files))
	points := make([]opts.BarData, 0, len(r.Files))
	imu := make([]opts.BarData, 0, len(r.Files))
	frames := make([]opts.BarData, 0, len(r.Files))
	for _, f := range r.Files {
		name := fileLabel(f.Result.Path)
		if !f.Result.OK() {
			name += " (failed)"
		}
		names = append(names, name)
		points = append(points, opts.BarData{Value: f.Result.Points})
		imu = append(imu, opts.BarData{Value: f.Result.Imu})
		frames = append(frames, opts.BarData{Value: f.Result.Frames})
	}

	files := charts.NewBar()
	files.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "LVX Conversion Summary", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Files", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	files.SetXAxis(names).
		AddSeries("points", points).
		AddSeries("imu samples", imu).
		AddSeries("frames", frames)

	var chunkNames []string
	var chunkPoints, chunkIntensity []opts.BarData
	for _, f := range r.Files {
		for _, c := range f.Chunks {
			chunkNames = append(chunkNames, chunkLabel(c.Label))
			chunkPoints = append(chunkPoints, opts.BarData{Value: c.Points})
			chunkIntensity = append(chunkIntensity, opts.BarData{Value: fmt.Sprintf("%.2f", c.IntensityMean)})
		}
	}

	chunks := charts.NewBar()
	chunks.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Chunks", Subtitle: fmt.Sprintf("chunks=%d", len(chunkNames))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	chunks.SetXAxis(chunkNames).
		AddSeries("points", chunkPoints).
		AddSeries("mean intensity", chunkIntensity)

	page := components.NewPage()
	page.AddCharts(files, chunks)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Write renders the summary page and one gyro and one accelerometer plot
// per file with IMU data into dir. It returns the paths written.
func Write(fsys fsutil.FileSystem, dir string, r *Report, c *Collector) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir %s: %w", dir, err)
	}

	var written []string
	create := func(name string, fill func(io.Writer) error) error {
		path, err := security.OutputPath(dir, name)
		if err != nil {
			return err
		}
		f, err := fsys.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := fill(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	if err := create(SummaryFileName, func(w io.Writer) error { return WriteSummaryHTML(w, r) }); err != nil {
		return written, err
	}

	if c == nil {
		return written, nil
	}
	plotted := make(map[string]string)
	for _, f := range r.Files {
		samples := c.Imu(f.Result.Path)
		if len(samples) == 0 {
			continue
		}
		base := security.SanitizeFilename(fileLabel(f.Result.Path))
		if prev, ok := plotted[base]; ok {
			return written, fmt.Errorf("plots for %s and %s: %w", prev, f.Result.Path, ErrPlotCollision)
		}
		plotted[base] = f.Result.Path
		for _, acc := range []bool{false, true} {
			kind := "gyro"
			if acc {
				kind = "acc"
			}
			p, err := PlotIMU(samples, fmt.Sprintf("%s IMU %s", fileLabel(f.Result.Path), kind), acc)
			if err != nil {
				return written, err
			}
			name := fmt.Sprintf("%s_imu_%s.png", base, kind)
			if err := create(name, func(w io.Writer) error { return WritePNG(w, p) }); err != nil {
				return written, err
			}
		}
	}
	monitoring.Logf("report written to %s (%d files)", dir, len(written))
	return written, nil
}
