// Command lvx2las converts Livox LVX capture files into LAS (or ASC) point
// clouds and IMU CSV tables.
//
// Usage:
//
//	lvx2las [flags] <file.lvx | folder>...
//	lvx2las <folder> <frames-per-chunk>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/lvx-convert/internal/config"
	"github.com/banshee-data/lvx-convert/internal/convert"
	"github.com/banshee-data/lvx-convert/internal/export"
	"github.com/banshee-data/lvx-convert/internal/fsutil"
	"github.com/banshee-data/lvx-convert/internal/lvx/chunk"
	"github.com/banshee-data/lvx-convert/internal/monitoring"
	"github.com/banshee-data/lvx-convert/internal/report"
	"github.com/banshee-data/lvx-convert/internal/store"
	"github.com/banshee-data/lvx-convert/internal/timeutil"
	"github.com/banshee-data/lvx-convert/internal/units"
	"github.com/banshee-data/lvx-convert/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options holds everything parsed from the command line.
type options struct {
	cfg    *config.ConvertConfig
	inputs []string
}

func parseArgs(args []string, stdout, stderr io.Writer) (*options, int, bool) {
	fs := flag.NewFlagSet("lvx2las", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to a JSON converter config")
	frames := fs.Uint("frames", 0, "Frames per output chunk (0 writes one file per capture)")
	format := fs.String("format", config.FormatLAS, "Point output format: las or asc")
	unitFlag := fs.String("units", units.Meters, "ASC coordinate units: "+units.GetValidUnitsString())
	imuCSV := fs.Bool("imu-csv", true, "Write IMU CSV tables")
	strict := fs.Bool("strict", false, "Abort a file at the first unknown package data type")
	workers := fs.Int("workers", 1, "Number of files converted in parallel")
	dbPath := fs.String("db", "", "SQLite database to record the run in (disabled when empty)")
	withReport := fs.Bool("report", false, "Write an HTML summary and IMU plots")
	outDir := fs.String("out", "", "Output directory (defaults to alongside each input)")
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	showVersion := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: lvx2las [flags] <file.lvx | folder>...\n       lvx2las <folder> <frames-per-chunk>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, 0, true
		}
		return nil, 2, true
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return nil, 0, true
	}
	monitoring.SetVerbose(*verbose)

	cfg := config.DefaultConvertConfig()
	if *configPath != "" {
		fileCfg, err := config.LoadConvertConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "lvx2las: %v\n", err)
			return nil, 1, true
		}
		cfg.Merge(fileCfg)
	}

	flagCfg := config.EmptyConvertConfig()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "frames":
			v := uint32(*frames)
			flagCfg.FramesPerChunk = &v
		case "format":
			flagCfg.PointFormat = format
		case "units":
			flagCfg.PointUnits = unitFlag
		case "imu-csv":
			flagCfg.WriteImuCSV = imuCSV
		case "strict":
			flagCfg.StrictDataTypes = strict
		case "workers":
			flagCfg.Workers = workers
		case "db":
			flagCfg.SQLitePath = dbPath
		case "report":
			flagCfg.Report = withReport
		case "out":
			flagCfg.OutputDir = outDir
		}
	})

	inputs := fs.Args()
	// Positional form: "<folder> <frames>".
	if len(inputs) == 2 && flagCfg.FramesPerChunk == nil {
		if n, err := strconv.ParseUint(inputs[1], 10, 32); err == nil {
			if _, statErr := os.Stat(inputs[1]); statErr != nil {
				v := uint32(n)
				flagCfg.FramesPerChunk = &v
				inputs = inputs[:1]
			}
		}
	}
	cfg.Merge(flagCfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "lvx2las: invalid configuration: %v\n", err)
		return nil, 2, true
	}
	if len(inputs) == 0 {
		fs.Usage()
		return nil, 2, true
	}
	return &options{cfg: cfg, inputs: inputs}, 0, false
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, code, done := parseArgs(args, stdout, stderr)
	if done {
		return code
	}
	cfg := opts.cfg

	fsys := fsutil.OSFileSystem{}
	clock := timeutil.RealClock{}

	inputs, err := convert.ResolveInputs(fsys, opts.inputs)
	if err != nil {
		fmt.Fprintf(stderr, "lvx2las: %v\n", err)
		return 1
	}
	if len(inputs) == 0 {
		fmt.Fprintf(stderr, "lvx2las: no %s files found\n", convert.CaptureExtension)
		return 1
	}
	if cfg.GetOutputDir() != "" || cfg.GetReport() {
		if err := convert.CheckDistinctBases(inputs); err != nil {
			fmt.Fprintf(stderr, "lvx2las: %v\n", err)
			return 2
		}
	}

	writer := export.NewWriter(fsys, clock, cfg)
	points := chunk.MultiPointSink{writer}
	var imu chunk.MultiImuSink
	if cfg.GetWriteImuCSV() {
		imu = append(imu, writer)
	}

	var (
		st    *store.Store
		runID string
	)
	if p := cfg.GetSQLitePath(); p != "" {
		st, err = store.Open(p)
		if err != nil {
			fmt.Fprintf(stderr, "lvx2las: %v\n", err)
			return 1
		}
		defer st.Close()
		runID, err = st.BeginRun(clock.Now(), cfg.GetFramesPerChunk(), cfg.GetPointFormat())
		if err != nil {
			fmt.Fprintf(stderr, "lvx2las: %v\n", err)
			return 1
		}
		sink := st.Sink(runID)
		points = append(points, sink)
		imu = append(imu, sink)
	}

	var col *report.Collector
	if cfg.GetReport() {
		col = report.NewCollector()
		points = append(points, col)
		imu = append(imu, col)
	}

	c := &convert.Converter{
		FramesPerChunk:  cfg.GetFramesPerChunk(),
		StrictDataTypes: cfg.GetStrictDataTypes(),
		Points:          points,
		Imu:             imu,
		FS:              fsys,
		Clock:           clock,
	}
	results, batchErr := c.Batch(ctx, inputs, cfg.GetWorkers())
	sum := convert.Summarize(results)

	exit := 0
	if st != nil {
		for _, r := range results {
			if err := st.RecordFileResult(runID, r); err != nil {
				monitoring.Logf("run=%s failed to record %s: %v", runID, r.Path, err)
				exit = 1
			}
		}
		if err := st.FinishRun(runID, clock.Now(), sum); err != nil {
			monitoring.Logf("run=%s: %v", runID, err)
			exit = 1
		}
	}

	if col != nil {
		dir := reportDir(cfg, opts.inputs)
		if _, err := report.Write(fsys, dir, report.Build(runID, clock.Now(), results, col), col); err != nil {
			monitoring.Logf("failed to write report: %v", err)
			exit = 1
		}
	}

	printSummary(stdout, results, sum)
	if batchErr != nil || sum.Failed > 0 {
		exit = 1
	}
	return exit
}

// reportDir is the output directory when set, otherwise the first input
// folder (or the folder holding the first input file).
func reportDir(cfg *config.ConvertConfig, inputs []string) string {
	if d := cfg.GetOutputDir(); d != "" {
		return d
	}
	if info, err := os.Stat(inputs[0]); err == nil && info.IsDir() {
		return inputs[0]
	}
	return filepath.Dir(inputs[0])
}

func printSummary(w io.Writer, results []convert.FileResult, sum convert.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSTATUS\tFRAMES\tPOINTS\tIMU\tCHUNKS\tELAPSED\tREASON")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.Path, r.Status(), r.Frames, r.Points, r.Imu, r.Chunks, r.Elapsed.Round(time.Millisecond), r.Reason())
	}
	tw.Flush()
	fmt.Fprintf(w, "%d files, %d failed, %d empty, %d points\n", sum.Files, sum.Failed, sum.Empty, sum.Points)
}
