package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/esimov/stamp"
	"github.com/esimov/stamp/utils"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const HelpBanner = `
┌─┐┌┬┐┌─┐┌┬┐┌─┐
└─┐ │ ├─┤│││├─┘
└─┘ ┴ ┴ ┴┴ ┴┴

Stamp brush stroke painter.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source image, directory or URL")
	destination = flag.String("out", pipeName, "Destination image or directory")
	presetFile  = flag.String("preset", "", "TOML preset file")
	shape       = flag.String("shape", string(stamp.Hard), "Brush shape (hard, soft, square, ring, star, spray)")
	template    = flag.String("template", "", "Custom brush template image, path or URL")
	radius      = flag.Float64("radius", 10, "Brush radius")
	spacing     = flag.Float64("spacing", 0.25, "Dab spacing as a fraction of the diameter")
	angleAware  = flag.Bool("angle", false, "Rotate dabs along the stroke direction")
	brushColor  = flag.String("color", "#000000", "Brush color")
	symmetry    = flag.String("symmetry", string(stamp.NoSymmetry), "Symmetry (none, vertical, horizontal, central, four)")
	compOp      = flag.String("op", "src_over", "Composite operation")
	blendMode   = flag.String("blend", "", "Blend mode")
	strokes     = flag.String("stroke", "", `Stroke points as "x,y x,y ...", strokes separated by ";"`)
	format      = flag.String("format", "", "Output format (png, jpg, bmp, gif, tif)")
	overwrite   = flag.String("overwrite", string(stamp.OverwriteSkip), "Existing outputs policy (skip, all, cancel)")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
	verbose     = flag.Bool("v", false, "Verbose logging")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		log.Fatalf(utils.DecorateText("Unable to create the logger: %v", utils.ErrorMessage), err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	stamp.SetLogger(logger)

	preset, err := buildPreset()
	if err != nil {
		log.Fatalf(
			utils.DecorateText("Invalid brush settings: %s", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}
	proc := &stamp.Processor{Preset: preset}
	if err := proc.Validate(); err != nil {
		log.Fatalf(
			utils.DecorateText("Invalid brush settings: %s", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	now := time.Now()
	if isDir(*source) {
		err = runBatch(ctx, proc)
	} else {
		err = runSingle(ctx, proc)
	}
	if err != nil {
		zap.L().Error("painting failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "%s%s\n",
			utils.DecorateText("\nError painting the image: ", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// buildPreset loads the preset file, if any, and applies the flags set on
// the command line over it.
func buildPreset() (*stamp.Preset, error) {
	p := stamp.DefaultPreset()
	if *presetFile != "" {
		var err error
		if p, err = stamp.LoadPreset(*presetFile); err != nil {
			return nil, err
		}
	}

	var err error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "shape":
			p.Shape = stamp.Shape(*shape)
		case "template":
			p.Template = *template
		case "radius":
			p.Radius = *radius
		case "spacing":
			p.Spacing = *spacing
		case "angle":
			p.AngleAware = *angleAware
		case "color":
			p.Color = *brushColor
		case "symmetry":
			p.Symmetry = stamp.Symmetry(*symmetry)
		case "op":
			p.Composite = *compOp
		case "blend":
			p.Blend = *blendMode
		case "format":
			p.Format = *format
		case "stroke":
			var s []stamp.Stroke
			if s, err = parseStrokes(*strokes); err == nil {
				p.Strokes = s
			}
		}
	})
	if err != nil {
		return nil, err
	}

	// A destination file picks the output format unless given explicitly.
	if *format == "" && *destination != pipeName && !isDir(*source) {
		if ext := filepath.Ext(*destination); ext != "" {
			p.Format = strings.TrimPrefix(ext, ".")
		}
	}
	if len(p.Strokes) == 0 {
		return nil, errors.New("no stroke to paint, use -stroke or a preset")
	}
	return p, p.Validate()
}

// parseStrokes parses strokes written as "x,y x,y ..." and separated by ";".
func parseStrokes(s string) ([]stamp.Stroke, error) {
	var res []stamp.Stroke
	for _, part := range strings.Split(s, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		var st stamp.Stroke
		for _, f := range fields {
			xy := strings.Split(f, ",")
			if len(xy) != 2 {
				return nil, fmt.Errorf("invalid stroke point %q", f)
			}
			x, err := strconv.ParseFloat(xy[0], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid stroke point %q: %w", f, err)
			}
			y, err := strconv.ParseFloat(xy[1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid stroke point %q: %w", f, err)
			}
			st.Points = append(st.Points, [2]float64{x, y})
		}
		res = append(res, st)
	}
	return res, nil
}

// runBatch paints every image of the source directory.
func runBatch(ctx context.Context, proc *stamp.Processor) error {
	if *destination == pipeName {
		return errors.New("a destination directory is required for batch processing")
	}
	op := &stamp.Ops{
		Src:       *source,
		Dst:       *destination,
		Workers:   *workers,
		Overwrite: stamp.Overwrite(*overwrite),
		OnResult:  printStatus,
	}
	_, err := proc.Execute(ctx, op)
	return err
}

// runSingle paints one image read from a file, an URL or stdin.
func runSingle(ctx context.Context, proc *stamp.Processor) error {
	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ STAMP", utils.StatusMessage),
		utils.DecorateText("is painting the image...", utils.DefaultMessage))
	spinner := utils.NewSpinner(spinnerText, time.Millisecond*100, true)

	src, closeSrc, err := openSource(*source)
	if err != nil {
		return err
	}
	defer closeSrc()

	dst, closeDst, err := openDestination(*destination)
	if err != nil {
		return err
	}

	// Restore the cursor visibility and drop the partial output on CTRL-C.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			spinner.RestoreCursor()
			if *destination != pipeName {
				os.Remove(*destination)
			}
			os.Exit(1)
		case <-done:
		}
	}()

	spinner.Start()
	err = proc.Process(src, dst)
	if cerr := closeDst(); err == nil {
		err = cerr
	}
	if err != nil {
		spinner.StopMsg = fmt.Sprintf("%s %s\n",
			utils.DecorateText("⚡ STAMP", utils.StatusMessage),
			utils.DecorateText("painting failed ✘", utils.ErrorMessage))
		spinner.Stop()
		if *destination != pipeName {
			os.Remove(*destination)
		}
		return err
	}
	spinner.StopMsg = fmt.Sprintf("%s %s\n",
		utils.DecorateText("⚡ STAMP", utils.StatusMessage),
		utils.DecorateText("the image has been painted ✔", utils.SuccessMessage))
	spinner.Stop()

	printStatus(stamp.Result{Path: *source, Out: *destination})
	return nil
}

// openSource converts the source path into a readable stream.
func openSource(in string) (io.Reader, func(), error) {
	if utils.IsValidUrl(in) {
		r, err := utils.DownloadImage(in)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load the source image: %w", err)
		}
		return r, func() {}, nil
	}
	if in == pipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(in)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// openDestination converts the destination path into a writable stream.
func openDestination(out string) (io.Writer, func() error, error) {
	if out == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
	}
	return f, f.Close, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// printStatus displays the outcome of one painted image.
func printStatus(res stamp.Result) {
	switch {
	case res.Err != nil:
		fmt.Fprintf(os.Stderr, "%s %s\n\tReason: %s\n",
			utils.DecorateText("Error painting the image:", utils.ErrorMessage),
			utils.DecorateText(filepath.Base(res.Path), utils.DefaultMessage),
			utils.DecorateText(res.Err.Error(), utils.DefaultMessage),
		)
	case res.Skipped:
		fmt.Fprintf(os.Stderr, "%s %s%s\n",
			utils.DecorateText("Skipped, the output already exists:", utils.StatusMessage),
			utils.DecorateText(filepath.Base(res.Out), utils.DefaultMessage),
			utils.DefaultColor,
		)
	case res.Out != pipeName:
		fmt.Fprintf(os.Stderr, "The image has been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(res.Out), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}
