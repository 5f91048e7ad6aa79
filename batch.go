package stamp

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/esimov/stamp/utils"
	"go.uber.org/zap"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// Overwrite is the policy applied when an output file already exists.
type Overwrite string

// Supported overwrite policies.
const (
	OverwriteSkip   Overwrite = "skip"   // keep the existing file
	OverwriteAll    Overwrite = "all"    // replace every existing file
	OverwriteCancel Overwrite = "cancel" // stop the batch
)

var (
	// ErrCancelled is returned when a batch stops on an existing output file.
	ErrCancelled = errors.New("batch processing cancelled")
	// ErrDuplicateOutput is reported for a source whose output name is
	// already produced by another source of the same batch.
	ErrDuplicateOutput = errors.New("output produced by another source")
)

// Ops holds the options of a batch run.
type Ops struct {
	Src, Dst  string
	Workers   int
	Overwrite Overwrite
	// OnResult, when set, is called from the collecting goroutine for every processed file.
	OnResult func(Result)
}

// Result holds the outcome of processing one file.
type Result struct {
	Path    string // source file
	Out     string // destination file
	Skipped bool
	Err     error
}

// target pairs a source file with its reserved output path.
type target struct {
	src, dst string
}

// renderJob is a unit of work handed to the render goroutine.
type renderJob struct {
	img  *image.NRGBA
	done chan error
}

// Execute paints the preset onto every supported image of the op.Src directory
// and saves the results into op.Dst. Files are decoded and encoded concurrently,
// but every render runs on a single goroutine. The returned results are sorted
// by source path.
//
// Output names are reserved in walk order: when two sources map onto the
// same output, the first one in lexical order wins and the other one is
// reported with ErrDuplicateOutput. Once the batch is cancelled no further
// output is written, but a file whose encoding has already started is
// completed.
func (p *Processor) Execute(ctx context.Context, op *Ops) ([]Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	fi, err := os.Stat(op.Src)
	if err != nil {
		return nil, fmt.Errorf("unable to read the source directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", op.Src)
	}
	if err := os.MkdirAll(op.Dst, 0755); err != nil {
		return nil, fmt.Errorf("unable to create the destination directory: %w", err)
	}

	workers := op.Workers
	// Limit the concurrently running workers to maxWorkers.
	if workers <= 0 || workers > maxWorkers {
		workers = utils.Min(runtime.NumCPU(), maxWorkers)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan renderJob)
	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		p.renderLoop(ctx, jobs)
	}()

	paths, errc := walkDir(ctx, op.Src, op.Dst, supportedExtensions)

	var (
		wg      sync.WaitGroup
		ch      = make(chan Result)
		targets = make(chan target)
	)
	wg.Add(workers + 1)
	go func() {
		defer wg.Done()
		op.reserve(ctx, p.Preset.Format, paths, targets, ch)
	}()
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			op.consumer(ctx, p, jobs, targets, ch)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	var (
		results   []Result
		cancelled bool
	)
	for res := range ch {
		if errors.Is(res.Err, ErrCancelled) {
			cancelled = true
			cancel()
		}
		switch {
		case res.Err != nil:
			Logger().Warn("file failed", zap.String("path", res.Path), zap.Error(res.Err))
		case res.Skipped:
			Logger().Warn("file skipped", zap.String("path", res.Path), zap.String("out", res.Out))
		default:
			Logger().Info("file processed", zap.String("path", res.Path), zap.String("out", res.Out))
		}
		if op.OnResult != nil {
			op.OnResult(res)
		}
		results = append(results, res)
	}
	close(jobs)
	<-renderDone

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	if cancelled {
		return results, ErrCancelled
	}
	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return results, err
	}
	return results, ctx.Err()
}

// renderLoop runs the queued renders one after the other, so that brush
// state is only ever touched from this goroutine.
func (p *Processor) renderLoop(ctx context.Context, jobs <-chan renderJob) {
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			job.done <- err
			continue
		}
		_, err := p.Render(job.img)
		job.done <- err
	}
}

// reserve maps every source path onto its output path, in walk order,
// and drops the sources whose output is already claimed.
func (op *Ops) reserve(
	ctx context.Context,
	format string,
	paths <-chan string,
	targets chan<- target,
	res chan<- Result,
) {
	defer close(targets)

	claimed := make(map[string]string)
	for src := range paths {
		dst := filepath.Join(op.Dst, outputName(src, format))
		if first, ok := claimed[dst]; ok {
			r := Result{Path: src, Out: dst, Err: fmt.Errorf("%w: %s", ErrDuplicateOutput, first)}
			select {
			case <-ctx.Done():
				return
			case res <- r:
			}
			continue
		}
		claimed[dst] = src

		select {
		case <-ctx.Done():
			return
		case targets <- target{src: src, dst: dst}:
		}
	}
}

// consumer reads the reserved targets, queues the render of each image
// and saves the result.
func (op *Ops) consumer(
	ctx context.Context,
	p *Processor,
	jobs chan<- renderJob,
	targets <-chan target,
	res chan<- Result,
) {
	for t := range targets {
		r := op.process(ctx, p, jobs, t.src, t.dst)

		select {
		case <-ctx.Done():
			return
		case res <- r:
		}
	}
}

// process decodes, renders and saves one file.
func (op *Ops) process(ctx context.Context, p *Processor, jobs chan<- renderJob, in, out string) Result {
	r := Result{Path: in, Out: out}

	if _, err := os.Stat(out); err == nil {
		switch op.Overwrite {
		case OverwriteAll:
		case OverwriteCancel:
			r.Err = fmt.Errorf("%w: %s already exists", ErrCancelled, out)
			return r
		default:
			r.Skipped = true
			return r
		}
	}

	img, err := readImage(in)
	if err != nil {
		r.Err = err
		return r
	}

	job := renderJob{img: img, done: make(chan error, 1)}
	select {
	case <-ctx.Done():
		r.Err = ctx.Err()
		return r
	case jobs <- job:
	}
	if err := <-job.done; err != nil {
		r.Err = err
		return r
	}
	if err := ctx.Err(); err != nil {
		r.Err = err
		return r
	}

	r.Err = writeImage(out, img, p.Preset.Format)
	return r
}

func readImage(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open the source file: %w", err)
	}
	defer f.Close()

	return decodeImg(f)
}

func writeImage(path string, img image.Image, format string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("unable to create the destination file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			// remove the partially written image file in case of an error
			os.Remove(path)
		}
	}()

	return encodeImg(f, img, format)
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each supported file to a new channel.
// The skip directory, usually the destination, is not visited.
// It finishes when the context is cancelled.
func walkDir(ctx context.Context, src, skip string, srcExts []string) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if f.IsDir() && path != src && sameDir(path, skip) {
				return filepath.SkipDir
			}
			if !f.Mode().IsRegular() {
				return nil
			}
			if !utils.Contains(srcExts, strings.ToLower(filepath.Ext(f.Name()))) {
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
