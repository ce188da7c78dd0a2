package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xdfexport/xdfexport-go/pkg/export"
	"github.com/xdfexport/xdfexport-go/pkg/firmware"
	"github.com/xdfexport/xdfexport-go/pkg/resolve"
	"github.com/xdfexport/xdfexport-go/pkg/runlog"
	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// ErrNoFormats is returned when a request names no output format.
var ErrNoFormats = errors.New("no output formats requested")

// Run executes one export. A non-nil error means the run could not reach the
// format stage (bad definition, bad firmware, cancellation). Per-format
// failures are reported through Result.FormatErrors instead.
func Run(ctx context.Context, req Request, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	r := newRun(o, req.Definition, req.Firmware)
	r.begin()

	if len(req.Formats) == 0 {
		return nil, r.fail(ErrNoFormats)
	}

	cat, err := r.parse(req.Definition, req.Categories)
	if err != nil {
		return nil, r.fail(err)
	}
	return r.finish(ctx, cat, req.Firmware, req.OutputBase, req.Formats)
}

// DefaultOutputBase returns <dir>/<stem>_export for a firmware path.
func DefaultOutputBase(firmwarePath string) string {
	return filepath.Join(filepath.Dir(firmwarePath), stem(firmwarePath)+"_export")
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// run carries the state of one export.
type run struct {
	opts       options
	id         string
	definition string
	firmware   string
	started    time.Time
}

func newRun(o options, definition, fw string) *run {
	return &run{
		opts:       o,
		id:         uuid.NewString(),
		definition: definition,
		firmware:   fw,
		started:    time.Now(),
	}
}

// emit sends one notification to the progress callback and the event log.
func (r *run) emit(stage runlog.Stage, level runlog.Level, msg string, fill func(*runlog.Event, *Progress)) {
	ev := runlog.Event{
		Timestamp:  time.Now(),
		RunID:      r.id,
		Stage:      stage,
		Level:      level,
		Message:    msg,
		Definition: r.definition,
		Firmware:   r.firmware,
	}
	p := Progress{RunID: r.id, Stage: stage, Message: msg}
	if fill != nil {
		fill(&ev, &p)
	}

	r.opts.mu.Lock()
	defer r.opts.mu.Unlock()
	r.opts.events.Log(ev)
	if r.opts.progress != nil {
		r.opts.progress(p)
	}
}

func (r *run) begin() {
	r.emit(runlog.StageStart, runlog.LevelInfo, "Starting export...", nil)
}

// fail records a fatal error and returns it.
func (r *run) fail(err error) error {
	r.opts.logger.Error("export failed", "run", r.id, "error", err)
	r.emit(runlog.StageDone, runlog.LevelError, "Export failed: "+err.Error(), func(ev *runlog.Event, _ *Progress) {
		ev.Result = &runlog.ResultEvent{Duration: time.Since(r.started), Error: err.Error()}
	})
	return err
}

func (r *run) parse(path string, categories []string) (*xdf.Catalog, error) {
	r.emit(runlog.StageParse, runlog.LevelInfo, "Parsing definition...", nil)
	cat, err := xdf.Load(path)
	if err != nil {
		return nil, err
	}
	if len(categories) > 0 {
		cat = cat.Filter(categories)
	}
	return cat, nil
}

// Resolve parses the definition and resolves it against the firmware without
// writing any output. Result carries the counts and the report; Files is empty.
func Resolve(ctx context.Context, req Request, opts ...Option) (*xdf.Catalog, *Result, error) {
	o := newOptions(opts)
	r := newRun(o, req.Definition, req.Firmware)
	r.begin()

	cat, err := r.parse(req.Definition, req.Categories)
	if err != nil {
		return nil, nil, r.fail(err)
	}
	res, err := r.resolve(ctx, cat, req.Firmware)
	if err != nil {
		return nil, nil, err
	}
	res.Duration = time.Since(r.started)
	r.emit(runlog.StageDone, runlog.LevelInfo, "Resolve complete", func(ev *runlog.Event, _ *Progress) {
		ev.Result = &runlog.ResultEvent{
			Success:    true,
			Resolved:   res.Report.Resolved,
			Unresolved: res.Report.Unresolved,
			Duration:   res.Duration,
		}
	})
	return cat, res, nil
}

// resolve loads the firmware and resolves cat against it.
func (r *run) resolve(ctx context.Context, cat *xdf.Catalog, fwPath string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, r.fail(err)
	}

	r.emit(runlog.StageLoad, runlog.LevelInfo, "Loading firmware...", nil)
	buf, err := firmware.Load(fwPath)
	if err != nil {
		return nil, r.fail(err)
	}

	res := &Result{RunID: r.id}
	res.Counts.Constants, res.Counts.Flags, res.Counts.Tables = cat.Counts()
	counts := res.Counts
	r.emit(runlog.StageCounts, runlog.LevelInfo, "Found: "+counts.String(), func(ev *runlog.Event, p *Progress) {
		ev.Counts = &runlog.CountsEvent{Constants: counts.Constants, Flags: counts.Flags, Tables: counts.Tables}
		p.Counts = &counts
	})

	r.emit(runlog.StageResolve, runlog.LevelInfo, "Resolving values...", nil)
	resolver := resolve.New(
		resolve.WithWorkers(r.opts.workers),
		resolve.WithCache(r.opts.cache),
		resolve.WithLogger(r.opts.logger),
	)
	report, err := resolver.Resolve(ctx, cat, buf)
	if err != nil {
		return nil, r.fail(err)
	}
	res.Report = report
	for _, out := range report.Outcomes {
		r.emit(runlog.StageResolve, runlog.LevelWarn, "Unresolved: "+out.String(), func(ev *runlog.Event, _ *Progress) {
			ev.Element = &runlog.ElementEvent{
				Kind:    out.Kind.String(),
				Title:   out.Title,
				Address: out.Address,
				Part:    out.Part,
				Reason:  out.Err.Error(),
			}
		})
	}

	return res, nil
}

// finish resolves cat against the firmware and writes every format.
func (r *run) finish(ctx context.Context, cat *xdf.Catalog, fwPath, base string, formats []string) (*Result, error) {
	res, err := r.resolve(ctx, cat, fwPath)
	if err != nil {
		return nil, err
	}
	report := res.Report

	if base == "" {
		base = DefaultOutputBase(fwPath)
	}
	for _, id := range formats {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(r.started)
			return res, r.fail(err)
		}
		path, n, err := r.writeFormat(id, base, cat)
		if err != nil {
			fe := &FormatError{Format: id, Path: path, Err: err}
			res.FormatErrors = append(res.FormatErrors, fe)
			r.opts.logger.Warn("format failed", "run", r.id, "format", id, "error", err)
			r.emit(runlog.StageFormat, runlog.LevelWarn, fe.Error(), func(ev *runlog.Event, p *Progress) {
				ev.Format = &runlog.FormatEvent{Format: id, Path: path, Error: err.Error()}
				p.Format = id
			})
			continue
		}
		res.Files = append(res.Files, path)
		r.emit(runlog.StageFormat, runlog.LevelInfo, "Wrote "+path, func(ev *runlog.Event, p *Progress) {
			ev.Format = &runlog.FormatEvent{Format: id, Path: path, Bytes: n}
			p.Format = id
		})
	}

	res.Duration = time.Since(r.started)
	level, msg := runlog.LevelInfo, fmt.Sprintf("Export complete: %d file(s)", len(res.Files))
	if !res.OK() {
		level, msg = runlog.LevelError, fmt.Sprintf("Export finished with %d failed format(s)", len(res.FormatErrors))
	}
	r.emit(runlog.StageDone, level, msg, func(ev *runlog.Event, _ *Progress) {
		ev.Result = &runlog.ResultEvent{
			Success:    res.OK(),
			Files:      res.Files,
			Resolved:   report.Resolved,
			Unresolved: report.Unresolved,
			Duration:   res.Duration,
		}
		if err := res.Err(); err != nil {
			ev.Result.Error = err.Error()
		}
	})
	return res, nil
}

// writeFormat renders one format to <path>.tmp and renames it into place.
func (r *run) writeFormat(id, base string, cat *xdf.Catalog) (string, int64, error) {
	f, err := export.Lookup(id)
	if err != nil {
		return "", 0, err
	}
	path := export.OutputPath(base, f.Extension())
	r.emit(runlog.StageFormat, runlog.LevelInfo, fmt.Sprintf("Exporting to %s format...", strings.ToUpper(id)), func(ev *runlog.Event, p *Progress) {
		ev.Format = &runlog.FormatEvent{Format: id, Path: path}
		p.Format = id
	})

	n, err := writeAtomic(path, func(w *bufio.Writer) error {
		return f.Format(w, cat)
	})
	return path, n, err
}

// writeAtomic writes through a temporary sibling file so path either holds the
// complete output or is left untouched.
func writeAtomic(path string, write func(*bufio.Writer) error) (int64, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	w := bufio.NewWriter(file)
	err = write(w)
	if err == nil {
		err = w.Flush()
	}
	var size int64
	if err == nil {
		var info os.FileInfo
		if info, err = file.Stat(); err == nil {
			size = info.Size()
		}
	}
	if cerr := file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output file: %w", cerr)
	}
	if err == nil {
		if err = os.Rename(tmp, path); err != nil {
			err = fmt.Errorf("failed to rename output file: %w", err)
		}
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	return size, nil
}
