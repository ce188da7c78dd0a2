package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// BatchRequest exports one definition against several firmware images.
type BatchRequest struct {
	Definition string
	Firmware   []string

	// OutputDir receives <image-stem>.<ext> for every image. Empty writes next
	// to each image.
	OutputDir string

	Formats    []string
	Categories []string
}

// BatchItem is the outcome for one firmware image.
type BatchItem struct {
	Firmware string
	Result   *Result
	Err      error
}

// BatchResult lists the items in request order.
type BatchResult struct {
	Items []BatchItem
}

// Files returns every written file across all items.
func (b *BatchResult) Files() []string {
	var files []string
	for _, it := range b.Items {
		if it.Result != nil {
			files = append(files, it.Result.Files...)
		}
	}
	return files
}

// Err joins image failures and format failures.
func (b *BatchResult) Err() error {
	var errs []error
	for _, it := range b.Items {
		switch {
		case it.Err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", it.Firmware, it.Err))
		case it.Result != nil:
			if err := it.Result.Err(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", it.Firmware, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Batch parses the definition once and exports it against every image. Each
// image gets its own catalog copy; up to WithWorkers images run at once. A
// failing image does not stop the others.
func Batch(ctx context.Context, req BatchRequest, opts ...Option) (*BatchResult, error) {
	o := newOptions(opts)
	if len(req.Formats) == 0 {
		return nil, ErrNoFormats
	}

	parseRun := newRun(o, req.Definition, "")
	parseRun.begin()
	cat, err := parseRun.parse(req.Definition, req.Categories)
	if err != nil {
		return nil, parseRun.fail(err)
	}

	// Resolution parallelism moves to the image level.
	imageOpts := o
	imageOpts.workers = 1

	out := &BatchResult{Items: make([]BatchItem, len(req.Firmware))}
	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, fw := range req.Firmware {
		out.Items[i].Firmware = fw
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out.Items[i].Err = err
				return nil
			}
			base := DefaultOutputBase(fw)
			if req.OutputDir != "" {
				base = filepath.Join(req.OutputDir, stem(fw))
			}
			r := newRun(imageOpts, req.Definition, fw)
			r.begin()
			res, err := r.finish(ctx, cat.Clone(), fw, base, req.Formats)
			out.Items[i].Result, out.Items[i].Err = res, err
			return nil
		})
	}
	_ = g.Wait()
	return out, ctx.Err()
}
