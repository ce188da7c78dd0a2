package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/xdfexport/xdfexport-go/pkg/firmware"
	"github.com/xdfexport/xdfexport-go/pkg/scaling"
	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// Resolver fills in the resolved fields of catalog elements.
type Resolver struct {
	workers int
	cache   *scaling.Cache
	logger  *slog.Logger
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		workers: 1,
		cache:   scaling.NewCache(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type job struct {
	el    *xdf.Element
	index int
}

// Resolve decodes every element of cat from buf in place and sets cat.Source.
//
// Per-element failures are recorded on the element and in the report; the only
// error returned is ctx.Err() when the context is cancelled.
func (r *Resolver) Resolve(ctx context.Context, cat *xdf.Catalog, buf *firmware.Buffer) (*Report, error) {
	var jobs []job
	for _, seq := range [][]*xdf.Element{cat.Constants, cat.Flags, cat.Tables} {
		for i, el := range seq {
			jobs = append(jobs, job{el: el, index: i})
		}
	}

	results := make([][]Outcome, len(jobs))

	if r.workers <= 1 {
		for i, j := range jobs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = r.element(j, buf)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workers)
		for i, j := range jobs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = r.element(j, buf)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	report := &Report{}
	for i, j := range jobs {
		if j.el.Status == xdf.StatusResolved {
			report.Resolved++
		} else {
			report.Unresolved++
		}
		report.Outcomes = append(report.Outcomes, results[i]...)
	}
	cat.Source = buf.Source()
	return report, nil
}

// element resolves one element and returns its failures, if any.
func (r *Resolver) element(j job, buf *firmware.Buffer) []Outcome {
	e := j.el
	e.Reset()

	var err error
	switch e.Kind {
	case xdf.KindConstant:
		err = r.constant(e, buf)
	case xdf.KindFlag:
		err = flag(e, buf)
	case xdf.KindTable:
		err = r.table(e, buf)
	default:
		err = fmt.Errorf("unknown element kind %d", e.Kind)
	}

	if err != nil {
		e.MarkUnresolved(err)
		r.logger.Debug("element unresolved", "element", e.Label(), "error", err)
		return []Outcome{r.outcome(j, "", err)}
	}
	e.Status = xdf.StatusResolved

	var out []Outcome
	if e.Kind == xdf.KindTable {
		for _, a := range []struct {
			axis *xdf.Axis
			part string
		}{{e.XAxis, PartXAxis}, {e.YAxis, PartYAxis}} {
			if a.axis == nil || !a.axis.Bound {
				continue
			}
			if err := r.axis(a.axis, buf); err != nil {
				a.axis.Status = xdf.StatusUnresolved
				a.axis.Reason = err.Error()
				a.axis.Values = nil
				r.logger.Debug("axis unresolved", "element", e.Label(), "axis", a.part, "error", err)
				out = append(out, r.outcome(j, a.part, err))
				continue
			}
			a.axis.Status = xdf.StatusResolved
		}
	}
	return out
}

func (r *Resolver) outcome(j job, part string, err error) Outcome {
	return Outcome{
		Kind:    j.el.Kind,
		Index:   j.index,
		Title:   j.el.Title,
		Address: j.el.Address,
		Part:    part,
		Err:     err,
	}
}

func (r *Resolver) constant(e *xdf.Element, buf *firmware.Buffer) error {
	prog, err := r.cache.Compile(e.Scaling.Expression)
	if err != nil {
		return err
	}
	raw, err := buf.Read(e.Address, e.DataType)
	if err != nil {
		return err
	}
	v, err := prog.Eval(raw.Value())
	if err != nil {
		return err
	}
	e.Value = v
	return nil
}

func flag(e *xdf.Element, buf *firmware.Buffer) error {
	set, err := buf.ReadBit(e.Address, e.BitPosition)
	if err != nil {
		return err
	}
	e.Set = set
	return nil
}

func (r *Resolver) table(e *xdf.Element, buf *firmware.Buffer) error {
	prog, err := r.cache.Compile(e.Scaling.Expression)
	if err != nil {
		return err
	}
	if e.Rows <= 0 || e.Cols <= 0 {
		return fmt.Errorf("table has %dx%d cells", e.Rows, e.Cols)
	}
	// Every cell takes at least one byte.
	cells := uint64(e.Rows) * uint64(e.Cols)
	if e.Rows > math.MaxInt32 || e.Cols > math.MaxInt32 || cells > uint64(buf.Len()) {
		w := math.MaxInt
		if cells <= math.MaxInt32 {
			if span := cells * uint64(max(e.DataType.Width(), 1)); span <= math.MaxInt32 {
				w = int(span)
			}
		}
		return &firmware.OutOfBoundsError{Address: e.Address, Width: w, Length: buf.Len()}
	}
	values, err := readSeries(buf, prog, e.Address, e.DataType, int(cells))
	if err != nil {
		return err
	}
	grid := make([][]float64, e.Rows)
	for row := range grid {
		grid[row] = values[row*e.Cols : (row+1)*e.Cols : (row+1)*e.Cols]
	}
	e.Grid = grid
	return nil
}

func (r *Resolver) axis(a *xdf.Axis, buf *firmware.Buffer) error {
	prog, err := r.cache.Compile(a.Scaling.Expression)
	if err != nil {
		return err
	}
	values, err := readSeries(buf, prog, a.Address, a.DataType, a.Count)
	if err != nil {
		return err
	}
	a.Values = values
	return nil
}

// readSeries decodes n consecutive scaled values starting at addr.
func readSeries(buf *firmware.Buffer, prog *scaling.Program, addr uint32, dt xdf.DataType, n int) ([]float64, error) {
	if n <= 0 {
		return nil, nil
	}
	// Validates the data type and the first cell.
	if _, err := buf.Read(addr, dt); err != nil {
		return nil, err
	}
	width := dt.Width()
	span := uint64(n) * uint64(width)
	if uint64(addr)+span > uint64(buf.Len()) {
		w := math.MaxInt
		if span <= math.MaxInt {
			w = int(span)
		}
		return nil, &firmware.OutOfBoundsError{Address: addr, Width: w, Length: buf.Len()}
	}

	values := make([]float64, n)
	for i := range values {
		raw, err := buf.Read(addr+uint32(i*width), dt)
		if err != nil {
			return nil, err
		}
		v, err := prog.Eval(raw.Value())
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
