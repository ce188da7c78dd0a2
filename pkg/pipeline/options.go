package pipeline

import (
	"log/slog"
	"sync"

	"github.com/xdfexport/xdfexport-go/pkg/runlog"
	"github.com/xdfexport/xdfexport-go/pkg/scaling"
)

// Progress is a notification about a running export.
type Progress struct {
	RunID   string
	Stage   runlog.Stage
	Message string

	// Counts is set on the counts notification.
	Counts *Counts

	// Format is set while a format is being written.
	Format string
}

// ProgressFunc receives progress notifications. Calls are serialized.
type ProgressFunc func(Progress)

type options struct {
	progress ProgressFunc
	events   runlog.Logger
	logger   *slog.Logger
	workers  int
	cache    *scaling.Cache

	// mu serializes notifications when batch runs overlap.
	mu *sync.Mutex
}

func defaultOptions() options {
	return options{
		events:  runlog.NoopLogger{},
		logger:  slog.New(slog.DiscardHandler),
		workers: 1,
		cache:   scaling.NewCache(),
		mu:      &sync.Mutex{},
	}
}

func newOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a run.
type Option func(*options)

// WithProgress sets a callback for progress notifications.
//
// Example:
//
//	pipeline.Run(ctx, req, pipeline.WithProgress(func(p pipeline.Progress) {
//	    fmt.Println(p.Message)
//	}))
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithEventLogger records every run step as a runlog.Event.
func WithEventLogger(l runlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.events = l
		}
	}
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWorkers sets the resolver parallelism and, for Batch, the number of
// images processed at once.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithCache shares a compiled formula cache between runs.
func WithCache(c *scaling.Cache) Option {
	return func(o *options) {
		if c != nil {
			o.cache = c
		}
	}
}
