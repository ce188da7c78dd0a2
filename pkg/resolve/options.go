package resolve

import (
	"log/slog"

	"github.com/xdfexport/xdfexport-go/pkg/scaling"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithWorkers resolves up to n elements concurrently. n <= 1 resolves sequentially.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		r.workers = n
	}
}

// WithCache shares a compiled formula cache across resolvers.
func WithCache(c *scaling.Cache) Option {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithLogger sets the logger used for per-element failures (Debug level).
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}
