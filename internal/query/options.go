package query

import (
	"io"
	"log/slog"
	"time"

	"github.com/roach88/querychain/internal/ir"
)

// Observer is notified around every replay performed by Deserialize and
// FromDocument.
type Observer interface {
	ReplayStarted(ref ir.ResourceRef)
	ReplayFinished(ref ir.ResourceRef, steps int, err error, elapsed time.Duration)
}

// Option configures replay.
type Option func(*options)

type options struct {
	observer Observer
	logger   *slog.Logger
}

// WithObserver reports replay outcomes to o.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// WithLogger logs replay progress at debug level to l.
func WithLogger(l *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{
		observer: nopObserver{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

type nopObserver struct{}

func (nopObserver) ReplayStarted(ir.ResourceRef) {}
func (nopObserver) ReplayFinished(ir.ResourceRef, int, error, time.Duration) {}
