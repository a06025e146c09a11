package slab

import "go.uber.org/zap"

// Option configures the containers in this package.
type Option func(*options)

type options struct {
	log *zap.Logger
}

var nopLogger = zap.NewNop()

// WithLogger sets the logger used for debug events such as storage growth,
// table overwrites and state switches. Containers log to zap.NewNop() by
// default, and a nil log keeps that default.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: nopLogger}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
