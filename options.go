package mxl

import (
	"github.com/chronos-tachyon/assert"
)

// Option represents a configuration option for Inflate or Unzip.  Decode
// semantics have no knobs; options only attach observers.
type Option func(*options)

type options struct {
	tracers []Tracer
}

func (o *options) apply(opts []Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithTracers specifies the list of Tracer instances which will receive
// Events as decompression or extraction proceeds.  Completely replaces any
// previous list.
func WithTracers(tracers ...Tracer) Option {
	for _, tr := range tracers {
		assert.NotNil(&tr)
	}
	if len(tracers) == 0 {
		tracers = nil
	} else {
		tmp := make([]Tracer, len(tracers))
		copy(tmp, tracers)
		tracers = tmp
	}
	return func(o *options) { o.tracers = tracers }
}
