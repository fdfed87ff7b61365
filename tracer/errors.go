package tracer

import "errors"

var (
	ErrInvalidEmitterSet = errors.New("tracer: no emitters with a non-zero area")
	ErrSamplingStalled   = errors.New("tracer: sample attempt budget exhausted")
)
