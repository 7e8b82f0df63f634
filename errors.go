package letchain

import "errors"

var (
	ErrChainTooShort    = errors.New("chain needs at least two tasks")
	ErrInvalidPeriod    = errors.New("task period must be positive")
	ErrInvalidOffset    = errors.New("task offset must not be negative")
	ErrGranularity      = errors.New("task period is not divisible by the offset granularity")
	ErrNotMaxHarmonic   = errors.New("chain is not max-harmonic")
	ErrNot2kMaxHarmonic = errors.New("chain is not (2,k)-max-harmonic")

	// ErrInconsistent means two analyses that must agree did not. It always points at a bug.
	ErrInconsistent = errors.New("inconsistent analysis results")

	ErrNoPropagation = errors.New("no data propagates to the end of the chain")
	ErrNoPeriodSet   = errors.New("no period set satisfies the generator constraints")
)
