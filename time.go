package letchain

import (
	"fmt"
	"math"
)

// Ttick is a point in time or a duration, counted in units of TIME_BASE microseconds.
// All analysis arithmetic is done on Ttick; floats only show up in reporting.
type Ttick int64

const (
	TIME_BASE = 1 // microseconds per tick
)

func (t Ttick) String() string {
	return fmt.Sprintf("%v ms", float64(t)/(1000/TIME_BASE))
}

// Useconds converts n microseconds to ticks. It panics if n is not a whole number of ticks.
func Useconds(n float64) Ttick {
	i, frac := math.Modf(n / TIME_BASE)
	if frac != 0 {
		panic(fmt.Sprintf("letchain: %v us is not a multiple of the time base", n))
	}
	return Ttick(i)
}

func Mseconds(n float64) Ttick {
	return Useconds(1000 * n)
}

func Seconds(n float64) Ttick {
	return Mseconds(1000 * n)
}
