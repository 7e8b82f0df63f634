package letchain

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// Task is a periodic task. Identity (name, timing parameters) is fixed after creation;
// the offset is the only field the optimizers write.
type Task struct {
	Name     string
	Wcet     Ttick
	Period   Ttick
	Deadline Ttick
	Offset   Ttick
	Priority int
}

func NewTask(name string, wcet, period, deadline, offset Ttick) *Task {
	return &Task{
		Name:     name,
		Wcet:     wcet,
		Period:   period,
		Deadline: deadline,
		Offset:   offset,
	}
}

func (t *Task) Utilization() float64 {
	return float64(t.Wcet) / float64(t.Period)
}

func (t *Task) String() string {
	return "Task: " + t.Name +
		", T=" + t.Period.String() +
		", C=" + t.Wcet.String() +
		", D=" + t.Deadline.String() +
		", O=" + t.Offset.String() +
		", P=" + strconv.Itoa(t.Priority)
}

func (t *Task) Clone() *Task {
	c := *t
	return &c
}

// Chain is a cause-effect chain: task k writes, task k+1 reads.
type Chain []*Task

func (c Chain) Validate() error {
	if len(c) < 2 {
		return fmt.Errorf("%d tasks: %w", len(c), ErrChainTooShort)
	}
	for i, t := range c {
		if t.Period <= 0 {
			return fmt.Errorf("task %d (%s): %w", i, t.Name, ErrInvalidPeriod)
		}
		if t.Offset < 0 {
			return fmt.Errorf("task %d (%s): %w", i, t.Name, ErrInvalidOffset)
		}
	}
	return nil
}

// Clone deep copies the tasks so offsets can be changed without touching c.
func (c Chain) Clone() Chain {
	cc := make(Chain, len(c))
	for i, t := range c {
		cc[i] = t.Clone()
	}
	return cc
}

func (c Chain) ResetOffsets() {
	for _, t := range c {
		t.Offset = 0
	}
}

func (c Chain) Offsets() []Ttick {
	offsets := make([]Ttick, len(c))
	for i, t := range c {
		offsets[i] = t.Offset
	}
	return offsets
}

func (c Chain) SetOffsets(offsets []Ttick) {
	for i, o := range offsets {
		c[i].Offset = o
	}
}

func (c Chain) MaxOffset() Ttick {
	maxOffset := Ttick(0)
	for _, t := range c {
		if t.Offset > maxOffset {
			maxOffset = t.Offset
		}
	}
	return maxOffset
}

func (c Chain) PeriodSum() Ttick {
	sum := Ttick(0)
	for _, t := range c {
		sum += t.Period
	}
	return sum
}

// String renders the chain as "period/offset -> period/offset ...".
func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, t := range c {
		parts[i] = t.Period.String() + "/" + t.Offset.String()
	}
	return strings.Join(parts, " -> ")
}

func TasksetUtilization(tasks Chain) float64 {
	utilization := 0.0
	for _, t := range tasks {
		utilization += t.Utilization()
	}
	return utilization
}

// distinctPeriods returns the distinct periods in ascending order.
func distinctPeriods(tasks Chain) []Ttick {
	periods := make([]Ttick, 0, len(tasks))
	for _, t := range tasks {
		periods = append(periods, t.Period)
	}
	slices.Sort(periods)
	return slices.Compact(periods)
}

func Hyperperiod(tasks Chain) Ttick {
	hp := Ttick(1)
	for _, p := range distinctPeriods(tasks) {
		hp = lcm(hp, p)
	}
	return hp
}

func MaxPeriod(tasks Chain) Ttick {
	maxPeriod := Ttick(0)
	for _, t := range tasks {
		if t.Period > maxPeriod {
			maxPeriod = t.Period
		}
	}
	return maxPeriod
}

// SecondMaxPeriod returns the second largest distinct period, or 0 if all periods are equal.
func SecondMaxPeriod(tasks Chain) Ttick {
	max1Period := Ttick(0)
	max2Period := Ttick(0)

	for _, t := range tasks {
		if t.Period > max1Period {
			max2Period = max1Period
			max1Period = t.Period
		} else if t.Period < max1Period && t.Period > max2Period {
			max2Period = t.Period
		}
	}
	return max2Period
}

// IsMaxHarmonic reports whether every period divides the largest one.
func IsMaxHarmonic(tasks Chain) bool {
	maxPeriod := MaxPeriod(tasks)
	if maxPeriod == 0 {
		return false
	}
	for _, t := range tasks {
		if maxPeriod%t.Period != 0 {
			return false
		}
	}
	return true
}

// Is2kMaxHarmonic reports whether the periods are (2,k)-max-harmonic: the hyperperiod is
// twice the largest period, the second largest period divides the hyperperiod, and every
// other period divides both of the two largest.
func Is2kMaxHarmonic(tasks Chain) bool {
	periods := distinctPeriods(tasks)
	if len(periods) < 2 || periods[0] <= 0 {
		return false
	}

	hp := Hyperperiod(tasks)
	max1 := periods[len(periods)-1]
	max2 := periods[len(periods)-2]

	if max1*2 != hp {
		return false
	}
	if hp%max2 != 0 {
		return false
	}
	for _, p := range periods[:len(periods)-2] {
		if max1%p != 0 || max2%p != 0 {
			return false
		}
	}
	return true
}
