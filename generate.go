package letchain

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat/distmv"
)

const (
	GENERATOR_MAX_ATTEMPTS = 100000
)

// Periods in ms from "Real world automotive benchmarks for free" (WATERS 2015).
var AUTOMOTIVE_PERIODS = []int{1, 2, 5, 10, 20, 50, 100, 200, 1000}

// Generator draws random task sets. All randomness comes from its own seeded source, so
// results do not depend on what else ran before.
type Generator struct {
	rnd *rand.Rand
}

func NewGenerator(seed uint64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// utilizations splits total uniformly at random into count shares (flat Dirichlet).
func (g *Generator) utilizations(count int, total float64) []float64 {
	if count == 1 {
		return []float64{total}
	}
	alpha := make([]float64, count)
	for i := range alpha {
		alpha[i] = 1
	}
	shares := distmv.NewDirichlet(alpha, g.rnd).Rand(nil)
	for i := range shares {
		shares[i] *= total
	}
	return shares
}

func (g *Generator) tasksFromPeriods(count int, utilization float64, periods []int) Chain {
	tasks := make(Chain, 0, count)
	for id, u := range g.utilizations(count, utilization) {
		period := Mseconds(float64(periods[g.rnd.Intn(len(periods))]))
		wcet := Ttick(math.Ceil(u * float64(period)))
		tasks = append(tasks, NewTask(fmt.Sprintf("Task_%d", id), wcet, period, period, 0))
	}
	return tasks
}

// RandomTasks returns count tasks with automotive periods, implicit deadlines and zero offsets.
func (g *Generator) RandomTasks(count int, utilization float64) Chain {
	return g.tasksFromPeriods(count, utilization, AUTOMOTIVE_PERIODS)
}

// RandomTasksMaxHarmonic draws from a random max-harmonic period set until the drawn chain
// itself is max-harmonic.
func (g *Generator) RandomTasksMaxHarmonic(count int, utilization float64, numPeriods, maxAllowedPeriod int) (Chain, error) {
	for i := 0; i < GENERATOR_MAX_ATTEMPTS; i++ {
		periods, err := g.MaxHarmonicPeriodSet(numPeriods, maxAllowedPeriod)
		if err != nil {
			return nil, err
		}
		tasks := g.tasksFromPeriods(count, utilization, periods)
		if IsMaxHarmonic(tasks) {
			return tasks, nil
		}
	}
	return nil, fmt.Errorf("max-harmonic chain of %d tasks after %d attempts: %w", count, GENERATOR_MAX_ATTEMPTS, ErrNoPeriodSet)
}

// RandomTasks2kMax draws from random (2,k)-max-harmonic period sets until the drawn chain
// itself is (2,k)-max-harmonic, i.e. contains both of the largest periods.
func (g *Generator) RandomTasks2kMax(count int, utilization float64, k, numPeriods, maxAllowedPeriod int) (Chain, error) {
	for i := 0; i < GENERATOR_MAX_ATTEMPTS; i++ {
		periods, err := g.PeriodSet2k(k, numPeriods, maxAllowedPeriod)
		if err != nil {
			return nil, err
		}
		tasks := g.tasksFromPeriods(count, utilization, periods)
		if Is2kMaxHarmonic(tasks) {
			return tasks, nil
		}
	}
	return nil, fmt.Errorf("(2,%d)-max-harmonic chain of %d tasks after %d attempts: %w", k, count, GENERATOR_MAX_ATTEMPTS, ErrNoPeriodSet)
}

// MaxHarmonicPeriodSet picks, among all n <= maxAllowedPeriod with at least numPeriods
// divisors, one divisor set at random. Periods are ascending.
func (g *Generator) MaxHarmonicPeriodSet(numPeriods, maxAllowedPeriod int) ([]int, error) {
	var allSets [][]int
	for i := 1; i <= maxAllowedPeriod; i++ {
		var divisors []int
		for k := 1; k <= i; k++ {
			if i%k == 0 {
				divisors = append(divisors, k)
			}
		}
		if len(divisors) >= numPeriods {
			allSets = append(allSets, divisors)
		}
	}
	if len(allSets) == 0 {
		return nil, fmt.Errorf("%d periods up to %d: %w", numPeriods, maxAllowedPeriod, ErrNoPeriodSet)
	}
	return allSets[g.rnd.Intn(len(allSets))], nil
}

// PeriodSet2k picks a random (2,k)-max-harmonic period set with at least numPeriods periods:
// Tmax1 <= maxAllowedPeriod, Tmax2 = 2*Tmax1/k, plus every i <= Tmax1 mod Tmax2 dividing both.
func (g *Generator) PeriodSet2k(k, numPeriods, maxAllowedPeriod int) ([]int, error) {
	var periodSets [][]int
	for tmax1 := 1; tmax1 <= maxAllowedPeriod; tmax1++ {
		tmax2, ok := getTmax2(k, tmax1)
		if !ok {
			continue
		}
		set := []int{tmax1, tmax2}
		for i := 1; i <= tmax1%tmax2; i++ {
			if tmax1%i == 0 && tmax2%i == 0 {
				set = append(set, i)
			}
		}
		if len(set) >= numPeriods {
			periodSets = append(periodSets, set)
		}
	}
	if len(periodSets) == 0 {
		return nil, fmt.Errorf("(2,%d) periods, %d periods up to %d: %w", k, numPeriods, maxAllowedPeriod, ErrNoPeriodSet)
	}
	set := slices.Clone(periodSets[g.rnd.Intn(len(periodSets))])
	slices.Sort(set)
	return set, nil
}

// getTmax2 returns 2*tmax1/k if that is an integer.
func getTmax2(k, tmax1 int) (int, bool) {
	if k <= 0 || (2*tmax1)%k != 0 {
		return 0, false
	}
	return 2 * tmax1 / k, true
}

// RandomPhasing gives every task after the first a random offset below the smaller of its
// own and its predecessor's period. It uses its own source, seeded with seed.
func RandomPhasing(chain Chain, seed uint64) {
	rnd := rand.New(rand.NewSource(seed))
	for i := 1; i < len(chain); i++ {
		minPeriod := min(chain[i].Period, chain[i-1].Period)
		chain[i].Offset = Ttick(rnd.Int63n(int64(minPeriod)))
	}
}
