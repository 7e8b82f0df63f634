package letchain

import (
	"fmt"
	"log/slog"
)

// OptimalPhasingMaxHarm assigns the optimal phasing of a max-harmonic chain (every task is
// released exactly when its predecessor publishes) and returns the resulting end-to-end
// latency, sum(T) + max(T). The chain is left untouched on error.
func OptimalPhasingMaxHarm(chain Chain) (Ttick, error) {
	if err := chain.Validate(); err != nil {
		return 0, err
	}
	if !IsMaxHarmonic(chain) {
		return 0, fmt.Errorf("chain %v: %w", chain, ErrNotMaxHarmonic)
	}

	offset := Ttick(0)
	for _, task := range chain {
		task.Offset = offset
		offset += task.Period
	}

	latencyBound := chain.PeriodSum() + MaxPeriod(chain)
	logger.Debug("max-harmonic phasing", slog.String("chain", chain.String()), slog.Int64("bound", int64(latencyBound)))
	return latencyBound, nil
}

// OptimalPhasingSemiHarm assigns the optimal phasing of a (2,k)-max-harmonic chain and
// returns the latency bound sum(T) + Tmax1 + min(Tmax1, ceil(|nu|/2)*gamma), where nu are
// the tasks at which the chain switches between the two largest periods and
// gamma = Tmax1 mod Tmax2. The chain is left untouched on error.
func OptimalPhasingSemiHarm(chain Chain) (Ttick, error) {
	if err := chain.Validate(); err != nil {
		return 0, err
	}
	if !Is2kMaxHarmonic(chain) {
		return 0, fmt.Errorf("chain %v (Tmax1 %v, Tmax2 %v): %w",
			chain, MaxPeriod(chain), SecondMaxPeriod(chain), ErrNot2kMaxHarmonic)
	}

	max1Period := MaxPeriod(chain)
	max2Period := SecondMaxPeriod(chain)
	gamma := max1Period % max2Period

	nu := PeriodSwitches(chain)
	inNu := make(map[int]bool, len(nu))
	for _, i := range nu {
		inNu[i] = true
	}
	tauP := firstWithPeriod(chain, max1Period)
	extra := ceilDiv(Ttick(len(nu)), 2) * gamma

	offset := Ttick(0)
	for i, task := range chain {
		task.Offset = offset
		// With few switches the Tmax1 tasks after a switch are pushed back by gamma.
		if extra < max1Period && task.Period == max1Period && i != tauP && inNu[i] {
			task.Offset += gamma
			offset += gamma
		}
		offset += task.Period
	}

	latencyBound := chain.PeriodSum() + max1Period + min(max1Period, extra)
	logger.Debug("(2,k)-max-harmonic phasing",
		slog.String("chain", chain.String()),
		slog.Int("switches", len(nu)),
		slog.Int64("gamma", int64(gamma)),
		slog.Int64("bound", int64(latencyBound)))
	return latencyBound, nil
}

// PeriodSwitches returns the positions of the tasks right after a switch between the largest
// and the second largest period. Tasks with other periods do not reset the last seen one.
func PeriodSwitches(chain Chain) []int {
	var nu []int
	max1Period := MaxPeriod(chain)
	max2Period := SecondMaxPeriod(chain)

	lastFound := Ttick(0)
	for i, task := range chain {
		switch task.Period {
		case max1Period:
			if lastFound == max2Period {
				nu = append(nu, i)
			}
			lastFound = max1Period
		case max2Period:
			if lastFound == max1Period {
				nu = append(nu, i)
			}
			lastFound = max2Period
		}
	}
	return nu
}

func firstWithPeriod(chain Chain, period Ttick) int {
	for i, task := range chain {
		if task.Period == period {
			return i
		}
	}
	return -1
}
