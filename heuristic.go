package letchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/markphelps/optional"
)

// Offset assignment heuristic of Martinez et al. (TCAD'18, Algorithm 2): explore every
// non-equivalent offset assignment and keep the one with the smallest analytic latency.
// Offsets of task k only matter modulo gcd(T_k, lcm(T_0..T_{k-1})), so the search tree has
// one level per task after the first with that many branches.

func checkGranularity(chain Chain, granularity Ttick) error {
	if granularity <= 0 {
		return fmt.Errorf("granularity %v: %w", granularity, ErrGranularity)
	}
	for i, task := range chain {
		if task.Period%granularity != 0 {
			return fmt.Errorf("task %d (%s) period %v, granularity %v: %w",
				i, task.Name, task.Period, granularity, ErrGranularity)
		}
	}
	return nil
}

// CombinationsCount returns how many offset assignments the heuristic analyses, derived
// twice: as the product of the per-level ranges and as prod(T_i/g) / (H/g). Both must agree;
// ErrInconsistent is returned otherwise. Big integers because realistic chains overflow int64.
func CombinationsCount(chain Chain, granularity Ttick) (*big.Int, *big.Int, error) {
	if err := chain.Validate(); err != nil {
		return nil, nil, err
	}
	if err := checkGranularity(chain, granularity); err != nil {
		return nil, nil, err
	}

	individual := big.NewInt(1)
	prevLcm := (*big.Int)(nil)
	for _, task := range chain {
		period := big.NewInt(int64(task.Period / granularity))
		if prevLcm == nil {
			prevLcm = period
			continue
		}
		offsetMax := new(big.Int).GCD(nil, nil, period, prevLcm)
		individual.Mul(individual, offsetMax)
		prevLcm = new(big.Int).Mul(new(big.Int).Quo(prevLcm, offsetMax), period)
	}

	prod := big.NewInt(1)
	for _, task := range chain {
		prod.Mul(prod, big.NewInt(int64(task.Period/granularity)))
	}
	hp := big.NewInt(int64(Hyperperiod(chain) / granularity))
	complexity := new(big.Int).Quo(prod, hp)

	if individual.Cmp(complexity) != 0 {
		return individual, complexity, fmt.Errorf("chain %v: %v combinations per level, %v from complexity: %w",
			chain, individual, complexity, ErrInconsistent)
	}
	return individual, complexity, nil
}

type offsetSearch struct {
	ctx         context.Context
	chain       Chain
	granularity Ttick
	evaluated   int64
}

type searchResult struct {
	latency    Ttick
	assignment []Ttick // offset multiples, one per task
}

// explore assigns offsets to chain[pos:] and returns the best assignment below this level.
// multiples holds the multiples chosen for chain[:pos].
func (s *offsetSearch) explore(pos int, prevLcm int64, multiples []Ttick) (searchResult, error) {
	if pos >= len(s.chain) {
		if err := s.ctx.Err(); err != nil {
			return searchResult{}, err
		}
		latency, err := AnalyticLatency(s.chain)
		if err != nil {
			return searchResult{}, err
		}
		s.evaluated++
		if VERBOSE_HEURISTIC {
			fmt.Printf("analysing %v => latency %v\n", s.chain, latency)
		}
		return searchResult{latency: latency, assignment: append([]Ttick(nil), multiples...)}, nil
	}

	period := int64(s.chain[pos].Period / s.granularity)
	rangeBound := gcd(period, prevLcm)
	nextLcm := lcm(period, prevLcm)

	results := make([]searchResult, 0, rangeBound)
	latencies := make([]Ttick, 0, rangeBound)
	for offset := int64(0); offset < rangeBound; offset++ {
		s.chain[pos].Offset = Ttick(offset) * s.granularity
		res, err := s.explore(pos+1, nextLcm, append(multiples, Ttick(offset)))
		if err != nil {
			return searchResult{}, err
		}
		results = append(results, res)
		latencies = append(latencies, res.latency)
	}
	// first minimum in search order wins
	return results[findMinIndex(latencies)], nil
}

// HeuristicOptimalPhasing searches all non-equivalent offset assignments with the given
// granularity, applies the best one to the chain and returns its latency. The first task
// keeps offset 0. If ctx ends before the search is exhausted, the result is empty, the
// error nil, and the chain keeps its original offsets.
func HeuristicOptimalPhasing(ctx context.Context, chain Chain, granularity Ttick) (optional.Int64, error) {
	if err := chain.Validate(); err != nil {
		return optional.Int64{}, err
	}
	if err := checkGranularity(chain, granularity); err != nil {
		return optional.Int64{}, err
	}

	original := chain.Offsets()
	s := &offsetSearch{ctx: ctx, chain: chain, granularity: granularity}

	chain[0].Offset = 0
	best, err := s.explore(1, int64(chain[0].Period/granularity), []Ttick{0})
	if err != nil {
		chain.SetOffsets(original)
		if ctx.Err() != nil {
			logger.Info("offset search stopped before completion",
				slog.String("chain", chain.String()),
				slog.Int64("evaluated", s.evaluated))
			return optional.Int64{}, nil
		}
		return optional.Int64{}, err
	}

	for i, multiple := range best.assignment {
		chain[i].Offset = multiple * granularity
	}
	logger.Debug("offset search done",
		slog.String("chain", chain.String()),
		slog.Int64("evaluated", s.evaluated),
		slog.Int64("latency", int64(best.latency)))
	return optional.NewInt64(int64(best.latency)), nil
}
