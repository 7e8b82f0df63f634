package letchain

import "fmt"

// CrossCheck runs every analysis that applies to the chain and returns ErrInconsistent if
// any two disagree: exact vs. analytic latency on the given offsets, the Davare bound vs. the
// exact latency, and each applicable closed-form phasing vs. the exact latency of the phased
// chain. The chain itself is not modified.
func CrossCheck(chain Chain) error {
	exact, err := ExactLatency(chain)
	if err != nil {
		return err
	}
	analytic, err := AnalyticLatency(chain)
	if err != nil {
		return err
	}
	if exact != analytic {
		return fmt.Errorf("chain %v: exact %v, analytic %v: %w", chain, exact, analytic, ErrInconsistent)
	}
	if bound := DavareBound(chain); bound < exact {
		return fmt.Errorf("chain %v: davare %v below exact %v: %w", chain, bound, exact, ErrInconsistent)
	}

	type phasing struct {
		name  string
		apply func(Chain) (Ttick, error)
	}
	var phasings []phasing
	if IsMaxHarmonic(chain) {
		phasings = append(phasings, phasing{"max-harmonic", OptimalPhasingMaxHarm})
	}
	if Is2kMaxHarmonic(chain) {
		phasings = append(phasings, phasing{"(2,k)-max-harmonic", OptimalPhasingSemiHarm})
	}

	for _, p := range phasings {
		phased := chain.Clone()
		bound, err := p.apply(phased)
		if err != nil {
			return err
		}
		phasedExact, err := ExactLatency(phased)
		if err != nil {
			return err
		}
		if bound != phasedExact {
			return fmt.Errorf("chain %v: %s bound %v, exact %v: %w", phased, p.name, bound, phasedExact, ErrInconsistent)
		}
		phasedAnalytic, err := AnalyticLatency(phased)
		if err != nil {
			return err
		}
		if phasedAnalytic != phasedExact {
			return fmt.Errorf("chain %v: %s exact %v, analytic %v: %w", phased, p.name, phasedExact, phasedAnalytic, ErrInconsistent)
		}
	}
	return nil
}
