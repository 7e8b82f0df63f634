package letchain

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"gonum.org/v1/gonum/stat"
)

const (
	EXPERIMENT_COUNT       = 10 // chains per chain length
	EXPERIMENT_MIN_LENGTH  = 2
	EXPERIMENT_MAX_LENGTH  = 10
	EXPERIMENT_UTILIZATION = 0.5 // irrelevant under LET, only shapes the wcets
	EXPERIMENT_SEED        = 123
)

type ExperimentConfig struct {
	Seed        uint64
	Count       int
	MinLength   int
	MaxLength   int
	Utilization float64
	Periods     []int // ms, AUTOMOTIVE_PERIODS if empty
}

func DefaultExperimentConfig() ExperimentConfig {
	return ExperimentConfig{
		Seed:        EXPERIMENT_SEED,
		Count:       EXPERIMENT_COUNT,
		MinLength:   EXPERIMENT_MIN_LENGTH,
		MaxLength:   EXPERIMENT_MAX_LENGTH,
		Utilization: EXPERIMENT_UTILIZATION,
	}
}

func (cfg ExperimentConfig) validate() error {
	if cfg.Count < 1 {
		return fmt.Errorf("experiment count %d must be positive", cfg.Count)
	}
	if cfg.MinLength < 2 || cfg.MaxLength < cfg.MinLength {
		return fmt.Errorf("chain lengths [%d, %d]: %w", cfg.MinLength, cfg.MaxLength, ErrChainTooShort)
	}
	for _, p := range cfg.Periods {
		if p <= 0 {
			return fmt.Errorf("period %d ms: %w", p, ErrInvalidPeriod)
		}
	}
	return nil
}

// ExperimentResult is one random max-harmonic chain analysed synchronously and with the
// optimal phasing.
type ExperimentResult struct {
	Length int
	Index  int
	Chain  string

	Synchronous    Ttick // exact latency, all offsets zero
	SynchronousDur time.Duration
	Optimal        Ttick // closed-form bound of the optimal phasing
	OptimalDur     time.Duration
	Phased         Ttick // exact latency of the phased chain
	PhasedDur      time.Duration
	Analytic       Ttick // point based latency of the phased chain
	AnalyticDur    time.Duration
}

// Reduction is the relative latency improvement of the optimal phasing over synchronous release.
func (r ExperimentResult) Reduction() float64 {
	return 1 - float64(r.Optimal)/float64(r.Synchronous)
}

type LengthSummary struct {
	Length        int
	Runs          int
	MeanReduction float64
	StdReduction  float64
	MeanDptMs     float64 // mean runtime of the synchronous exact analysis
}

func (s LengthSummary) String() string {
	return fmt.Sprintf("length %d: %d chains, reduction %.1f%% (sd %.1f%%), dpt %.3f ms",
		s.Length, s.Runs, 100*s.MeanReduction, 100*s.StdReduction, s.MeanDptMs)
}

// Experiment runs the max-harmonic sweep: for every chain length it draws Count random
// max-harmonic chains and compares synchronous release with the optimal phasing. Every
// length reseeds its generator, so a length's chains do not depend on the other lengths.
type Experiment struct {
	RunID   ulid.ULID
	cfg     ExperimentConfig
	results []ExperimentResult
	log     *slog.Logger
}

func NewExperiment(cfg ExperimentConfig) (*Experiment, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	id := ulid.Make()
	return &Experiment{
		RunID: id,
		cfg:   cfg,
		log:   logger.With(slog.String("run", id.String())),
	}, nil
}

func (e *Experiment) randomMaxHarmonicChain(gen *Generator, length int) Chain {
	periods := e.cfg.Periods
	if len(periods) == 0 {
		periods = AUTOMOTIVE_PERIODS
	}
	for {
		chain := gen.tasksFromPeriods(length, e.cfg.Utilization, periods)
		if IsMaxHarmonic(chain) {
			return chain
		}
	}
}

// Tick analyses all chains of one length.
func (e *Experiment) Tick(length int) error {
	gen := NewGenerator(e.cfg.Seed)
	for i := 1; i <= e.cfg.Count; i++ {
		chain := e.randomMaxHarmonicChain(gen, length)
		res, err := e.analyse(chain)
		if err != nil {
			return err
		}
		res.Length = length
		res.Index = i
		e.results = append(e.results, res)
		if VERBOSE_EXPERIMENT {
			fmt.Printf("%d/%d %v: sync %v opt %v\n", length, i, res.Chain, res.Synchronous, res.Optimal)
		}
	}
	e.log.Info("chain length done", slog.Int("length", length), slog.Int("chains", e.cfg.Count))
	return nil
}

func (e *Experiment) analyse(chain Chain) (ExperimentResult, error) {
	res := ExperimentResult{Chain: chain.String()}
	var err error

	start := time.Now()
	if res.Synchronous, err = ExactLatency(chain); err != nil {
		return res, err
	}
	res.SynchronousDur = time.Since(start)

	start = time.Now()
	if res.Optimal, err = OptimalPhasingMaxHarm(chain); err != nil {
		return res, err
	}
	res.OptimalDur = time.Since(start)

	start = time.Now()
	if res.Phased, err = ExactLatency(chain); err != nil {
		return res, err
	}
	res.PhasedDur = time.Since(start)

	start = time.Now()
	if res.Analytic, err = AnalyticLatency(chain); err != nil {
		return res, err
	}
	res.AnalyticDur = time.Since(start)

	if res.Optimal > res.Synchronous {
		err = errors.Join(err, fmt.Errorf("chain %v: optimal %v above synchronous %v: %w",
			chain, res.Optimal, res.Synchronous, ErrInconsistent))
	}
	if res.Optimal != res.Phased || res.Phased != res.Analytic {
		err = errors.Join(err, fmt.Errorf("chain %v: optimal %v, exact %v, analytic %v: %w",
			chain, res.Optimal, res.Phased, res.Analytic, ErrInconsistent))
	}
	return res, err
}

// Run sweeps all configured chain lengths. It stops at the first inconsistency.
func (e *Experiment) Run() error {
	for length := e.cfg.MinLength; length <= e.cfg.MaxLength; length++ {
		if err := e.Tick(length); err != nil {
			return err
		}
	}
	return nil
}

func (e *Experiment) Results() []ExperimentResult {
	return e.results
}

func (e *Experiment) Summaries() []LengthSummary {
	var summaries []LengthSummary
	for length := e.cfg.MinLength; length <= e.cfg.MaxLength; length++ {
		var reductions []float64
		var dptMs []float64
		for _, r := range e.results {
			if r.Length != length {
				continue
			}
			reductions = append(reductions, r.Reduction())
			dptMs = append(dptMs, float64(r.SynchronousDur.Microseconds())/1000)
		}
		if len(reductions) == 0 {
			continue
		}
		mean, std := stat.MeanStdDev(reductions, nil)
		if len(reductions) == 1 {
			std = 0
		}
		summaries = append(summaries, LengthSummary{
			Length:        length,
			Runs:          len(reductions),
			MeanReduction: mean,
			StdReduction:  std,
			MeanDptMs:     avg(dptMs),
		})
	}
	return summaries
}
