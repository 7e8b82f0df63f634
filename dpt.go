package letchain

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/markphelps/optional"
)

// Dpt computes the exact maximum data age of a chain under LET by building a data
// propagation tree for every root job (Becker et al., RTCSA'16), extended with offsets and
// with the age counted until the value at the end of the chain is overwritten.
type Dpt struct {
	chain  Chain
	maxAge optional.Int64
	trees  []*DptTree
	jobs   [][]Job // jobs of chain[1:] that can appear in a tree
	built  bool
	err    error
}

func NewDpt(chain Chain) (*Dpt, error) {
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	return &Dpt{chain: chain}, nil
}

// rootJobs returns one hyperperiod of jobs of the first task, starting with the first job
// released at or after the largest offset in the chain. From there on every task has
// started, so the trees see the steady state. With zero offsets this is [0, H).
func (d *Dpt) rootJobs() []Job {
	rootTask := d.chain[0]
	hp := Hyperperiod(d.chain)
	first := rootTask.firstJobAtOrAfter(d.chain.MaxOffset())
	return rootTask.JobsFrom(first, int(hp/rootTask.Period))
}

// Build constructs all trees. Calling it again is a no-op.
func (d *Dpt) Build() error {
	if d.built {
		return d.err
	}

	rootJobs := d.rootJobs()

	// The last root job is the last one that can start a branch we need, and no branch is
	// longer than the Davare bound.
	maxTime := dptHorizon(d.chain) + rootJobs[len(rootJobs)-1].Release()
	d.jobs = make([][]Job, len(d.chain)-1)
	for i, t := range d.chain[1:] {
		d.jobs[i] = t.JobsUntil(maxTime)
	}

	for _, r := range rootJobs {
		tree := newDptTree(r)
		d.recursiveDptBuild(tree, tree.Root(), tree.Root())
		d.trees = append(d.trees, tree)
		if VERBOSE_DPT {
			tree.Print(os.Stdout)
		}
	}
	d.built = true

	logger.Debug("dpt built",
		slog.String("chain", d.chain.String()),
		slog.Int("roots", len(rootJobs)),
		slog.Int64("max_age", d.maxAge.OrElse(-1)))

	if !d.maxAge.Present() {
		d.err = fmt.Errorf("chain %v: %w", d.chain, ErrNoPropagation)
	}
	return d.err
}

func (d *Dpt) recursiveDptBuild(tree *DptTree, root, vertex *DptNode) {
	if vertex.pos == len(d.chain)-1 {
		// Data age runs from the root's sampling until the last output is overwritten.
		age := vertex.di[1] - root.ri[0]
		tree.setBranchAge(vertex, age)
		if cur, err := d.maxAge.Get(); err != nil || int64(age) > cur {
			d.maxAge = optional.NewInt64(int64(age))
		}
		return
	}

	for _, job := range d.successors(vertex) {
		successor := tree.add(vertex.pos+1, job)
		// A read before the data exists is moved to the first availability, for this branch only.
		if successor.ri[0] < vertex.di[0] {
			successor.readAt(vertex.di[0])
		}
		tree.link(vertex, successor)
		d.recursiveDptBuild(tree, root, successor)
	}
}

// successors returns the jobs of the next task that read while the writer's data is valid
// (Eq. 1, Becker RTCSA'16).
func (d *Dpt) successors(writer *DptNode) []Job {
	var res []Job
	candidates := d.jobs[writer.pos]
	if len(candidates) == 0 {
		return res
	}
	reader := candidates[0].task
	for i := reader.firstJobAtOrAfter(writer.di[0]); i < len(candidates); i++ {
		release := candidates[i].Release()
		if release >= writer.di[1] {
			break
		}
		// nominal read interval of a LET job is [release, release]
		if release >= writer.di[0] && release < writer.di[1] {
			res = append(res, candidates[i])
		}
	}
	return res
}

// MaxAge returns the worst-case data age, building the trees first if needed.
func (d *Dpt) MaxAge() (Ttick, error) {
	if err := d.Build(); err != nil {
		return 0, err
	}
	return Ttick(d.maxAge.OrElse(0)), nil
}

func (d *Dpt) Trees() []*DptTree {
	return d.trees
}

func (d *Dpt) Print(w io.Writer) {
	fmt.Fprintf(w, "Chain: %v\n", d.chain)
	for _, tree := range d.trees {
		tree.Print(w)
	}
	if age, err := d.maxAge.Get(); err == nil {
		fmt.Fprintf(w, "Max Data Age = %v\n", Ttick(age))
	}
}

// ExactLatency is the DPT oracle. It does not modify the chain.
func ExactLatency(chain Chain) (Ttick, error) {
	d, err := NewDpt(chain)
	if err != nil {
		return 0, err
	}
	return d.MaxAge()
}
