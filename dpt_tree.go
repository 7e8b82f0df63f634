package letchain

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gammazero/deque"
	"github.com/markphelps/optional"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// interval is [start, end]. Read intervals are closed, data intervals half-open.
type interval [2]Ttick

// DptNode is one job in a data propagation tree. Every node owns its intervals, so a job
// that shows up in several branches gets one node per branch.
type DptNode struct {
	id  int64
	pos int // position of the job's task in the chain
	job Job
	ri  interval
	di  interval

	// BranchAge is only present on leaves.
	BranchAge optional.Int64
}

func newDptNode(id int64, pos int, job Job) *DptNode {
	n := &DptNode{id: id, pos: pos, job: job}
	n.readAt(job.Release())
	return n
}

// readAt samples the inputs at t; the output is valid from t+T until the next job overwrites it.
func (n *DptNode) readAt(t Ttick) {
	period := n.job.task.Period
	n.ri = interval{t, t}
	n.di = interval{t + period, t + 2*period}
}

func (n *DptNode) ID() int64 {
	return n.id
}

func (n *DptNode) Job() Job {
	return n.job
}

func (n *DptNode) ReadInterval() (Ttick, Ttick) {
	return n.ri[0], n.ri[1]
}

func (n *DptNode) DataInterval() (Ttick, Ttick) {
	return n.di[0], n.di[1]
}

func (n *DptNode) String() string {
	str := fmt.Sprintf("%v RI=[%v, %v] DI=[%v, %v)", n.job, n.ri[0], n.ri[1], n.di[0], n.di[1])
	if age, err := n.BranchAge.Get(); err == nil {
		str += " -> Age=" + Ttick(age).String()
	}
	return str
}

// DptTree is the data propagation tree of a single root job.
type DptTree struct {
	g      *simple.DirectedGraph
	nodes  []*DptNode
	maxAge optional.Int64
}

func newDptTree(rootJob Job) *DptTree {
	tr := &DptTree{g: simple.NewDirectedGraph()}
	tr.add(0, rootJob)
	return tr
}

func (tr *DptTree) add(pos int, job Job) *DptNode {
	n := newDptNode(int64(len(tr.nodes)), pos, job)
	tr.nodes = append(tr.nodes, n)
	tr.g.AddNode(n)
	return n
}

func (tr *DptTree) link(from, to *DptNode) {
	tr.g.SetEdge(tr.g.NewEdge(from, to))
}

func (tr *DptTree) setBranchAge(leaf *DptNode, age Ttick) {
	leaf.BranchAge = optional.NewInt64(int64(age))
	if cur, err := tr.maxAge.Get(); err != nil || int64(age) > cur {
		tr.maxAge = optional.NewInt64(int64(age))
	}
}

func (tr *DptTree) Root() *DptNode {
	return tr.nodes[0]
}

func (tr *DptTree) Len() int {
	return len(tr.nodes)
}

// MaxAge is the largest branch age in this tree; empty if no branch reaches the last task.
func (tr *DptTree) MaxAge() optional.Int64 {
	return tr.maxAge
}

// Children returns the successors of n in creation order.
func (tr *DptTree) Children(n *DptNode) []*DptNode {
	return tr.sorted(tr.g.From(n.ID()))
}

func (tr *DptTree) Parent(n *DptNode) *DptNode {
	parents := tr.sorted(tr.g.To(n.ID()))
	if len(parents) == 0 {
		return nil
	}
	return parents[0]
}

func (tr *DptTree) sorted(it graph.Nodes) []*DptNode {
	nodes := graph.NodesOf(it)
	res := make([]*DptNode, len(nodes))
	for i, n := range nodes {
		res[i] = n.(*DptNode)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].id < res[j].id })
	return res
}

// Leaves returns all nodes carrying a branch age, level by level.
func (tr *DptTree) Leaves() []*DptNode {
	var leaves []*DptNode
	var q deque.Deque[*DptNode]
	q.PushBack(tr.Root())
	for q.Len() > 0 {
		n := q.PopFront()
		if n.BranchAge.Present() {
			leaves = append(leaves, n)
		}
		for _, c := range tr.Children(n) {
			q.PushBack(c)
		}
	}
	return leaves
}

// Branch returns the nodes from the root down to n.
func (tr *DptTree) Branch(n *DptNode) []*DptNode {
	var branch []*DptNode
	for cur := n; cur != nil; cur = tr.Parent(cur) {
		branch = append(branch, cur)
	}
	for i, j := 0, len(branch)-1; i < j; i, j = i+1, j-1 {
		branch[i], branch[j] = branch[j], branch[i]
	}
	return branch
}

// Print writes the tree, one node per line, indented by chain position.
func (tr *DptTree) Print(w io.Writer) {
	tr.printNode(w, tr.Root())
}

func (tr *DptTree) printNode(w io.Writer, n *DptNode) {
	fmt.Fprintf(w, "%s|--- %v\n", strings.Repeat("   ", n.pos), n)
	for _, c := range tr.Children(n) {
		tr.printNode(w, c)
	}
}
