package core

// ParallelNode is a threshold-aggregating fan-out.  Every
// not-yet-resolved child is simultaneously eligible; there is no
// fail-fast cutoff by position.
//
// Note that "parallel" describes the logical fan-out only.  Children
// are still evaluated one at a time within the session's synchronous
// scheduling loop.
type ParallelNode struct {
	node
	children []Node

	// requiredToSucceed is the success tally threshold.  Zero
	// means the node resolves Success immediately.
	requiredToSucceed int

	// requiredToFail is the failure tally threshold.  Zero
	// disables resolution by failure count.
	requiredToFail int
}

// NewParallel makes a parallel node with the given thresholds and
// children.
func NewParallel(id string, requiredToSucceed, requiredToFail int, children []Node, opts ...NodeOption) *ParallelNode {
	return &ParallelNode{
		node:              newNode(id, opts...),
		children:          children,
		requiredToSucceed: requiredToSucceed,
		requiredToFail:    requiredToFail,
	}
}

func (p *ParallelNode) Children() []Node {
	return p.children
}

// RequiredToSucceed returns the success tally threshold.
func (p *ParallelNode) RequiredToSucceed() int {
	return p.requiredToSucceed
}

// RequiredToFail returns the failure tally threshold.
func (p *ParallelNode) RequiredToFail() int {
	return p.requiredToFail
}

func (p *ParallelNode) add(child Node) {
	p.children = append(p.children, child)
}

func (p *ParallelNode) remove(id string) bool {
	for i, child := range p.children {
		if child.Id() == id {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return true
		}
	}
	return false
}

// aggregate computes the parallel's status from its children's
// statuses, applying the threshold rule after every child change.
//
// Cancelled children count toward the failure tally: a cancelled
// child is a non-success resolution, and the tallies only distinguish
// corroboration for and against.
//
// When both thresholds have been crossed, the side with the strictly
// larger raw tally wins.  An exact tie resolves Failure: equal
// corroboration is not evidence of success.
func (p *ParallelNode) aggregate(statusOf func(Node) Status) Status {
	if p.requiredToSucceed == 0 {
		return Success
	}

	var successes, failures, unknown, waiting int
	for _, child := range p.children {
		switch statusOf(child) {
		case Success:
			successes++
		case Failure, Cancelled:
			failures++
		case Waiting:
			waiting++
		default:
			unknown++
		}
	}

	crossedSuccess := successes >= p.requiredToSucceed
	crossedFailure := 0 < p.requiredToFail && failures >= p.requiredToFail

	switch {
	case crossedSuccess && crossedFailure:
		if failures < successes {
			return Success
		}
		return Failure
	case crossedSuccess:
		return Success
	case crossedFailure:
		return Failure
	}

	if 0 < unknown {
		return Unknown
	}
	if 0 < waiting {
		return Waiting
	}

	// Every child has resolved and no threshold was crossed, so
	// the success threshold is unreachable.
	return Failure
}
