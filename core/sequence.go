package core

// SequenceNode is an ordered AND over its children.
//
// A child becomes eligible only after every earlier sibling has
// resolved Success.  The first child to resolve Failure or Cancelled
// resolves the sequence to that same status, and no later sibling is
// ever invoked.  An empty sequence resolves Success.
type SequenceNode struct {
	node
	children []Node
}

// NewSequence makes a sequence with the given children, in order.
func NewSequence(id string, children []Node, opts ...NodeOption) *SequenceNode {
	return &SequenceNode{
		node:     newNode(id, opts...),
		children: children,
	}
}

func (sq *SequenceNode) Children() []Node {
	return sq.children
}

func (sq *SequenceNode) add(child Node) {
	sq.children = append(sq.children, child)
}

func (sq *SequenceNode) remove(id string) bool {
	for i, child := range sq.children {
		if child.Id() == id {
			sq.children = append(sq.children[:i], sq.children[i+1:]...)
			return true
		}
	}
	return false
}

// aggregate computes the sequence's status from its children's
// statuses (obtained via statusOf, which recurses as needed).
//
// The scan stops at the first child that hasn't resolved Success:
// that child is the currently eligible one, and its status (Unknown,
// Waiting, Failure, or Cancelled) decides the sequence's.
func (sq *SequenceNode) aggregate(statusOf func(Node) Status) Status {
	for _, child := range sq.children {
		switch st := statusOf(child); st {
		case Success:
			continue
		default:
			return st
		}
	}
	return Success
}
