/* Copyright 2024 The Treeproc Authors
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"errors"
)

// Session is one evaluation of a tree against one subject.
//
// A session owns all of the run state: the per-node status map and
// the set of nodes currently Waiting.  It never mutates the tree, so
// any number of sessions can share a single (frozen) tree from
// different goroutines.  A session itself is not safe for concurrent
// use: callers must serialize Execute, Resume, Fail, and Cancel
// against the same session.  See package fleet for a registry that
// does that serialization.
//
// A session becomes inert once its root reaches a terminal status.
type Session struct {
	tree    *Tree
	subject interface{}

	// status records resolved statuses by node id.  Handler
	// statuses are recorded as they resolve (including Waiting);
	// composite statuses are recorded only once terminal, since a
	// non-terminal composite's status is derived from its
	// children.
	status map[string]Status

	// waiting is the set of node ids that Resume and Fail may
	// currently address.  A Waiting node under an
	// already-resolved composite is removed from this set (it is
	// inert) even though its recorded status stays Waiting.
	waiting map[string]bool

	// admitted records composites whose gating conditions have
	// already passed, so conditions run at most once per session.
	admitted map[string]bool
}

// NewSession binds a tree to a subject.  The subject is opaque to the
// engine: it is passed unchanged to every handler (via the session)
// and condition.
func NewSession(t *Tree, subject interface{}) *Session {
	return &Session{
		tree:     t,
		subject:  subject,
		status:   make(map[string]Status, len(t.index)),
		waiting:  make(map[string]bool),
		admitted: make(map[string]bool),
	}
}

// NewNodeSession wraps a standalone node in a single-node tree and
// binds it to a subject.
func NewNodeSession(n Node, subject interface{}) (*Session, error) {
	t, err := NewTree(n.Id(), n)
	if err != nil {
		return nil, err
	}
	return NewSession(t, subject), nil
}

// Tree returns the tree this session is evaluating.
func (s *Session) Tree() *Tree {
	return s.tree
}

// Subject returns the caller-owned value bound to this session.
func (s *Session) Subject() interface{} {
	return s.subject
}

// NodeStatus reports the identified node's current status for this
// session.
func (s *Session) NodeStatus(id string) (Status, error) {
	n := s.tree.Node(id)
	if n == nil {
		return Unknown, &UnknownNode{s.tree, id}
	}
	return s.statusOf(n), nil
}

// Execute freezes the tree and runs the scheduling loop until the
// root resolves or the session suspends (Waiting).  Calling Execute
// on a suspended or finished session just reports the current status
// again.
func (s *Session) Execute() (Status, error) {
	s.tree.freeze()
	return s.run()
}

// Resume injects Success into the identified Waiting node -- without
// re-invoking its handler -- and continues the scheduling loop.
//
// If the node isn't currently Waiting for this session (wrong state,
// or its enclosing composite already resolved), Resume is a safe
// no-op that returns the session's current status.
func (s *Session) Resume(id string) (Status, error) {
	return s.inject(id, Success)
}

// Fail is Resume's counterpart: it injects Failure.
func (s *Session) Fail(id string) (Status, error) {
	return s.inject(id, Failure)
}

func (s *Session) inject(id string, st Status) (Status, error) {
	n := s.tree.Node(id)
	if n == nil {
		return Unknown, &UnknownNode{s.tree, id}
	}
	if !s.waiting[id] {
		return s.statusOf(s.tree.Root()), nil
	}
	s.resolve(n, st)
	return s.run()
}

// Cancel forces every node not already terminal -- Waiting, Unknown,
// and the root included -- to Cancelled in one synchronous pass.  No
// further handler is invoked.
func (s *Session) Cancel() (Status, error) {
	// Snapshot derived statuses before writing anything so that
	// composite aggregates aren't computed against half-cancelled
	// children.
	snapshot := make(map[string]Status, len(s.tree.index))
	for id, n := range s.tree.index {
		snapshot[id] = s.statusOf(n)
	}
	for id, st := range snapshot {
		if !st.Terminal() {
			s.status[id] = Cancelled
		}
	}
	s.waiting = make(map[string]bool)
	return s.statusOf(s.tree.Root()), nil
}

// statusOf computes a node's current status: recorded if we have one,
// otherwise derived from children.  Handlers with nothing recorded
// are Unknown.
func (s *Session) statusOf(n Node) Status {
	if st, have := s.status[n.Id()]; have {
		return st
	}
	switch v := n.(type) {
	case *SequenceNode:
		return v.aggregate(s.statusOf)
	case *ParallelNode:
		return v.aggregate(s.statusOf)
	}
	return Unknown
}

// run is the scheduling loop shared by Execute, Resume, and Fail.
func (s *Session) run() (Status, error) {
	root := s.tree.Root()
	for {
		if st := s.statusOf(root); st.Terminal() {
			s.status[root.Id()] = st
			return st, nil
		}

		frontier := make([]*HandlerNode, 0, 8)
		if err := s.frontier(root, &frontier); err != nil {
			return Unknown, err
		}

		// Gathering the frontier can skip-resolve nodes, which
		// can resolve the root.
		if st := s.statusOf(root); st.Terminal() {
			s.status[root.Id()] = st
			return st, nil
		}

		if len(frontier) == 0 {
			// Nothing can run without an outstanding
			// Waiting being resolved from outside.
			return Waiting, nil
		}

		leaf := frontier[0]
		for _, h := range frontier[1:] {
			if h.Priority() < leaf.Priority() ||
				(h.Priority() == leaf.Priority() && s.tree.order(h.Id()) < s.tree.order(leaf.Id())) {
				leaf = h
			}
		}

		// A skip during frontier gathering can resolve a
		// composite whose other children were already
		// gathered.  Such leaves are inert now.
		if s.detached(leaf) {
			continue
		}

		ok, err := admit(s.subject, leaf)
		if err != nil {
			return Unknown, err
		}
		if !ok {
			// Skipped: never invoked, and the parent
			// aggregates it as Success.
			s.resolve(leaf, Success)
			continue
		}

		st, err := leaf.invoke(s)
		if err != nil {
			return Unknown, err
		}
		if st == Unknown {
			return Unknown, errors.New(`handler "` + leaf.Id() + `" returned unknown`)
		}
		s.resolve(leaf, st)
	}
}

// frontier gathers the handler leaves currently eligible under n.
//
// Recursion stops at nodes already terminal or Waiting.  Composite
// gating conditions are evaluated here, on the way down, at most once
// per session; a gated-out composite is skip-resolved to Success and
// its children never become eligible.  Handler leaf conditions are
// NOT evaluated here: per the scheduling contract they run only after
// the leaf wins selection.
func (s *Session) frontier(n Node, acc *[]*HandlerNode) error {
	st := s.statusOf(n)
	if st.Terminal() || st == Waiting {
		return nil
	}

	switch v := n.(type) {
	case *HandlerNode:
		*acc = append(*acc, v)
	case *SequenceNode:
		if ok, err := s.admitComposite(v); err != nil || !ok {
			return err
		}
		// Only the first not-yet-successful child is
		// eligible.
		for _, child := range v.children {
			if s.statusOf(child) == Success {
				continue
			}
			return s.frontier(child, acc)
		}
	case *ParallelNode:
		if ok, err := s.admitComposite(v); err != nil || !ok {
			return err
		}
		// Every unresolved child is eligible at once.
		for _, child := range v.children {
			if err := s.frontier(child, acc); err != nil {
				return err
			}
			if s.status[v.Id()].Terminal() {
				// A skip resolved us mid-gathering.
				break
			}
		}
	}
	return nil
}

// admitComposite evaluates a composite's gating conditions once per
// session.  A gated-out composite is skip-resolved to Success.
func (s *Session) admitComposite(n Node) (bool, error) {
	if s.admitted[n.Id()] {
		return true, nil
	}
	ok, err := admit(s.subject, n)
	if err != nil {
		return false, err
	}
	if !ok {
		s.resolve(n, Success)
		return false, nil
	}
	s.admitted[n.Id()] = true
	return true, nil
}

// detached reports whether any ancestor of the given node has already
// resolved, making the node inert.
func (s *Session) detached(n Node) bool {
	id := n.Id()
	for {
		pid, have := s.tree.parent(id)
		if !have || pid == "" {
			return false
		}
		if s.status[pid].Terminal() {
			return true
		}
		id = pid
	}
}

// resolve records a node's status and, for terminal statuses,
// propagates through the ancestors, recording each one that becomes
// terminal as a consequence.
func (s *Session) resolve(n Node, st Status) {
	s.status[n.Id()] = st
	if st == Waiting {
		s.waiting[n.Id()] = true
		return
	}
	delete(s.waiting, n.Id())
	if !st.Terminal() {
		return
	}

	id := n.Id()
	for {
		pid, have := s.tree.parent(id)
		if !have || pid == "" {
			return
		}
		p := s.tree.Node(pid)
		if s.status[pid].Terminal() {
			return
		}
		pst := s.statusOf(p)
		if !pst.Terminal() {
			return
		}
		s.status[pid] = pst
		s.retire(p)
		id = pid
	}
}

// retire removes a freshly-resolved composite's still-Waiting
// descendants from the waiting set.  Their recorded status stays
// Waiting, but Resume and Fail addressed to them become no-ops: the
// composite's resolution is final.
func (s *Session) retire(n Node) {
	for _, child := range n.Children() {
		if s.waiting[child.Id()] {
			delete(s.waiting, child.Id())
		}
		s.retire(child)
	}
}
