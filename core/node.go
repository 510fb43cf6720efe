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

// Condition is a gating predicate evaluated before a node is allowed
// to execute or recurse.  The subject is the caller-owned value bound
// to the session; the engine never inspects it.
//
// A condition error is a user error: the engine does not catch it,
// and it propagates out of Execute, Resume, or Fail.
type Condition func(subject interface{}, n Node) (bool, error)

// Node is a process tree node: a Handler leaf, a Sequence, or a
// Parallel.
//
// A Node carries structure only.  All run state lives in a Session,
// which is why one tree can back many sessions.
type Node interface {
	// Id is unique across the entire tree.  Resume and Fail
	// address nodes by this id.
	Id() string

	// Priority orders this node's handler against the rest of the
	// frontier.  Lower runs earlier.
	Priority() Priority

	// Conditions is the ordered gating predicate list.  Evaluated
	// left to right with short-circuit AND semantics.
	Conditions() []Condition

	// Children is nil for handler leaves.
	Children() []Node

	// Doc is optional documentation in Markdown.  Audience is
	// developers.
	Doc() string
}

// node is the embedded common part of every node variant.
type node struct {
	id         string
	priority   Priority
	conditions []Condition
	doc        string
}

func (n *node) Id() string {
	return n.id
}

func (n *node) Priority() Priority {
	return n.priority
}

func (n *node) Conditions() []Condition {
	return n.conditions
}

func (n *node) Doc() string {
	return n.doc
}

// NodeOption configures a node at construction time.
type NodeOption func(*node)

// WithPriority sets the node's scheduling priority.  The default is
// Normal.
func WithPriority(p Priority) NodeOption {
	return func(n *node) {
		n.priority = p
	}
}

// WithConditions appends gating conditions in order.
func WithConditions(conditions ...Condition) NodeOption {
	return func(n *node) {
		n.conditions = append(n.conditions, conditions...)
	}
}

// WithDoc attaches documentation to the node.
func WithDoc(doc string) NodeOption {
	return func(n *node) {
		n.doc = doc
	}
}

func newNode(id string, opts ...NodeOption) node {
	n := node{
		id:       id,
		priority: Normal,
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// admit evaluates the node's conditions left to right.  The first
// false short-circuits.  Errors are forwarded uncaught.
func admit(subject interface{}, n Node) (bool, error) {
	for _, condition := range n.Conditions() {
		ok, err := condition(subject, n)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
