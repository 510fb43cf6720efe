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
	"sync/atomic"
)

// HandlerFunc is the work a HandlerNode wraps.  It returns the node's
// raw status for the session: usually Success or Failure, or Waiting
// to suspend the session pending an external Resume or Fail.
//
// An error aborts the in-progress Execute, Resume, or Fail and
// propagates to the caller unmodified.  The engine performs no retry.
type HandlerFunc func(s *Session) (Status, error)

// counter is a shared execution tally.  A HandlerNode and its clones
// all hold the same cell, so their invocation counts aggregate even
// when the clones live in different trees run from different
// goroutines.
type counter struct {
	n int64
}

func (c *counter) inc() {
	atomic.AddInt64(&c.n, 1)
}

func (c *counter) value() int64 {
	return atomic.LoadInt64(&c.n)
}

// HandlerNode is a leaf that wraps a user function.
type HandlerNode struct {
	node
	fn    HandlerFunc
	execs *counter
}

// NewHandler makes a handler leaf with its own execution counter.
func NewHandler(id string, fn HandlerFunc, opts ...NodeOption) *HandlerNode {
	return &HandlerNode{
		node:  newNode(id, opts...),
		fn:    fn,
		execs: &counter{},
	}
}

// Children returns nil: a handler is always a leaf.
func (h *HandlerNode) Children() []Node {
	return nil
}

// Executions returns the number of times this handler's function has
// been invoked, across this node and every clone of it.
func (h *HandlerNode) Executions() int64 {
	return h.execs.value()
}

// Clone makes a structurally independent handler with a new id (and
// optionally new priority or conditions via opts) that shares this
// handler's execution counter.  The clone is safe to place in a
// different tree; invocation counts still aggregate with the source.
func (h *HandlerNode) Clone(id string, opts ...NodeOption) *HandlerNode {
	return &HandlerNode{
		node:  newNode(id, opts...),
		fn:    h.fn,
		execs: h.execs,
	}
}

// invoke runs the handler's function, counting the invocation.  The
// count is bumped exactly once per invocation, before the function
// runs, so a function that errors still counts.
func (h *HandlerNode) invoke(s *Session) (Status, error) {
	h.execs.inc()
	return h.fn(s)
}
