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
	"sync"
)

// composite is a node that owns children: SequenceNode or
// ParallelNode.
type composite interface {
	Node
	add(child Node)
	remove(id string) bool
}

// Tree is a root node plus an id index.  A Tree gives structure only;
// a Session owns all run state, which is what makes template reuse
// work: build a tree once, run many sessions against it.
//
// A tree's structure may be changed (AddChild, RemoveChild) only
// until the first Execute of any session built from it.  After that
// the tree is frozen and every structural mutation fails with a
// FrozenTree error.  Freezing is what makes sharing one tree across
// sessions on different goroutines safe without locks in the
// scheduler.
type Tree struct {
	// Name is the generic name for this tree.  Something like
	// "device-boot".
	Name string

	root Node

	mu     sync.Mutex
	frozen bool

	// index maps node id to node; parents maps node id to the
	// owning composite's id ("" for the root).  orders records
	// declaration order, which breaks priority ties.
	index   map[string]Node
	parents map[string]string
	orders  map[string]int
	next    int
}

// NewTree indexes the given root and its descendants.  Every node id
// must be unique across the whole tree.
func NewTree(name string, root Node) (*Tree, error) {
	t := &Tree{
		Name:    name,
		root:    root,
		index:   make(map[string]Node, 32),
		parents: make(map[string]string, 32),
		orders:  make(map[string]int, 32),
	}
	if err := t.indexSubtree(root, ""); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) indexSubtree(n Node, parent string) error {
	if _, have := t.index[n.Id()]; have {
		return &DuplicateNode{t, n.Id()}
	}
	t.index[n.Id()] = n
	t.parents[n.Id()] = parent
	t.orders[n.Id()] = t.next
	t.next++
	for _, child := range n.Children() {
		if err := t.indexSubtree(child, n.Id()); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) unindexSubtree(n Node) {
	for _, child := range n.Children() {
		t.unindexSubtree(child)
	}
	delete(t.index, n.Id())
	delete(t.parents, n.Id())
	delete(t.orders, n.Id())
}

// Root returns the tree's root node.
func (t *Tree) Root() Node {
	return t.root
}

// Node returns the node with the given id (or nil).
func (t *Tree) Node(id string) Node {
	return t.index[id]
}

// HasChild reports whether a node with the given id is anywhere in
// the tree.
func (t *Tree) HasChild(id string) bool {
	_, have := t.index[id]
	return have
}

// Frozen reports whether any session has begun executing this tree.
func (t *Tree) Frozen() bool {
	t.mu.Lock()
	frozen := t.frozen
	t.mu.Unlock()
	return frozen
}

// freeze marks the tree immutable.  Called by Session.Execute;
// idempotent.
func (t *Tree) freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

// parent returns the id of the composite owning the given node id
// ("" for the root).
func (t *Tree) parent(id string) (string, bool) {
	p, have := t.parents[id]
	return p, have
}

// order returns the declaration ordinal for the given node id.
func (t *Tree) order(id string) int {
	return t.orders[id]
}

// AddChild appends the given node (and its subtree) to the children
// of the identified composite.  Fails once the tree is frozen.
func (t *Tree) AddChild(parentId string, child Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return &FrozenTree{t}
	}
	p, have := t.index[parentId]
	if !have {
		return &UnknownNode{t, parentId}
	}
	owner, is := p.(composite)
	if !is {
		return &NotComposite{t, parentId}
	}

	// Check ids before touching the index so a duplicate deep in
	// the subtree doesn't leave the index half-updated.
	seen := make(map[string]bool)
	if err := walk(child, 0, func(n Node, _ int) error {
		if seen[n.Id()] || t.index[n.Id()] != nil {
			return &DuplicateNode{t, n.Id()}
		}
		seen[n.Id()] = true
		return nil
	}); err != nil {
		return err
	}

	if err := t.indexSubtree(child, parentId); err != nil {
		return err
	}
	owner.add(child)
	return nil
}

// RemoveChild removes the identified child (and its subtree) from the
// identified composite.  Fails once the tree is frozen.
func (t *Tree) RemoveChild(parentId, childId string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return &FrozenTree{t}
	}
	p, have := t.index[parentId]
	if !have {
		return &UnknownNode{t, parentId}
	}
	owner, is := p.(composite)
	if !is {
		return &NotComposite{t, parentId}
	}
	child, have := t.index[childId]
	if !have || !owner.remove(childId) {
		return &UnknownNode{t, childId}
	}
	t.unindexSubtree(child)
	return nil
}

// Walk calls f for every node in declaration order, parents before
// children.
func (t *Tree) Walk(f func(n Node, depth int) error) error {
	return walk(t.root, 0, f)
}

func walk(n Node, depth int, f func(Node, int) error) error {
	if err := f(n, depth); err != nil {
		return err
	}
	for _, child := range n.Children() {
		if err := walk(child, depth+1, f); err != nil {
			return err
		}
	}
	return nil
}
