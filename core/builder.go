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

// Builder composes a tree fluently: nested Sequence, Parallel, and
// Handler declarations, then Build.
//
//	b := core.NewBuilder("boot")
//	b.Sequence("boot", func(b *core.Builder) {
//		b.Handler("load-config", loadConfig, core.WithPriority(core.Critical))
//		b.Parallel("warm", 2, 1, func(b *core.Builder) {
//			b.Handler("warm-cache", warmCache)
//			b.Handler("warm-conns", warmConns)
//		})
//	})
//	tree, err := b.Build()
//
// Declaration order is significant: it breaks priority ties during
// scheduling.
//
// A Builder is not safe for concurrent use.  The first error sticks:
// later calls are no-ops, and Build reports it.
type Builder struct {
	name  string
	root  Node
	stack []composite
	err   error
}

// NewBuilder makes a builder for a tree with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name: name,
	}
}

func (b *Builder) attach(n Node) {
	if b.err != nil {
		return
	}
	if n.Id() == "" {
		b.err = errors.New("node must have an id")
		return
	}
	if 0 < len(b.stack) {
		b.stack[len(b.stack)-1].add(n)
		return
	}
	if b.root != nil {
		b.err = errors.New(`tree "` + b.name + `" already has root "` + b.root.Id() + `"`)
		return
	}
	b.root = n
}

func (b *Builder) nest(owner composite, fn func(*Builder)) {
	b.attach(owner)
	if b.err != nil || fn == nil {
		return
	}
	b.stack = append(b.stack, owner)
	fn(b)
	b.stack = b.stack[:len(b.stack)-1]
}

// Sequence declares an ordered-AND composite.  fn (if any) declares
// its children.
func (b *Builder) Sequence(id string, fn func(*Builder), opts ...NodeOption) *Builder {
	b.nest(NewSequence(id, nil, opts...), fn)
	return b
}

// Parallel declares a threshold-aggregating composite.  fn (if any)
// declares its children.  requiredToFail of zero disables resolution
// by failure count; the conventional value is 1.
func (b *Builder) Parallel(id string, requiredToSucceed, requiredToFail int, fn func(*Builder), opts ...NodeOption) *Builder {
	b.nest(NewParallel(id, requiredToSucceed, requiredToFail, nil, opts...), fn)
	return b
}

// Handler declares a leaf wrapping the given function.
func (b *Builder) Handler(id string, fn HandlerFunc, opts ...NodeOption) *Builder {
	b.attach(NewHandler(id, fn, opts...))
	return b
}

// Node attaches a pre-built node, such as a Clone of a handler used
// in another tree.
func (b *Builder) Node(n Node) *Builder {
	b.attach(n)
	return b
}

// Build indexes the declared structure and returns the tree, which is
// ready for repeated execution via Sessions.
func (b *Builder) Build() (*Tree, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.root == nil {
		return nil, errors.New(`tree "` + b.name + `" has no root`)
	}
	return NewTree(b.name, b.root)
}
