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

package fleet

import (
	"context"
	"sync"

	"github.com/treeproc/treeproc/core"
	"github.com/treeproc/treeproc/def"
)

// Runner is one live unit of work: an id, the tree it runs, and the
// session holding its state.
//
// The engine requires callers to serialize Execute, Resume, Fail, and
// Cancel against one session.  Runner is where that happens: its
// methods take the runner's lock, so a service can drive the same
// runner from its listener goroutines without further ceremony.
type Runner struct {
	mu sync.Mutex

	Id string `json:"id,omitempty"`

	// TreeSource is here only to facilitate serialization of a
	// runner's origin.  This field is not used anywhere in this
	// package.
	TreeSource *TreeSource `json:"tree,omitempty"`

	tree    *core.Tree
	session *core.Session
}

// NewRunner binds a fresh session for the given tree and subject.
func NewRunner(id string, tree *core.Tree, subject interface{}) *Runner {
	return &Runner{
		Id:      id,
		tree:    tree,
		session: core.NewSession(tree, subject),
	}
}

// Tree returns the tree this runner executes.
func (r *Runner) Tree() *core.Tree {
	return r.tree
}

// Execute runs the runner's session.
func (r *Runner) Execute() (core.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Execute()
}

// Resume injects Success into the identified waiting node.
func (r *Runner) Resume(nodeId string) (core.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Resume(nodeId)
}

// Fail injects Failure into the identified waiting node.
func (r *Runner) Fail(nodeId string) (core.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Fail(nodeId)
}

// Cancel cancels the runner's session.
func (r *Runner) Cancel() (core.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Cancel()
}

// NodeStatus reports the identified node's status for this runner's
// session.
func (r *Runner) NodeStatus(nodeId string) (core.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.NodeStatus(nodeId)
}

// TreeSource holds the origin of a tree definition.
//
// A source can be a name (resolved by a TreeProvider), a URL, a
// definition string, or an inline def.TreeSpec.  Just how a
// TreeSource is used is up to the application.
type TreeSource struct {
	// Name is an optional string that a TreeProvider could use to
	// obtain some tree.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// URL is an optional pointer to a tree definition.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Source is an optional string representing a tree definition
	// (YAML, as read by def.ParseTreeSpec).
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Inline is an optional actual spec right here.
	Inline *def.TreeSpec `json:"inline,omitempty" yaml:",omitempty"`
}

// NewTreeSource creates a TreeSource with the given name.
func NewTreeSource(name string) *TreeSource {
	return &TreeSource{
		Name: name,
	}
}

// Copy makes a shallow copy.
func (s *TreeSource) Copy() *TreeSource {
	if s == nil {
		return nil
	}
	return &TreeSource{
		Name:   s.Name,
		URL:    s.URL,
		Source: s.Source,
		Inline: s.Inline,
	}
}

// TreeProvider can FindTree given a TreeSource.
type TreeProvider interface {
	FindTree(ctx context.Context, s *TreeSource) (*core.Tree, error)
}
