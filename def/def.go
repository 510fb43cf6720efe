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

// Package def gives declarative (YAML/JSON) definitions for process
// trees.
//
// A TreeSpec is pure structure: node kinds, thresholds, priorities,
// and action/condition sources naming an interpreter.  Compiling a
// TreeSpec against a map of interpreters produces a core.Tree ready
// for sessions.  The same TreeSpec can be compiled many times (say
// with different interpreters for testing vs production).
package def

import (
	"context"
	"errors"

	"github.com/treeproc/treeproc/core"
)

var (
	// InterpreterNotFound occurs when a Source names an
	// interpreter that isn't in the given map.
	InterpreterNotFound = errors.New("interpreter not found")

	// DefaultInterpreters is used by Compile when given a nil
	// interpreters map.  Interpreter packages can register
	// themselves here from init.
	DefaultInterpreters = NewInterpretersMap()
)

// Interpreter can compile and execute code for handler actions and
// gating conditions.
type Interpreter interface {
	// Compile can make something that helps when executing the
	// code later.  The result is passed back to ExecHandler and
	// ExecCondition.
	Compile(ctx context.Context, code interface{}) (interface{}, error)

	// ExecHandler executes the code as a handler body and maps
	// its result to a status.
	ExecHandler(ctx context.Context, s *core.Session, code interface{}, compiled interface{}) (core.Status, error)

	// ExecCondition executes the code as a gating predicate.
	ExecCondition(ctx context.Context, subject interface{}, n core.Node, code interface{}, compiled interface{}) (bool, error)
}

// InterpretersMap maps interpreter names (as used in Source) to
// implementations.
type InterpretersMap map[string]Interpreter

// NewInterpretersMap does what you'd think.
func NewInterpretersMap() InterpretersMap {
	return make(InterpretersMap)
}

// Source is code for a handler action or a gating condition, tagged
// with the name of the interpreter that understands it.
type Source struct {
	// Interpreter is the name of the interpreter for this code.
	Interpreter string `json:"interpreter,omitempty" yaml:",omitempty"`

	// Source is the code itself: usually a string, or a map with
	// interpreter-specific structure (see the goja interpreter's
	// "code"/"requires" form).
	Source interface{} `json:"source" yaml:"source"`
}

// handler compiles the source into a core.HandlerFunc.
//
// The compile-time ctx is captured by the returned function: the
// engine's scheduling loop is synchronous and carries no context of
// its own.
func (src *Source) handler(ctx context.Context, interpreters InterpretersMap) (core.HandlerFunc, error) {
	interpreter, compiled, err := src.compile(ctx, interpreters)
	if err != nil {
		return nil, err
	}
	return func(s *core.Session) (core.Status, error) {
		return interpreter.ExecHandler(ctx, s, src.Source, compiled)
	}, nil
}

// condition compiles the source into a core.Condition.
func (src *Source) condition(ctx context.Context, interpreters InterpretersMap) (core.Condition, error) {
	interpreter, compiled, err := src.compile(ctx, interpreters)
	if err != nil {
		return nil, err
	}
	return func(subject interface{}, n core.Node) (bool, error) {
		return interpreter.ExecCondition(ctx, subject, n, src.Source, compiled)
	}, nil
}

func (src *Source) compile(ctx context.Context, interpreters InterpretersMap) (Interpreter, interface{}, error) {
	if interpreters == nil {
		interpreters = DefaultInterpreters
	}
	interpreter, have := interpreters[src.Interpreter]
	if !have {
		return nil, nil, InterpreterNotFound
	}
	compiled, err := interpreter.Compile(ctx, src.Source)
	if err != nil {
		return nil, nil, err
	}
	return interpreter, compiled, nil
}

// NodeSpec is the declarative form of one node.
type NodeSpec struct {
	// Id is this node's identifier, unique across the tree.
	Id string `json:"id" yaml:"id"`

	// Kind is "handler", "sequence", or "parallel".  Empty means
	// "sequence" when the node has children and "handler"
	// otherwise.
	Kind string `json:"kind,omitempty" yaml:",omitempty"`

	// Doc is general documentation about this node.
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// Priority is either a level name ("critical", "high",
	// "normal", "low", "minimal") or a number.  Nil means normal.
	Priority interface{} `json:"priority,omitempty" yaml:",omitempty"`

	// Conditions gate the node; see core.Condition.
	Conditions []*Source `json:"conditions,omitempty" yaml:",omitempty"`

	// Action is the handler body.  Handler nodes only.
	Action *Source `json:"action,omitempty" yaml:"action,omitempty"`

	// Children, in declaration order.  Composite nodes only.
	Children []*NodeSpec `json:"children,omitempty" yaml:",omitempty"`

	// RequiredToSucceed and RequiredToFail are the parallel
	// thresholds.  Parallel nodes only.
	RequiredToSucceed int `json:"requiredToSucceed,omitempty" yaml:"requiredToSucceed,omitempty"`
	RequiredToFail    int `json:"requiredToFail,omitempty" yaml:"requiredToFail,omitempty"`
}

// TreeSpec is the declarative form of a whole tree.
//
// A TreeSpec carries no run state and no compiled code, so it can be
// serialized, diffed, and rendered as-is.
type TreeSpec struct {
	// Name is the generic name for this tree.  Something like
	// "device-boot".  Cf. Id.
	Name string `json:"name,omitempty" yaml:",omitempty"`

	// Version is the version of this generic tree.  Something
	// like "1.2".
	Version string `json:"version,omitempty" yaml:",omitempty"`

	// Id should be a globally unique identifier (such as a hash
	// of a canonical representation of the TreeSpec).
	//
	// This package does not read or write this value.
	Id string `json:"id,omitempty" yaml:",omitempty"`

	// Doc is general documentation about how this tree works.
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// Root is the root node definition.
	Root *NodeSpec `json:"root" yaml:"root"`
}
