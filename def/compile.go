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

package def

import (
	"context"
	"errors"
	"strings"

	"github.com/treeproc/treeproc/core"

	"github.com/jsccast/yaml"
)

// ParseTreeSpec reads a TreeSpec from YAML (or JSON, which is YAML).
//
// Note that we use a YAML parser that returns string-keyed maps, so
// interpreter sources survive as map[string]interface{}.
func ParseTreeSpec(bs []byte) (*TreeSpec, error) {
	var spec TreeSpec
	if err := yaml.Unmarshal(bs, &spec); err != nil {
		return nil, err
	}
	if spec.Root == nil {
		return nil, errors.New(`tree spec "` + spec.Name + `" has no root`)
	}
	return &spec, nil
}

var priorityNames = map[string]core.Priority{
	"critical": core.Critical,
	"high":     core.High,
	"normal":   core.Normal,
	"low":      core.Low,
	"minimal":  core.Minimal,
}

// parsePriority accepts a level name or a number.  Nil means Normal.
func parsePriority(x interface{}) (core.Priority, error) {
	switch v := x.(type) {
	case nil:
		return core.Normal, nil
	case string:
		if p, have := priorityNames[strings.ToLower(v)]; have {
			return p, nil
		}
		return core.Normal, errors.New(`unknown priority "` + v + `"`)
	case int:
		return core.Priority(v), nil
	case int64:
		return core.Priority(v), nil
	case float64:
		return core.Priority(int(v)), nil
	}
	return core.Normal, errors.New("bad priority")
}

// Compile turns the declarative spec into an executable core.Tree
// using the given interpreters (DefaultInterpreters if nil).
//
// Handler and condition sources are compiled once here; the resulting
// closures capture ctx.  A compile error names the offending node.
func (spec *TreeSpec) Compile(ctx context.Context, interpreters InterpretersMap) (*core.Tree, error) {
	if spec.Root == nil {
		return nil, errors.New(`tree spec "` + spec.Name + `" has no root`)
	}
	root, err := spec.Root.compile(ctx, interpreters)
	if err != nil {
		return nil, err
	}
	name := spec.Name
	if name == "" {
		name = spec.Root.Id
	}
	return core.NewTree(name, root)
}

// kind resolves the node kind, defaulting by shape.
func (ns *NodeSpec) kind() string {
	if ns.Kind != "" {
		return ns.Kind
	}
	if 0 < len(ns.Children) {
		return "sequence"
	}
	return "handler"
}

func (ns *NodeSpec) compile(ctx context.Context, interpreters InterpretersMap) (core.Node, error) {
	if ns.Id == "" {
		return nil, errors.New("node spec has no id")
	}

	opts := make([]core.NodeOption, 0, 2+len(ns.Conditions))

	p, err := parsePriority(ns.Priority)
	if err != nil {
		return nil, errors.New(err.Error() + ": node: " + ns.Id)
	}
	if p != core.Normal {
		opts = append(opts, core.WithPriority(p))
	}
	if ns.Doc != "" {
		opts = append(opts, core.WithDoc(ns.Doc))
	}
	for _, src := range ns.Conditions {
		condition, err := src.condition(ctx, interpreters)
		if err != nil {
			return nil, errors.New(err.Error() + ": node: " + ns.Id)
		}
		opts = append(opts, core.WithConditions(condition))
	}

	switch ns.kind() {
	case "handler":
		if ns.Action == nil {
			return nil, errors.New(`handler "` + ns.Id + `" has no action`)
		}
		if 0 < len(ns.Children) {
			return nil, errors.New(`handler "` + ns.Id + `" cannot have children`)
		}
		fn, err := ns.Action.handler(ctx, interpreters)
		if err != nil {
			return nil, errors.New(err.Error() + ": node: " + ns.Id)
		}
		return core.NewHandler(ns.Id, fn, opts...), nil

	case "sequence", "parallel":
		if ns.Action != nil {
			return nil, errors.New(`composite "` + ns.Id + `" cannot have an action`)
		}
		children := make([]core.Node, 0, len(ns.Children))
		for _, cs := range ns.Children {
			child, err := cs.compile(ctx, interpreters)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if ns.kind() == "sequence" {
			return core.NewSequence(ns.Id, children, opts...), nil
		}
		return core.NewParallel(ns.Id, ns.RequiredToSucceed, ns.RequiredToFail, children, opts...), nil
	}

	return nil, errors.New(`unknown node kind "` + ns.Kind + `" at node "` + ns.Id + `"`)
}
