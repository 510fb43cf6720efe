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

package tools

import (
	"fmt"
	"sort"

	"github.com/treeproc/treeproc/def"
)

// TreeAnalysis is a structural lint of a tree spec: what's in it and
// what's wrong with it, found without compiling or running anything.
type TreeAnalysis struct {
	spec *def.TreeSpec

	Errors     []string
	NodeCount  int
	Handlers   int
	Sequences  int
	Parallels  int
	Conditions int

	// EmptyComposites lists composites with no children.  Legal
	// (an empty sequence resolves successfully) but usually a
	// leftover.
	EmptyComposites []string

	// UnreachableThresholds lists parallel nodes whose success
	// threshold exceeds their child count, which forces failure
	// once every child resolves.
	UnreachableThresholds []string

	// DuplicateIds lists ids appearing more than once.
	DuplicateIds []string

	// Interpreters lists the interpreter names the spec requires.
	Interpreters []string
}

// Analyze performs the structural lint.
func Analyze(spec *def.TreeSpec) (*TreeAnalysis, error) {
	a := TreeAnalysis{
		spec:   spec,
		Errors: make([]string, 0, 8),
	}

	if spec.Root == nil {
		a.Errors = append(a.Errors, "no root node")
		return &a, nil
	}

	seen := make(map[string]bool)
	dups := make(map[string]bool)
	interpreters := make(map[string]bool)

	var walk func(ns *def.NodeSpec)
	walk = func(ns *def.NodeSpec) {
		a.NodeCount++

		if ns.Id == "" {
			a.Errors = append(a.Errors, "node with no id")
		} else if seen[ns.Id] {
			dups[ns.Id] = true
		}
		seen[ns.Id] = true

		a.Conditions += len(ns.Conditions)
		for _, c := range ns.Conditions {
			interpreters[c.Interpreter] = true
		}

		switch kindOf(ns) {
		case "handler":
			a.Handlers++
			if ns.Action == nil {
				a.Errors = append(a.Errors, fmt.Sprintf("handler '%s' has no action", ns.Id))
			} else {
				interpreters[ns.Action.Interpreter] = true
			}
		case "sequence", "parallel":
			if kindOf(ns) == "sequence" {
				a.Sequences++
			} else {
				a.Parallels++
				if ns.RequiredToSucceed < 0 || ns.RequiredToFail < 0 {
					a.Errors = append(a.Errors, fmt.Sprintf("parallel '%s' has a negative threshold", ns.Id))
				}
				if len(ns.Children) < ns.RequiredToSucceed {
					a.UnreachableThresholds = append(a.UnreachableThresholds, ns.Id)
				}
			}
			if ns.Action != nil {
				a.Errors = append(a.Errors, fmt.Sprintf("composite '%s' has an action", ns.Id))
			}
			if len(ns.Children) == 0 {
				a.EmptyComposites = append(a.EmptyComposites, ns.Id)
			}
		default:
			a.Errors = append(a.Errors, fmt.Sprintf("node '%s' has unknown kind '%s'", ns.Id, ns.Kind))
		}

		for _, child := range ns.Children {
			walk(child)
		}
	}
	walk(spec.Root)

	a.DuplicateIds = keysToStringSlice(dups)
	a.Interpreters = keysToStringSlice(interpreters)

	sort.Strings(a.EmptyComposites)
	sort.Strings(a.UnreachableThresholds)

	return &a, nil
}

// keysToStringSlice converts the keys from a map into a sorted slice
// of strings.
func keysToStringSlice(m map[string]bool) []string {
	var list []string
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)
	return list
}
