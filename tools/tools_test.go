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
	"bytes"
	"strings"
	"testing"

	"github.com/treeproc/treeproc/core"
	"github.com/treeproc/treeproc/def"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error {
	return nil
}

func demoTree(t *testing.T) *core.Tree {
	t.Helper()
	ok := func(s *core.Session) (core.Status, error) {
		return core.Success, nil
	}
	b := core.NewBuilder("boot")
	b.Sequence("boot", func(b *core.Builder) {
		b.Handler("load-config", ok, core.WithPriority(core.Critical),
			core.WithDoc("Read the device configuration."))
		b.Parallel("warm", 2, 1, func(b *core.Builder) {
			b.Handler("warm-cache", ok)
			b.Handler("warm-conns", ok)
		})
	})
	tree, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestDot(t *testing.T) {
	tree := demoTree(t)
	var buf bytes.Buffer
	if err := Dot(tree, nopCloser{&buf}, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"digraph G {",
		`"boot" -> "load-config"`,
		`"boot" -> "warm"`,
		"requiredToSucceed: 2",
		"priority critical",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDotStatuses(t *testing.T) {
	tree := demoTree(t)
	s := core.NewSession(tree, nil)
	if st, err := s.Execute(); err != nil || st != core.Success {
		t.Fatalf("execute gave %s, %v", st, err)
	}

	var buf bytes.Buffer
	statusOf := func(id string) core.Status {
		st, _ := s.NodeStatus(id)
		return st
	}
	if err := Dot(tree, nopCloser{&buf}, statusOf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), statusColors[core.Success]) {
		t.Fatal("status coloring missing")
	}
}

func TestMermaid(t *testing.T) {
	tree := demoTree(t)
	var buf bytes.Buffer
	if err := Mermaid(tree, nopCloser{&buf}, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"graph TB",
		`("boot")`,
		`{{"warm 2/1"}}`,
		`["load-config"]`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func demoSpec() *def.TreeSpec {
	action := &def.Source{Interpreter: "goja", Source: `return "success";`}
	return &def.TreeSpec{
		Name: "boot",
		Doc:  "Boots a *device*.",
		Root: &def.NodeSpec{
			Id:   "boot",
			Kind: "sequence",
			Children: []*def.NodeSpec{
				{
					Id:       "load-config",
					Priority: "critical",
					Action:   action,
				},
				{
					Id:                "warm",
					Kind:              "parallel",
					RequiredToSucceed: 2,
					RequiredToFail:    1,
					Children: []*def.NodeSpec{
						{Id: "warm-cache", Action: action},
						{Id: "warm-conns", Action: action},
					},
				},
			},
		},
	}
}

func TestRenderTreeHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTreeHTML(demoSpec(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		`id="boot"`,
		`id="warm-cache"`,
		"requiredToSucceed: 2",
		"<em>device</em>", // Markdown ran
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTreePage(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTreePage(demoSpec(), &buf, nil, true); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "<title>boot</title>") {
		t.Fatalf("page missing title:\n%s", out)
	}
	if !strings.Contains(out, "var thisTree =") {
		t.Fatal("page missing embedded spec")
	}
}

func TestAnalyze(t *testing.T) {
	a, err := Analyze(demoSpec())
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Errors) != 0 {
		t.Fatalf("unexpected problems: %v", a.Errors)
	}
	if a.NodeCount != 5 || a.Handlers != 3 || a.Sequences != 1 || a.Parallels != 1 {
		t.Fatalf("counts: %+v", a)
	}
	if len(a.Interpreters) != 1 || a.Interpreters[0] != "goja" {
		t.Fatalf("interpreters: %v", a.Interpreters)
	}
}

func TestAnalyzeProblems(t *testing.T) {
	spec := &def.TreeSpec{
		Name: "broken",
		Root: &def.NodeSpec{
			Id:   "root",
			Kind: "sequence",
			Children: []*def.NodeSpec{
				{Id: "dup"}, // handler with no action
				{Id: "dup", Action: &def.Source{Interpreter: "noop"}},
				{
					Id:                "narrow",
					Kind:              "parallel",
					RequiredToSucceed: 3,
					Children: []*def.NodeSpec{
						{Id: "only", Action: &def.Source{Interpreter: "noop"}},
					},
				},
				{Id: "hollow", Kind: "sequence"},
			},
		},
	}

	a, err := Analyze(spec)
	if err != nil {
		t.Fatal(err)
	}

	if len(a.DuplicateIds) != 1 || a.DuplicateIds[0] != "dup" {
		t.Fatalf("duplicates: %v", a.DuplicateIds)
	}
	if len(a.UnreachableThresholds) != 1 || a.UnreachableThresholds[0] != "narrow" {
		t.Fatalf("unreachable: %v", a.UnreachableThresholds)
	}
	if len(a.EmptyComposites) != 1 || a.EmptyComposites[0] != "hollow" {
		t.Fatalf("empty: %v", a.EmptyComposites)
	}
	found := false
	for _, e := range a.Errors {
		if strings.Contains(e, "has no action") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing no-action error: %v", a.Errors)
	}
}
