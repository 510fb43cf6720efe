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
	"strings"
	"testing"

	"github.com/treeproc/treeproc/core"
)

// literal is a test interpreter: an action source is the literal name
// of the status to return, and a condition source is "true" or
// "false".
type literal struct{}

func (i *literal) Compile(ctx context.Context, code interface{}) (interface{}, error) {
	return nil, nil
}

func (i *literal) ExecHandler(ctx context.Context, s *core.Session, code interface{}, compiled interface{}) (core.Status, error) {
	switch code.(string) {
	case "success":
		return core.Success, nil
	case "failure":
		return core.Failure, nil
	case "waiting":
		return core.Waiting, nil
	case "cancelled":
		return core.Cancelled, nil
	}
	return core.Unknown, nil
}

func (i *literal) ExecCondition(ctx context.Context, subject interface{}, n core.Node, code interface{}, compiled interface{}) (bool, error) {
	return code.(string) == "true", nil
}

func testInterpreters() InterpretersMap {
	is := NewInterpretersMap()
	is["literal"] = &literal{}
	return is
}

var bootSpec = `
name: device-boot
doc: |
  Load config, then warm two caches in parallel.
root:
  id: boot
  kind: sequence
  children:
  - id: load-config
    priority: critical
    action:
      interpreter: literal
      source: success
  - id: warm
    kind: parallel
    requiredToSucceed: 2
    requiredToFail: 1
    children:
    - id: warm-cache
      action:
        interpreter: literal
        source: success
    - id: warm-conns
      action:
        interpreter: literal
        source: success
`

func TestParseAndCompile(t *testing.T) {
	spec, err := ParseTreeSpec([]byte(bootSpec))
	if err != nil {
		t.Fatal(err)
	}
	if spec.Name != "device-boot" {
		t.Fatalf("name %q", spec.Name)
	}

	ctx := context.Background()
	tree, err := spec.Compile(ctx, testInterpreters())
	if err != nil {
		t.Fatal(err)
	}

	if tree.Node("load-config").Priority() != core.Critical {
		t.Fatalf("priority %s", tree.Node("load-config").Priority())
	}

	st, err := core.NewSession(tree, nil).Execute()
	if err != nil {
		t.Fatal(err)
	}
	if st != core.Success {
		t.Fatalf("got %s, wanted %s", st, core.Success)
	}
}

func TestCompileConditions(t *testing.T) {
	src := `
name: gated
root:
  id: seq
  kind: sequence
  children:
  - id: skipped
    conditions:
    - interpreter: literal
      source: "false"
    action:
      interpreter: literal
      source: failure
  - id: ran
    action:
      interpreter: literal
      source: success
`
	spec, err := ParseTreeSpec([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	tree, err := spec.Compile(context.Background(), testInterpreters())
	if err != nil {
		t.Fatal(err)
	}
	s := core.NewSession(tree, nil)
	if st, _ := s.Execute(); st != core.Success {
		t.Fatalf("got %s, wanted %s", st, core.Success)
	}
	if st, _ := s.NodeStatus("skipped"); st != core.Success {
		t.Fatalf("skipped node reported %s", st)
	}
}

func TestCompileWaitingRoundTrip(t *testing.T) {
	src := `
root:
  id: par
  kind: parallel
  requiredToSucceed: 1
  requiredToFail: 1
  children:
  - id: pending
    action:
      interpreter: literal
      source: waiting
`
	spec, err := ParseTreeSpec([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	tree, err := spec.Compile(context.Background(), testInterpreters())
	if err != nil {
		t.Fatal(err)
	}
	s := core.NewSession(tree, nil)
	if st, _ := s.Execute(); st != core.Waiting {
		t.Fatalf("got %s, wanted %s", st, core.Waiting)
	}
	if st, _ := s.Resume("pending"); st != core.Success {
		t.Fatalf("got %s after resume", st)
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "no-root",
			src:  `name: empty`,
			want: "has no root",
		},
		{
			name: "no-action",
			src: `
root:
  id: h
`,
			want: "has no action",
		},
		{
			name: "unknown-interpreter",
			src: `
root:
  id: h
  action:
    interpreter: nope
    source: success
`,
			want: "interpreter not found",
		},
		{
			name: "bad-priority",
			src: `
root:
  id: h
  priority: sometimes
  action:
    interpreter: literal
    source: success
`,
			want: "unknown priority",
		},
		{
			name: "composite-with-action",
			src: `
root:
  id: seq
  kind: sequence
  action:
    interpreter: literal
    source: success
`,
			want: "cannot have an action",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			spec, err := ParseTreeSpec([]byte(c.src))
			if err == nil {
				_, err = spec.Compile(context.Background(), testInterpreters())
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Fatalf("got %q, wanted %q", err.Error(), c.want)
			}
		})
	}
}

func TestParsePriorityNumeric(t *testing.T) {
	p, err := parsePriority(-25)
	if err != nil {
		t.Fatal(err)
	}
	if p != core.Priority(-25) {
		t.Fatalf("got %d", p)
	}
}
