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
	"testing"
)

func returning(st Status) HandlerFunc {
	return func(s *Session) (Status, error) {
		return st, nil
	}
}

func mustBuild(t *testing.T, b *Builder) *Tree {
	t.Helper()
	tree, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestSequenceAllSucceed(t *testing.T) {
	// Scenario: two succeeding handlers in order.
	h1 := NewHandler("first", returning(Success))
	h2 := NewHandler("second", returning(Success))

	b := NewBuilder("t")
	b.Sequence("seq", func(b *Builder) {
		b.Node(h1)
		b.Node(h2)
	})
	s := NewSession(mustBuild(t, b), nil)

	st, err := s.Execute()
	if err != nil {
		t.Fatal(err)
	}
	if st != Success {
		t.Fatalf("got %s, wanted %s", st, Success)
	}
	if n := h1.Executions(); n != 1 {
		t.Fatalf("first executed %d times", n)
	}
	if n := h2.Executions(); n != 1 {
		t.Fatalf("second executed %d times", n)
	}
}

func TestSequenceFailFast(t *testing.T) {
	h1 := NewHandler("first", returning(Failure))
	h2 := NewHandler("second", returning(Success))

	b := NewBuilder("t")
	b.Sequence("seq", func(b *Builder) {
		b.Node(h1)
		b.Node(h2)
	})
	s := NewSession(mustBuild(t, b), nil)

	st, err := s.Execute()
	if err != nil {
		t.Fatal(err)
	}
	if st != Failure {
		t.Fatalf("got %s, wanted %s", st, Failure)
	}
	if n := h2.Executions(); n != 0 {
		t.Fatalf("second executed %d times after the first failed", n)
	}
}

func TestSequenceCancelledChild(t *testing.T) {
	b := NewBuilder("t")
	b.Sequence("seq", func(b *Builder) {
		b.Handler("child", returning(Cancelled))
	})
	s := NewSession(mustBuild(t, b), nil)

	st, err := s.Execute()
	if err != nil {
		t.Fatal(err)
	}
	if st != Cancelled {
		t.Fatalf("got %s, wanted %s", st, Cancelled)
	}
	for _, id := range []string{"child", "seq"} {
		st, err := s.NodeStatus(id)
		if err != nil {
			t.Fatal(err)
		}
		if st != Cancelled {
			t.Fatalf("%s is %s, wanted %s", id, st, Cancelled)
		}
	}
}

func TestEmptySequence(t *testing.T) {
	b := NewBuilder("t")
	b.Sequence("empty", nil)
	s := NewSession(mustBuild(t, b), nil)

	st, err := s.Execute()
	if err != nil {
		t.Fatal(err)
	}
	if st != Success {
		t.Fatalf("got %s, wanted %s", st, Success)
	}
}

func TestParallelWaitingResume(t *testing.T) {
	h := NewHandler("pending", returning(Waiting))

	b := NewBuilder("t")
	b.Parallel("par", 1, 1, func(b *Builder) {
		b.Node(h)
	})
	s := NewSession(mustBuild(t, b), nil)

	st, err := s.Execute()
	if err != nil {
		t.Fatal(err)
	}
	if st != Waiting {
		t.Fatalf("got %s, wanted %s", st, Waiting)
	}

	st, err = s.Resume("pending")
	if err != nil {
		t.Fatal(err)
	}
	if st != Success {
		t.Fatalf("got %s after resume, wanted %s", st, Success)
	}
	if n := h.Executions(); n != 1 {
		t.Fatalf("handler executed %d times; resume must not re-invoke", n)
	}
}

func TestParallelWaitingFail(t *testing.T) {
	b := NewBuilder("t")
	b.Parallel("par", 1, 1, func(b *Builder) {
		b.Handler("pending", returning(Waiting))
	})
	s := NewSession(mustBuild(t, b), nil)

	if st, _ := s.Execute(); st != Waiting {
		t.Fatalf("got %s, wanted %s", st, Waiting)
	}
	st, err := s.Fail("pending")
	if err != nil {
		t.Fatal(err)
	}
	if st != Failure {
		t.Fatalf("got %s after fail, wanted %s", st, Failure)
	}
}

func TestResumeNotWaitingIsNoop(t *testing.T) {
	h := NewHandler("done", returning(Success))

	b := NewBuilder("t")
	b.Sequence("seq", func(b *Builder) {
		b.Node(h)
	})
	s := NewSession(mustBuild(t, b), nil)

	if st, _ := s.Execute(); st != Success {
		t.Fatalf("got %s, wanted %s", st, Success)
	}

	st, err := s.Resume("done")
	if err != nil {
		t.Fatal(err)
	}
	if st != Success {
		t.Fatalf("got %s, wanted the current status %s", st, Success)
	}
	if n := h.Executions(); n != 1 {
		t.Fatalf("handler executed %d times; no-op resume must not invoke", n)
	}
}

func TestResumeUnknownNode(t *testing.T) {
	b := NewBuilder("t")
	b.Handler("only", returning(Waiting))
	s := NewSession(mustBuild(t, b), nil)
	s.Execute()

	_, err := s.Resume("nope")
	var unknown *UnknownNode
	if !errors.As(err, &unknown) {
		t.Fatalf("got %v, wanted UnknownNode", err)
	}
}

func TestCancel(t *testing.T) {
	b := NewBuilder("t")
	b.Sequence("seq", func(b *Builder) {
		b.Handler("done", returning(Success))
		b.Handler("pending", returning(Waiting))
		b.Handler("never", returning(Success))
	})
	s := NewSession(mustBuild(t, b), nil)

	if st, _ := s.Execute(); st != Waiting {
		t.Fatalf("got %s, wanted %s", st, Waiting)
	}

	st, err := s.Cancel()
	if err != nil {
		t.Fatal(err)
	}
	if st != Cancelled {
		t.Fatalf("got %s, wanted %s", st, Cancelled)
	}

	// Already-terminal nodes keep their status; everything else is
	// cancelled, the root included.
	for id, want := range map[string]Status{
		"done":    Success,
		"pending": Cancelled,
		"never":   Cancelled,
		"seq":     Cancelled,
	} {
		st, err := s.NodeStatus(id)
		if err != nil {
			t.Fatal(err)
		}
		if st != want {
			t.Fatalf("%s is %s, wanted %s", id, st, want)
		}
	}

	// A cancelled session accepts no more resumes.
	if st, _ := s.Resume("pending"); st != Cancelled {
		t.Fatalf("resume after cancel gave %s", st)
	}
}

func TestPriorityOrder(t *testing.T) {
	var order []string
	note := func(id string, st Status) HandlerFunc {
		return func(s *Session) (Status, error) {
			order = append(order, id)
			return st, nil
		}
	}

	// Priority is global across the frontier, not per-sibling: the
	// critical leaf in the second subtree runs before the normal
	// leaf declared first.
	b := NewBuilder("t")
	b.Parallel("par", 2, 1, func(b *Builder) {
		b.Handler("normal", note("normal", Success))
		b.Parallel("inner", 1, 1, func(b *Builder) {
			b.Handler("critical", note("critical", Success), WithPriority(Critical))
		})
	})
	s := NewSession(mustBuild(t, b), nil)

	if st, _ := s.Execute(); st != Success {
		t.Fatalf("got %s, wanted %s", st, Success)
	}
	if len(order) != 2 || order[0] != "critical" || order[1] != "normal" {
		t.Fatalf("ran in order %v", order)
	}
}

func TestPriorityTieDeclarationOrder(t *testing.T) {
	var order []string
	note := func(id string) HandlerFunc {
		return func(s *Session) (Status, error) {
			order = append(order, id)
			return Success, nil
		}
	}

	b := NewBuilder("t")
	b.Parallel("par", 3, 1, func(b *Builder) {
		b.Handler("a", note("a"))
		b.Handler("b", note("b"))
		b.Handler("c", note("c"))
	})
	s := NewSession(mustBuild(t, b), nil)

	if st, _ := s.Execute(); st != Success {
		t.Fatalf("got %s, wanted %s", st, Success)
	}
	for i, id := range []string{"a", "b", "c"} {
		if order[i] != id {
			t.Fatalf("ran in order %v", order)
		}
	}
}

func TestConditionSkip(t *testing.T) {
	h := NewHandler("gated", returning(Failure),
		WithConditions(func(subject interface{}, n Node) (bool, error) {
			return false, nil
		}))

	b := NewBuilder("t")
	b.Sequence("seq", func(b *Builder) {
		b.Node(h)
		b.Handler("after", returning(Success))
	})
	s := NewSession(mustBuild(t, b), nil)

	// The gated handler would fail the sequence, but a false
	// condition skips it entirely.
	st, err := s.Execute()
	if err != nil {
		t.Fatal(err)
	}
	if st != Success {
		t.Fatalf("got %s, wanted %s", st, Success)
	}
	if n := h.Executions(); n != 0 {
		t.Fatalf("gated handler executed %d times", n)
	}
}

func TestConditionShortCircuit(t *testing.T) {
	var calls []string
	cond := func(id string, ok bool) Condition {
		return func(subject interface{}, n Node) (bool, error) {
			calls = append(calls, id)
			return ok, nil
		}
	}

	b := NewBuilder("t")
	b.Handler("h", returning(Success),
		WithConditions(cond("first", false), cond("second", true)))
	s := NewSession(mustBuild(t, b), nil)

	if st, _ := s.Execute(); st != Success {
		t.Fatalf("skipped root should report success")
	}
	if len(calls) != 1 || calls[0] != "first" {
		t.Fatalf("conditions evaluated: %v", calls)
	}
}

func TestConditionErrorPropagates(t *testing.T) {
	oops := errors.New("condition oops")
	b := NewBuilder("t")
	b.Handler("h", returning(Success),
		WithConditions(func(subject interface{}, n Node) (bool, error) {
			return false, oops
		}))
	s := NewSession(mustBuild(t, b), nil)

	if _, err := s.Execute(); err != oops {
		t.Fatalf("got %v, wanted %v", err, oops)
	}
}

func TestHandlerErrorPropagates(t *testing.T) {
	oops := errors.New("handler oops")
	b := NewBuilder("t")
	b.Handler("h", func(s *Session) (Status, error) {
		return Unknown, oops
	})
	s := NewSession(mustBuild(t, b), nil)

	if _, err := s.Execute(); err != oops {
		t.Fatalf("got %v, wanted %v", err, oops)
	}
}

func TestConditionGatesComposite(t *testing.T) {
	h := NewHandler("inner", returning(Failure))

	b := NewBuilder("t")
	b.Sequence("seq", func(b *Builder) {
		b.Sequence("gated", func(b *Builder) {
			b.Node(h)
		}, WithConditions(func(subject interface{}, n Node) (bool, error) {
			return false, nil
		}))
		b.Handler("after", returning(Success))
	})
	s := NewSession(mustBuild(t, b), nil)

	if st, _ := s.Execute(); st != Success {
		t.Fatalf("gated composite should be skipped as success")
	}
	if n := h.Executions(); n != 0 {
		t.Fatalf("handler under a gated composite executed %d times", n)
	}
}

func TestSubjectReachesConditions(t *testing.T) {
	type device struct {
		Enabled bool
	}

	enabled := func(subject interface{}, n Node) (bool, error) {
		return subject.(*device).Enabled, nil
	}

	h := NewHandler("work", returning(Success), WithConditions(enabled))
	tree, err := NewTree("t", h)
	if err != nil {
		t.Fatal(err)
	}

	on := NewSession(tree, &device{Enabled: true})
	if st, _ := on.Execute(); st != Success {
		t.Fatalf("enabled device didn't run")
	}
	if n := h.Executions(); n != 1 {
		t.Fatalf("executed %d times", n)
	}

	off := NewSession(tree, &device{Enabled: false})
	if st, _ := off.Execute(); st != Success {
		t.Fatalf("skipped root should report success")
	}
	if n := h.Executions(); n != 1 {
		t.Fatalf("disabled device ran the handler (%d executions)", n)
	}
}

func TestTemplateReuse(t *testing.T) {
	h := NewHandler("work", returning(Success))
	tree, err := NewTree("t", h)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		s := NewSession(tree, nil)
		if st, _ := s.Execute(); st != Success {
			t.Fatalf("run %d got %s", i, st)
		}
	}
	if n := h.Executions(); n != 3 {
		t.Fatalf("executed %d times across 3 sessions", n)
	}
}

func TestNodeSession(t *testing.T) {
	s, err := NewNodeSession(NewHandler("solo", returning(Success)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if st, _ := s.Execute(); st != Success {
		t.Fatalf("standalone node session failed")
	}
}

func TestSequenceResumeContinues(t *testing.T) {
	var order []string
	note := func(id string, st Status) HandlerFunc {
		return func(s *Session) (Status, error) {
			order = append(order, id)
			return st, nil
		}
	}

	b := NewBuilder("t")
	b.Sequence("seq", func(b *Builder) {
		b.Handler("first", note("first", Success))
		b.Handler("pending", note("pending", Waiting))
		b.Handler("last", note("last", Success))
	})
	s := NewSession(mustBuild(t, b), nil)

	if st, _ := s.Execute(); st != Waiting {
		t.Fatalf("got %s, wanted %s", st, Waiting)
	}
	// The sibling after the waiting child must not run yet.
	if len(order) != 2 {
		t.Fatalf("ran %v before resume", order)
	}

	st, err := s.Resume("pending")
	if err != nil {
		t.Fatal(err)
	}
	if st != Success {
		t.Fatalf("got %s after resume", st)
	}
	if len(order) != 3 || order[2] != "last" {
		t.Fatalf("ran %v", order)
	}
}

func TestInertWaitingAfterParallelResolved(t *testing.T) {
	slow := NewHandler("slow", returning(Waiting))

	b := NewBuilder("t")
	b.Parallel("par", 1, 1, func(b *Builder) {
		b.Node(slow)
		b.Handler("fast", returning(Success))
	})
	s := NewSession(mustBuild(t, b), nil)

	// "slow" suspends, then "fast" succeeds, crossing the success
	// threshold while "slow" is still waiting.
	st, err := s.Execute()
	if err != nil {
		t.Fatal(err)
	}
	if st != Success {
		t.Fatalf("got %s, wanted %s", st, Success)
	}

	// The leftover waiting child is inert: failing it can't change
	// the parallel's final status.
	st, err = s.Fail("slow")
	if err != nil {
		t.Fatal(err)
	}
	if st != Success {
		t.Fatalf("fail on an inert node gave %s", st)
	}
	if n := slow.Executions(); n != 1 {
		t.Fatalf("inert node executed %d times", n)
	}
}
