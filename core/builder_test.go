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
	"testing"
)

func TestBuilderNesting(t *testing.T) {
	b := NewBuilder("boot")
	b.Sequence("boot", func(b *Builder) {
		b.Handler("load", returning(Success), WithPriority(Critical))
		b.Parallel("warm", 2, 1, func(b *Builder) {
			b.Handler("cache", returning(Success))
			b.Handler("conns", returning(Success))
		})
	})
	tree := mustBuild(t, b)

	if tree.Name != "boot" {
		t.Fatalf("tree name %q", tree.Name)
	}
	root, is := tree.Root().(*SequenceNode)
	if !is {
		t.Fatalf("root is %T", tree.Root())
	}
	if len(root.Children()) != 2 {
		t.Fatalf("root has %d children", len(root.Children()))
	}
	warm, is := tree.Node("warm").(*ParallelNode)
	if !is {
		t.Fatalf("warm is %T", tree.Node("warm"))
	}
	if warm.RequiredToSucceed() != 2 || warm.RequiredToFail() != 1 {
		t.Fatalf("warm thresholds %d/%d", warm.RequiredToSucceed(), warm.RequiredToFail())
	}
	if tree.Node("load").Priority() != Critical {
		t.Fatalf("load priority %s", tree.Node("load").Priority())
	}
}

func TestBuilderNoRoot(t *testing.T) {
	if _, err := NewBuilder("empty").Build(); err == nil {
		t.Fatal("built a tree with no root")
	}
}

func TestBuilderMultipleRoots(t *testing.T) {
	b := NewBuilder("t")
	b.Handler("a", nil)
	b.Handler("b", nil)
	if _, err := b.Build(); err == nil {
		t.Fatal("built a tree with two roots")
	}
}

func TestBuilderEmptyId(t *testing.T) {
	b := NewBuilder("t")
	b.Sequence("root", func(b *Builder) {
		b.Handler("", nil)
	})
	if _, err := b.Build(); err == nil {
		t.Fatal("built a tree with an anonymous node")
	}
}

func TestBuilderFirstErrorSticks(t *testing.T) {
	b := NewBuilder("t")
	b.Handler("a", nil)
	b.Handler("b", nil) // second root: error
	b.Handler("c", nil) // no-op after the error
	_, err := b.Build()
	if err == nil {
		t.Fatal("expected an error")
	}
	want := `tree "t" already has root "a"`
	if err.Error() != want {
		t.Fatalf("got %q, wanted %q", err.Error(), want)
	}
}

func TestBuilderDuplicateIds(t *testing.T) {
	b := NewBuilder("t")
	b.Sequence("root", func(b *Builder) {
		b.Handler("same", nil)
		b.Handler("same", nil)
	})
	if _, err := b.Build(); err == nil {
		t.Fatal("built a tree with duplicate ids")
	}
}
