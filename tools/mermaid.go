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
	"io"

	"github.com/treeproc/treeproc/core"
)

type MermaidOpts struct {
	// ShowThresholds labels parallel nodes with their
	// requiredToSucceed/requiredToFail counts.
	ShowThresholds bool `json:"showThresholds"`

	// HandlerFill is the fill color for handler nodes.  Does not
	// apply if HandlerClass is set.
	HandlerFill string `json:"handlerFill,omitempty"`

	// HandlerClass will be the CSS class for handler nodes.  Not
	// yet implemented.
	HandlerClass string `json:"handlerClass,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given tree.
func Mermaid(tree *core.Tree, w io.WriteCloser, opts *MermaidOpts) error {
	if opts == nil {
		opts = &MermaidOpts{
			ShowThresholds: true,
			HandlerFill:    "#bcf2db",
		}
	}

	fmt.Fprintf(w, "graph TB\n")

	nids := make(map[string]string)
	num := 0

	nid := func(id string) string {
		if n, already := nids[id]; already {
			return n
		}
		num++
		n := fmt.Sprintf("n%d", num)
		nids[id] = n
		return n
	}

	err := tree.Walk(func(n core.Node, depth int) error {
		id := nid(n.Id())

		switch v := n.(type) {
		case *core.SequenceNode:
			fmt.Fprintf(w, "  %s(\"%s\")\n", id, n.Id())
		case *core.ParallelNode:
			label := n.Id()
			if opts.ShowThresholds {
				label = fmt.Sprintf("%s %d/%d", n.Id(),
					v.RequiredToSucceed(), v.RequiredToFail())
			}
			fmt.Fprintf(w, "  %s{{\"%s\"}}\n", id, label)
		default:
			fmt.Fprintf(w, "  %s[\"%s\"]\n", id, n.Id())
			if opts.HandlerClass == "" && opts.HandlerFill != "" {
				fmt.Fprintf(w, "  style %s fill:%s\n", id, opts.HandlerFill)
			}
		}

		for _, child := range n.Children() {
			label := ""
			if child.Priority() != core.Normal {
				label = fmt.Sprintf(`-- "%s"`, child.Priority())
			}
			fmt.Fprintf(w, "  %s %s --> %s\n", id, label, nid(child.Id()))
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n")
	return w.Close()
}
