package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/treeproc/treeproc/core"

	"gopkg.in/yaml.v2"
)

// statusColors give node border colors when rendering with a session
// status function.
var statusColors = map[core.Status]string{
	core.Unknown:   "black",
	core.Success:   "#2e7d32",
	core.Failure:   "#c62828",
	core.Cancelled: "#757575",
	core.Waiting:   "#ef6c00",
}

type thresholds struct {
	RequiredToSucceed int `yaml:"requiredToSucceed"`
	RequiredToFail    int `yaml:"requiredToFail"`
}

// Dot makes a Graphviz dot file for the given tree.  A really ugly
// dot file.
//
// The optional statusOf function (typically Session.NodeStatus with
// the error dropped) colors each node by its current status.  Give
// nil to render structure only.
func Dot(tree *core.Tree, w io.WriteCloser, statusOf func(id string) core.Status) error {
	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	err := tree.Walk(func(n core.Node, depth int) error {
		label := n.Id()
		if doc := n.Doc(); doc != "" {
			if 40 < len(doc) {
				period := strings.Index(doc, ". ")
				if 0 < period {
					doc = doc[0 : period+1]
				}
			}
			label += "<BR/><FONT POINT-SIZE='8'>" + html(doc) + "</FONT>"
		}

		shape := "record"
		fillcolor := "#99ddc8"
		switch v := n.(type) {
		case *core.SequenceNode:
			fillcolor = "#52aa5e"
		case *core.ParallelNode:
			fillcolor = "#2d93ad"
			frag, err := yaml.Marshal(&thresholds{
				RequiredToSucceed: v.RequiredToSucceed(),
				RequiredToFail:    v.RequiredToFail(),
			})
			if err != nil {
				return err
			}
			label += `<FONT POINT-SIZE="6"><BR/>` +
				strings.Replace(html(string(frag)), "\n", `<BR ALIGN="LEFT"/>`, -1) +
				`</FONT>`
		case *core.HandlerNode:
			shape = "note"
		}

		style := "rounded,filled"
		if len(n.Conditions()) != 0 {
			style += ",dashed"
		}
		if n.Priority() != core.Normal {
			label += `<BR/><FONT POINT-SIZE="8">priority ` + n.Priority().String() + `</FONT>`
		}

		color := "black"
		if statusOf != nil {
			if c, have := statusColors[statusOf(n.Id())]; have {
				color = c
			}
		}

		fmt.Fprintf(w, "  \"%s\" [shape=\"%s\", style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			n.Id(), shape, style, color, fillcolor, label)

		for i, child := range n.Children() {
			fmt.Fprintf(w, "  \"%s\" -> \"%s\" [ label = <%d/%d> ]\n",
				n.Id(), child.Id(), i+1, len(n.Children()))
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

// PNG generates a PNG image based on output from Dot.
//
// This function writes two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(tree *core.Tree, basename string, statusOf func(id string) core.Status) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(tree, dotfile, statusOf); err != nil {
		return pngname, err
	}
	cmd := "dot -Tpng -Gstart=1 " + dotname + " > " + pngname
	if err := exec.Command("bash", "-c", cmd).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

func html(s string) string {
	s = strings.Replace(s, "<", `&lt;`, -1)
	s = strings.Replace(s, ">", `&gt;`, -1)
	return s
}
