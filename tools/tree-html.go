package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/treeproc/treeproc/def"
	. "github.com/treeproc/treeproc/util/testutil"

	"github.com/jsccast/yaml"
	md "github.com/russross/blackfriday/v2"
)

// RenderTreeHTML writes an HTML fragment documenting the given tree
// spec: node docs as Markdown, action and condition sources verbatim,
// and links down the structure.
func RenderTreeHTML(spec *def.TreeSpec, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="treeDoc doc">%s</div>`, md.Run([]byte(spec.Doc)))

	f(`<div class="nodes"><table>`)
	var fn func(ns *def.NodeSpec)
	fn = func(ns *def.NodeSpec) {
		f(`<tr class="node"><td><span id="%s" class="nodeName">%s</span></td><td>`, ns.Id, ns.Id)
		f(`<div class="nodeKind">%s</div>`, kindOf(ns))

		if ns.Doc != "" {
			f(`<div class="nodeDoc doc">%s</div>`, md.Run([]byte(ns.Doc)))
		}
		if ns.Priority != nil {
			f(`<div class="priority">priority: <code>%s</code></div>`, JS(ns.Priority))
		}
		for _, c := range ns.Conditions {
			f(`<div class="condition code"><pre>%s</pre></div>`, c.Source)
		}
		if ns.Action != nil {
			f(`<div class="code"><pre>%s</pre></div>`, ns.Action.Source)
		}
		if kindOf(ns) == "parallel" {
			f(`<div class="thresholds">requiredToSucceed: %d, requiredToFail: %d</div>`,
				ns.RequiredToSucceed, ns.RequiredToFail)
		}
		if 0 < len(ns.Children) {
			f(`<div class="children">`)
			for _, child := range ns.Children {
				f(`<a href="#%s"><code>%s</code></a>`, child.Id, child.Id)
			}
			f(`</div>`)
		}
		f(`</td></tr>`)

		for _, child := range ns.Children {
			fn(child)
		}
	}
	if spec.Root != nil {
		fn(spec.Root)
	}
	f(`</table></div>`)

	return nil
}

func kindOf(ns *def.NodeSpec) string {
	if ns.Kind != "" {
		return ns.Kind
	}
	if 0 < len(ns.Children) {
		return "sequence"
	}
	return "handler"
}

// RenderTreePage writes a complete HTML page for the given tree spec.
func RenderTreePage(spec *def.TreeSpec, out io.Writer, cssFiles []string, includeGraph bool) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/tree-html.css"}
	}

	js, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, spec.Name)

	if includeGraph {
		fmt.Fprintf(out, `
  <script src="https://cdnjs.cloudflare.com/ajax/libs/d3/4.12.2/d3.min.js"></script>
  <script src="https://cdnjs.cloudflare.com/ajax/libs/cytoscape/3.2.8/cytoscape.min.js"></script>
  <script src="/static/tree-html.js"></script>
  <script>
  var thisTree = %s;
  </script>
`, js)
	}

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, spec.Name)

	if includeGraph {
		fmt.Fprintf(out, `<div id="graph"></div>`)
	}

	if err = RenderTreeHTML(spec, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderTreePage reads a YAML tree spec from the given file
// and renders its page.
func ReadAndRenderTreePage(filename string, cssFiles []string, out io.Writer, includeGraph bool) error {
	src, err := ioutil.ReadFile(filename)
	if err != nil {
		return err
	}
	var spec def.TreeSpec
	if err = yaml.Unmarshal(src, &spec); err != nil {
		return err
	}

	return RenderTreePage(&spec, out, cssFiles, includeGraph)
}
