// treetool is a command-line utility for tree definitions: format
// conversion, structural linting, and rendering.
//
// A tree spec (YAML, unless noted) arrives on stdin; the result goes
// to stdout.
//
//	treetool yamltojson [-p] < boot.yaml
//	treetool jsontoyaml < boot.json
//	treetool analyze < boot.yaml
//	treetool dot < boot.yaml > boot.dot
//	treetool mermaid < boot.yaml
//	treetool html < boot.yaml > boot.html
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/treeproc/treeproc/core"
	"github.com/treeproc/treeproc/def"
	"github.com/treeproc/treeproc/interpreters"
	"github.com/treeproc/treeproc/tools"

	"github.com/jsccast/yaml"
)

func main() {

	if len(os.Args) < 2 {
		Usage()
		os.Exit(1)
	}

	protest := func(err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	readSpec := func() *def.TreeSpec {
		bs, err := ioutil.ReadAll(os.Stdin)
		protest(err)
		spec, err := def.ParseTreeSpec(bs)
		protest(err)
		return spec
	}

	switch os.Args[1] {
	case "yamltojson":
		pretty := false
		if 2 < len(os.Args) {
			switch os.Args[2] {
			case "-p":
				pretty = true
			default:
				protest(fmt.Errorf("unsupported args: %v", os.Args[1:]))
			}
		}

		spec := readSpec()

		var bs []byte
		var err error
		if pretty {
			bs, err = json.MarshalIndent(&spec, "  ", "  ")
		} else {
			bs, err = json.Marshal(&spec)
		}
		protest(err)

		_, err = os.Stdout.Write(bs)
		protest(err)

	case "jsontoyaml":
		bs, err := ioutil.ReadAll(os.Stdin)
		protest(err)

		var spec def.TreeSpec
		protest(json.Unmarshal(bs, &spec))

		bs, err = yaml.Marshal(&spec)
		protest(err)

		_, err = os.Stdout.Write(bs)
		protest(err)

	case "analyze":
		a, err := tools.Analyze(readSpec())
		protest(err)

		bs, err := yaml.Marshal(&a)
		protest(err)

		_, err = os.Stdout.Write(bs)
		protest(err)

		if 0 < len(a.Errors) {
			os.Exit(1)
		}

	case "dot":
		tree := compile(readSpec(), protest)
		protest(tools.Dot(tree, nopCloser{os.Stdout}, nil))

	case "mermaid":
		tree := compile(readSpec(), protest)
		protest(tools.Mermaid(tree, nopCloser{os.Stdout}, nil))

	case "html":
		protest(tools.RenderTreePage(readSpec(), os.Stdout, nil, true))

	default:
		fmt.Printf("Unknown subcommand \"%s\"\n", os.Args[1])
		Usage()
		os.Exit(1)
	}
}

// compile builds the spec so the structural renderers can walk real
// nodes.  Rendering never executes anything, so the standard
// interpreters suffice.
func compile(spec *def.TreeSpec, protest func(error)) *core.Tree {
	tree, err := spec.Compile(context.Background(), interpreters.Standard())
	protest(err)
	return tree
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

func Usage() {
	fmt.Printf("Subcommands:\n\n")
	fmt.Printf("  yamltojson [-p]   convert a YAML tree spec to JSON (-p pretty-prints)\n")
	fmt.Printf("  jsontoyaml        convert a JSON tree spec to YAML\n")
	fmt.Printf("  analyze           structural lint; nonzero exit on problems\n")
	fmt.Printf("  dot               render as Graphviz dot\n")
	fmt.Printf("  mermaid           render as Mermaid\n")
	fmt.Printf("  html              render as an HTML page\n")
	fmt.Println()
}
