// A simple, single-runner process that reads commands from stdin and
// writes statuses to stdout.
//
// Give a tree spec (YAML) with -s, an optional subject (JSON) with
// -j, and then drive the run interactively:
//
//	exec
//	resume NODE
//	fail NODE
//	cancel
//	status
//
// The process exits when the root resolves.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/treeproc/treeproc/core"
	"github.com/treeproc/treeproc/def"
	"github.com/treeproc/treeproc/interpreters"
	"github.com/treeproc/treeproc/interpreters/goja"
)

func main() {

	var (
		treeFilename = flag.String("s", "", "tree spec filename (YAML)")
		subjectJS    = flag.String("j", "null", "subject (in JSON)")
		diag         = flag.Bool("d", false, "print diagnostics")
		libDir       = flag.String("i", ".", "directory containing libraries")
	)

	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	is := interpreters.Standard()
	if gi, ok := is["goja"].(*goja.Interpreter); ok {
		gi.LibraryProvider = goja.MakeFileLibraryProvider(*libDir)
	}

	var subject interface{}
	if err := json.Unmarshal([]byte(*subjectJS), &subject); err != nil {
		panic(err)
	}

	src, err := ioutil.ReadFile(*treeFilename)
	if err != nil {
		panic(err)
	}
	spec, err := def.ParseTreeSpec(src)
	if err != nil {
		panic(err)
	}
	tree, err := spec.Compile(ctx, is)
	if err != nil {
		panic(err)
	}

	s := core.NewSession(tree, subject)

	report := func(st core.Status) {
		fmt.Printf("%s\n", JS(map[string]interface{}{"root": st}))
		if *diag {
			tree.Walk(func(n core.Node, depth int) error {
				nst, _ := s.NodeStatus(n.Id())
				fmt.Printf("# %s%s %s\n", strings.Repeat("  ", depth), n.Id(), nst)
				return nil
			})
		}
	}

	in := bufio.NewReader(os.Stdin)
	for {
		line, err := in.ReadBytes('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(err)
		}
		sl := strings.TrimSpace(string(line))
		if sl == "" || strings.HasPrefix(sl, "#") {
			continue
		}

		parts := strings.SplitN(sl, " ", 2)
		var st core.Status
		switch parts[0] {
		case "exec":
			st, err = s.Execute()
		case "resume":
			if len(parts) != 2 {
				fmt.Println("error: resume NODE")
				continue
			}
			st, err = s.Resume(parts[1])
		case "fail":
			if len(parts) != 2 {
				fmt.Println("error: fail NODE")
				continue
			}
			st, err = s.Fail(parts[1])
		case "cancel":
			st, err = s.Cancel()
		case "status":
			st, err = s.NodeStatus(tree.Root().Id())
		default:
			fmt.Printf("error: unknown command %q\n", parts[0])
			continue
		}
		if err != nil {
			fmt.Printf("error: %s\n", err)
			continue
		}

		report(st)

		if st.Terminal() {
			break
		}
	}
}

func JS(x interface{}) string {
	js, err := json.Marshal(&x)
	if err != nil {
		panic(err)
	}
	return string(js)
}
