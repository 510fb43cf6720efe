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

// Package goja is a def.Interpreter for handler actions and gating
// conditions written in ECMAScript 5.1+, executed by
// https://github.com/dop251/goja.
//
// A handler script's value becomes the node's status: a status name
// string ("success", "failure", "cancelled", "waiting"), a boolean
// (true is success, false is failure), or nothing (success, for
// scripts run only for their side effects).  A condition script must
// return a boolean.
package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/treeproc/treeproc/core"
	"github.com/treeproc/treeproc/def"
	"github.com/treeproc/treeproc/util"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Exec if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)

	// IgnoreExit will prevent the Goja function "exit" from
	// terminating the process.  Being able to halt the process
	// from Goja is useful for some tests and utilities.  Maybe.
	IgnoreExit = false
)

// init adds an Interpreter as one of the def.DefaultInterpreters.
func init() {
	def.DefaultInterpreters["goja"] = NewInterpreter()
}

// Interpreter implements def.Interpreter using Goja.
type Interpreter struct {
	// Testing exposes some runtime capabilities (sleep, exit)
	// that production code shouldn't see.
	Testing bool

	// LibraryProvider is a pluggable library provider, used
	// instead of DefaultLibraryProvider when not nil.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// ProvideLibrary resolves the library name into library source.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider supports (barely) library names that are
// URLs with protocols of "file", "http", and "https".
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			bs, err := ioutil.ReadFile(dir + "/" + parts[1])
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequest("GET", name, nil)
			if err != nil {
				return "", err
			}
			req = req.WithContext(ctx)
			client := http.Client{}
			resp, err := client.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("library fetch status %s %d",
					resp.Status, resp.StatusCode)
			}
			bs, err := ioutil.ReadAll(resp.Body)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

// MakeMapLibraryProvider serves libraries from the given map.  Handy
// for tests.
func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// parseSource looks into the given map to find "requires" and "code"
// properties.
func parseSource(vv map[string]interface{}) (code string, libs []string, err error) {
	x, have := vv["code"]
	if !have {
		code = ""
	}
	if s, is := x.(string); is {
		code = s
	} else {
		err = errors.New("bad Goja action code")
		return
	}

	x, have = vv["requires"]
	switch vv := x.(type) {
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		libs = make([]string, 0, len(vv))
		for _, x := range vv {
			switch vv := x.(type) {
			case string:
				libs = append(libs, vv)
			default:
				err = errors.New("bad library")
				return
			}
		}
	}

	return
}

// AsSource accepts a plain code string or a map carrying "code" and
// optional "requires".
func AsSource(src interface{}) (code string, libs []string, err error) {
	switch vv := src.(type) {
	case string:
		code = vv
		return
	case map[interface{}]interface{}:
		m := make(map[string]interface{})
		for k, v := range vv {
			str, ok := k.(string)
			if !ok {
				err = fmt.Errorf("bad src key (%T)", k)
				return
			}
			m[str] = v
		}
		return parseSource(m)
	case map[string]interface{}:
		return parseSource(vv)
	default:
		err = fmt.Errorf("bad Goja source (%T)", src)
		return
	}
}

// Compile wraps the code in a function block (so a script can use
// "return"), prepends any required libraries, and calls goja.Compile.
//
// This method can block if the interpreter's library provider blocks
// in order to obtain external libraries.
func (i *Interpreter) Compile(ctx context.Context, src interface{}) (interface{}, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	code = wrapSrc(code)

	var libsSrc string
	for _, lib := range libs {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n"
	}

	code = libsSrc + code

	obj, err := goja.Compile("", code, true)
	if err != nil {
		return nil, errors.New(err.Error() + ": " + code)
	}

	return obj, nil
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

// run executes the (maybe already compiled) program with the given
// environment bound at _.
func (i *Interpreter) run(ctx context.Context, env map[string]interface{}, src interface{}, compiled interface{}) (interface{}, error) {
	var p *goja.Program
	if compiled == nil {
		var err error
		if compiled, err = i.Compile(ctx, src); err != nil {
			return nil, err
		}
	}
	p, is := compiled.(*goja.Program)
	if !is {
		return nil, fmt.Errorf("Goja bad compilation: %T %#v", compiled, compiled)
	}

	o := goja.New()
	o.Set("_", env)

	if i.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	env["gensym"] = func() interface{} {
		return util.Gensym(32)
	}

	env["cronNext"] = func(x interface{}) interface{} {
		switch vv := x.(type) {
		case goja.Value:
			x = vv.Export()
		}
		cronExpr, is := x.(string)
		if !is {
			protest(o, "not a string")
		}
		c, err := cronexpr.Parse(cronExpr)
		if err != nil {
			protest(o, err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	env["esc"] = func(x interface{}) interface{} {
		switch vv := x.(type) {
		case goja.Value:
			x = vv.Export()
		}
		s, is := x.(string)
		if !is {
			panic("not a string")
		}
		return url.QueryEscape(s)
	}

	env["log"] = func(x interface{}) interface{} {
		switch vv := x.(type) {
		case goja.Value:
			x = vv.Export()
		}
		js, err := json.Marshal(&x)
		if err != nil {
			log.Println("goja.log (can't marshal: " + err.Error() + ")")
		} else {
			log.Println(string(js))
		}
		return x
	}

	if i.Testing {
		env["exit"] = func(n interface{}, msg interface{}) interface{} {
			switch vv := msg.(type) {
			case goja.Value:
				msg = vv.Export()
			}
			s, is := msg.(string)
			if !is {
				panic("not a string")
			}
			switch vv := n.(type) {
			case goja.Value:
				n = vv.Export()
			}
			ec, is := n.(int64)
			if !is {
				panic(fmt.Sprintf("a %T is not an %T", n, ec))
			}
			log.Println(s)
			if !IgnoreExit {
				os.Exit(int(ec))
			}
			return msg
		}
	}

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		// If run calls cancel() after RunProgram returns, then
		// we'll never see this InterruptedMessage, which is
		// actually the behavior we want.  In that case, we
		// weren't actually interrupted.
		o.Interrupt(InterruptedMessage)
	}()

	v, err := o.RunProgram(p)
	cancel()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}

	return v.Export(), nil
}

// ExecHandler runs the script as a handler body.
//
// The environment at _ has "subject" (the session's subject,
// canonicalized to plain maps), "tree" (the tree name), and the
// utilities gensym(), esc(s), cronNext(expr), and log(x).
func (i *Interpreter) ExecHandler(ctx context.Context, s *core.Session, src interface{}, compiled interface{}) (core.Status, error) {
	env := map[string]interface{}{
		"ctx":  ctx,
		"tree": s.Tree().Name,
	}
	if subject := s.Subject(); subject != nil {
		x, err := util.Canonicalize(subject)
		if err != nil {
			return core.Unknown, err
		}
		env["subject"] = x
	}

	x, err := i.run(ctx, env, src, compiled)
	if err != nil {
		return core.Unknown, err
	}

	switch vv := x.(type) {
	case nil:
		// Side effects only.
		return core.Success, nil
	case bool:
		if vv {
			return core.Success, nil
		}
		return core.Failure, nil
	case string:
		return core.ParseStatus(vv)
	}
	return core.Unknown, fmt.Errorf("%#v (%T) isn't a status", x, x)
}

// ExecCondition runs the script as a gating predicate.  The script
// must return a boolean.
func (i *Interpreter) ExecCondition(ctx context.Context, subject interface{}, n core.Node, src interface{}, compiled interface{}) (bool, error) {
	env := map[string]interface{}{
		"ctx":  ctx,
		"node": n.Id(),
	}
	if subject != nil {
		x, err := util.Canonicalize(subject)
		if err != nil {
			return false, err
		}
		env["subject"] = x
	}

	x, err := i.run(ctx, env, src, compiled)
	if err != nil {
		return false, err
	}

	b, is := x.(bool)
	if !is {
		return false, fmt.Errorf("condition returned %#v (%T), not a boolean", x, x)
	}
	return b, nil
}
