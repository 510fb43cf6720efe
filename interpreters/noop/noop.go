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

// Package noop is a def.Interpreter that executes nothing.  Handlers
// report Success and conditions pass, which is what tree analysis and
// rendering tools want when they compile a spec without running it.
package noop

import (
	"context"
	"log"

	"github.com/treeproc/treeproc/core"
)

// Interpreter is a def.Interpreter that treats every handler as an
// immediate Success and every condition as true.
type Interpreter struct {
	// Silent, if true, suppresses warning log messages.
	Silent bool
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) Compile(ctx context.Context, code interface{}) (interface{}, error) {
	if !i.Silent {
		log.Printf("warning: using noop Interpreter for compilation")
	}
	return nil, nil
}

func (i *Interpreter) ExecHandler(ctx context.Context, s *core.Session, code interface{}, compiled interface{}) (core.Status, error) {
	if !i.Silent {
		log.Printf("warning: using noop Interpreter for execution")
	}
	return core.Success, nil
}

func (i *Interpreter) ExecCondition(ctx context.Context, subject interface{}, n core.Node, code interface{}, compiled interface{}) (bool, error) {
	if !i.Silent {
		log.Printf("warning: using noop Interpreter for a condition")
	}
	return true, nil
}
