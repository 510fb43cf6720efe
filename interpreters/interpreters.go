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

// Package interpreters assembles the standard interpreter set.
package interpreters

import (
	"github.com/treeproc/treeproc/def"
	"github.com/treeproc/treeproc/interpreters/goja"
	"github.com/treeproc/treeproc/interpreters/noop"
)

// Standard returns the interpreters that the stock service and tools
// use.
func Standard() def.InterpretersMap {
	is := def.NewInterpretersMap()

	es := goja.NewInterpreter()
	is["goja"] = es
	is["ecmascript"] = es
	is["ecmascript-5.1"] = es

	quiet := noop.NewInterpreter()
	quiet.Silent = true
	is["noop"] = quiet

	return is
}
