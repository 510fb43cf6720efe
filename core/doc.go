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

// Package core provides the core gear for priority-driven process
// trees.  A process tree is a hierarchy of handlers (leaves that wrap
// user functions), sequences (ordered ANDs), and parallels
// (threshold-aggregating fan-outs).
//
// The primary types are Tree and Session.  A Tree gives the
// structure: node identities, priorities, gating conditions, and
// parent/child relationships.  A Tree carries no run state.  A
// Session binds one Tree to one caller-owned subject and owns all of
// the live status for a run, so many Sessions can share a single
// Tree.
//
// Session.Execute runs a scheduling loop: gather the frontier of
// currently eligible handler leaves across the whole tree, pick the
// one with the lowest Priority (declaration order breaks ties),
// evaluate its gating conditions, invoke it, and propagate the
// resulting Status up through its ancestors.  The loop repeats until
// the root resolves or until nothing can run without an outstanding
// Waiting handler being resolved, in which case Execute returns
// Waiting and the session suspends.
//
// A suspended session is resumed from outside: Resume and Fail inject
// Success or Failure into a Waiting node by id (without re-invoking
// its handler) and then continue the loop.  Cancel forces everything
// unresolved to Cancelled.
//
// Execution is synchronous and single-threaded per session.  A
// "parallel" node is a logical fan-out evaluated within one pass, not
// concurrent execution.  Handlers that need real asynchrony should
// report Waiting and arrange for Resume or Fail to be called later.
//
// Handlers and conditions return errors rather than statuses for
// engine-level problems.  Such errors are not caught here: they
// propagate out of Execute, Resume, and Fail to the caller, which can
// decide whether to Cancel the session.
//
// To use this package, build a Tree (usually with a Builder), make a
// Session per unit of work, and Execute it.
//
// See https://github.com/treeproc/treeproc for an overview.
package core
