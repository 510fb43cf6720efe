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

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/treeproc/treeproc/core"
	"github.com/treeproc/treeproc/def"
	"github.com/treeproc/treeproc/fleet"
	"github.com/treeproc/treeproc/timers"
	. "github.com/treeproc/treeproc/util/testutil"
)

// SOp is a Service Operation.
//
// Only one of the op fields should have a value.  An op is its own
// reply: Do fills in the op's result fields (and Err on trouble), and
// the listener writes the whole op back out.
type SOp struct {
	// Add creates a runner.
	Add *OpAdd `json:"add,omitempty" yaml:",omitempty"`

	// Rem removes a runner.
	Rem *OpRem `json:"rem,omitempty" yaml:",omitempty"`

	// Exec runs a runner's session.
	Exec *OpExec `json:"exec,omitempty" yaml:",omitempty"`

	// Resume injects Success into a waiting node.
	Resume *OpResume `json:"resume,omitempty" yaml:",omitempty"`

	// Fail injects Failure into a waiting node.
	Fail *OpFail `json:"fail,omitempty" yaml:",omitempty"`

	// Cancel cancels a runner's whole session.
	Cancel *OpCancel `json:"cancel,omitempty" yaml:",omitempty"`

	// Status reports a runner's per-node statuses.
	Status *OpStatus `json:"status,omitempty" yaml:",omitempty"`

	// GetTree is a utility that invokes the service's tree provider.
	GetTree *OpGetTree `json:"getTree,omitempty" yaml:",omitempty"`

	// Timer schedules (or cancels) a deadline or cron entry.
	Timer *OpTimer `json:"timer,omitempty" yaml:",omitempty"`

	// HTTP makes an HTTP request and resolves a waiting node with
	// the outcome.
	HTTP *OpHTTP `json:"http,omitempty" yaml:",omitempty"`

	// Error will hold an error (if any) that results from
	// processing this operation.
	Error error `json:"-" yaml:"-"`

	// Err will hold a string representation of an error (if any)
	// that results from processing this operation.
	Err string `json:"err,omitempty" yaml:",omitempty"`
}

// erred is a utility function to return values to assign to operation
// Error and Err fields.
func erred(err error) (error, string) {
	if err == nil {
		return nil, ""
	}
	return err, err.Error()
}

func (o *SOp) Do(ctx context.Context, s *Service) error {

	s.op(ctx, map[string]interface{}{
		"do": o,
	})

	var err error
	switch {
	case o.Add != nil:
		err = o.Add.Do(ctx, s)
	case o.Rem != nil:
		err = o.Rem.Do(ctx, s)
	case o.Exec != nil:
		err = o.Exec.Do(ctx, s)
	case o.Resume != nil:
		err = o.Resume.Do(ctx, s)
	case o.Fail != nil:
		err = o.Fail.Do(ctx, s)
	case o.Cancel != nil:
		err = o.Cancel.Do(ctx, s)
	case o.Status != nil:
		err = o.Status.Do(ctx, s)
	case o.GetTree != nil:
		err = o.GetTree.Do(ctx, s)
	case o.Timer != nil:
		err = o.Timer.Do(ctx, s)
	case o.HTTP != nil:
		err = o.HTTP.Do(ctx, s)
	default:
		err = fmt.Errorf("not implemented: %s", JS(o))
	}

	if err != nil && o.Error == nil {
		o.Error, o.Err = erred(err)
	}

	s.op(ctx, map[string]interface{}{
		"did": o,
	})

	return o.Error
}

// OpAdd creates a runner from a tree source and an optional subject.
type OpAdd struct {
	// Id is the new runner's id.
	Id string `json:"id"`

	// Tree says where the runner's tree comes from.
	Tree *fleet.TreeSource `json:"tree"`

	// Subject is this run's unit of work, visible to conditions
	// and handlers.
	Subject interface{} `json:"subject,omitempty" yaml:",omitempty"`

	// Exec, when true, also executes the new runner.
	Exec bool `json:"exec,omitempty" yaml:",omitempty"`

	// Result is the root status when Exec is given.
	Result core.Status `json:"result,omitempty" yaml:",omitempty"`
}

func (o *OpAdd) Do(ctx context.Context, s *Service) error {
	if o.Id == "" {
		return fmt.Errorf("no runner id given")
	}
	if o.Tree == nil {
		return fmt.Errorf("no tree source given")
	}
	r, err := s.AddRunner(ctx, o.Id, o.Tree, o.Subject)
	if err != nil {
		return err
	}
	if o.Exec {
		o.Result, err = r.Execute()
	}
	return err
}

// OpRem removes a runner from the fleet.  Removal does not cancel;
// send a cancel op first if the runner's waiting nodes should be
// resolved.
type OpRem struct {
	// Id is the id of the runner to remove.
	Id string `json:"id"`
}

func (o *OpRem) Do(ctx context.Context, s *Service) error {
	return s.RemRunner(ctx, o.Id)
}

// OpExec runs a runner's session (to completion or suspension).
type OpExec struct {
	// Id is the id of the runner to execute.
	Id string `json:"id"`

	// Result is the root status after the run.
	Result core.Status `json:"result,omitempty" yaml:",omitempty"`
}

func (o *OpExec) Do(ctx context.Context, s *Service) error {
	r := s.fleet.Get(o.Id)
	if r == nil {
		return fmt.Errorf("runner '%s' doesn't exist", o.Id)
	}
	var err error
	o.Result, err = r.Execute()
	return err
}

// OpResume injects Success into a runner's waiting node.  Resuming a
// node that isn't waiting is a no-op, not an error.
type OpResume struct {
	Id   string `json:"id"`
	Node string `json:"node"`

	// Result is the root status after the injection.
	Result core.Status `json:"result,omitempty" yaml:",omitempty"`
}

func (o *OpResume) Do(ctx context.Context, s *Service) error {
	r := s.fleet.Get(o.Id)
	if r == nil {
		return fmt.Errorf("runner '%s' doesn't exist", o.Id)
	}
	var err error
	o.Result, err = r.Resume(o.Node)
	return err
}

// OpFail injects Failure into a runner's waiting node.
type OpFail struct {
	Id   string `json:"id"`
	Node string `json:"node"`

	Result core.Status `json:"result,omitempty" yaml:",omitempty"`
}

func (o *OpFail) Do(ctx context.Context, s *Service) error {
	r := s.fleet.Get(o.Id)
	if r == nil {
		return fmt.Errorf("runner '%s' doesn't exist", o.Id)
	}
	var err error
	o.Result, err = r.Fail(o.Node)
	return err
}

// OpCancel cancels a runner's session.
type OpCancel struct {
	Id string `json:"id"`

	Result core.Status `json:"result,omitempty" yaml:",omitempty"`
}

func (o *OpCancel) Do(ctx context.Context, s *Service) error {
	r := s.fleet.Get(o.Id)
	if r == nil {
		return fmt.Errorf("runner '%s' doesn't exist", o.Id)
	}
	var err error
	o.Result, err = r.Cancel()
	return err
}

// OpStatus reports the root status and every node's status for a
// runner.
type OpStatus struct {
	Id string `json:"id"`

	Root  core.Status            `json:"root,omitempty" yaml:",omitempty"`
	Nodes map[string]core.Status `json:"nodes,omitempty" yaml:",omitempty"`
}

func (o *OpStatus) Do(ctx context.Context, s *Service) error {
	r := s.fleet.Get(o.Id)
	if r == nil {
		return fmt.Errorf("runner '%s' doesn't exist", o.Id)
	}

	o.Nodes = make(map[string]core.Status, 32)
	err := r.Tree().Walk(func(n core.Node, depth int) error {
		st, err := r.NodeStatus(n.Id())
		if err != nil {
			return err
		}
		o.Nodes[n.Id()] = st
		if depth == 0 {
			o.Root = st
		}
		return nil
	})
	return err
}

// OpGetTree resolves a tree source into its spec (without creating a
// runner).
type OpGetTree struct {
	Source *fleet.TreeSource `json:"source,omitempty" yaml:",omitempty"`
	Spec   *def.TreeSpec     `json:"spec,omitempty" yaml:",omitempty"`
}

func (o *OpGetTree) Do(ctx context.Context, s *Service) error {
	spec, err := s.FindTreeSpec(ctx, o.Source)
	if err == nil {
		o.Spec = spec
	}
	return err
}

// OpTimer schedules a timer that'll resume, fail, or cancel later.
// Give In for a one-shot deadline or Cron for a recurring schedule.
// Give Stop to cancel a pending timer instead.
type OpTimer struct {
	// Id is the timer's id.
	Id string `json:"id"`

	// Runner and Node address the target.
	Runner string `json:"runner,omitempty" yaml:",omitempty"`
	Node   string `json:"node,omitempty" yaml:",omitempty"`

	// Op is "resume", "fail", or "cancel".
	Op timers.Op `json:"op,omitempty" yaml:",omitempty"`

	// In is a duration string ("30s", "5m").
	In string `json:"in,omitempty" yaml:",omitempty"`

	// Cron is a cron expression.
	Cron string `json:"cron,omitempty" yaml:",omitempty"`

	// Stop cancels the identified timer.
	Stop bool `json:"stop,omitempty" yaml:",omitempty"`
}

func (o *OpTimer) Do(ctx context.Context, s *Service) error {
	if o.Id == "" {
		return fmt.Errorf("no timer id given")
	}
	if o.Stop {
		return s.timers.Cancel(o.Id)
	}
	switch {
	case o.In != "":
		d, err := time.ParseDuration(o.In)
		if err != nil {
			return err
		}
		return s.timers.Add(ctx, o.Id, o.Runner, o.Node, o.Op, d)
	case o.Cron != "":
		return s.timers.AddCron(ctx, o.Id, o.Runner, o.Node, o.Op, o.Cron)
	}
	return fmt.Errorf("timer '%s' needs either 'in' or 'cron'", o.Id)
}
