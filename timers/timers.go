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

// Package timers drives Resume, Fail, and Cancel from outside the
// engine.
//
// The engine has no timeouts of its own: a caller that wants "fail
// this waiting node after five minutes" or "cancel the whole run at
// midnight" schedules that here.  One-shot deadlines use time.Timer;
// recurring schedules use cron expressions.
package timers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/treeproc/treeproc/core"
	"github.com/treeproc/treeproc/fleet"
	"github.com/treeproc/treeproc/util"

	"github.com/gorhill/cronexpr"
)

// Op is what a fired timer does to its runner.
type Op string

const (
	// Resume injects Success into the target node.
	Resume Op = "resume"

	// Fail injects Failure into the target node.
	Fail Op = "fail"

	// Cancel cancels the runner's whole session.  The target node
	// is ignored.
	Cancel Op = "cancel"
)

// Entry represents a pending timer.
type Entry struct {
	Id string `json:"id"`

	// Runner and Node address the target: the runner in the
	// fleet, and (for Resume/Fail) the waiting node in its
	// session.
	Runner string `json:"runner"`
	Node   string `json:"node,omitempty"`

	Op Op `json:"op"`

	// At is the next firing time.
	At time.Time `json:"at"`

	// Cron, when not empty, reschedules the entry after each
	// firing.
	Cron string `json:"cron,omitempty"`

	Ctl chan bool `json:"-"`

	timers *Timers
}

// Timers represents pending timers against one fleet.
type Timers struct {
	sync.Mutex

	Map map[string]*Entry

	fleet *fleet.Fleet
}

// NewTimers makes an empty timer set targeting the given fleet.
func NewTimers(f *fleet.Fleet) *Timers {
	return &Timers{
		Map:   make(map[string]*Entry, 8),
		fleet: f,
	}
}

func (ts *Timers) add(ctx context.Context, e *Entry) {
	if _, have := ts.Map[e.Id]; have {
		ts.cancel(e.Id)
	}
	ts.Map[e.Id] = e
	e.timers = ts
	go e.run(ctx)
}

// Add schedules a one-shot timer that will perform the op after the
// given duration (if the timer isn't cancelled first).
func (ts *Timers) Add(ctx context.Context, id, runner, node string, op Op, d time.Duration) error {
	util.Logf("Timers.Add %s", id)

	ts.Lock()
	defer ts.Unlock()

	ts.add(ctx, &Entry{
		Id:     id,
		Runner: runner,
		Node:   node,
		Op:     op,
		At:     time.Now().UTC().Add(d),
		Ctl:    make(chan bool),
	})
	return nil
}

// AddCron schedules a recurring timer from a cron expression.  The op
// is performed at each firing until the entry is cancelled.
func (ts *Timers) AddCron(ctx context.Context, id, runner, node string, op Op, expr string) error {
	util.Logf("Timers.AddCron %s %q", id, expr)

	c, err := cronexpr.Parse(expr)
	if err != nil {
		return err
	}
	next := c.Next(time.Now())
	if next.IsZero() {
		return errors.New("cron expression '" + expr + "' never fires")
	}

	ts.Lock()
	defer ts.Unlock()

	ts.add(ctx, &Entry{
		Id:     id,
		Runner: runner,
		Node:   node,
		Op:     op,
		At:     next,
		Cron:   expr,
		Ctl:    make(chan bool),
	})
	return nil
}

// Cancel attempts to cancel the timer with the given id.
func (ts *Timers) Cancel(id string) error {
	ts.Lock()
	err := ts.cancel(id)
	ts.Unlock()
	return err
}

func (ts *Timers) cancel(id string) error {
	util.Logf("Timers.cancel %s", id)

	e, have := ts.Map[id]
	if !have {
		return fmt.Errorf("timer '%s' doesn't exist", id)
	}
	delete(ts.Map, id)
	close(e.Ctl)
	return nil
}

// run waits for the appointed time and performs the entry's op if the
// entry isn't cancelled first.  Cron entries reschedule themselves.
func (e *Entry) run(ctx context.Context) {
	util.Logf("Entry %s run (at %s)", e.Id, e.At)

	t := time.NewTimer(time.Until(e.At))
	defer t.Stop()

	select {
	case <-t.C:
		util.Logf("firing timer '%s'", e.Id)
		e.fire()

		e.timers.Lock()
		if e.Cron != "" {
			// Parse was checked at AddCron.
			next := cronexpr.MustParse(e.Cron).Next(time.Now())
			if !next.IsZero() {
				if live, have := e.timers.Map[e.Id]; have && live == e {
					e.At = next
					e.timers.Unlock()
					e.run(ctx)
					return
				}
			}
		}
		delete(e.timers.Map, e.Id)
		e.timers.Unlock()
	case <-e.Ctl:
		util.Logf("canceling timer '%s'", e.Id)
	case <-ctx.Done():
	}
}

// fire performs the op.  A missing runner or an inert node is not an
// error: the work the timer guarded may simply have finished.
func (e *Entry) fire() {
	r := e.timers.fleet.Get(e.Runner)
	if r == nil {
		util.Logf("timer '%s': runner '%s' is gone", e.Id, e.Runner)
		return
	}

	var (
		st  core.Status
		err error
	)
	switch e.Op {
	case Resume:
		st, err = r.Resume(e.Node)
	case Fail:
		st, err = r.Fail(e.Node)
	case Cancel:
		st, err = r.Cancel()
	default:
		util.Logf("timer '%s': unknown op '%s'", e.Id, e.Op)
		return
	}
	if err != nil {
		util.Logf("timer '%s': %s on %s/%s: %s", e.Id, e.Op, e.Runner, e.Node, err)
		return
	}
	util.Logf("timer '%s': %s on %s/%s -> %s", e.Id, e.Op, e.Runner, e.Node, st)
}
