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

package timers

import (
	"context"
	"testing"
	"time"

	"github.com/treeproc/treeproc/core"
	"github.com/treeproc/treeproc/fleet"
)

func waitingRunner(t *testing.T, id string) (*fleet.Fleet, *fleet.Runner) {
	t.Helper()
	b := core.NewBuilder("t")
	b.Parallel("par", 1, 1, func(b *core.Builder) {
		b.Handler("pending", func(s *core.Session) (core.Status, error) {
			return core.Waiting, nil
		})
	})
	tree, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	f := fleet.NewFleet("test")
	r := fleet.NewRunner(id, tree, nil)
	f.Add(r)
	if st, err := r.Execute(); err != nil || st != core.Waiting {
		t.Fatalf("execute gave %s, %v", st, err)
	}
	return f, r
}

func await(t *testing.T, r *fleet.Runner, want core.Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, _ := r.NodeStatus("par"); st == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	st, _ := r.NodeStatus("par")
	t.Fatalf("runner stuck at %s, wanted %s", st, want)
}

func TestDeadlineFail(t *testing.T) {
	f, r := waitingRunner(t, "device-1")
	ts := NewTimers(f)

	if err := ts.Add(context.Background(), "t1", "device-1", "pending", Fail, 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	await(t, r, core.Failure)
}

func TestDeadlineResume(t *testing.T) {
	f, r := waitingRunner(t, "device-2")
	ts := NewTimers(f)

	if err := ts.Add(context.Background(), "t1", "device-2", "pending", Resume, 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	await(t, r, core.Success)
}

func TestDeadlineCancel(t *testing.T) {
	f, r := waitingRunner(t, "device-3")
	ts := NewTimers(f)

	if err := ts.Add(context.Background(), "t1", "device-3", "", Cancel, 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	await(t, r, core.Cancelled)
}

func TestCancelTimer(t *testing.T) {
	f, r := waitingRunner(t, "device-4")
	ts := NewTimers(f)

	if err := ts.Add(context.Background(), "t1", "device-4", "pending", Fail, 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := ts.Cancel("t1"); err != nil {
		t.Fatal(err)
	}
	if err := ts.Cancel("t1"); err == nil {
		t.Fatal("second cancel should report a missing timer")
	}

	time.Sleep(100 * time.Millisecond)
	if st, _ := r.NodeStatus("par"); st != core.Waiting {
		t.Fatalf("cancelled timer still fired: %s", st)
	}
}

func TestFireOnGoneRunner(t *testing.T) {
	f, _ := waitingRunner(t, "device-5")
	ts := NewTimers(f)

	f.Remove("device-5")
	if err := ts.Add(context.Background(), "t1", "device-5", "pending", Fail, time.Millisecond); err != nil {
		t.Fatal(err)
	}
	// Nothing to assert beyond "doesn't panic"; give it a moment.
	time.Sleep(20 * time.Millisecond)
}

func TestAddCronBadExpression(t *testing.T) {
	f, _ := waitingRunner(t, "device-6")
	ts := NewTimers(f)

	if err := ts.AddCron(context.Background(), "t1", "device-6", "pending", Fail, "not a cron"); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestCronFires(t *testing.T) {
	if testing.Short() {
		t.Skip("cron granularity is a second")
	}

	f, r := waitingRunner(t, "device-7")
	ts := NewTimers(f)

	// Seven-field expression: fires every second.
	if err := ts.AddCron(context.Background(), "t1", "device-7", "pending", Fail, "* * * * * * *"); err != nil {
		t.Fatal(err)
	}
	defer ts.Cancel("t1")
	await(t, r, core.Failure)
}
