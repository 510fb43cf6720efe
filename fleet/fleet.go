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

// Package fleet holds named runners: per-unit-of-work sessions, often
// sharing one built tree (the template-reuse pattern).
package fleet

import (
	"sync"
)

// Fleet is a registry of runners keyed by id.
type Fleet struct {
	sync.RWMutex

	Id      string             `json:"id"`
	Runners map[string]*Runner `json:"runners"`
}

// NewFleet makes an empty fleet.
func NewFleet(id string) *Fleet {
	return &Fleet{
		Id:      id,
		Runners: make(map[string]*Runner),
	}
}

// Add registers the runner, replacing any previous runner with the
// same id.
func (f *Fleet) Add(r *Runner) {
	f.Lock()
	f.Runners[r.Id] = r
	f.Unlock()
}

// Get returns the identified runner (or nil).
func (f *Fleet) Get(id string) *Runner {
	f.RLock()
	r := f.Runners[id]
	f.RUnlock()
	return r
}

// Remove forgets the identified runner.  Returns false if the runner
// wasn't there.
//
// Removing does not cancel: a caller that wants the runner's waiting
// nodes resolved should Cancel first.
func (f *Fleet) Remove(id string) bool {
	f.Lock()
	_, have := f.Runners[id]
	delete(f.Runners, id)
	f.Unlock()
	return have
}

// Ids returns the current runner ids.
func (f *Fleet) Ids() []string {
	f.RLock()
	acc := make([]string, 0, len(f.Runners))
	for id := range f.Runners {
		acc = append(acc, id)
	}
	f.RUnlock()
	return acc
}
