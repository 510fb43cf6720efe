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

package core

import (
	"encoding/json"
	"errors"
	"strings"
)

// Status represents the possible outcomes of a node for a session.
type Status int

const (
	// Unknown is the initial status of every node.
	Unknown Status = iota

	// Success is terminal.
	Success

	// Failure is terminal.
	Failure

	// Cancelled is terminal.
	Cancelled

	// Waiting means the node is suspended pending an external
	// Resume or Fail.  Not terminal.
	Waiting
)

var statusNames = map[Status]string{
	Unknown:   "unknown",
	Success:   "success",
	Failure:   "failure",
	Cancelled: "cancelled",
	Waiting:   "waiting",
}

func (s Status) String() string {
	if name, have := statusNames[s]; have {
		return name
	}
	return "invalid"
}

// Terminal reports whether the status can never change again within
// a session.
func (s Status) Terminal() bool {
	switch s {
	case Success, Failure, Cancelled:
		return true
	}
	return false
}

// Resolved reports whether the status is anything other than Unknown.
func (s Status) Resolved() bool {
	return s != Unknown
}

// MarshalJSON renders the status as its lowercase name so that
// protocol messages are readable.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a status name case-insensitively.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	status, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// ParseStatus maps a status name, case-insensitively, to its Status.
func ParseStatus(name string) (Status, error) {
	name = strings.ToLower(name)
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return Unknown, errors.New("unknown status '" + name + "'")
}
