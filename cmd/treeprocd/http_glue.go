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
	"net/http"

	"github.com/treeproc/treeproc/core"
)

// OpHTTP makes an HTTP request on behalf of a waiting node.  The
// usual shape: a handler suspends (returns "waiting"), and something
// sends this op naming the runner, the node, and the request.  The
// service performs the request and resolves the node with the
// outcome: a 2xx response resumes it; anything else fails it.
//
// With Background, the op returns immediately and the node is
// resolved whenever the request completes.
type OpHTTP struct {
	// Runner and Node address the waiting node to resolve.
	Runner string `json:"runner"`
	Node   string `json:"node"`

	// Request is the HTTP request to perform.
	Request *HTTPRequest `json:"request"`

	Background bool `json:"background,omitempty" yaml:",omitempty"`

	// Response is the HTTP outcome (foreground only).
	Response *HTTPResponse `json:"response,omitempty" yaml:",omitempty"`

	// Result is the runner's root status after the resolution
	// (foreground only).
	Result core.Status `json:"result,omitempty" yaml:",omitempty"`
}

func (o *OpHTTP) Do(ctx context.Context, s *Service) error {
	if o.Request == nil {
		return fmt.Errorf("no request given")
	}
	r := s.fleet.Get(o.Runner)
	if r == nil {
		return fmt.Errorf("runner '%s' doesn't exist", o.Runner)
	}

	handle := func(ctx context.Context, resp *HTTPResponse) error {
		var (
			st  core.Status
			err error
		)
		if resp.Error == nil && http.StatusOK <= resp.StatusCode && resp.StatusCode < http.StatusMultipleChoices {
			st, err = r.Resume(o.Node)
		} else {
			st, err = r.Fail(o.Node)
		}
		if err != nil {
			return err
		}
		o.Response = resp
		o.Result = st
		return nil
	}

	if o.Background {
		go func() {
			if err := o.Request.Do(ctx, handle); err != nil {
				s.err(err)
			}
		}()
		return nil
	}

	return o.Request.Do(ctx, handle)
}
