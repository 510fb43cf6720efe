package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"sync"

	"github.com/treeproc/treeproc/core"
	"github.com/treeproc/treeproc/def"
	"github.com/treeproc/treeproc/fleet"
	"github.com/treeproc/treeproc/interpreters"
	"github.com/treeproc/treeproc/interpreters/goja"
	"github.com/treeproc/treeproc/timers"
	. "github.com/treeproc/treeproc/util/testutil"
)

// Service drives one fleet of runners from JSON ops arriving over
// stdio, TCP, WebSockets, HTTP, or MQTT.
type Service struct {
	// Processing, when not nil, gets a copy of every op heard.
	Processing chan interface{}

	// Errors, when not nil, gets errors that have no other home.
	Errors chan interface{} // Should be error

	Tracing bool

	// ops is a firehose for connected WebSocket clients.
	ops chan interface{}

	interpreters def.InterpretersMap
	fleet        *fleet.Fleet
	treeDir      string
	timers       *timers.Timers

	// trees caches compiled trees by source name, which is what
	// lets many runners share one frozen tree.
	treesMu sync.Mutex
	trees   map[string]*core.Tree

	wsClientC chan interface{}
}

func (s *Service) trf(format string, args ...interface{}) {
	if !s.Tracing {
		return
	}
	log.Printf("trace "+format, args...)
}

func NewService(ctx context.Context, treeDir, libDir string) (*Service, error) {

	is := interpreters.Standard()
	if gi, ok := is["goja"].(*goja.Interpreter); ok {
		gi.LibraryProvider = goja.MakeFileLibraryProvider(libDir)
	}

	s := Service{
		interpreters: is,
		fleet:        fleet.NewFleet("home"),
		treeDir:      treeDir,
		trees:        make(map[string]*core.Tree, 8),
	}
	s.timers = timers.NewTimers(s.fleet)

	return &s, nil
}

func (s *Service) op(ctx context.Context, x interface{}) {
	if s.Processing != nil {
		select {
		case s.Processing <- x:
		default:
			log.Printf("Service Processing chan blocked")
		}
	}
	if s.ops != nil {
		select {
		case s.ops <- Copy(x):
		default:
			log.Printf("Service ops chan blocked")
		}
	}
}

// FindTreeSpec resolves a TreeSource into a parsed (but uncompiled)
// spec.
func (s *Service) FindTreeSpec(ctx context.Context, src *fleet.TreeSource) (*def.TreeSpec, error) {
	if src == nil {
		return nil, fmt.Errorf("no tree source given")
	}
	switch {
	case src.Inline != nil:
		return src.Inline, nil
	case src.Source != "":
		return def.ParseTreeSpec([]byte(src.Source))
	case src.URL != "":
		req, err := http.NewRequest("GET", src.URL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("tree fetch status %s", resp.Status)
		}
		bs, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return def.ParseTreeSpec(bs)
	case src.Name != "":
		bs, err := ioutil.ReadFile(s.treeDir + "/" + src.Name + ".yaml")
		if err != nil {
			return nil, err
		}
		return def.ParseTreeSpec(bs)
	}
	return nil, fmt.Errorf("unsupported TreeSource %s: needs name, url, source, or inline", JS(src))
}

// FindTree makes Service a fleet.TreeProvider.  Named sources are
// compiled once and cached; the frozen tree is then shared by every
// runner that names it.
func (s *Service) FindTree(ctx context.Context, src *fleet.TreeSource) (*core.Tree, error) {
	if src != nil && src.Name != "" {
		s.treesMu.Lock()
		tree, have := s.trees[src.Name]
		s.treesMu.Unlock()
		if have {
			return tree, nil
		}
	}

	spec, err := s.FindTreeSpec(ctx, src)
	if err != nil {
		return nil, err
	}
	tree, err := spec.Compile(ctx, s.interpreters)
	if err != nil {
		return nil, err
	}

	if src.Name != "" {
		s.treesMu.Lock()
		s.trees[src.Name] = tree
		s.treesMu.Unlock()
	}

	return tree, nil
}

// AddRunner resolves the tree source and registers a new runner for
// it.
func (s *Service) AddRunner(ctx context.Context, id string, src *fleet.TreeSource, subject interface{}) (*fleet.Runner, error) {
	s.trf("Service.AddRunner %s", id)

	if r := s.fleet.Get(id); r != nil {
		return nil, fmt.Errorf("runner '%s' already exists", id)
	}

	tree, err := s.FindTree(ctx, src)
	if err != nil {
		return nil, err
	}

	r := fleet.NewRunner(id, tree, subject)
	r.TreeSource = src.Copy()
	s.fleet.Add(r)

	return r, nil
}

// RemRunner forgets the identified runner.  Pending timers against
// the runner are left alone: a fired timer against a gone runner is
// harmless.
func (s *Service) RemRunner(ctx context.Context, id string) error {
	s.trf("Service.RemRunner %s", id)

	if !s.fleet.Remove(id) {
		return fmt.Errorf("runner '%s' doesn't exist", id)
	}
	return nil
}

func (s *Service) err(err error) {
	if s.Errors != nil {
		s.Errors <- err
	} else {
		log.Println(err)
	}
}
