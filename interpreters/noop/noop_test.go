package noop

import (
	"context"
	"testing"

	"github.com/treeproc/treeproc/core"
)

func TestNoop(t *testing.T) {
	i := NewInterpreter()
	i.Silent = true

	if _, err := i.Compile(context.Background(), "whatever"); err != nil {
		t.Fatal(err)
	}

	s, err := core.NewNodeSession(core.NewHandler("h", nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	st, err := i.ExecHandler(context.Background(), s, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if st != core.Success {
		t.Fatalf("got %s", st)
	}

	ok, err := i.ExecCondition(context.Background(), nil, core.NewHandler("h", nil), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("noop condition should pass")
	}
}
