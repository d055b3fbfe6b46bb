package schedule

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/rules"
)

// CycleError reports an unbroken dependency loop detected during
// synthesis. The caller must designate a breaker site on the loop and
// initialize its message manually.
type CycleError struct {
	Interface *graph.Interface
	Path      []*graph.Interface
}

func (e *CycleError) Error() string {
	steps := make([]string, 0, len(e.Path))
	for _, iface := range e.Path {
		steps = append(steps, iface.ID())
	}

	return fmt.Sprintf(
		"dependency cycle through %s (%s); designate a breaker site on this loop and initialize its message",
		e.Interface, strings.Join(steps, " -> "))
}

// CompileError reports a schedule entry whose inbound types could not be
// resolved or whose rule lookup failed. It identifies the offending node,
// interface position and the type tuple attempted.
type CompileError struct {
	Interface *graph.Interface
	Inbound   []reflect.Type
	Reason    string
	Err       error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("cannot compile entry for %s", e.Interface)
	if len(e.Inbound) > 0 {
		msg += " with inbound types " + rules.Signature(e.Inbound)
	}

	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
