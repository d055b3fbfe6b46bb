package schedule

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/message"
	"github.com/dukex/forney/pkg/rules"
)

// PostProcessor is an optional transform applied to an entry's outbound
// payload after the rule runs (e.g. mean extraction). Its output type
// becomes the entry's final outbound type.
type PostProcessor struct {
	Name    string
	OutType reflect.Type
	Fn      func(message.Payload) (message.Payload, error)
}

// Entry is one compiled step of a schedule: compute the message on one
// outbound interface of one node. Binding order is fixed: construct,
// resolve inbound types, resolve outbound type, attach post-processing,
// compile the executable. Execute must not run before compilation
// completes.
type Entry struct {
	// Node is the target node.
	Node graph.Node

	// Interface is the outbound interface the entry computes.
	Interface *graph.Interface

	// OutboundIndex is the 1-based position of Interface on Node.
	OutboundIndex int

	// Mode is the inference algorithm the entry was compiled for.
	Mode rules.Mode

	// Rule is the bound update rule.
	Rule rules.Rule

	// InboundTypes holds one resolved payload type per interface in
	// interface order; the outbound slot is nil.
	InboundTypes []reflect.Type

	// IntermediateOutboundType is the rule's output type, before
	// post-processing.
	IntermediateOutboundType reflect.Type

	// OutboundType is the final output type, after post-processing.
	OutboundType reflect.Type

	// PostProcess is the optional transform, nil when absent.
	PostProcess *PostProcessor

	execute func() (message.Payload, error)
}

// Execute runs the compiled step: gather current inbound payloads, invoke
// the rule, write the result onto the target interface, apply
// post-processing. Returns the final payload.
func (e *Entry) Execute() (message.Payload, error) {
	if e.execute == nil {
		return nil, fmt.Errorf("entry for %s executed before compilation", e.Interface)
	}

	return e.execute()
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s rule %s on %s", e.Mode, e.Rule.Name, e.Interface)
}

// Schedule is an ordered sequence of entries, semantically "execute in
// this exact order": the order is a topological sort of message
// dependencies, and later entries read messages written by earlier ones.
type Schedule struct {
	Mode    rules.Mode
	Entries []*Entry
}

// Len returns the number of entries.
func (s *Schedule) Len() int {
	return len(s.Entries)
}

// Execute runs every entry in schedule order, strictly sequentially.
func (s *Schedule) Execute() error {
	for _, entry := range s.Entries {
		if _, err := entry.Execute(); err != nil {
			return fmt.Errorf("schedule step %s failed: %w", entry, err)
		}
	}

	return nil
}

// OutboundType returns the final outbound type resolved for the given
// interface, or nil when the schedule does not compute it.
func (s *Schedule) OutboundType(iface *graph.Interface) reflect.Type {
	for _, entry := range s.Entries {
		if entry.Interface == iface {
			return entry.OutboundType
		}
	}

	return nil
}

// Validate checks structural consistency of the compiled schedule.
func (s *Schedule) Validate() error {
	for _, entry := range s.Entries {
		if len(entry.InboundTypes) != len(entry.Node.Interfaces()) {
			return fmt.Errorf("entry %s: inbound tuple length %d does not match interface count %d",
				entry, len(entry.InboundTypes), len(entry.Node.Interfaces()))
		}

		if entry.execute == nil {
			return errors.New("entry " + entry.String() + " is not compiled")
		}
	}

	return nil
}
