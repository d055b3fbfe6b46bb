// Package rules implements the typed update-rule dispatch table: it maps
// (node type, outbound interface position, inbound type tuple, inference
// mode) to one concrete update procedure and its declared output type.
package rules

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/message"
)

// Mode tags the inference algorithm a rule belongs to.
type Mode string

const (
	ModeSumProduct  Mode = "sum_product"
	ModeVariational Mode = "variational"
	ModeStructured  Mode = "structured_variational"
)

// UpdateFunc computes the outbound payload for one interface of a node.
// The inbound slice holds one payload per interface in interface order;
// the slot being computed is nil. Update functions are pure: same typed
// inputs, same output, no side effects.
type UpdateFunc func(node graph.Node, outbound int, inbound []message.Payload) (message.Payload, error)

// Rule is one registered update procedure.
type Rule struct {
	// Name identifies the rule in logs and error messages.
	Name string

	// NodeType is the node type the rule applies to.
	NodeType string

	// Outbound is the 1-based interface position the rule computes.
	// Zero matches any position (symmetric nodes).
	Outbound int

	// Mode is the inference algorithm the rule serves.
	Mode Mode

	// Inbound declares the expected payload type per interface in
	// interface order. The outbound slot is nil; message.TypeAny accepts
	// any payload.
	Inbound []reflect.Type

	// OutType is the payload type the rule produces.
	OutType reflect.Type

	// Fn is the update procedure.
	Fn UpdateFunc
}

// SelfDispatcher is implemented by node kinds that resolve their own
// update rule instead of consulting the registry table: terminals (whose
// output type depends on the held value) and composite nodes (which
// delegate to a cached internal schedule). The strategy is fixed at
// construction, never inspected per call.
type SelfDispatcher interface {
	UpdateRule(outbound int, mode Mode, inbound []reflect.Type) (Rule, error)
}

type ruleKey struct {
	nodeType string
	mode     Mode
}

// Registry holds the dispatch table. Rules for the same (node type, mode)
// are kept in registration order; lookup prefers the first exact inbound
// match, then the first wildcard-compatible match. Registering cheap
// parameterizations before conversion-requiring ones yields the ordered
// fallback dispatch policy.
type Registry struct {
	logger *slog.Logger
	rules  map[ruleKey][]Rule
}

// NewRegistry creates an empty rule registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		logger: logger,
		rules:  make(map[ruleKey][]Rule),
	}
}

// Register adds a rule to the table.
func (r *Registry) Register(rule Rule) error {
	if rule.NodeType == "" {
		return errors.New("rule is missing a node type")
	}

	if rule.Fn == nil {
		return errors.New("rule " + rule.Name + " is missing an update function")
	}

	if rule.OutType == nil {
		return errors.New("rule " + rule.Name + " is missing an output type")
	}

	key := ruleKey{nodeType: rule.NodeType, mode: rule.Mode}
	r.rules[key] = append(r.rules[key], rule)

	r.logger.Debug("Registered update rule",
		slog.String("rule", rule.Name),
		slog.String("node_type", rule.NodeType),
		slog.String("mode", string(rule.Mode)))

	return nil
}

// MustRegister registers a rule and panics on a malformed definition.
// Catalog packages use it in their registration hooks.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// Lookup resolves the update rule for computing the message on the given
// outbound interface position of node, with the given resolved inbound
// type tuple. Dispatch happens once, at schedule-compile time; the result
// is cached on the schedule entry.
func (r *Registry) Lookup(node graph.Node, outbound int, mode Mode, inbound []reflect.Type) (Rule, error) {
	if self, ok := node.(SelfDispatcher); ok {
		return self.UpdateRule(outbound, mode, inbound)
	}

	key := ruleKey{nodeType: node.Type(), mode: mode}
	candidates := r.rules[key]

	// First pass: exact inbound type match, in registration order.
	for _, rule := range candidates {
		if rule.matches(outbound, inbound, false) {
			return rule, nil
		}
	}

	// Fallback pass: wildcard slots accepted.
	for _, rule := range candidates {
		if rule.matches(outbound, inbound, true) {
			return rule, nil
		}
	}

	return Rule{}, &DispatchError{
		NodeID:   node.ID(),
		NodeType: node.Type(),
		Outbound: outbound,
		Mode:     mode,
		Inbound:  inbound,
	}
}

func (r Rule) matches(outbound int, inbound []reflect.Type, wildcard bool) bool {
	if r.Outbound != 0 && r.Outbound != outbound {
		return false
	}

	if len(r.Inbound) != len(inbound) {
		return false
	}

	for idx, want := range r.Inbound {
		got := inbound[idx]

		if want == nil || got == nil {
			// Both must agree on which slot is being computed. A rule
			// with a wildcard outbound position uses the position match
			// above; its nil slot floats with the outbound index.
			if r.Outbound == 0 {
				continue
			}

			if want != got {
				return false
			}

			continue
		}

		if want == got {
			continue
		}

		if wildcard && want == message.TypeAny {
			continue
		}

		return false
	}

	return true
}

// Signature renders an inbound type tuple for error messages, e.g.
// "(Gaussian, void, PointMass)".
func Signature(types []reflect.Type) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, message.TypeName(t))
	}

	return "(" + strings.Join(names, ", ") + ")"
}
