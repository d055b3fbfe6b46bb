package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/message"
	"github.com/dukex/forney/pkg/otelhelper"
	"github.com/dukex/forney/pkg/schedule"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Wrap feeds the message received at the head terminal back into the tail
// terminal between sections: the output of one section becomes the
// constant input of the next.
type Wrap struct {
	Head graph.Terminal
	Tail graph.Terminal
}

// MarginalCombiner multiplies two opposing messages into a marginal.
type MarginalCombiner func(a, b message.Payload) (message.Payload, error)

// Option configures a runtime.
type Option func(*Runtime)

// WithTracer records one span per pass and per section step.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runtime) {
		r.tracer = tracer
	}
}

// WithMarginalCombiner overrides the marginal product used by the
// variational sweep. Defaults to the catalog's Multiply.
func WithMarginalCombiner(combine MarginalCombiner) Option {
	return func(r *Runtime) {
		r.combine = combine
	}
}

// Runtime drives a compiled schedule: a single batch pass, or repeated
// sectioned passes over streaming buffers. Execution is strictly
// sequential; the entry order is the correctness invariant.
type Runtime struct {
	graph    *graph.FactorGraph
	schedule *schedule.Schedule
	logger   *slog.Logger
	tracer   trace.Tracer
	combine  MarginalCombiner

	readOrder   []graph.Terminal
	readBuffers map[graph.Terminal]*ReadBuffer

	writeIfaceOrder []*graph.Interface
	writeIfaces     map[*graph.Interface]*WriteBuffer
	writeEdgeOrder  []*graph.Edge
	writeEdges      map[*graph.Edge]*WriteBuffer

	wraps    []Wrap
	section  int
	prepared bool
	runID    string
}

// NewRuntime creates a runtime for one graph and one compiled schedule.
func NewRuntime(g *graph.FactorGraph, sched *schedule.Schedule, logger *slog.Logger, opts ...Option) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}

	runID := "run-" + uuid.New().String()[:8]

	r := &Runtime{
		graph:       g,
		schedule:    sched,
		logger:      logger.With(slog.String("module", "engine"), slog.String("run_id", runID)),
		combine:     distributions.Multiply,
		readBuffers: make(map[graph.Terminal]*ReadBuffer),
		writeIfaces: make(map[*graph.Interface]*WriteBuffer),
		writeEdges:  make(map[*graph.Edge]*WriteBuffer),
		runID:       runID,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// CurrentSection returns the streaming section cursor.
func (r *Runtime) CurrentSection() int {
	return r.section
}

// SetSchedule binds the compiled schedule. Useful when buffers must be
// attached (and terminals seeded via Prepare) before compilation can
// resolve types.
func (r *Runtime) SetSchedule(sched *schedule.Schedule) {
	r.schedule = sched
}

// AttachReadBuffer attaches (or extends) the read buffer feeding the
// given terminal. The returned handle stays valid across Empty calls.
func (r *Runtime) AttachReadBuffer(term graph.Terminal, values ...message.Payload) *ReadBuffer {
	buffer, ok := r.readBuffers[term]
	if !ok {
		buffer = &ReadBuffer{}
		r.readBuffers[term] = buffer
		r.readOrder = append(r.readOrder, term)
	}

	buffer.Append(values...)

	return buffer
}

// DetachReadBuffer fully removes the mapping entry for the terminal.
func (r *Runtime) DetachReadBuffer(term graph.Terminal) {
	if _, ok := r.readBuffers[term]; !ok {
		return
	}

	delete(r.readBuffers, term)

	for idx, candidate := range r.readOrder {
		if candidate == term {
			r.readOrder = append(r.readOrder[:idx], r.readOrder[idx+1:]...)

			break
		}
	}
}

// AttachInterfaceWriteBuffer logs the message computed on the interface
// after every section.
func (r *Runtime) AttachInterfaceWriteBuffer(iface *graph.Interface) *WriteBuffer {
	buffer, ok := r.writeIfaces[iface]
	if !ok {
		buffer = &WriteBuffer{}
		r.writeIfaces[iface] = buffer
		r.writeIfaceOrder = append(r.writeIfaceOrder, iface)
	}

	return buffer
}

// AttachEdgeWriteBuffer logs the edge's marginal (or, when no marginal is
// cached, its forward message) after every section.
func (r *Runtime) AttachEdgeWriteBuffer(edge *graph.Edge) *WriteBuffer {
	buffer, ok := r.writeEdges[edge]
	if !ok {
		buffer = &WriteBuffer{}
		r.writeEdges[edge] = buffer
		r.writeEdgeOrder = append(r.writeEdgeOrder, edge)
	}

	return buffer
}

// DetachInterfaceWriteBuffer fully removes the mapping entry.
func (r *Runtime) DetachInterfaceWriteBuffer(iface *graph.Interface) {
	if _, ok := r.writeIfaces[iface]; !ok {
		return
	}

	delete(r.writeIfaces, iface)

	for idx, candidate := range r.writeIfaceOrder {
		if candidate == iface {
			r.writeIfaceOrder = append(r.writeIfaceOrder[:idx], r.writeIfaceOrder[idx+1:]...)

			break
		}
	}
}

// EmptyReadBuffers clears every read buffer's contents, retaining the
// buffer handles.
func (r *Runtime) EmptyReadBuffers() {
	for _, buffer := range r.readBuffers {
		buffer.Empty()
	}
}

// EmptyWriteBuffers clears every write buffer's contents, retaining the
// buffer handles.
func (r *Runtime) EmptyWriteBuffers() {
	for _, buffer := range r.writeIfaces {
		buffer.Empty()
	}

	for _, buffer := range r.writeEdges {
		buffer.Empty()
	}
}

// AddWrap registers a feedback wrap from head to tail.
func (r *Runtime) AddWrap(head, tail graph.Terminal) {
	r.wraps = append(r.wraps, Wrap{Head: head, Tail: tail})
}

// Prepare performs one-time setup before streaming: it validates the
// graph and seeds every read-buffered terminal with a copy of its first
// queued value (without consuming it) so schedule compilation and the
// first pass see representative types. Calling it twice is a no-op.
func (r *Runtime) Prepare(ctx context.Context) error {
	if r.prepared {
		return nil
	}

	if err := r.graph.Validate(); err != nil {
		return err
	}

	for _, term := range r.readOrder {
		value, ok := r.readBuffers[term].peek()
		if !ok {
			continue
		}

		if err := term.SetValue(value.Clone()); err != nil {
			return fmt.Errorf("prepare failed seeding terminal %q: %w", term.ID(), err)
		}
	}

	r.prepared = true
	r.logger.DebugContext(ctx, "Runtime prepared", slog.Int("read_buffers", len(r.readOrder)))

	return nil
}

// ExecutePass runs every schedule entry once, in exact schedule order.
func (r *Runtime) ExecutePass(ctx context.Context) error {
	if r.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, r.tracer, "engine.pass",
			attribute.String(otelhelper.GraphIDKey, r.graph.ID()),
			attribute.String(otelhelper.RunIDKey, r.runID),
			attribute.Int(otelhelper.SectionKey, r.section))
		defer span.End()

		if err := r.schedule.Execute(); err != nil {
			otelhelper.SetError(span, err)

			return err
		}

		return nil
	}

	return r.schedule.Execute()
}

// Step advances exactly one section: pull the next queued value for each
// read buffer into its terminal, run the full schedule once, append the
// observed values to each write buffer, advance the section cursor and
// propagate wraps.
func (r *Runtime) Step(ctx context.Context) error {
	if err := r.Prepare(ctx); err != nil {
		return err
	}

	for _, term := range r.readOrder {
		value, ok := r.readBuffers[term].pop()
		if !ok {
			return &BufferExhaustionError{
				Reason: fmt.Sprintf("read buffer for terminal %q drained at section %d", term.ID(), r.section),
			}
		}

		if err := term.SetValue(value); err != nil {
			return err
		}
	}

	if err := r.ExecutePass(ctx); err != nil {
		return fmt.Errorf("section %d failed: %w", r.section, err)
	}

	for _, iface := range r.writeIfaceOrder {
		msg := iface.Message()
		if msg == nil || msg.Payload == nil {
			return fmt.Errorf("write buffer target %s carries no message after section %d", iface, r.section)
		}

		r.writeIfaces[iface].append(msg.Payload.Clone())
	}

	for _, edge := range r.writeEdgeOrder {
		payload := edge.Marginal()
		if payload == nil {
			if msg := edge.ForwardMessage(); msg != nil {
				payload = msg.Payload
			}
		}

		if payload == nil {
			return fmt.Errorf("write buffer target %s carries no value after section %d", edge, r.section)
		}

		r.writeEdges[edge].append(payload.Clone())
	}

	r.section++

	for _, wrap := range r.wraps {
		received := wrap.Head.Interfaces()[0].Partner().Message()
		if received == nil || received.Payload == nil {
			return fmt.Errorf("wrap head %q received no message in section %d", wrap.Head.ID(), r.section-1)
		}

		if err := wrap.Tail.SetValue(received.Payload.Clone()); err != nil {
			return err
		}
	}

	r.logger.DebugContext(ctx, "Section complete", slog.Int("section", r.section))

	return nil
}

// Run repeatedly steps until any read buffer is exhausted. It fails when
// no read buffer is attached: nothing would bound the loop.
func (r *Runtime) Run(ctx context.Context) error {
	if len(r.readOrder) == 0 {
		return &BufferExhaustionError{Reason: "run requires at least one attached read buffer"}
	}

	if err := r.Prepare(ctx); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Starting streaming run", slog.Int("section", r.section))

	for {
		for _, term := range r.readOrder {
			if r.readBuffers[term].Len() == 0 {
				r.logger.InfoContext(ctx, "Read buffer exhausted, stopping run",
					slog.String("terminal", term.ID()),
					slog.Int("sections", r.section))

				return nil
			}
		}

		if err := r.Step(ctx); err != nil {
			return err
		}
	}
}

// RunVariational performs the given number of mean-field sweeps: for each
// subgraph in order, execute its internal schedule and refresh the
// marginals of its internal edges.
func (r *Runtime) RunVariational(ctx context.Context, factorization *schedule.Factorization, sweeps int) error {
	if sweeps < 1 {
		return fmt.Errorf("variational run requires at least one sweep, got %d", sweeps)
	}

	for sweep := range sweeps {
		for _, subgraph := range factorization.Subgraphs() {
			if subgraph.InternalSchedule == nil {
				return fmt.Errorf("subgraph has no compiled internal schedule")
			}

			if err := subgraph.InternalSchedule.Execute(); err != nil {
				return fmt.Errorf("variational sweep %d failed: %w", sweep, err)
			}

			if err := r.updateMarginals(subgraph); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Runtime) updateMarginals(subgraph *schedule.Subgraph) error {
	for _, edge := range subgraph.InternalEdges() {
		forward := edge.ForwardMessage()
		backward := edge.BackwardMessage()

		if forward == nil || backward == nil {
			continue
		}

		marginal, err := r.combine(forward.Payload, backward.Payload)
		if err != nil {
			return fmt.Errorf("marginal update on %s failed: %w", edge, err)
		}

		edge.SetMarginal(marginal)
	}

	return nil
}
