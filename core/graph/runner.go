package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/j840425/plan-estudio/core/state"
)

// defaultMaxSteps is the runner's safety net. The shipped topology has an
// analytic worst case well below this (every cycle is closed by a bounded
// counter, and even a full re-search of every stage after both replans stays
// under two hundred steps), so hitting the limit indicates a
// decision-function bug rather than a slow run.
const defaultMaxSteps = 250

// config holds the runner configuration populated by Options.
type config struct {
	maxSteps     int
	logger       *slog.Logger
	deadlineNode NodeID
}

func defaultConfig() *config {
	return &config{
		maxSteps: defaultMaxSteps,
		logger:   slog.Default(),
	}
}

// Option configures the Graph's runner. Options are applied at Build time.
type Option func(*config)

// WithMaxSteps overrides the step safety net. Values below one are ignored.
func WithMaxSteps(maxSteps int) Option {
	return func(cfg *config) {
		if maxSteps > 0 {
			cfg.maxSteps = maxSteps
		}
	}
}

// WithLogger sets the structured logger used for per-step progress.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithDeadlineNode designates a node the runner routes to when the context
// is cancelled mid-run. The node executes once, detached from the cancelled
// context, and the run ends. This lets a caller impose a wall-clock budget
// on the whole run and still receive a (limited) final output instead of an
// abort. Without this option, cancellation ends the run with the context
// error.
func WithDeadlineNode(id NodeID) Option {
	return func(cfg *config) {
		cfg.deadlineNode = id
	}
}

// Run drives the graph from its entry node until a route reaches End, and
// returns the final state.
//
// Execution is strictly sequential: one node at a time, decisions evaluated
// on the state their source node just produced. The returned error is nil
// for every completed run, limited ones included; it is non-nil only when
// the step safety net trips or the context is cancelled with no deadline
// node configured, both of which indicate misconfiguration, not content
// quality.
func (g *Graph) Run(ctx context.Context, st *state.State) (*state.State, error) {
	logger := g.config.logger
	current := g.entry
	deadlineUsed := false

	for step := 1; ; step++ {
		if step > g.config.maxSteps {
			return st, fmt.Errorf("step limit %d exceeded at node %q", g.config.maxSteps, current)
		}

		if err := ctx.Err(); err != nil && !deadlineUsed {
			if g.config.deadlineNode == "" {
				return st, fmt.Errorf("run cancelled at node %q: %w", current, err)
			}
			logger.Warn("wall-clock budget exceeded, routing to deadline node",
				"node", string(current),
				"deadline_node", string(g.config.deadlineNode),
			)
			current = g.config.deadlineNode
			ctx = context.WithoutCancel(ctx)
			deadlineUsed = true
		}

		n, exists := g.nodes[current]
		if !exists {
			return st, fmt.Errorf("route reached unknown node %q", current)
		}

		logger.Debug("executing node", "step", step, "node", string(current))
		stepStart := time.Now()

		if next := n.handler(ctx, st); next != nil {
			st = next
		}

		logger.Debug("node finished",
			"node", string(current),
			"duration", time.Since(stepStart),
		)

		next, err := g.route(n, st, logger)
		if err != nil {
			return st, err
		}
		if next == End {
			logger.Info("run finished", "steps", step, "terminal", string(current))
			return st, nil
		}
		if deadlineUsed {
			// The deadline node must terminate; anything else would loop
			// on a dead context.
			return st, fmt.Errorf("deadline node %q did not route to the terminal", current)
		}
		current = next
	}
}

// route resolves the successor of a node: the static edge, or the target
// selected by the node's decision function.
func (g *Graph) route(n *node, st *state.State, logger *slog.Logger) (NodeID, error) {
	if n.decision == nil {
		return n.next, nil
	}

	label := n.decision(st)
	target, known := n.routes[label]
	if !known {
		return End, fmt.Errorf("decision at node %q returned unmapped label %q", n.id, label)
	}

	logger.Info("decision",
		"node", string(n.id),
		"label", string(label),
		"next", string(target),
	)
	return target, nil
}
