// Package graph implements the cyclic workflow engine that drives the
// study-plan generator: a fixed topology of processing nodes and decision
// functions interpreted sequentially over one shared state record.
//
// Unlike a DAG executor, cycles are first-class here: the topology contains
// controlled loops, so termination is not a structural property of
// the graph. It is guaranteed instead by the decision functions' iteration
// ceilings plus the runner's step limit, which acts as a safety net.
package graph

import (
	"context"

	"github.com/j840425/plan-estudio/core/state"
)

// NodeID identifies a processing node in the topology.
type NodeID string

// End is the sentinel target that terminates a run. It is a valid edge
// target but never a node.
const End NodeID = "__end__"

// Label is the outcome of a decision function; it selects one of the labeled
// edges leaving the decision's source node.
type Label string

// Handler is one processing step: it receives the current run state and
// returns the updated state. Handlers must be total: collaborator failures
// degrade to documented defaults inside the handler and never abort the run.
// A handler returning nil keeps the previous state.
type Handler func(ctx context.Context, st *state.State) *state.State

// Decision is a pure routing function: it reads the state and returns one
// label from a fixed set. Decisions must be deterministic and side-effect
// free so the same state always routes identically.
type Decision func(st *state.State) Label

// node is the tagged union of the two routing shapes a node can have: a
// single static successor, or a decision with labeled successors. Build
// enforces exactly one of the two.
type node struct {
	id      NodeID
	handler Handler

	// static successor; empty when the node routes via a decision.
	next NodeID

	// conditional routing; nil when the node has a static successor.
	decision Decision
	routes   map[Label]NodeID
}

// Graph is a validated, executable topology. It is immutable after Build;
// the same Graph can run any number of sequential runs.
type Graph struct {
	nodes  map[NodeID]*node
	order  []NodeID
	entry  NodeID
	config *config
}

// Entry returns the designated entry node.
func (g *Graph) Entry() NodeID { return g.entry }

// Nodes returns all node IDs in registration order.
func (g *Graph) Nodes() []NodeID {
	return append([]NodeID(nil), g.order...)
}

// Routes returns the possible successors of a node: the static successor,
// or every conditional target. Used by reachability validation and by tests
// asserting topology shape.
func (g *Graph) Routes(id NodeID) []NodeID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	if n.decision == nil {
		return []NodeID{n.next}
	}
	targets := make([]NodeID, 0, len(n.routes))
	for _, target := range n.routes {
		targets = append(targets, target)
	}
	return targets
}
