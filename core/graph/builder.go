package graph

import (
	"errors"
	"fmt"
	"sort"
)

// Builder constructs a validated Graph using a fluent API. Nodes and edges
// are added incrementally; Build reports every structural problem at once.
//
// Example:
//
//	g, err := graph.New().
//	    AddNode("fetch", fetchHandler).
//	    AddNode("check", checkHandler).
//	    AddEdge("fetch", "check").
//	    AddConditionalEdges("check", decide, map[graph.Label]graph.NodeID{
//	        "retry": "fetch",
//	        "done":  graph.End,
//	    }).
//	    SetEntryPoint("fetch").
//	    Build()
type Builder struct {
	nodes       map[NodeID]*node
	order       []NodeID
	entry       NodeID
	buildErrors []error
}

// New creates an empty Builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[NodeID]*node),
	}
}

// AddNode registers a processing node. Duplicate IDs and nil handlers are
// recorded as build errors and reported by Build.
func (b *Builder) AddNode(id NodeID, handler Handler) *Builder {
	if id == "" || id == End {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("invalid node ID %q", id))
		return b
	}
	if handler == nil {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("handler must not be nil for node %q", id))
		return b
	}
	if _, exists := b.nodes[id]; exists {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("duplicate node ID %q", id))
		return b
	}

	b.nodes[id] = &node{id: id, handler: handler}
	b.order = append(b.order, id)
	return b
}

// AddEdge sets the static successor of a node. A node may have at most one
// outgoing route: either one static edge or one conditional set.
func (b *Builder) AddEdge(from, to NodeID) *Builder {
	source, exists := b.nodes[from]
	if !exists {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("edge from unknown node %q", from))
		return b
	}
	if source.next != "" || source.decision != nil {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("node %q already has an outgoing route", from))
		return b
	}
	if to == "" {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("edge from %q has empty target", from))
		return b
	}

	source.next = to
	return b
}

// AddConditionalEdges attaches a decision function to a node together with
// the full label-to-target routing table. After the node's handler runs, the
// decision is invoked on the resulting state and its label picks the next
// node. Every label the decision can return must appear in routes.
func (b *Builder) AddConditionalEdges(from NodeID, decision Decision, routes map[Label]NodeID) *Builder {
	source, exists := b.nodes[from]
	if !exists {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("conditional edges from unknown node %q", from))
		return b
	}
	if source.next != "" || source.decision != nil {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("node %q already has an outgoing route", from))
		return b
	}
	if decision == nil {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("decision must not be nil for node %q", from))
		return b
	}
	if len(routes) == 0 {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("node %q has a decision but no routes", from))
		return b
	}

	source.decision = decision
	source.routes = make(map[Label]NodeID, len(routes))
	for label, target := range routes {
		source.routes[label] = target
	}
	return b
}

// SetEntryPoint designates the node execution starts from.
func (b *Builder) SetEntryPoint(id NodeID) *Builder {
	b.entry = id
	return b
}

// Build validates the topology and produces an executable Graph:
//
//  1. No accumulated errors from AddNode/AddEdge/AddConditionalEdges.
//  2. An entry point is set and exists.
//  3. Every node has exactly one outgoing route.
//  4. Every route target is a registered node or End.
//  5. End is reachable from the entry over the union of static and
//     labeled edges; a topology that cannot terminate is rejected at
//     construction time, not discovered at run time.
func (b *Builder) Build(opts ...Option) (*Graph, error) {
	buildErrors := append([]error(nil), b.buildErrors...)

	if len(b.nodes) == 0 {
		buildErrors = append(buildErrors, errors.New("graph must contain at least one node"))
	}

	if b.entry == "" {
		buildErrors = append(buildErrors, errors.New("no entry point set"))
	} else if _, exists := b.nodes[b.entry]; !exists {
		buildErrors = append(buildErrors, fmt.Errorf("entry point %q is not a registered node", b.entry))
	}

	for _, id := range b.order {
		n := b.nodes[id]
		if n.next == "" && n.decision == nil {
			buildErrors = append(buildErrors, fmt.Errorf("node %q has no outgoing route", id))
			continue
		}
		for _, target := range routeTargets(n) {
			if target == End {
				continue
			}
			if _, exists := b.nodes[target]; !exists {
				buildErrors = append(buildErrors, fmt.Errorf("node %q routes to unknown node %q", id, target))
			}
		}
	}

	if len(buildErrors) > 0 {
		return nil, fmt.Errorf("graph build errors: %w", errors.Join(buildErrors...))
	}

	if !endReachable(b.nodes, b.entry) {
		return nil, fmt.Errorf("terminal %q is not reachable from entry %q", End, b.entry)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Graph{
		nodes:  b.nodes,
		order:  append([]NodeID(nil), b.order...),
		entry:  b.entry,
		config: cfg,
	}, nil
}

// routeTargets lists the possible successors of a node in deterministic
// order (labels sorted), for stable validation error messages.
func routeTargets(n *node) []NodeID {
	if n.decision == nil {
		return []NodeID{n.next}
	}
	labels := make([]string, 0, len(n.routes))
	for label := range n.routes {
		labels = append(labels, string(label))
	}
	sort.Strings(labels)

	targets := make([]NodeID, 0, len(labels))
	for _, label := range labels {
		targets = append(targets, n.routes[Label(label)])
	}
	return targets
}

// endReachable walks the union of static and labeled edges from the entry
// and reports whether End can be reached.
func endReachable(nodes map[NodeID]*node, entry NodeID) bool {
	visited := make(map[NodeID]bool, len(nodes))
	frontier := []NodeID{entry}

	for len(frontier) > 0 {
		current := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		if current == End {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		if n, exists := nodes[current]; exists {
			frontier = append(frontier, routeTargets(n)...)
		}
	}
	return false
}
