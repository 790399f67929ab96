// Package planner implements the study-plan workflow: the eleven node
// executors, the four decision functions, the prompt templates, and the
// topology that wires them into a runnable graph.
//
// Every node is total: a failed or unparseable generation degrades to the
// node's documented fallback (default stage template, empty candidate set,
// neutral validation score) and the run proceeds. Termination is guaranteed
// by the decision functions, each of which checks its cycle's iteration
// ceiling before anything else.
package planner
