// Package graph provides the static workflow graph: named nodes, one entry
// point and ordered directed edges, optionally guarded by predicates over
// thread state. A Graph is a mutable builder; Compile validates it and
// returns an immutable Compiled graph safe for concurrent execution.
package graph

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentforge/core"
)

// End is the terminal pseudo-node. An edge targeting End completes the turn.
const End = "__end__"

// Predicate guards a conditional edge. It must be a pure function of state.
type Predicate func(s *core.State) bool

type edge struct {
	target string
	when   Predicate // nil means unconditional
}

// Graph is a mutable builder. It is not safe for concurrent mutation; build
// the graph in one goroutine, then Compile once at process start.
type Graph struct {
	nodes map[string]core.Node
	edges map[string][]edge
	entry string
}

// New creates an empty graph builder.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]core.Node),
		edges: make(map[string][]edge),
	}
}

// AddNode registers a node under its name. Panics on nil nodes, empty or
// reserved names, and duplicates; workflow assembly errors should fail at
// startup, not at runtime.
func (g *Graph) AddNode(n core.Node) *Graph {
	if n == nil {
		panic("graph: node cannot be nil")
	}
	name := n.Name()
	if name == "" {
		panic("graph: node name cannot be empty")
	}
	if strings.EqualFold(name, End) || strings.EqualFold(name, "end") {
		panic("graph: node name is reserved: " + name)
	}
	if _, exists := g.nodes[name]; exists {
		panic("graph: duplicate node name: " + name)
	}
	g.nodes[name] = n
	return g
}

// AddEdge adds an unconditional edge from one node to another (or to End).
// Edges are evaluated in the order they were declared.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = append(g.edges[from], edge{target: to})
	return g
}

// AddConditionalEdge adds an edge taken only when the predicate holds.
// Declaration order is the tie-break: the first satisfied edge wins.
func (g *Graph) AddConditionalEdge(from, to string, when Predicate) *Graph {
	if when == nil {
		panic("graph: predicate cannot be nil")
	}
	g.edges[from] = append(g.edges[from], edge{target: to, when: when})
	return g
}

// SetEntry designates the entry node. Must be called before Compile.
func (g *Graph) SetEntry(name string) *Graph {
	g.entry = name
	return g
}

// Compile validates the graph structure and returns an immutable executable
// form. It verifies that the entry node is set and exists and that every
// edge endpoint references a known node (or End). Predicate satisfiability
// is a runtime property; an unroutable state surfaces as a configuration
// fault during execution.
func (g *Graph) Compile() (*Compiled, error) {
	if g.entry == "" {
		return nil, fmt.Errorf("graph: entry node not set")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("graph: entry node %q not found", g.entry)
	}
	if len(g.nodes) == 0 {
		return nil, fmt.Errorf("graph: no nodes defined")
	}
	for from, edges := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("graph: edge source %q not found", from)
		}
		for _, e := range edges {
			if e.target == End {
				continue
			}
			if _, ok := g.nodes[e.target]; !ok {
				return nil, fmt.Errorf("graph: edge target %q from %q not found", e.target, from)
			}
		}
	}

	nodes := make(map[string]core.Node, len(g.nodes))
	for k, v := range g.nodes {
		nodes[k] = v
	}
	edges := make(map[string][]edge, len(g.edges))
	for k, v := range g.edges {
		edges[k] = append([]edge(nil), v...)
	}
	return &Compiled{nodes: nodes, edges: edges, entry: g.entry}, nil
}

// Compiled is the immutable, executable form of a graph. Safe for concurrent
// use by any number of turns.
type Compiled struct {
	nodes map[string]core.Node
	edges map[string][]edge
	entry string
}

// Entry returns the designated entry node name.
func (c *Compiled) Entry() string { return c.entry }

// Node returns the node registered under name.
func (c *Compiled) Node(name string) (core.Node, bool) {
	n, ok := c.nodes[name]
	return n, ok
}

// HasNode reports whether name is a known node.
func (c *Compiled) HasNode(name string) bool {
	_, ok := c.nodes[name]
	return ok
}

// Next resolves the outgoing edge of from against state: edges are evaluated
// in declaration order and the first whose predicate is satisfied (or which
// is unconditional) wins. An unroutable state is a configuration fault.
func (c *Compiled) Next(from string, state *core.State) (string, error) {
	edges := c.edges[from]
	if len(edges) == 0 {
		return "", &core.ConfigFaultError{Node: from, Reason: "no outgoing edges"}
	}
	for _, e := range edges {
		if e.when == nil || e.when(state) {
			return e.target, nil
		}
	}
	return "", &core.ConfigFaultError{Node: from, Reason: "no satisfiable edge"}
}
