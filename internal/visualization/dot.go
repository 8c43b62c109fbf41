// Package visualization renders belief graphs and their Markov chains in
// various output formats.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/jaggdy/internal/belief"
	"github.com/nvandessel/jaggdy/internal/logic"
	"github.com/nvandessel/jaggdy/internal/markov"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatDOT, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want dot or json)", s)
	}
}

// palette colors agents by the model they hold.
var palette = []string{
	"steelblue",
	"tomato",
	"mediumseagreen",
	"goldenrod",
	"orchid",
	"lightslateblue",
	"sandybrown",
	"cadetblue",
}

func modelColor(idx int) string {
	if idx < 0 {
		return "lightgray"
	}
	return palette[idx%len(palette)]
}

func agentID(agent int) string { return fmt.Sprintf("a%d", agent) }

func stateID(idx int) string { return fmt.Sprintf("s%d", idx) }

// profileLabel joins the keys of a belief profile.
func profileLabel(beliefs []logic.Interpretation) string {
	keys := make([]string, len(beliefs))
	for i, b := range beliefs {
		keys[i] = b.Key()
	}
	return strings.Join(keys, " ")
}

// RenderDOT produces a Graphviz DOT representation of the belief graph.
// Edges point from an agent to the agent it listens to.
func RenderDOT(name string, g *belief.Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", name)
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	beliefs := g.Beliefs()
	indices := g.BeliefIndices()
	for agent, interp := range beliefs {
		fmt.Fprintf(&b, "  %q [label=%q, fillcolor=%q, tooltip=\"model=%d\"];\n",
			agentID(agent), fmt.Sprintf("agent %d\n%s", agent, interp.Key()), modelColor(indices[agent]), indices[agent])
	}
	b.WriteString("\n")

	for _, c := range g.Connections() {
		style := "solid"
		if c.Source == c.Target {
			style = "dotted"
		}
		fmt.Fprintf(&b, "  %q -> %q [style=%s];\n", agentID(c.Source), agentID(c.Target), style)
	}

	b.WriteString("}\n")
	return b.String()
}

// RenderJSON produces a JSON graph representation with nodes and edges arrays.
func RenderJSON(g *belief.Graph) map[string]any {
	beliefs := g.Beliefs()
	indices := g.BeliefIndices()

	nodes := make([]map[string]any, 0, len(beliefs))
	for agent, interp := range beliefs {
		nodes = append(nodes, map[string]any{
			"id":     agentID(agent),
			"agent":  agent,
			"belief": interp.Key(),
			"model":  indices[agent],
		})
	}

	edges := make([]map[string]any, 0)
	for _, c := range g.Connections() {
		edges = append(edges, map[string]any{
			"source": agentID(c.Source),
			"target": agentID(c.Target),
		})
	}

	models := make([]string, 0)
	for _, m := range g.Models() {
		models = append(models, m.Key())
	}

	return map[string]any{
		"models":     models,
		"nodes":      nodes,
		"edges":      edges,
		"node_count": len(nodes),
		"edge_count": len(edges),
	}
}

// chainEdge is one nonzero transition.
type chainEdge struct {
	from, to    int
	probability float64
}

func chainEdges(c *markov.Chain) ([]chainEdge, error) {
	p, err := c.TransitionMatrix()
	if err != nil {
		return nil, fmt.Errorf("transition matrix: %w", err)
	}
	n := c.NumStates()
	var edges []chainEdge
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v := p.At(i, j); v > 0 {
				edges = append(edges, chainEdge{from: i, to: j, probability: v})
			}
		}
	}
	return edges, nil
}

// RenderChainDOT produces a DOT state diagram of the chain. Absorbing
// states are drawn as double circles and transient states dashed.
func RenderChainDOT(name string, c *markov.Chain) (string, error) {
	diag, err := c.Diagnose()
	if err != nil {
		return "", fmt.Errorf("diagnose: %w", err)
	}
	edges, err := chainEdges(c)
	if err != nil {
		return "", err
	}

	absorbing := make(map[int]bool, len(diag.Absorbing))
	for _, s := range diag.Absorbing {
		absorbing[s] = true
	}
	transient := make(map[int]bool, len(diag.Transient))
	for _, s := range diag.Transient {
		transient[s] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", name+" chain")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=circle, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	for idx, s := range c.States() {
		beliefs, err := c.Beliefs(s)
		if err != nil {
			return "", err
		}
		attrs := fmt.Sprintf("label=%q", profileLabel(beliefs))
		switch {
		case absorbing[idx]:
			attrs += ", shape=doublecircle"
		case transient[idx]:
			attrs += ", style=dashed"
		}
		fmt.Fprintf(&b, "  %q [%s];\n", stateID(idx), attrs)
	}
	b.WriteString("\n")

	for _, e := range edges {
		fmt.Fprintf(&b, "  %q -> %q [label=\"%.3g\"];\n", stateID(e.from), stateID(e.to), e.probability)
	}

	b.WriteString("}\n")
	return b.String(), nil
}

// RenderChainJSON produces the chain's states and nonzero transitions.
func RenderChainJSON(c *markov.Chain) (map[string]any, error) {
	diag, err := c.Diagnose()
	if err != nil {
		return nil, fmt.Errorf("diagnose: %w", err)
	}
	edges, err := chainEdges(c)
	if err != nil {
		return nil, err
	}

	nodes := make([]map[string]any, 0, c.NumStates())
	for idx, s := range c.States() {
		beliefs, err := c.Beliefs(s)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, map[string]any{
			"id":      stateID(idx),
			"state":   s,
			"beliefs": strings.Fields(profileLabel(beliefs)),
		})
	}

	jsonEdges := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		jsonEdges = append(jsonEdges, map[string]any{
			"source":      stateID(e.from),
			"target":      stateID(e.to),
			"probability": e.probability,
		})
	}

	return map[string]any{
		"nodes":       nodes,
		"edges":       jsonEdges,
		"node_count":  len(nodes),
		"edge_count":  len(jsonEdges),
		"diagnostics": diag,
	}, nil
}
