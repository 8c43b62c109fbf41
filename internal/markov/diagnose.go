package markov

import "sort"

// Class is a communicating class of the chain: a strongly connected set of
// states in the transition graph.
type Class struct {
	States []int `json:"states"`
	// Closed classes have no transitions leaving them. They are the
	// recurrent classes of a finite chain.
	Closed bool `json:"closed"`
	// Period is the gcd of cycle lengths through the class, or 0 for a
	// single state without a self-transition.
	Period int `json:"period"`
}

// Diagnostics describes the structure of the transition graph.
type Diagnostics struct {
	Classes   []Class `json:"classes"`
	Transient []int   `json:"transient"`
	Absorbing []int   `json:"absorbing"`
}

// Recurrent returns the closed classes.
func (d Diagnostics) Recurrent() []Class {
	var out []Class
	for _, cl := range d.Classes {
		if cl.Closed {
			out = append(out, cl)
		}
	}
	return out
}

// Periodic reports whether any closed class has period greater than 1.
func (d Diagnostics) Periodic() bool {
	for _, cl := range d.Recurrent() {
		if cl.Period > 1 {
			return true
		}
	}
	return false
}

// Periods returns the period of each closed class.
func (d Diagnostics) Periods() []int {
	var out []int
	for _, cl := range d.Recurrent() {
		out = append(out, cl.Period)
	}
	return out
}

// Ergodic reports whether there is exactly one closed class and it is
// aperiodic, in which case every row of the long-run matrix is the same.
func (d Diagnostics) Ergodic() bool {
	rec := d.Recurrent()
	return len(rec) == 1 && rec[0].Period == 1
}

// Diagnose finds the communicating classes of the transition graph, which
// ones are closed, their periods, and the transient and absorbing states.
func (c *Chain) Diagnose() (Diagnostics, error) {
	p, err := c.TransitionMatrix()
	if err != nil {
		return Diagnostics{}, err
	}

	n := c.numStates
	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if p.At(i, j) > 0 {
				adj[i] = append(adj[i], j)
			}
		}
	}

	comp := stronglyConnected(adj)
	var d Diagnostics
	for id, members := range comp.members {
		sort.Ints(members)
		cl := Class{States: members, Closed: true}
		for _, u := range members {
			for _, v := range adj[u] {
				if comp.of[v] != id {
					cl.Closed = false
				}
			}
		}
		cl.Period = period(members, adj, comp.of, id)
		d.Classes = append(d.Classes, cl)

		if !cl.Closed {
			d.Transient = append(d.Transient, members...)
		} else if len(members) == 1 && p.At(members[0], members[0]) == 1 {
			d.Absorbing = append(d.Absorbing, members[0])
		}
	}
	sort.Slice(d.Classes, func(i, j int) bool { return d.Classes[i].States[0] < d.Classes[j].States[0] })
	sort.Ints(d.Transient)
	sort.Ints(d.Absorbing)
	return d, nil
}

type components struct {
	of      []int
	members [][]int
}

// stronglyConnected is Tarjan's algorithm, iterative so deep chains do not
// grow the goroutine stack.
func stronglyConnected(adj [][]int) components {
	n := len(adj)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	comp := components{of: make([]int, n)}

	type frame struct{ v, edge int }
	var stack []int
	next := 0

	for root := 0; root < n; root++ {
		if index[root] >= 0 {
			continue
		}
		call := []frame{{v: root}}
		index[root], low[root] = next, next
		next++
		stack = append(stack, root)
		onStack[root] = true

		for len(call) > 0 {
			top := &call[len(call)-1]
			v := top.v
			if top.edge < len(adj[v]) {
				w := adj[v][top.edge]
				top.edge++
				switch {
				case index[w] < 0:
					index[w], low[w] = next, next
					next++
					stack = append(stack, w)
					onStack[w] = true
					call = append(call, frame{v: w})
				case onStack[w]:
					low[v] = min(low[v], index[w])
				}
				continue
			}

			if low[v] == index[v] {
				id := len(comp.members)
				var members []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp.of[w] = id
					members = append(members, w)
					if w == v {
						break
					}
				}
				comp.members = append(comp.members, members)
			}
			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1].v
				low[parent] = min(low[parent], low[v])
			}
		}
	}
	return comp
}

// period is the gcd over edges (u, v) inside the class of level(u)+1-level(v),
// with levels from a BFS rooted in the class.
func period(members []int, adj [][]int, of []int, id int) int {
	level := map[int]int{members[0]: 0}
	queue := []int{members[0]}
	g := 0
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adj[u] {
			if of[v] != id {
				continue
			}
			if lv, seen := level[v]; seen {
				g = gcd(g, abs(level[u]+1-lv))
				continue
			}
			level[v] = level[u] + 1
			queue = append(queue, v)
		}
	}
	return g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
