// Package restriction decides whether a route's cost is consistent with the
// rest of the network.
//
// A candidate route from O to D with cost C is rejected when a chain of
// existing routes leaving O directly reaches D with an accumulated cost <= C.
// The search is depth first and stops at the first qualifying chain, so the
// chain reported is not necessarily the cheapest one.
package restriction

import (
	"city_network/internal/models"
)

// Engine validates candidate routes against a snapshot of existing routes.
// The zero value is ready to use. An Engine holds no per-call state and may
// be shared between goroutines.
type Engine struct {
	// MaxSteps bounds the number of edges examined by one Validate call.
	// Zero means no limit.
	MaxSteps int
}

// New returns an Engine with the given step budget.
func New(maxSteps int) *Engine {
	return &Engine{MaxSteps: maxSteps}
}

// Validate is a convenience wrapper around an unbounded Engine.
func Validate(candidate models.Route, routes []models.Route) error {
	var e Engine
	return e.Validate(candidate, routes)
}

// Validate returns nil when candidate is admissible. It returns a
// *ValidationError matching ErrCostInconsistency when an indirect chain is at
// least as cheap as the candidate, and ErrSearchBudgetExceeded when the step
// budget runs out first. routes is read only.
//
// A candidate without both endpoint ids is exempt and always accepted.
func (e *Engine) Validate(candidate models.Route, routes []models.Route) error {
	if !candidate.HasEndpoints() {
		return nil
	}

	s := &search{
		graph:    newGraph(routes),
		target:   candidate.DestinyID,
		limit:    candidate.Cost,
		maxSteps: e.MaxSteps,
	}

	for _, first := range s.graph.out[candidate.OriginID] {
		if err := s.step(); err != nil {
			return err
		}
		// A direct duplicate is not an indirect path.
		if s.graph.edges[first].destiny == s.target {
			continue
		}
		path, cost, err := s.explore(first)
		if err != nil {
			return err
		}
		if path != nil {
			return newCostInconsistency(path, cost)
		}
	}
	return nil
}

// search carries the scratch state of one Validate call.
type search struct {
	graph    *graph
	target   uint
	limit    float64
	maxSteps int
	steps    int
}

// frame is one level of the depth-first walk: the edge that led to a city,
// the edges leaving it and the position of the next one to try.
type frame struct {
	via   int
	edges []int
	pos   int
}

// explore walks forward from the first hop with an explicit stack. Each first
// hop starts with an empty visited set. Within one exploration a visited edge
// is never taken again, including after backtracking.
//
// One accumulator serves the whole exploration. Taking an edge adds its cost.
// Leaving a level gives back only the cost of the edge that entered it, so
// when a level is closed by reaching the target too expensively, the cost of
// that last edge stays in the accumulator for the rest of the exploration.
func (s *search) explore(first int) ([]uint, float64, error) {
	visited := map[int]bool{first: true}
	hop := s.graph.edges[first]
	acc := hop.cost
	stack := []frame{{
		via:   first,
		edges: s.graph.unvisited(hop.destiny, visited),
	}}

	// pop leaves the top level and returns the entering edge's cost to acc.
	pop := func() {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			acc -= s.graph.edges[top.via].cost
		}
	}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.pos >= len(top.edges) {
			pop()
			continue
		}
		idx := top.edges[top.pos]
		top.pos++

		if err := s.step(); err != nil {
			return nil, 0, err
		}

		ed := s.graph.edges[idx]
		acc += ed.cost
		visited[idx] = true

		if ed.destiny == s.target {
			if acc <= s.limit {
				return s.pathOf(stack, idx), acc, nil
			}
			pop()
			continue
		}

		stack = append(stack, frame{
			via:   idx,
			edges: s.graph.unvisited(ed.destiny, visited),
		})
	}
	return nil, 0, nil
}

func (s *search) step() error {
	s.steps++
	if s.maxSteps > 0 && s.steps > s.maxSteps {
		return ErrSearchBudgetExceeded
	}
	return nil
}

func (s *search) pathOf(stack []frame, last int) []uint {
	path := make([]uint, 0, len(stack)+1)
	for _, f := range stack {
		path = append(path, s.graph.edges[f.via].id)
	}
	return append(path, s.graph.edges[last].id)
}
