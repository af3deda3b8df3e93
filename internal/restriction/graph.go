package restriction

import "city_network/internal/models"

// edge is the part of a route the search cares about.
type edge struct {
	id      uint
	origin  uint
	destiny uint
	cost    float64
}

// graph indexes a route snapshot by origin. Edges keep snapshot order so the
// traversal order follows the order routes were handed in.
type graph struct {
	edges []edge
	out   map[uint][]int // origin id -> indexes into edges
}

// newGraph builds the adjacency index. Routes missing an endpoint id are
// skipped silently.
func newGraph(routes []models.Route) *graph {
	g := &graph{
		edges: make([]edge, 0, len(routes)),
		out:   make(map[uint][]int),
	}
	for _, r := range routes {
		if !r.HasEndpoints() {
			continue
		}
		g.out[r.OriginID] = append(g.out[r.OriginID], len(g.edges))
		g.edges = append(g.edges, edge{
			id:      r.ID,
			origin:  r.OriginID,
			destiny: r.DestinyID,
			cost:    r.Cost,
		})
	}
	return g
}

// unvisited returns the edges leaving from that are not in visited.
// The list is fixed when it is taken; edges visited later are still tried.
func (g *graph) unvisited(from uint, visited map[int]bool) []int {
	var next []int
	for _, idx := range g.out[from] {
		if !visited[idx] {
			next = append(next, idx)
		}
	}
	return next
}
