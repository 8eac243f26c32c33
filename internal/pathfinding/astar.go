package pathfinding

import (
	"container/heap"
	"math"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
)

// Options tune a search
type Options struct {
	// Diagonal allows moves to the four corner neighbors. A corner can only
	// be taken when both cells beside it are open.
	Diagonal bool

	// Heuristic guides the search toward the goal. Without it the search
	// is a plain uniform-cost search.
	Heuristic bool

	// MaxIterations bounds the number of expanded cells. Zero means no
	// bound.
	MaxIterations int
}

// diagonalCost is the cost factor of a corner move
var diagonalCost = math.Sqrt2

// Search finds the cheapest path from start to end. The path excludes start
// and ends with end. An unreachable end, a wall at either end, or running
// out of iterations gives an empty path.
func Search(g *Graph, start, end *GraphNode, opts Options) ([]*GraphNode, error) {
	if g == nil {
		return nil, bmerr.InvalidArgument("graph is required")
	}
	if start == nil || end == nil {
		return nil, bmerr.InvalidArgument("start and end are required")
	}
	if g.Node(start.X, start.Y) != start || g.Node(end.X, end.Y) != end {
		return nil, bmerr.InvalidArgument("start and end must belong to the graph")
	}
	if start == end || start.IsWall() || end.IsWall() {
		return nil, nil
	}

	h := func(n *GraphNode) float64 {
		if !opts.Heuristic {
			return 0
		}
		if opts.Diagonal {
			return octile(n, end)
		}
		return manhattan(n, end)
	}

	open := &nodeHeap{}
	heap.Push(open, &searchNode{node: start, fCost: h(start)})
	best := map[*GraphNode]float64{start: 0}
	closed := make(map[*GraphNode]struct{})

	for i := 0; open.Len() > 0; i++ {
		if opts.MaxIterations > 0 && i >= opts.MaxIterations {
			return nil, nil
		}

		current := heap.Pop(open).(*searchNode)
		if current.node == end {
			return current.path(), nil
		}
		if _, done := closed[current.node]; done {
			continue
		}
		closed[current.node] = struct{}{}

		for _, step := range g.neighbors(current.node, opts.Diagonal) {
			if _, done := closed[step.node]; done {
				continue
			}
			gCost := current.gCost + step.cost
			if known, ok := best[step.node]; ok && known <= gCost {
				continue
			}
			best[step.node] = gCost
			heap.Push(open, &searchNode{
				node:   step.node,
				parent: current,
				gCost:  gCost,
				fCost:  gCost + h(step.node),
			})
		}
	}

	return nil, nil
}

type step struct {
	node *GraphNode
	cost float64
}

// neighbors lists the open cells reachable from n in one move
func (g *Graph) neighbors(n *GraphNode, diagonal bool) []step {
	out := make([]step, 0, 8)

	// N, E, S, W
	cardinals := [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	var open [4]bool
	for i, d := range cardinals {
		next := g.Node(n.X+d[0], n.Y+d[1])
		if next == nil || next.IsWall() {
			continue
		}
		open[i] = true
		out = append(out, step{node: next, cost: float64(next.Weight)})
	}

	if !diagonal {
		return out
	}

	corners := [4]struct {
		dx, dy     int
		adj1, adj2 int
	}{
		{1, -1, 0, 1},  // NE
		{1, 1, 1, 2},   // SE
		{-1, 1, 2, 3},  // SW
		{-1, -1, 3, 0}, // NW
	}
	for _, c := range corners {
		if !open[c.adj1] || !open[c.adj2] {
			continue
		}
		next := g.Node(n.X+c.dx, n.Y+c.dy)
		if next == nil || next.IsWall() {
			continue
		}
		out = append(out, step{node: next, cost: float64(next.Weight) * diagonalCost})
	}

	return out
}

func manhattan(a, b *GraphNode) float64 {
	return math.Abs(float64(a.X-b.X)) + math.Abs(float64(a.Y-b.Y))
}

// octile is the exact distance on an open grid with corner moves
func octile(a, b *GraphNode) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	return math.Max(dx, dy) + (diagonalCost-1)*math.Min(dx, dy)
}

type searchNode struct {
	node   *GraphNode
	parent *searchNode
	gCost  float64
	fCost  float64
	index  int
}

func (s *searchNode) path() []*GraphNode {
	var path []*GraphNode
	for n := s; n.parent != nil; n = n.parent {
		path = append(path, n.node)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// nodeHeap is a min-heap by fCost
type nodeHeap []*searchNode

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].fCost < h[j].fCost }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x any)        { n := x.(*searchNode); n.index = len(*h); *h = append(*h, n) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[:n-1]
	return node
}
