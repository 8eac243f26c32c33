package pathfinding

import (
	"fmt"
	"strings"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
)

// Cell weights. Anything above WeightOpen is open ground that costs more to
// cross.
const (
	WeightWall = 0
	WeightOpen = 1
)

// GraphNode is one grid cell
type GraphNode struct {
	X, Y   int
	Weight int
}

// IsWall reports whether the cell blocks movement
func (n *GraphNode) IsWall() bool {
	return n.Weight == WeightWall
}

func (n *GraphNode) String() string {
	return fmt.Sprintf("[%d %d]", n.X, n.Y)
}

// Graph is an immutable grid of cells. Searches keep their own state, so one
// graph can serve concurrent searches.
type Graph struct {
	nodes [][]*GraphNode
}

// NewGraph builds a graph from rows of cell weights. grid[y][x] is the cell
// at column x of row y. Rows may differ in length.
func NewGraph(grid [][]int) (*Graph, error) {
	g := &Graph{nodes: make([][]*GraphNode, len(grid))}
	for y, row := range grid {
		g.nodes[y] = make([]*GraphNode, len(row))
		for x, weight := range row {
			if weight < 0 {
				return nil, bmerr.InvalidArgumentf("cell (%d,%d) has negative weight %d", x, y, weight)
			}
			g.nodes[y][x] = &GraphNode{X: x, Y: y, Weight: weight}
		}
	}
	return g, nil
}

// Node returns the cell at (x, y), or nil outside the grid.
func (g *Graph) Node(x, y int) *GraphNode {
	if y < 0 || y >= len(g.nodes) || x < 0 || x >= len(g.nodes[y]) {
		return nil
	}
	return g.nodes[y][x]
}

// Height returns the number of rows
func (g *Graph) Height() int {
	return len(g.nodes)
}

func (g *Graph) String() string {
	var b strings.Builder
	for _, row := range g.nodes {
		for x, n := range row {
			if x > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%d", n.Weight)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
