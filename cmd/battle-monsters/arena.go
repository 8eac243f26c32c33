package main

import (
	"github.com/CWDN/battle-monsters/internal/pathfinding"
)

// defaultLayout is the skirmish ground. 0 is rock, 2 is mud.
var defaultLayout = [][]int{
	{1, 1, 1, 1, 1, 1, 1, 1},
	{1, 0, 0, 1, 1, 2, 2, 1},
	{1, 1, 1, 1, 0, 2, 1, 1},
	{1, 2, 0, 1, 0, 1, 1, 1},
	{1, 1, 1, 1, 1, 1, 0, 1},
}

type arena struct {
	graph    *pathfinding.Graph
	occupied map[*pathfinding.GraphNode]*combatant
}

func newArena(layout [][]int) (*arena, error) {
	graph, err := pathfinding.NewGraph(layout)
	if err != nil {
		return nil, err
	}
	return &arena{
		graph:    graph,
		occupied: make(map[*pathfinding.GraphNode]*combatant),
	}, nil
}

// place spreads fighters over the open cells, alternating between the first
// and the last free cell.
func (a *arena) place(fighters []*combatant) bool {
	var open []*pathfinding.GraphNode
	for y := 0; y < a.graph.Height(); y++ {
		for x := 0; ; x++ {
			n := a.graph.Node(x, y)
			if n == nil {
				break
			}
			if !n.IsWall() {
				open = append(open, n)
			}
		}
	}
	if len(open) < len(fighters) {
		return false
	}

	lo, hi := 0, len(open)-1
	for i, f := range fighters {
		if i%2 == 0 {
			f.pos = open[lo]
			lo++
		} else {
			f.pos = open[hi]
			hi--
		}
		a.occupied[f.pos] = f
	}
	return true
}

// approach walks f up to speed cells toward target and reports whether f
// ends next to it.
func (a *arena) approach(f, target *combatant, speed int) bool {
	if adjacent(f.pos, target.pos) {
		return true
	}

	path, err := pathfinding.Search(a.graph, f.pos, target.pos, pathfinding.Options{Diagonal: true, Heuristic: true})
	if err != nil || len(path) == 0 {
		return false
	}

	// The last cell is the target's own
	for _, next := range path[:len(path)-1] {
		if speed == 0 {
			break
		}
		if _, taken := a.occupied[next]; taken {
			break
		}
		delete(a.occupied, f.pos)
		f.pos = next
		a.occupied[next] = f
		speed--
	}

	return adjacent(f.pos, target.pos)
}

func (a *arena) remove(f *combatant) {
	if a.occupied[f.pos] == f {
		delete(a.occupied, f.pos)
	}
}

func adjacent(a, b *pathfinding.GraphNode) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1 && a != b
}
