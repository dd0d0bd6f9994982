// Package coords implements square-board geometry for rule engines: corner
// and center predicates, neighbor lists and sandwich lookups.
//
// A Grid precomputes every coordinate and neighbor list once; lookups return
// shared slices and never allocate.
package coords

import (
	"errors"
	"fmt"
)

var (
	// ErrOffBoard is returned when a coordinate lies outside the grid.
	ErrOffBoard = errors.New("coordinate off board")
	// ErrNotAdjacent is returned when a sandwich is requested for cells
	// that do not touch.
	ErrNotAdjacent = errors.New("coordinates not adjacent")
)

// Coord is a cell position. X is the column, Y the row.
type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// Distance is the Manhattan distance between two cells.
func (c Coord) Distance(o Coord) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

// MaxDifference is the larger of the per-axis distances.
func (c Coord) MaxDifference(o Coord) int {
	return max(abs(c.X-o.X), abs(c.Y-o.Y))
}

// Adjacent reports whether the cells share an edge.
func (c Coord) Adjacent(o Coord) bool {
	return c.Distance(o) == 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Grid is an immutable N x N board geometry.
type Grid struct {
	size      int
	all       []Coord
	neighbors [][]Coord
	corners   [4]Coord
	center    Coord
}

// NewGrid builds the lookup tables for a size x size board. size must be odd
// so the board has a single center cell.
func NewGrid(size int) *Grid {
	if size < 3 || size%2 == 0 {
		panic(fmt.Sprintf("coords: grid size must be odd and >= 3, got %d", size))
	}
	g := &Grid{
		size:      size,
		all:       make([]Coord, 0, size*size),
		neighbors: make([][]Coord, size*size),
		center:    Coord{size / 2, size / 2},
	}
	last := size - 1
	g.corners = [4]Coord{{0, 0}, {0, last}, {last, 0}, {last, last}}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			g.all = append(g.all, Coord{x, y})
		}
	}
	deltas := [4]Coord{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	for _, c := range g.all {
		ns := make([]Coord, 0, 4)
		for _, d := range deltas {
			n := Coord{c.X + d.X, c.Y + d.Y}
			if g.Contains(n) {
				ns = append(ns, n)
			}
		}
		g.neighbors[g.Index(c)] = ns
	}
	return g
}

// Size returns the side length.
func (g *Grid) Size() int { return g.size }

// Cells returns every coordinate in row-major order. The slice is shared and
// must not be modified.
func (g *Grid) Cells() []Coord { return g.all }

// Contains reports whether c lies on the board.
func (g *Grid) Contains(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.size && c.Y < g.size
}

// Index maps an on-board coordinate to its row-major index.
func (g *Grid) Index(c Coord) int { return c.Y*g.size + c.X }

// At is the inverse of Index.
func (g *Grid) At(i int) Coord { return g.all[i] }

// Center returns the middle cell.
func (g *Grid) Center() Coord { return g.center }

// Corners returns the four corner cells.
func (g *Grid) Corners() [4]Coord { return g.corners }

func (g *Grid) IsCorner(c Coord) bool {
	last := g.size - 1
	return (c.X == 0 || c.X == last) && (c.Y == 0 || c.Y == last)
}

func (g *Grid) IsCenter(c Coord) bool { return c == g.center }

// IsCenterOrNeighborCenter reports whether c is the center or one of the
// four cells orthogonally adjacent to it.
func (g *Grid) IsCenterOrNeighborCenter(c Coord) bool {
	return c.Distance(g.center) <= 1
}

// Neighbors returns the on-board orthogonal neighbors of c. The slice is
// shared and must not be modified.
func (g *Grid) Neighbors(c Coord) []Coord {
	if !g.Contains(c) {
		return nil
	}
	return g.neighbors[g.Index(c)]
}

// Between returns the cells strictly between a and b, which must share a row
// or a column. Otherwise it returns nil.
func (g *Grid) Between(a, b Coord) []Coord {
	dx, dy := sign(b.X-a.X), sign(b.Y-a.Y)
	if dx != 0 && dy != 0 {
		return nil
	}
	var out []Coord
	for c := (Coord{a.X + dx, a.Y + dy}); c != b; c = (Coord{c.X + dx, c.Y + dy}) {
		out = append(out, c)
	}
	return out
}

// SandwichPartner returns the cell on the far side of middle as seen from
// front: the one that, together with front, encloses middle.
func (g *Grid) SandwichPartner(front, middle Coord) (Coord, error) {
	if !g.Contains(front) || !g.Contains(middle) {
		return Coord{}, fmt.Errorf("sandwich %v-%v: %w", front, middle, ErrOffBoard)
	}
	if !front.Adjacent(middle) {
		return Coord{}, fmt.Errorf("sandwich %v-%v: %w", front, middle, ErrNotAdjacent)
	}
	far := Coord{2*middle.X - front.X, 2*middle.Y - front.Y}
	if !g.Contains(far) {
		return Coord{}, fmt.Errorf("sandwich %v-%v: %w", front, middle, ErrOffBoard)
	}
	return far, nil
}

// DistanceToClosestCorner is the Manhattan distance from c to the nearest
// corner.
func (g *Grid) DistanceToClosestCorner(c Coord) int {
	best := c.Distance(g.corners[0])
	for _, k := range g.corners[1:] {
		best = min(best, c.Distance(k))
	}
	return best
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
