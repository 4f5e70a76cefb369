// Package spatial provides the broad-phase and ranking structures used by the
// simulation.
//
// Structures store integer indices into the caller's entity slice rather than
// pointers, and reuse their buffers between ticks.
package spatial

import (
	"math"
)

// Grid buckets points of a rectangular region into fixed-size cells.
// The region starts at (minX, minY) and cells are stored row-major.
//
// The cell size should be close to the typical query radius.
type Grid struct {
	minX, minY  float64
	cellSize    float64
	invCellSize float64
	cols, rows  int
	cells       [][]uint32
	scratch     []uint32
}

// NewGrid creates a grid covering [minX, minX+width] × [minY, minY+height].
// maxEntities is used to preallocate cell capacity.
func NewGrid(minX, minY, width, height, cellSize float64, maxEntities int) *Grid {
	if cellSize <= 0 {
		cellSize = math.Max(width, height)
	}
	cols := max(int(math.Ceil(width/cellSize)), 1)
	rows := max(int(math.Ceil(height/cellSize)), 1)

	cells := make([][]uint32, cols*rows)
	perCell := max(maxEntities/len(cells), 4)
	for i := range cells {
		cells[i] = make([]uint32, 0, perCell)
	}

	return &Grid{
		minX:        minX,
		minY:        minY,
		cellSize:    cellSize,
		invCellSize: 1 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
	}
}

// Clear empties every cell and keeps the capacity.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert stores id at (x, y). Points outside the region land in the nearest
// edge cell.
func (g *Grid) Insert(id uint32, x, y float64) {
	col := g.col(x)
	row := g.row(y)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], id)
}

// QueryRadius returns every id stored in a cell that overlaps the square
// bounding the circle at (cx, cy). Results may lie outside the radius; the
// caller does the exact test.
//
// The returned slice is reused by the next query.
func (g *Grid) QueryRadius(cx, cy, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol, maxCol := g.col(cx-radius), g.col(cx+radius)
	minRow, maxRow := g.row(cy-radius), g.row(cy+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

func (g *Grid) col(x float64) int {
	return clampIndex(math.Floor((x-g.minX)*g.invCellSize), g.cols)
}

func (g *Grid) row(y float64) int {
	return clampIndex(math.Floor((y-g.minY)*g.invCellSize), g.rows)
}

func clampIndex(v float64, n int) int {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v >= float64(n) {
		return n - 1
	}
	return int(v)
}

// GridStats describes cell occupancy.
type GridStats struct {
	TotalCells     int
	NonEmptyCells  int
	TotalEntities  int
	MaxInCell      int
	AvgPerNonEmpty float64
}

// Stats returns occupancy statistics for debugging.
func (g *Grid) Stats() GridStats {
	var s GridStats
	s.TotalCells = len(g.cells)
	for _, cell := range g.cells {
		n := len(cell)
		s.TotalEntities += n
		s.MaxInCell = max(s.MaxInCell, n)
		if n > 0 {
			s.NonEmptyCells++
		}
	}
	if s.NonEmptyCells > 0 {
		s.AvgPerNonEmpty = float64(s.TotalEntities) / float64(s.NonEmptyCells)
	}
	return s
}

// Dimensions returns the grid size in cells and the cell edge length.
func (g *Grid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}
