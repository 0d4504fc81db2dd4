// Package spatial provides a uniform grid for broad-phase contact queries.
//
// Entities are stored as integer indices into the caller's slice, so the
// grid never holds pointers and can be rebuilt every tick without allocating.
package spatial

import "math"

// SpatialGrid buckets points into fixed-size cells stored row-major
// (cells[row*cols+col]).
type SpatialGrid struct {
	cellSize    float64
	invCellSize float64
	cols, rows  int
	cells       [][]uint32
	scratch     []uint32 // reused by QueryRadius
	count       int
}

// NewSpatialGrid creates a grid covering width x height.
// expected sizes the per-cell buffers up front.
func NewSpatialGrid(width, height, cellSize float64, expected int) *SpatialGrid {
	cols := max(1, int(math.Ceil(width/cellSize)))
	rows := max(1, int(math.Ceil(height/cellSize)))

	cells := make([][]uint32, cols*rows)
	perCell := max(4, expected/len(cells))
	for i := range cells {
		cells[i] = make([]uint32, 0, perCell)
	}

	return &SpatialGrid{
		cellSize:    cellSize,
		invCellSize: 1 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
	}
}

// Rebuild clears the grid and inserts n points supplied by pos
func (g *SpatialGrid) Rebuild(n int, pos func(i int) (x, y float64)) {
	g.Clear()
	for i := 0; i < n; i++ {
		x, y := pos(i)
		g.Insert(uint32(i), x, y)
	}
}

// Clear empties every cell, keeping capacity
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

// Insert adds id at (x, y). Points outside the world land in the nearest edge cell.
func (g *SpatialGrid) Insert(id uint32, x, y float64) {
	col, row := g.cellOf(x, y)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], id)
	g.count++
}

// QueryRadius returns every id in the cells overlapping the square around
// (cx, cy). Candidates may lie outside the radius; callers do the exact check.
//
// The returned slice is reused by the next call.
func (g *SpatialGrid) QueryRadius(cx, cy, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol, minRow := g.cellOf(cx-radius, cy-radius)
	maxCol, maxRow := g.cellOf(cx+radius, cy+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

// QueryCell returns the ids in the cell containing (x, y)
func (g *SpatialGrid) QueryCell(x, y float64) []uint32 {
	col, row := g.cellOf(x, y)
	return g.cells[row*g.cols+col]
}

// Len returns the number of inserted points
func (g *SpatialGrid) Len() int {
	return g.count
}

// CellCount returns cols*rows
func (g *SpatialGrid) CellCount() int {
	return len(g.cells)
}

func (g *SpatialGrid) cellOf(x, y float64) (col, row int) {
	col = clampIndex(int(math.Floor(x*g.invCellSize)), g.cols)
	row = clampIndex(int(math.Floor(y*g.invCellSize)), g.rows)
	return col, row
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
