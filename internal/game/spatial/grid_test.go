package spatial

import "testing"

func contains(ids []uint32, id uint32) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// TestQueryRadiusFindsNeighbors verifies broad-phase candidates
func TestQueryRadiusFindsNeighbors(t *testing.T) {
	g := NewSpatialGrid(1280, 720, 100, 64)
	g.Insert(0, 640, 360)
	g.Insert(1, 690, 360)  // neighbor cell
	g.Insert(2, 1200, 700) // far corner

	got := g.QueryRadius(640, 360, 60)
	if !contains(got, 0) || !contains(got, 1) {
		t.Errorf("candidates %v missing near entities", got)
	}
	if contains(got, 2) {
		t.Errorf("candidates %v include far entity", got)
	}
}

// TestClearKeepsGridReusable verifies Clear empties every cell
func TestClearKeepsGridReusable(t *testing.T) {
	g := NewSpatialGrid(400, 400, 100, 16)
	g.Insert(7, 50, 50)
	g.Clear()

	if got := g.QueryRadius(50, 50, 100); len(got) != 0 {
		t.Errorf("after Clear got %v", got)
	}
	if g.Len() != 0 || g.CellCount() != 16 {
		t.Errorf("len = %d cells = %d, want 0 and 16", g.Len(), g.CellCount())
	}
}

// TestOutOfBoundsInsertClamps verifies positions outside the world land on the edge
func TestOutOfBoundsInsertClamps(t *testing.T) {
	g := NewSpatialGrid(200, 200, 100, 8)
	g.Insert(3, -50, 500)

	if got := g.QueryCell(0, 199); !contains(got, 3) {
		t.Errorf("clamped entity not in edge cell: %v", got)
	}
}

// TestRebuild verifies indices follow the supplied slice order
func TestRebuild(t *testing.T) {
	pts := [][2]float64{{10, 10}, {350, 350}, {15, 12}}
	g := NewSpatialGrid(400, 400, 100, 8)
	g.Insert(99, 10, 10)

	g.Rebuild(len(pts), func(i int) (float64, float64) { return pts[i][0], pts[i][1] })

	got := g.QueryCell(10, 10)
	if len(got) != 2 || !contains(got, 0) || !contains(got, 2) {
		t.Errorf("cell contents = %v, want [0 2]", got)
	}
	if g.Len() != 3 {
		t.Errorf("len = %d, want 3", g.Len())
	}
}
