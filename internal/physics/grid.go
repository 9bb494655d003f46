package physics

import (
	"bytes"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/tomz197/reactyl/internal/chem"
)

// Cell is an integer grid coordinate, floor(position / cellSize) per axis.
type Cell struct {
	X, Y, Z int
}

// SpatialGrid is an unbounded 3D hash grid for broad-phase collision
// detection. A molecule is stored in every cell its bounding sphere's box
// (position ± radius) overlaps, so two molecules whose boxes meet always
// share at least one cell.
//
// Cell size should be about twice the largest molecule radius: smaller cells
// put large molecules in many cells, larger ones raise occupancy.
type SpatialGrid struct {
	cellSize    float64
	invCellSize float64 // 1 / cellSize (precomputed to avoid division)

	cells    map[Cell][]*chem.Molecule
	occupied map[uuid.UUID][]Cell // cells per molecule, sorted

	pairChecks int
	collisions int
}

// GridStats is a read-only view of the grid counters.
type GridStats struct {
	Cells         int
	Molecules     int
	MeanOccupancy float64 // molecules per non-empty cell
	PairChecks    int     // cumulative broad-phase pair checks
	Collisions    int     // cumulative confirmed collisions
}

// NewSpatialGrid creates an empty grid. Non-positive sizes fall back to 1.
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialGrid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[Cell][]*chem.Molecule),
		occupied:    make(map[uuid.UUID][]Cell),
	}
}

// CellSize returns the edge length of one cell.
func (g *SpatialGrid) CellSize() float64 { return g.cellSize }

// CellOf returns the cell containing p.
func (g *SpatialGrid) CellOf(p mgl64.Vec3) Cell {
	return Cell{
		X: int(math.Floor(p[0] * g.invCellSize)),
		Y: int(math.Floor(p[1] * g.invCellSize)),
		Z: int(math.Floor(p[2] * g.invCellSize)),
	}
}

// cellsFor lists the cells overlapped by m's inflated bounds in x, y, z order.
func (g *SpatialGrid) cellsFor(m *chem.Molecule) []Cell {
	p, r := m.Position(), m.Radius()
	lo := g.CellOf(p.Sub(mgl64.Vec3{r, r, r}))
	hi := g.CellOf(p.Add(mgl64.Vec3{r, r, r}))

	out := make([]Cell, 0, (hi.X-lo.X+1)*(hi.Y-lo.Y+1)*(hi.Z-lo.Z+1))
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				out = append(out, Cell{x, y, z})
			}
		}
	}
	return out
}

// Insert adds a molecule to every cell it overlaps. Inserting a molecule
// that is already present re-places it.
func (g *SpatialGrid) Insert(m *chem.Molecule) {
	if _, ok := g.occupied[m.ID]; ok {
		g.Remove(m)
	}
	cells := g.cellsFor(m)
	for _, c := range cells {
		g.cells[c] = append(g.cells[c], m)
	}
	g.occupied[m.ID] = cells
}

// Remove drops a molecule from the grid. Unknown molecules are ignored.
func (g *SpatialGrid) Remove(m *chem.Molecule) {
	cells, ok := g.occupied[m.ID]
	if !ok {
		return
	}
	for _, c := range cells {
		items := g.cells[c]
		kept := items[:0]
		for _, o := range items {
			if o.ID != m.ID {
				kept = append(kept, o)
			}
		}
		if len(kept) == 0 {
			delete(g.cells, c)
		} else {
			g.cells[c] = kept
		}
	}
	delete(g.occupied, m.ID)
}

// Update recomputes the cells of m and reports whether they changed. When
// the cell set is unchanged the grid is not touched.
func (g *SpatialGrid) Update(m *chem.Molecule) bool {
	cells := g.cellsFor(m)
	if old, ok := g.occupied[m.ID]; ok && sameCells(old, cells) {
		return false
	}
	g.Insert(m)
	return true
}

func sameCells(a, b []Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clear removes all molecules. Counters are kept.
func (g *SpatialGrid) Clear() {
	clear(g.cells)
	clear(g.occupied)
}

// RebuildAll clears the grid and inserts every molecule.
func (g *SpatialGrid) RebuildAll(molecules []*chem.Molecule) {
	g.Clear()
	for _, m := range molecules {
		g.Insert(m)
	}
}

// Neighbors returns every molecule sharing a cell with m, excluding m,
// each once, ordered by ID.
func (g *SpatialGrid) Neighbors(m *chem.Molecule) []*chem.Molecule {
	cells, ok := g.occupied[m.ID]
	if !ok {
		cells = g.cellsFor(m)
	}
	seen := make(map[uuid.UUID]struct{})
	var out []*chem.Molecule
	for _, c := range cells {
		for _, o := range g.cells[c] {
			if o.ID == m.ID {
				continue
			}
			if _, dup := seen[o.ID]; dup {
				continue
			}
			seen[o.ID] = struct{}{}
			out = append(out, o)
		}
	}
	sortByID(out)
	return out
}

// Pairs calls fn once for every unordered candidate pair sharing a cell,
// with a.ID < b.ID. Each call counts as one pair check. If fn returns false,
// iteration stops early.
func (g *SpatialGrid) Pairs(fn func(a, b *chem.Molecule) bool) {
	ids := make([]uuid.UUID, 0, len(g.occupied))
	for id := range g.occupied {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	type pair struct{ a, b uuid.UUID }
	seen := make(map[pair]struct{})
	for _, id := range ids {
		for _, c := range g.occupied[id] {
			var self *chem.Molecule
			for _, o := range g.cells[c] {
				if o.ID == id {
					self = o
					break
				}
			}
			for _, o := range g.cells[c] {
				if bytes.Compare(o.ID[:], id[:]) <= 0 {
					continue
				}
				k := pair{id, o.ID}
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				g.pairChecks++
				if !fn(self, o) {
					return
				}
			}
		}
	}
}

// RecordCollision bumps the confirmed collision counter.
func (g *SpatialGrid) RecordCollision() { g.collisions++ }

// Stats returns the current counters and occupancy.
func (g *SpatialGrid) Stats() GridStats {
	s := GridStats{
		Cells:      len(g.cells),
		Molecules:  len(g.occupied),
		PairChecks: g.pairChecks,
		Collisions: g.collisions,
	}
	if len(g.cells) > 0 {
		total := 0
		for _, items := range g.cells {
			total += len(items)
		}
		s.MeanOccupancy = float64(total) / float64(len(g.cells))
	}
	return s
}

func sortByID(ms []*chem.Molecule) {
	sort.Slice(ms, func(i, j int) bool { return bytes.Compare(ms[i].ID[:], ms[j].ID[:]) < 0 })
}

// Less orders molecules by ID. Pair-wise results are computed with the
// lesser molecule first so they do not depend on argument order.
func Less(a, b *chem.Molecule) bool {
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}
