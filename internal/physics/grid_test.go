package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/reactyl/internal/chem"
)

func TestGridNeighborsShareCells(t *testing.T) {
	g := NewSpatialGrid(4)
	a := molecule(t, "a", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{})
	b := molecule(t, "b", mgl64.Vec3{3, 0, 0}, mgl64.Vec3{})
	c := molecule(t, "c", mgl64.Vec3{100, 0, 0}, mgl64.Vec3{})
	g.RebuildAll([]*chem.Molecule{a, b, c})

	assert.Equal(t, []*chem.Molecule{b}, g.Neighbors(a))
	assert.Equal(t, []*chem.Molecule{a}, g.Neighbors(b))
	assert.Empty(t, g.Neighbors(c))
}

func TestGridLargeMoleculeSpansCells(t *testing.T) {
	g := NewSpatialGrid(2)
	big := rod(t, "big", mgl64.Vec3{}, -4, 4)
	g.Insert(big)
	assert.Greater(t, g.Stats().Cells, 8)

	far := molecule(t, "far", mgl64.Vec3{4.5, 0, 0}, mgl64.Vec3{})
	g.Insert(far)
	assert.Equal(t, []*chem.Molecule{big}, g.Neighbors(far))
}

func TestGridUpdate(t *testing.T) {
	g := NewSpatialGrid(4)
	a := molecule(t, "a", mgl64.Vec3{2, 2, 2}, mgl64.Vec3{})
	b := molecule(t, "b", mgl64.Vec3{3, 3, 3}, mgl64.Vec3{})
	g.Insert(a)
	g.Insert(b)

	a.SetPosition(mgl64.Vec3{2.5, 2, 2})
	assert.False(t, g.Update(a), "same cells")
	assert.Len(t, g.Neighbors(a), 1)

	a.SetPosition(mgl64.Vec3{50, 0, 0})
	assert.True(t, g.Update(a))
	assert.Empty(t, g.Neighbors(a))
	assert.Empty(t, g.Neighbors(b))
	assert.Equal(t, 2, g.Stats().Molecules)
}

func TestGridRemove(t *testing.T) {
	g := NewSpatialGrid(4)
	a := molecule(t, "a", mgl64.Vec3{}, mgl64.Vec3{})
	b := molecule(t, "b", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{})
	g.Insert(a)
	g.Insert(b)
	g.Remove(a)
	g.Remove(a)

	assert.Empty(t, g.Neighbors(b))
	assert.Equal(t, 1, g.Stats().Molecules)
}

func TestGridPairsVisitsEachPairOnce(t *testing.T) {
	g := NewSpatialGrid(4)
	var ms []*chem.Molecule
	for i := 0; i < 4; i++ {
		ms = append(ms, molecule(t, string(rune('a'+i)), mgl64.Vec3{float64(i) * 0.5, 0, 0}, mgl64.Vec3{}))
	}
	ms = append(ms, molecule(t, "far", mgl64.Vec3{80, 80, 80}, mgl64.Vec3{}))
	g.RebuildAll(ms)

	seen := map[[2]string]int{}
	g.Pairs(func(a, b *chem.Molecule) bool {
		require.True(t, Less(a, b))
		seen[[2]string{a.Name, b.Name}]++
		return true
	})
	assert.Len(t, seen, 6)
	for k, n := range seen {
		assert.Equal(t, 1, n, "pair %v", k)
		assert.NotContains(t, k, "far")
	}
	assert.Equal(t, 6, g.Stats().PairChecks)

	calls := 0
	g.Pairs(func(a, b *chem.Molecule) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 7, g.Stats().PairChecks, "pair checks are cumulative")
}

func TestGridStats(t *testing.T) {
	g := NewSpatialGrid(100)
	a := molecule(t, "a", mgl64.Vec3{10, 10, 10}, mgl64.Vec3{})
	b := molecule(t, "b", mgl64.Vec3{20, 20, 20}, mgl64.Vec3{})
	g.RebuildAll([]*chem.Molecule{a, b})
	g.RecordCollision()

	s := g.Stats()
	assert.Equal(t, 1, s.Cells)
	assert.Equal(t, 2.0, s.MeanOccupancy)
	assert.Equal(t, 1, s.Collisions)

	g.RebuildAll(nil)
	assert.Equal(t, 0, g.Stats().Cells)
	assert.Equal(t, 1, g.Stats().Collisions)
}
