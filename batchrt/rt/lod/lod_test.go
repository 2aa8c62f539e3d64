package lod

import (
	"math"
	"testing"

	"github.com/gekko3d/batchext/batchrt/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHexagon(t *testing.T, reserved int) (*core.BatchedMesh, int) {
	t.Helper()
	mesh := core.NewBatchedMesh(4, 64, 256)

	tri := core.RegularPolygon(3, 1)
	_, err := mesh.AddGeometry(tri.Positions, tri.Indices, -1, -1)
	require.NoError(t, err)

	hex := core.RegularPolygon(6, 1)
	gid, err := mesh.AddGeometry(hex.Positions, hex.Indices, -1, reserved)
	require.NoError(t, err)
	mesh.FlushIndexRanges()
	return mesh, gid
}

func TestAppendLevelSynthesizesLevelZero(t *testing.T) {
	mesh, gid := setupHexagon(t, 18+6)
	sel := NewSelector(mesh, nil)
	geo, err := mesh.Geometry(gid)
	require.NoError(t, err)

	coarse := core.PolygonOutlineFan(6, 1) // 4 triangles over the rim
	require.NoError(t, sel.AppendLevel(gid, coarse[:6], 0.5))

	levels := sel.Levels(gid)
	require.Len(t, levels, 2)
	assert.Equal(t, geo.Start, levels[0].Start)
	assert.Equal(t, geo.Count, levels[0].Count)
	assert.True(t, math.IsInf(float64(levels[0].Metric), 1))
	assert.True(t, math.IsInf(float64(levels[0].MetricSquared), 1))

	assert.Equal(t, geo.Start+geo.Count, levels[1].Start)
	assert.Equal(t, 6, levels[1].Count)
	assert.Equal(t, float32(0.5), levels[1].Metric)
	assert.Equal(t, float32(0.25), levels[1].MetricSquared)

	for i, idx := range coarse[:6] {
		assert.Equal(t, idx+uint32(geo.VertexStart), mesh.Indices[levels[1].Start+i])
	}
	assert.Equal(t, []core.Range{{Start: levels[1].Start, Count: 6}}, mesh.FlushIndexRanges())
}

func TestAppendLevelReservation(t *testing.T) {
	mesh, gid := setupHexagon(t, 18+9)
	sel := NewSelector(mesh, nil)

	require.NoError(t, sel.AppendLevel(gid, []uint32{1, 2, 3, 1, 3, 4}, 0.5))
	require.NoError(t, sel.AppendLevel(gid, []uint32{1, 3, 5}, 0.2)) // exactly full
	before := append([]uint32(nil), mesh.Indices...)
	mesh.FlushIndexRanges()

	err := sel.AppendLevel(gid, []uint32{1}, 0.1)
	assert.ErrorIs(t, err, ErrReservedSpaceExceeded)
	assert.Len(t, sel.Levels(gid), 3)
	assert.Equal(t, before, mesh.Indices)
	assert.Empty(t, mesh.FlushIndexRanges())
}

func TestAppendLevelUnknownGeometry(t *testing.T) {
	mesh, _ := setupHexagon(t, -1)
	sel := NewSelector(mesh, nil)
	err := sel.AppendLevel(9, []uint32{0, 1, 2}, 1)
	assert.ErrorIs(t, err, core.ErrUnknownGeometry)
}

func screenLevels() []Level {
	inf := float32(math.Inf(1))
	return []Level{
		{Metric: inf, MetricSquared: inf},
		{Metric: 0.5, MetricSquared: 0.25},
		{Metric: 0.25, MetricSquared: 0.0625},
		{Metric: 0.1, MetricSquared: 0.01},
	}
}

func distanceLevels() []Level {
	inf := float32(math.Inf(1))
	return []Level{
		{Metric: inf, MetricSquared: inf},
		{Metric: 10, MetricSquared: 100},
		{Metric: 20, MetricSquared: 400},
		{Metric: 40, MetricSquared: 1600},
	}
}

func TestSelectLevelScreenSize(t *testing.T) {
	cases := []struct {
		metric float32
		want   int
	}{
		{1.0, 0},
		{0.6, 0},
		{0.5, 1},
		{0.3, 1},
		{0.25, 2},
		{0.2, 2},
		{0.1, 3},
		{0.01, 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SelectLevel(screenLevels(), tc.metric, false, false), "metric %g", tc.metric)
	}
	// squared thresholds take squared metrics
	assert.Equal(t, 2, SelectLevel(screenLevels(), 0.2*0.2, true, false))
}

func TestSelectLevelDistance(t *testing.T) {
	cases := []struct {
		metric float32
		want   int
	}{
		{0, 0},
		{9.9, 0},
		{10, 1},
		{25, 2},
		{40, 3},
		{1000, 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SelectLevel(distanceLevels(), tc.metric, false, true), "metric %g", tc.metric)
	}
	assert.Equal(t, 2, SelectLevel(distanceLevels(), 25*25, true, true))
}

func TestSelectLevelMonotonic(t *testing.T) {
	prev := 0
	for m := float32(1.0); m >= 0; m -= 0.01 {
		got := SelectLevel(screenLevels(), m, false, false)
		if got < prev {
			t.Fatalf("screen-size: level went from %d to %d at metric %g", prev, got, m)
		}
		prev = got
	}

	prev = 0
	for m := float32(0); m <= 100; m += 0.5 {
		got := SelectLevel(distanceLevels(), m, false, true)
		if got < prev {
			t.Fatalf("distance: level went from %d to %d at metric %g", prev, got, m)
		}
		prev = got
	}
}

func TestSelectLevelEdgeCases(t *testing.T) {
	assert.Equal(t, 0, SelectLevel(nil, 1, false, false))
	assert.Equal(t, 0, SelectLevel(screenLevels()[:1], 0, false, false))

	levels := screenLevels()
	first := SelectLevel(levels, 0.3, false, false)
	second := SelectLevel(levels, 0.3, false, false)
	assert.Equal(t, first, second)
	assert.Equal(t, screenLevels(), levels)
}

func TestDrawRange(t *testing.T) {
	mesh, gid := setupHexagon(t, 18+3)
	sel := NewSelector(mesh, nil)
	geo, err := mesh.Geometry(gid)
	require.NoError(t, err)

	start, count, err := sel.DrawRange(gid, 0.01)
	require.NoError(t, err)
	assert.Equal(t, geo.Start, start)
	assert.Equal(t, geo.Count, count)

	require.NoError(t, sel.AppendLevel(gid, []uint32{1, 3, 5}, 0.3))
	start, count, err = sel.DrawRange(gid, 0.1)
	require.NoError(t, err)
	assert.Equal(t, geo.Start+geo.Count, start)
	assert.Equal(t, 3, count)

	assert.Equal(t, 0, sel.LevelFor(gid, 0.9))

	sel.UseDistanceMode = true
	assert.Equal(t, 1, sel.LevelFor(gid, 0.9))
}
