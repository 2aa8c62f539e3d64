package lod

import (
	"errors"
	"fmt"
	"math"

	"github.com/gekko3d/batchext/batchrt/rt/core"
)

var ErrReservedSpaceExceeded = errors.New("LOD reserved space request exceeds the geometry reservation")

// Level is one detail level: a sub-range of the shared index buffer and the
// metric threshold at which it applies. Level 0 is the full-detail geometry
// with an infinite threshold.
type Level struct {
	Start         int
	Count         int
	Metric        float32
	MetricSquared float32
}

// Host is the batched mesh the selector appends index ranges into.
type Host interface {
	Geometry(geometryID int) (core.GeometryInfo, error)
	IndexArray() []uint32
	MarkIndexRangeDirty(start, count int)
}

var _ Host = (*core.BatchedMesh)(nil)

// Selector keeps the detail levels of every geometry of one batched mesh.
type Selector struct {
	host   Host
	logger core.Logger
	levels map[int][]Level

	// UseSquaredMetric compares against MetricSquared, for callers that feed
	// squared distances and skip the sqrt.
	UseSquaredMetric bool
	// UseDistanceMode picks a level whose threshold is <= the live metric
	// (distance grows as detail need shrinks). Otherwise the screen-size policy
	// picks a level whose threshold is >= the live metric.
	UseDistanceMode bool
}

func NewSelector(host Host, logger core.Logger) *Selector {
	return &Selector{
		host:   host,
		logger: core.LoggerOrNop(logger),
		levels: make(map[int][]Level),
	}
}

// AppendLevel copies sourceIndices, local to the geometry's vertices, right
// after the previous level and registers it with threshold metric.
func (s *Selector) AppendLevel(geometryID int, sourceIndices []uint32, metric float32) error {
	geo, err := s.host.Geometry(geometryID)
	if err != nil {
		return err
	}

	levels, ok := s.levels[geometryID]
	if !ok {
		inf := float32(math.Inf(1))
		levels = []Level{{Start: geo.Start, Count: geo.Count, Metric: inf, MetricSquared: inf}}
	}

	last := levels[len(levels)-1]
	start := last.Start + last.Count
	count := len(sourceIndices)

	if (start-geo.Start)+count > geo.ReservedIndexCount {
		return fmt.Errorf("%w: geometry %d needs %d indices, reserved %d",
			ErrReservedSpaceExceeded, geometryID, (start-geo.Start)+count, geo.ReservedIndexCount)
	}

	dst := s.host.IndexArray()
	base := uint32(geo.VertexStart)
	for i, idx := range sourceIndices {
		dst[start+i] = idx + base
	}
	s.host.MarkIndexRangeDirty(start, count)

	s.levels[geometryID] = append(levels, Level{
		Start:         start,
		Count:         count,
		Metric:        metric,
		MetricSquared: metric * metric,
	})
	s.logger.Debugf("geometry %d: LOD %d at [%d, %d) metric=%g", geometryID, len(levels), start, start+count, metric)
	return nil
}

// Levels returns the detail levels of a geometry, or nil before the first append.
func (s *Selector) Levels(geometryID int) []Level {
	return s.levels[geometryID]
}

// LevelFor selects the level of a geometry using the selector's modes.
func (s *Selector) LevelFor(geometryID int, metric float32) int {
	return SelectLevel(s.levels[geometryID], metric, s.UseSquaredMetric, s.UseDistanceMode)
}

// DrawRange returns the index sub-range to draw for a geometry at metric.
// Geometries without levels draw their full range.
func (s *Selector) DrawRange(geometryID int, metric float32) (start, count int, err error) {
	levels := s.levels[geometryID]
	if len(levels) == 0 {
		geo, err := s.host.Geometry(geometryID)
		if err != nil {
			return 0, 0, err
		}
		return geo.Start, geo.Count, nil
	}
	l := levels[SelectLevel(levels, metric, s.UseSquaredMetric, s.UseDistanceMode)]
	return l.Start, l.Count, nil
}

// SelectLevel scans from the coarsest level down to level 1 and returns the
// first one whose threshold the metric satisfies, or 0.
func SelectLevel(levels []Level, metric float32, useSquaredMetric, useDistanceMode bool) int {
	for i := len(levels) - 1; i > 0; i-- {
		threshold := levels[i].Metric
		if useSquaredMetric {
			threshold = levels[i].MetricSquared
		}
		if useDistanceMode {
			if threshold <= metric {
				return i
			}
		} else if threshold >= metric {
			return i
		}
	}
	return 0
}
