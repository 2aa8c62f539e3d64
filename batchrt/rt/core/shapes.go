package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// RegularPolygon builds a flat triangle fan in the XY plane around a center vertex.
func RegularPolygon(sides int, radius float32) GeometrySource {
	if sides < 3 {
		sides = 3
	}
	positions := make([]mgl32.Vec3, 0, sides+1)
	positions = append(positions, mgl32.Vec3{0, 0, 0})
	for i := 0; i < sides; i++ {
		a := 2 * math.Pi * float64(i) / float64(sides)
		positions = append(positions, mgl32.Vec3{
			radius * float32(math.Cos(a)),
			radius * float32(math.Sin(a)),
			0,
		})
	}

	indices := make([]uint32, 0, sides*3)
	for i := 0; i < sides; i++ {
		next := (i+1)%sides + 1
		indices = append(indices, 0, uint32(i+1), uint32(next))
	}
	return GeometrySource{Positions: positions, Indices: indices}
}

// PolygonOutlineFan re-triangulates the rim of a RegularPolygon with only every
// step-th rim vertex, skipping the center. The result indexes the same vertices
// and serves as a coarser detail level.
func PolygonOutlineFan(sides, step int) []uint32 {
	if step < 1 {
		step = 1
	}
	rim := make([]uint32, 0, sides)
	for i := 0; i < sides; i += step {
		rim = append(rim, uint32(i+1))
	}
	if len(rim) < 3 {
		return nil
	}
	indices := make([]uint32, 0, (len(rim)-2)*3)
	for i := 1; i < len(rim)-1; i++ {
		indices = append(indices, rim[0], rim[i], rim[i+1])
	}
	return indices
}
