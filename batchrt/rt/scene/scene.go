package scene

import (
	"fmt"
	"math"

	"github.com/gekko3d/batchext"
	"github.com/gekko3d/batchext/batchrt/rt/core"
	"github.com/gekko3d/batchext/batchrt/rt/uniforms"
	"github.com/go-gl/mathgl/mgl32"
)

// DemoSchema places each instance from the vertex stage and shades it from
// the well-known material uniforms.
func DemoSchema() uniforms.SchemaShader {
	return uniforms.SchemaShader{
		Vertex: uniforms.Schema{
			{Name: "placement", Type: uniforms.TypeVec3}, // x, y, scale in clip space
		},
		Fragment: uniforms.Schema{
			{Name: "color", Type: uniforms.TypeVec3},
			{Name: "metalness", Type: uniforms.TypeFloat},
			{Name: "roughness", Type: uniforms.TypeFloat},
			{Name: "opacity", Type: uniforms.TypeFloat},
		},
	}
}

// Draw is one instance's index range for the current frame.
type Draw struct {
	Ordinal int
	Start   int
	Count   int
	Level   int
}

// Scene is a grid of triangles, quads and hexagons in one batched mesh, each
// with a coarser detail level.
type Scene struct {
	Mesh       *core.BatchedMesh
	Ext        *batchext.Extensions
	Grid       int
	Geometries []int

	baseScale float32
}

var sides = []int{3, 4, 6}

func NewScene(grid int, logger batchext.Logger) (*Scene, error) {
	if grid < 1 {
		return nil, fmt.Errorf("grid must be positive, got %d", grid)
	}
	sources := make([]core.GeometrySource, len(sides))
	for i, n := range sides {
		sources[i] = core.RegularPolygon(n, 1)
	}
	verts, idx := core.BatchedMeshCount(sources...)
	mesh := core.NewBatchedMesh(grid*grid, verts, idx*2)

	ext, err := batchext.NewExtensionsBuilder(mesh).
		UseLogger(logger).
		UseUniforms(DemoSchema()).
		Build()
	if err != nil {
		return nil, err
	}

	s := &Scene{Mesh: mesh, Ext: ext, Grid: grid, baseScale: 0.8 / float32(grid)}
	for i, src := range sources {
		gid, err := mesh.AddGeometry(src.Positions, src.Indices, -1, len(src.Indices)*2)
		if err != nil {
			return nil, err
		}
		// the coarse level drops the center; the hexagon also every other rim vertex
		step := 1
		if sides[i] == 6 {
			step = 2
		}
		if err := ext.AddGeometryLOD(gid, core.PolygonOutlineFan(sides[i], step), 0.06); err != nil {
			return nil, err
		}
		s.Geometries = append(s.Geometries, gid)
	}

	for y := 0; y < grid; y++ {
		for x := 0; x < grid; x++ {
			id, err := mesh.AddInstance(s.Geometries[(x+y)%len(s.Geometries)])
			if err != nil {
				return nil, err
			}
			if err := s.fillInstance(id, x, y); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// fillInstance colors the instance by its grid position and sweeps
// metalness along x and roughness along y.
func (s *Scene) fillInstance(id, x, y int) error {
	n := float32(max(s.Grid-1, 1))
	fx, fy := float32(x)/n, float32(y)/n
	hue := float64(x+y*s.Grid) / float64(s.Grid*s.Grid)
	values := []struct {
		name  string
		value any
	}{
		{"placement", mgl32.Vec3{-0.9 + 1.8*fx, -0.9 + 1.8*fy, s.baseScale}},
		{"color", hsv(hue, 0.7, 0.95)},
		{"metalness", fx},
		{"roughness", 1 - fy},
		{"opacity", float32(1)},
	}
	for _, v := range values {
		if err := s.Ext.SetUniformAt(id, v.name, v.value); err != nil {
			return err
		}
	}
	return nil
}

// Animate pulses instance scales with t; diagonal waves cross the grid.
func (s *Scene) Animate(t float64) error {
	for id := 0; id < s.Mesh.InstanceCount(); id++ {
		x, y := id%s.Grid, id/s.Grid
		phase := t*1.5 - float64(x+y)*0.35
		scale := s.baseScale * float32(0.55+0.45*math.Sin(phase))

		p, err := s.Ext.ReadUniformAt(id, "placement", nil)
		if err != nil {
			return err
		}
		if err := s.Ext.SetUniformAt(id, "placement", mgl32.Vec3{p[0], p[1], scale}); err != nil {
			return err
		}
	}
	return nil
}

// ToggleVisible hides or shows every n-th instance.
func (s *Scene) ToggleVisible(n int) error {
	for id := 0; id < s.Mesh.InstanceCount(); id += n {
		v, err := s.Mesh.VisibleAt(id)
		if err != nil {
			return err
		}
		if err := s.Mesh.SetVisibleAt(id, !v); err != nil {
			return err
		}
	}
	return nil
}

// Draws lists the visible instances with the index range their on-screen
// size selects. Ordinal is the draw id the shader resolves through the
// indirect table.
func (s *Scene) Draws() ([]Draw, error) {
	table := s.Mesh.IndirectTable()
	out := make([]Draw, 0, len(table))
	for ordinal, id := range table {
		p, err := s.Ext.ReadUniformAt(int(id), "placement", nil)
		if err != nil {
			return nil, err
		}
		start, count, err := s.Ext.LODDrawRange(int(id), p[2])
		if err != nil {
			return nil, err
		}
		gid, _ := s.Mesh.GeometryIDAt(int(id))
		out = append(out, Draw{
			Ordinal: ordinal,
			Start:   start,
			Count:   count,
			Level:   s.Ext.LODLevelFor(gid, p[2]),
		})
	}
	return out, nil
}

func hsv(h, sat, val float64) mgl32.Vec3 {
	h = math.Mod(h, 1) * 6
	c := val * sat
	x := c * (1 - math.Abs(math.Mod(h, 2)-1))
	var r, g, b float64
	switch int(h) {
	case 0:
		r, g = c, x
	case 1:
		r, g = x, c
	case 2:
		g, b = c, x
	case 3:
		g, b = x, c
	case 4:
		r, b = x, c
	default:
		r, b = c, x
	}
	m := val - c
	return mgl32.Vec3{float32(r + m), float32(g + m), float32(b + m)}
}
