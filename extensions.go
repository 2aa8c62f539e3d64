package batchext

import (
	"errors"
	"fmt"

	"github.com/gekko3d/batchext/batchrt/rt/binding"
	"github.com/gekko3d/batchext/batchrt/rt/core"
	"github.com/gekko3d/batchext/batchrt/rt/lod"
	"github.com/gekko3d/batchext/batchrt/rt/uniforms"
)

var ErrNilMesh = errors.New("extensions need a batched mesh")

// Extensions adds per-instance uniforms and index-range LOD to one batched
// mesh. The mesh is held by reference; the extensions own only their own state.
type Extensions struct {
	Mesh *core.BatchedMesh

	logger   Logger
	uniforms *uniforms.Store
	lod      *lod.Selector
	plan     *binding.Plan
	combines [][2]string
}

func newExtensions(mesh *core.BatchedMesh, logger Logger) *Extensions {
	return &Extensions{
		Mesh:     mesh,
		logger:   logger,
		uniforms: uniforms.NewStore(logger),
		lod:      lod.NewSelector(mesh, logger),
	}
}

func (e *Extensions) Logger() Logger {
	return e.logger
}

// InitUniformsPerInstance allocates the uniforms texture for every instance
// slot of the mesh and builds the binding plan. It can run once.
func (e *Extensions) InitUniformsPerInstance(schema uniforms.SchemaShader) error {
	if e.uniforms.Initialized() {
		return uniforms.ErrAlreadyInitialized
	}
	packed, err := uniforms.Compile(schema)
	if err != nil {
		return err
	}
	plan, err := binding.NewPlan(packed)
	if err != nil {
		return err
	}
	for _, c := range e.combines {
		if err := plan.Combine(c[0], c[1]); err != nil {
			return err
		}
	}
	if err := e.uniforms.Init(schema, e.Mesh.MaxInstanceCount); err != nil {
		return err
	}
	if unbound := plan.Unbound(); len(unbound) > 0 {
		e.logger.Debugf("mesh %s: uniforms %v are stored but drive no shading input", e.Mesh.ID, unbound)
	}
	e.plan = plan
	return nil
}

func (e *Extensions) SetUniformAt(instanceID int, name string, value any) error {
	return e.uniforms.SetUniformAt(instanceID, name, value)
}

func (e *Extensions) GetUniformAt(instanceID int, name string) (any, error) {
	return e.uniforms.GetUniformAt(instanceID, name)
}

func (e *Extensions) ReadUniformAt(instanceID int, name string, target []float32) ([]float32, error) {
	return e.uniforms.ReadUniformAt(instanceID, name, target)
}

// FlushUniforms drains the dirty instances as texel ranges to upload.
func (e *Extensions) FlushUniforms() ([]uniforms.UpdateRange, error) {
	return e.uniforms.Flush()
}

func (e *Extensions) Uniforms() *uniforms.Store {
	return e.uniforms
}

func (e *Extensions) Plan() (*binding.Plan, error) {
	if e.plan == nil {
		return nil, uniforms.ErrStoreNotInitialized
	}
	return e.plan, nil
}

// Combine multiplies base by mapName before it reaches its shading input.
// Before InitUniformsPerInstance the pair is remembered and applied then.
func (e *Extensions) Combine(base, mapName string) error {
	if e.plan == nil {
		e.combines = append(e.combines, [2]string{base, mapName})
		return nil
	}
	return e.plan.Combine(base, mapName)
}

// Decoder reads the uniforms the way a draw of the current visible set would.
func (e *Extensions) Decoder() (*binding.Decoder, error) {
	tex, err := e.uniforms.Texture()
	if err != nil {
		return nil, err
	}
	return binding.NewDecoder(tex, e.Mesh.IndirectTable()), nil
}

// ShaderSource emits the WGSL decode procedure for the initialized schema.
func (e *Extensions) ShaderSource(opts binding.WGSLOptions) (string, error) {
	plan, err := e.Plan()
	if err != nil {
		return "", err
	}
	src, err := plan.WGSL(opts)
	if err != nil {
		return "", fmt.Errorf("mesh %s: %w", e.Mesh.ID, err)
	}
	return src, nil
}

// AddGeometryLOD appends a coarser index list to a geometry's reservation.
func (e *Extensions) AddGeometryLOD(geometryID int, indices []uint32, metric float32) error {
	return e.lod.AppendLevel(geometryID, indices, metric)
}

// LODIndex selects among levels with the configured modes.
func (e *Extensions) LODIndex(levels []lod.Level, metric float32) int {
	return lod.SelectLevel(levels, metric, e.lod.UseSquaredMetric, e.lod.UseDistanceMode)
}

func (e *Extensions) LODLevelFor(geometryID int, metric float32) int {
	return e.lod.LevelFor(geometryID, metric)
}

// LODDrawRange returns the index range to draw for an instance at metric.
func (e *Extensions) LODDrawRange(instanceID int, metric float32) (start, count int, err error) {
	gid, err := e.Mesh.GeometryIDAt(instanceID)
	if err != nil {
		return 0, 0, err
	}
	return e.lod.DrawRange(gid, metric)
}

func (e *Extensions) LOD() *lod.Selector {
	return e.lod
}
