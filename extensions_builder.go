package batchext

import (
	"github.com/gekko3d/batchext/batchrt/rt/core"
	"github.com/gekko3d/batchext/batchrt/rt/uniforms"
)

// ExtensionsBuilder configures the extensions of one mesh before they are
// attached. Nothing global is touched; every mesh gets its own instance.
type ExtensionsBuilder struct {
	mesh     *core.BatchedMesh
	logger   Logger
	schema   *uniforms.SchemaShader
	combines [][2]string
	distance bool
	squared  bool
}

func NewExtensionsBuilder(mesh *core.BatchedMesh) *ExtensionsBuilder {
	return &ExtensionsBuilder{mesh: mesh}
}

func (b *ExtensionsBuilder) UseLogger(logger Logger) *ExtensionsBuilder {
	b.logger = logger

	return b
}

// UseUniforms initializes the uniforms store with schema during Build.
func (b *ExtensionsBuilder) UseUniforms(schema uniforms.SchemaShader) *ExtensionsBuilder {
	b.schema = &schema

	return b
}

func (b *ExtensionsBuilder) UseCombine(base, mapName string) *ExtensionsBuilder {
	b.combines = append(b.combines, [2]string{base, mapName})

	return b
}

func (b *ExtensionsBuilder) UseDistanceMode(enabled bool) *ExtensionsBuilder {
	b.distance = enabled

	return b
}

func (b *ExtensionsBuilder) UseSquaredMetric(enabled bool) *ExtensionsBuilder {
	b.squared = enabled

	return b
}

func (b *ExtensionsBuilder) Build() (*Extensions, error) {
	if b.mesh == nil {
		return nil, ErrNilMesh
	}
	logger := b.logger
	if logger == nil {
		logger = NewNopLogger()
	}

	ext := newExtensions(b.mesh, logger)
	ext.lod.UseDistanceMode = b.distance
	ext.lod.UseSquaredMetric = b.squared
	ext.combines = append(ext.combines, b.combines...)

	if b.schema != nil {
		if err := ext.InitUniformsPerInstance(*b.schema); err != nil {
			return nil, err
		}
	}
	logger.Debugf("extensions attached to mesh %s (distance=%t squared=%t)", b.mesh.ID, b.distance, b.squared)
	return ext, nil
}
