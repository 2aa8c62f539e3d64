package gpu

import (
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/batchext/batchrt/rt/core"
	"github.com/gekko3d/batchext/batchrt/rt/uniforms"
)

// Uploader mirrors one batched mesh and its uniforms store on the GPU:
// the uniforms texture, the draw-to-instance texture and the shared
// vertex and index buffers. Only dirty ranges are written after the first sync.
type Uploader struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue
	logger core.Logger

	UniformsTexture *wgpu.Texture
	UniformsView    *wgpu.TextureView
	IndirectTexture *wgpu.Texture
	IndirectView    *wgpu.TextureView
	VertexBuffer    *wgpu.Buffer
	IndexBuffer     *wgpu.Buffer

	// DrawCount is the number of visible instances after the last sync.
	DrawCount int

	gpuChannels    int
	indirectSide   int
	geometryCount  int
	lastIndirect   []uint32
	texelsUploaded int
}

func NewUploader(device *wgpu.Device, logger core.Logger) *Uploader {
	return &Uploader{
		Device:        device,
		Queue:         device.GetQueue(),
		logger:        core.LoggerOrNop(logger),
		geometryCount: -1,
	}
}

// Sync uploads whatever changed in store and mesh since the previous call.
func (u *Uploader) Sync(store *uniforms.Store, mesh *core.BatchedMesh) error {
	tex, err := store.Texture()
	if err != nil {
		return err
	}
	if err := u.ensureResources(tex, mesh); err != nil {
		return err
	}

	ranges, err := store.Flush()
	if err != nil {
		return err
	}
	for _, r := range ranges {
		for _, rect := range r.Rects(tex.Width) {
			if err := u.writeUniformRect(tex, rect); err != nil {
				return err
			}
		}
		u.texelsUploaded += r.TexelCount
	}

	if n := mesh.GeometryCount(); n != u.geometryCount {
		u.Queue.WriteBuffer(u.VertexBuffer, 0, vec3sToBytes(mesh.Positions))
		u.geometryCount = n
	}
	for _, r := range mesh.FlushIndexRanges() {
		u.Queue.WriteBuffer(u.IndexBuffer, uint64(r.Start*4), uint32sToBytes(mesh.Indices[r.Start:r.End()]))
	}

	table := mesh.IndirectTable()
	if !slices.Equal(table, u.lastIndirect) {
		err := u.Queue.WriteTexture(
			u.IndirectTexture.AsImageCopy(),
			PackIndirect(table, u.indirectSide),
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(u.indirectSide * 4),
				RowsPerImage: uint32(u.indirectSide),
			},
			&wgpu.Extent3D{Width: uint32(u.indirectSide), Height: uint32(u.indirectSide), DepthOrArrayLayers: 1},
		)
		if err != nil {
			return fmt.Errorf("upload indirect table: %w", err)
		}
		u.lastIndirect = table
		u.DrawCount = len(table)
	}
	return nil
}

// TexelsUploaded counts uniform texels written so far.
func (u *Uploader) TexelsUploaded() int {
	return u.texelsUploaded
}

func (u *Uploader) writeUniformRect(tex *uniforms.SquareDataTexture, r uniforms.Rect) error {
	err := u.Queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  u.UniformsTexture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: uint32(r.X), Y: uint32(r.Y), Z: 0},
		},
		PackTexels(tex, r, u.gpuChannels),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(r.Width * u.gpuChannels * uniforms.BytesPerChannel),
			RowsPerImage: uint32(r.Height),
		},
		&wgpu.Extent3D{Width: uint32(r.Width), Height: uint32(r.Height), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("upload uniforms rect %+v: %w", r, err)
	}
	return nil
}

func (u *Uploader) ensureResources(tex *uniforms.SquareDataTexture, mesh *core.BatchedMesh) error {
	if u.UniformsTexture != nil {
		return nil
	}
	var err error

	format, channels := TextureFormatFor(tex.Channels)
	u.gpuChannels = channels
	u.UniformsTexture, err = u.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Batched Uniforms",
		Size:          wgpu.Extent3D{Width: uint32(tex.Width), Height: uint32(tex.Height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniforms texture: %w", err)
	}
	if u.UniformsView, err = u.UniformsTexture.CreateView(nil); err != nil {
		return fmt.Errorf("create uniforms view: %w", err)
	}

	u.indirectSide = IndirectSide(mesh.MaxInstanceCount)
	u.IndirectTexture, err = u.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Batched Indirect",
		Size:          wgpu.Extent3D{Width: uint32(u.indirectSide), Height: uint32(u.indirectSide), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatR32Uint,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create indirect texture: %w", err)
	}
	if u.IndirectView, err = u.IndirectTexture.CreateView(nil); err != nil {
		return fmt.Errorf("create indirect view: %w", err)
	}
	u.lastIndirect = nil

	u.VertexBuffer, err = u.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Batched Vertices",
		Size:  uint64(mesh.MaxVertexCount * 12),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	u.IndexBuffer, err = u.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Batched Indices",
		Size:  uint64(mesh.MaxIndexCount * 4),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create index buffer: %w", err)
	}

	u.logger.Infof("batched mesh %s: uniforms %dx%d %v, indirect %dx%d",
		mesh.ID, tex.Width, tex.Height, format, u.indirectSide, u.indirectSide)
	return nil
}

// BindGroupEntries returns the uniforms texture at binding and the indirect
// texture at binding+1, matching the generated WGSL.
func (u *Uploader) BindGroupEntries(binding uint32) []wgpu.BindGroupEntry {
	return []wgpu.BindGroupEntry{
		{Binding: binding, TextureView: u.UniformsView},
		{Binding: binding + 1, TextureView: u.IndirectView},
	}
}

// BindGroupLayoutEntries describes the two textures for a pipeline layout.
func BindGroupLayoutEntries(binding uint32, visibility wgpu.ShaderStage) []wgpu.BindGroupLayoutEntry {
	return []wgpu.BindGroupLayoutEntry{
		{
			Binding:    binding,
			Visibility: visibility,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		},
		{
			Binding:    binding + 1,
			Visibility: visibility,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeUint,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		},
	}
}

func (u *Uploader) Release() {
	if u.UniformsView != nil {
		u.UniformsView.Release()
	}
	if u.UniformsTexture != nil {
		u.UniformsTexture.Release()
	}
	if u.IndirectView != nil {
		u.IndirectView.Release()
	}
	if u.IndirectTexture != nil {
		u.IndirectTexture.Release()
	}
	if u.VertexBuffer != nil {
		u.VertexBuffer.Release()
	}
	if u.IndexBuffer != nil {
		u.IndexBuffer.Release()
	}
	*u = Uploader{Device: u.Device, Queue: u.Queue, logger: u.logger, geometryCount: -1}
}
