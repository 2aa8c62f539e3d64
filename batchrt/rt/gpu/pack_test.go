package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/batchext/batchrt/rt/uniforms"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatsAt(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func TestTextureFormatFor(t *testing.T) {
	cases := []struct {
		channels int
		format   wgpu.TextureFormat
		padded   int
	}{
		{1, wgpu.TextureFormatR32Float, 1},
		{2, wgpu.TextureFormatRG32Float, 2},
		{3, wgpu.TextureFormatRGBA32Float, 4},
		{4, wgpu.TextureFormatRGBA32Float, 4},
	}
	for _, tc := range cases {
		f, n := TextureFormatFor(tc.channels)
		assert.Equal(t, tc.format, f)
		assert.Equal(t, tc.padded, n)
	}
}

func TestPackTexelsPadsChannels(t *testing.T) {
	s := uniforms.NewStore(nil)
	require.NoError(t, s.Init(uniforms.SchemaShader{Fragment: uniforms.Schema{
		{Name: "emissive", Type: uniforms.TypeVec3},
	}}, 4))
	tex, err := s.Texture()
	require.NoError(t, err)
	require.Equal(t, 3, tex.Channels)

	require.NoError(t, s.SetUniformAt(1, "emissive", mgl32.Vec3{1, 2, 3}))
	require.NoError(t, s.SetUniformAt(2, "emissive", mgl32.Vec3{4, 5, 6}))

	x, y := tex.TexelCoord(1)
	buf := PackTexels(tex, uniforms.Rect{X: x, Y: y, Width: 1, Height: 1}, 4)
	assert.Equal(t, []float32{1, 2, 3, 0}, floatsAt(buf))

	all := PackTexels(tex, uniforms.Rect{X: 0, Y: 0, Width: tex.Width, Height: tex.Height}, 4)
	got := floatsAt(all)
	assert.Equal(t, []float32{1, 2, 3, 0}, got[4:8])
	assert.Equal(t, []float32{4, 5, 6, 0}, got[8:12])
}

func TestPackTexelsSubRect(t *testing.T) {
	s := uniforms.NewStore(nil)
	require.NoError(t, s.Init(uniforms.SchemaShader{Fragment: uniforms.Schema{
		{Name: "roughness", Type: uniforms.TypeFloat},
	}}, 16))
	tex, err := s.Texture()
	require.NoError(t, err)
	require.Equal(t, 4, tex.Width)
	for id := 0; id < 16; id++ {
		require.NoError(t, s.SetUniformAt(id, "roughness", float32(id)))
	}

	buf := PackTexels(tex, uniforms.Rect{X: 1, Y: 2, Width: 2, Height: 2}, 1)
	assert.Equal(t, []float32{9, 10, 13, 14}, floatsAt(buf))
}

func TestIndirect(t *testing.T) {
	assert.Equal(t, 1, IndirectSide(0))
	assert.Equal(t, 3, IndirectSide(9))
	assert.Equal(t, 4, IndirectSide(10))

	buf := PackIndirect([]uint32{5, 2, 7}, 2)
	require.Len(t, buf, 16)
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(buf[8:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[12:]))
}

func TestBufferBytes(t *testing.T) {
	b := uint32sToBytes([]uint32{1, 0xdeadbeef})
	assert.Equal(t, uint32(0xdeadbeef), binary.LittleEndian.Uint32(b[4:]))

	v := vec3sToBytes([]mgl32.Vec3{{1, 2, 3}, {4, 5, 6}})
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, floatsAt(v))
}
