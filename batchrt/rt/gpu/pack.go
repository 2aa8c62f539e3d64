package gpu

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/batchext/batchrt/rt/uniforms"
	"github.com/go-gl/mathgl/mgl32"
)

// TextureFormatFor picks the float format holding channels per texel and
// returns it with its channel count. There is no three-channel 32-bit float
// format, so rgb data is padded to rgba.
func TextureFormatFor(channels int) (wgpu.TextureFormat, int) {
	switch channels {
	case 1:
		return wgpu.TextureFormatR32Float, 1
	case 2:
		return wgpu.TextureFormatRG32Float, 2
	default:
		return wgpu.TextureFormatRGBA32Float, 4
	}
}

// PackTexels serializes one rectangle of the texture for a texture write,
// widening each texel to gpuChannels. Padding channels are zero.
func PackTexels(tex *uniforms.SquareDataTexture, r uniforms.Rect, gpuChannels int) []byte {
	buf := make([]byte, r.Width*r.Height*gpuChannels*uniforms.BytesPerChannel)
	o := 0
	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			base := (y*tex.Width + x) * tex.Channels
			for c := 0; c < gpuChannels; c++ {
				if c < tex.Channels {
					binary.LittleEndian.PutUint32(buf[o:], math.Float32bits(tex.Data[base+c]))
				}
				o += uniforms.BytesPerChannel
			}
		}
	}
	return buf
}

// IndirectSide is the side of the square r32uint texture holding n draw ids.
func IndirectSide(n int) int {
	side := int(math.Ceil(math.Sqrt(float64(n))))
	return max(side, 1)
}

// PackIndirect lays the draw-to-instance table out over a side*side texture.
func PackIndirect(ids []uint32, side int) []byte {
	buf := make([]byte, side*side*4)
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[i*4:], id)
	}
	return buf
}

func uint32sToBytes(v []uint32) []byte {
	buf := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], x)
	}
	return buf
}

func vec3sToBytes(v []mgl32.Vec3) []byte {
	buf := make([]byte, len(v)*12)
	for i, p := range v {
		binary.LittleEndian.PutUint32(buf[i*12:], math.Float32bits(p[0]))
		binary.LittleEndian.PutUint32(buf[i*12+4:], math.Float32bits(p[1]))
		binary.LittleEndian.PutUint32(buf[i*12+8:], math.Float32bits(p[2]))
	}
	return buf
}
