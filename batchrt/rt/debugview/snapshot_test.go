package debugview

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/batchext/batchrt/rt/uniforms"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	s := uniforms.NewStore(nil)
	require.NoError(t, s.Init(uniforms.SchemaShader{Fragment: uniforms.Schema{
		{Name: "color", Type: uniforms.TypeVec3},
		{Name: "opacity", Type: uniforms.TypeFloat},
	}}, 4))
	require.NoError(t, s.SetUniformAt(0, "color", mgl32.Vec3{1, 0, 0}))
	require.NoError(t, s.SetUniformAt(3, "color", mgl32.Vec3{0, 2, -1}))
	tex, err := s.Texture()
	require.NoError(t, err)
	require.Equal(t, 2, tex.Width)

	img := Snapshot(tex, 4, "")
	b := img.Bounds()
	assert.Equal(t, 8, b.Dx())
	assert.Equal(t, 8+captionHeight, b.Dy())

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(1, captionHeight+1))
	// instance 3 is texel (1,1); values are clamped
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(7, captionHeight+7))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(5, captionHeight+1))
}

func TestSnapshotCaptionWidensImage(t *testing.T) {
	s := uniforms.NewStore(nil)
	require.NoError(t, s.Init(uniforms.SchemaShader{Fragment: uniforms.Schema{
		{Name: "roughness", Type: uniforms.TypeFloat},
	}}, 1))
	tex, err := s.Texture()
	require.NoError(t, err)

	caption := Caption(tex)
	assert.Equal(t, "1x1 ch=1 ppi=1 n=1", caption)
	img := Snapshot(tex, 2, caption)
	assert.Greater(t, img.Bounds().Dx(), 2)
}

func TestWritePNG(t *testing.T) {
	s := uniforms.NewStore(nil)
	require.NoError(t, s.Init(uniforms.SchemaShader{Fragment: uniforms.Schema{
		{Name: "emissive", Type: uniforms.TypeVec3},
	}}, 9))
	tex, err := s.Texture()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "uniforms.png")
	img := Snapshot(tex, 3, Caption(tex))
	require.NoError(t, WritePNG(path, img))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}
