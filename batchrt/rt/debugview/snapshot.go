package debugview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/gekko3d/batchext/batchrt/rt/uniforms"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const captionHeight = 16

// Snapshot renders the uniforms texture as an image, one texel to a
// scale x scale block, with caption printed in a strip above it. Channels
// are clamped to [0, 1]; missing channels read as 0 and alpha is forced opaque.
func Snapshot(tex *uniforms.SquareDataTexture, scale int, caption string) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	src := image.NewRGBA(image.Rect(0, 0, tex.Width, tex.Height))
	for y := 0; y < tex.Height; y++ {
		for x := 0; x < tex.Width; x++ {
			var c [3]uint8
			base := (y*tex.Width + x) * tex.Channels
			for i := 0; i < min(3, tex.Channels); i++ {
				c[i] = toByte(tex.Data[base+i])
			}
			src.SetRGBA(x, y, color.RGBA{c[0], c[1], c[2], 255})
		}
	}

	w := max(tex.Width*scale, captionWidth(caption))
	dst := image.NewRGBA(image.Rect(0, 0, w, tex.Height*scale+captionHeight))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.RGBA{24, 24, 24, 255}), image.Point{}, xdraw.Src)
	xdraw.NearestNeighbor.Scale(dst, image.Rect(0, captionHeight, tex.Width*scale, captionHeight+tex.Height*scale), src, src.Bounds(), xdraw.Src, nil)

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{230, 230, 120, 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, basicfont.Face7x13.Ascent+1),
	}
	d.DrawString(caption)
	return dst
}

// Caption describes a texture for Snapshot.
func Caption(tex *uniforms.SquareDataTexture) string {
	return fmt.Sprintf("%dx%d ch=%d ppi=%d n=%d", tex.Width, tex.Height, tex.Channels, tex.PixelsPerInstance, tex.Capacity)
}

func captionWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil() + 4
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return f.Close()
}
