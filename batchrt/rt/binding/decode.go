package binding

import (
	"fmt"

	"github.com/gekko3d/batchext/batchrt/rt/uniforms"
)

// Decoder is the CPU rendition of the shader-side fetch. It reads the same
// texels in the same order as the generated WGSL, so tests and tools can check
// what a draw will see without a GPU.
type Decoder struct {
	Schema   *uniforms.PackedSchema
	Texels   []float32
	Width    int
	Channels int
	// Indirect maps draw ids to instance ids. Nil means identity.
	Indirect []uint32
}

func NewDecoder(tex *uniforms.SquareDataTexture, indirect []uint32) *Decoder {
	return &Decoder{
		Schema:   tex.Schema,
		Texels:   tex.Data,
		Width:    tex.Width,
		Channels: tex.Channels,
		Indirect: indirect,
	}
}

// InstanceIndex resolves a draw id through the indirect table.
func (d *Decoder) InstanceIndex(drawID int) (int, error) {
	if d.Indirect == nil {
		return drawID, nil
	}
	if drawID < 0 || drawID >= len(d.Indirect) {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrDrawOutOfRange, drawID, len(d.Indirect))
	}
	return int(d.Indirect[drawID]), nil
}

// Fetch loads the PixelsPerInstance texels backing a draw. Texel t sits at
// linear index j+t with j = instance*PixelsPerInstance, addressed as
// (. % width, . / width). Missing channels read as zero.
func (d *Decoder) Fetch(drawID int) ([][4]float32, error) {
	idx, err := d.InstanceIndex(drawID)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d", ErrDrawOutOfRange, drawID)
	}
	ppi := d.Schema.PixelsPerInstance
	j := idx * ppi
	out := make([][4]float32, ppi)
	for t := range out {
		x, y := (j+t)%d.Width, (j+t)/d.Width
		base := (y*d.Width + x) * d.Channels
		if base+d.Channels > len(d.Texels) {
			return nil, fmt.Errorf("%w: draw %d reads instance %d past the texture", ErrDrawOutOfRange, drawID, idx)
		}
		for c := 0; c < d.Channels; c++ {
			out[t][c] = d.Texels[base+c]
		}
	}
	return out, nil
}

// Decode slices the components of one uniform out of the fetched texels.
func (d *Decoder) Decode(drawID int, name string) ([]float32, error) {
	entry, err := d.Schema.Entry(name)
	if err != nil {
		return nil, err
	}
	texels, err := d.Fetch(drawID)
	if err != nil {
		return nil, err
	}
	return slice(texels, entry), nil
}

func slice(texels [][4]float32, e uniforms.LayoutEntry) []float32 {
	out := make([]float32, e.Size)
	for k := range out {
		c := e.Offset + k
		out[k] = texels[c/uniforms.ChannelsPerTexel][c%uniforms.ChannelsPerTexel]
	}
	return out
}

// Bind evaluates every binding of plan for one draw and returns the values
// each shading input receives.
func (d *Decoder) Bind(plan *Plan, drawID int) (map[Property][]float32, error) {
	texels, err := d.Fetch(drawID)
	if err != nil {
		return nil, err
	}
	out := make(map[Property][]float32, len(plan.bindings))
	for _, b := range plan.bindings {
		v := slice(texels, b.entry)
		if b.Map != "" {
			m := slice(texels, plan.schema.Layout[b.Map])
			for k := range v {
				v[k] *= m[k]
			}
		}
		if out[b.Property], err = Coerce(v, b.Sink); err != nil {
			return nil, fmt.Errorf("bind %q: %w", b.Uniform, err)
		}
	}
	return out, nil
}
