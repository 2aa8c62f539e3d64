package uniforms

import (
	"fmt"
	"math"
	"sort"

	"github.com/gekko3d/batchext/batchrt/rt/core"
)

// BytesPerChannel is the size of one float32 channel.
const BytesPerChannel = 4

// SquareDataTexture is the CPU copy of the per-instance uniforms texture.
// Instance i owns texels [i*PixelsPerInstance, (i+1)*PixelsPerInstance) in
// row-major order; each texel stores Channels floats.
type SquareDataTexture struct {
	Schema            *PackedSchema
	Capacity          int
	Width             int
	Height            int
	Channels          int
	PixelsPerInstance int
	Data              []float32

	dirty map[int]struct{}
}

// TextureSize returns the side of a square texture that fits capacity
// instances. The side is a multiple of pixelsPerInstance so no instance
// straddles two rows.
func TextureSize(capacity, pixelsPerInstance int) int {
	if capacity < 1 {
		capacity = 1
	}
	side := int(math.Ceil(math.Sqrt(float64(capacity * pixelsPerInstance))))
	side = (side + pixelsPerInstance - 1) / pixelsPerInstance * pixelsPerInstance
	return max(side, 1)
}

func NewSquareDataTexture(schema *PackedSchema, capacity int) *SquareDataTexture {
	side := TextureSize(capacity, schema.PixelsPerInstance)
	return &SquareDataTexture{
		Schema:            schema,
		Capacity:          capacity,
		Width:             side,
		Height:            side,
		Channels:          schema.Channels,
		PixelsPerInstance: schema.PixelsPerInstance,
		Data:              make([]float32, side*side*schema.Channels),
		dirty:             make(map[int]struct{}),
	}
}

// TexelCoord maps a linear texel index to its (x, y) position.
func (t *SquareDataTexture) TexelCoord(linear int) (x, y int) {
	return linear % t.Width, linear / t.Width
}

func (t *SquareDataTexture) checkInstance(id int) error {
	if id < 0 || id >= t.Capacity {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInstanceOutOfRange, id, t.Capacity)
	}
	return nil
}

// channelIndex returns the Data index of logical channel c of instance id.
// Channel c lives in texel c/4, slot c%4 of that texel.
func (t *SquareDataTexture) channelIndex(id, c int) int {
	texel := id*t.PixelsPerInstance + c/ChannelsPerTexel
	return texel*t.Channels + c%ChannelsPerTexel
}

// SetUniformAt writes value into the channels reserved for name and queues
// the instance for upload.
func (t *SquareDataTexture) SetUniformAt(id int, name string, value any) error {
	if err := t.checkInstance(id); err != nil {
		return err
	}
	entry, err := t.Schema.Entry(name)
	if err != nil {
		return err
	}
	comps, err := components(value)
	if err != nil {
		return fmt.Errorf("uniform %q: %w", name, err)
	}
	if len(comps) != entry.Size {
		return fmt.Errorf("%w: %q expects %d, got %d", ErrValueSize, name, entry.Size, len(comps))
	}

	for k, v := range comps {
		t.Data[t.channelIndex(id, entry.Offset+k)] = v
	}
	t.EnqueueUpdate(id)
	return nil
}

// ReadUniformAt copies the components of name into target, growing it when
// it is too short, and returns the filled slice.
func (t *SquareDataTexture) ReadUniformAt(id int, name string, target []float32) ([]float32, error) {
	if err := t.checkInstance(id); err != nil {
		return nil, err
	}
	entry, err := t.Schema.Entry(name)
	if err != nil {
		return nil, err
	}
	if cap(target) < entry.Size {
		target = make([]float32, entry.Size)
	}
	target = target[:entry.Size]
	for k := range target {
		target[k] = t.Data[t.channelIndex(id, entry.Offset+k)]
	}
	return target, nil
}

// GetUniformAt returns float32, mgl32.Vec2/3/4 or mgl32.Mat3/4 depending on
// the declared type.
func (t *SquareDataTexture) GetUniformAt(id int, name string) (any, error) {
	comps, err := t.ReadUniformAt(id, name, nil)
	if err != nil {
		return nil, err
	}
	return fromComponents(t.Schema.Layout[name].Type, comps), nil
}

// InstanceTexels returns the live slice backing one instance.
func (t *SquareDataTexture) InstanceTexels(id int) []float32 {
	stride := t.PixelsPerInstance * t.Channels
	return t.Data[id*stride : (id+1)*stride]
}

func (t *SquareDataTexture) EnqueueUpdate(id int) {
	t.dirty[id] = struct{}{}
}

// EnqueueAll marks every instance dirty, used for the initial upload.
func (t *SquareDataTexture) EnqueueAll() {
	for i := 0; i < t.Capacity; i++ {
		t.dirty[i] = struct{}{}
	}
}

func (t *SquareDataTexture) DirtyCount() int {
	return len(t.dirty)
}

// Flush returns the dirty texel ranges, merged where instances are adjacent,
// and clears the queue.
func (t *SquareDataTexture) Flush() []UpdateRange {
	if len(t.dirty) == 0 {
		return nil
	}
	ids := make([]int, 0, len(t.dirty))
	for id := range t.dirty {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	clear(t.dirty)

	merged := core.Coalesce(ids, t.PixelsPerInstance)
	out := make([]UpdateRange, len(merged))
	for i, r := range merged {
		out[i] = UpdateRange{FirstTexel: r.Start, TexelCount: r.Count}
	}
	return out
}

// UpdateRange is a contiguous run of texels that changed since the last flush.
type UpdateRange struct {
	FirstTexel int
	TexelCount int
}

func (r UpdateRange) ByteOffset(channels int) int {
	return r.FirstTexel * channels * BytesPerChannel
}

func (r UpdateRange) ByteSize(channels int) int {
	return r.TexelCount * channels * BytesPerChannel
}

// Rect is a texel-space rectangle of a texture.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Rects splits the range into row-aligned rectangles usable for texture
// writes: a partial leading row, a block of full rows, a partial trailing row.
func (r UpdateRange) Rects(width int) []Rect {
	var out []Rect
	pos, end := r.FirstTexel, r.FirstTexel+r.TexelCount
	for pos < end {
		x, y := pos%width, pos/width
		if x != 0 || end-pos < width {
			w := min(width-x, end-pos)
			out = append(out, Rect{X: x, Y: y, Width: w, Height: 1})
			pos += w
			continue
		}
		rows := (end - pos) / width
		out = append(out, Rect{X: 0, Y: y, Width: width, Height: rows})
		pos += rows * width
	}
	return out
}
