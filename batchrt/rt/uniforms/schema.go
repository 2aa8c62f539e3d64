package uniforms

import (
	"fmt"
	"sort"
)

// ChannelsPerTexel is the fixed slot width used when packing uniforms.
const ChannelsPerTexel = 4

// Uniform is one declared per-instance attribute.
type Uniform struct {
	Name string
	Type UniformType
}

// Schema is an ordered list of declarations. Order matters: uniforms of equal
// size keep their declaration order in the packed layout.
type Schema []Uniform

// SchemaShader splits declarations by the shader stage that consumes them.
type SchemaShader struct {
	Vertex   Schema
	Fragment Schema
}

// FetchStage tells the shader generator where the uniforms texture is read.
type FetchStage int

const (
	// FetchVertex decodes in the vertex stage and forwards through varyings.
	FetchVertex FetchStage = iota
	// FetchFragment allows decoding in the fragment stage; nothing varies per vertex.
	FetchFragment
)

func (s FetchStage) String() string {
	if s == FetchFragment {
		return "fragment"
	}
	return "vertex"
}

// LayoutEntry is the channel range reserved for one uniform inside an instance.
type LayoutEntry struct {
	Name   string
	Offset int
	Size   int
	Type   UniformType
}

// PackedSchema is the result of compiling a SchemaShader.
type PackedSchema struct {
	Channels          int
	PixelsPerInstance int
	TotalSize         int
	Layout            map[string]LayoutEntry
	FetchStage        FetchStage
}

// Entries returns the layout sorted by name.
func (p *PackedSchema) Entries() []LayoutEntry {
	out := make([]LayoutEntry, 0, len(p.Layout))
	for _, e := range p.Layout {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Entry looks up a uniform by name.
func (p *PackedSchema) Entry(name string) (LayoutEntry, error) {
	e, ok := p.Layout[name]
	if !ok {
		return LayoutEntry{}, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	return e, nil
}

// Compile packs the schema into texel channels. Vertex declarations come first;
// a fragment declaration whose name is also a vertex uniform is ignored.
// Uniforms are sorted by size, largest first, and placed first-fit into
// 4-channel slots. PixelsPerInstance is the number of slots opened.
func Compile(schema SchemaShader) (*PackedSchema, error) {
	type pending struct {
		LayoutEntry
		order int
	}

	var all []pending
	vertexNames := make(map[string]bool, len(schema.Vertex))
	fetch := FetchFragment

	add := func(u Uniform) error {
		size, err := u.Type.Size()
		if err != nil {
			return fmt.Errorf("uniform %q: %w", u.Name, err)
		}
		all = append(all, pending{
			LayoutEntry: LayoutEntry{Name: u.Name, Size: size, Type: u.Type},
			order:       len(all),
		})
		return nil
	}

	for _, u := range schema.Vertex {
		if vertexNames[u.Name] {
			return nil, fmt.Errorf("%w: vertex %q", ErrDuplicateUniform, u.Name)
		}
		vertexNames[u.Name] = true
		if err := add(u); err != nil {
			return nil, err
		}
		fetch = FetchVertex
	}

	fragmentNames := make(map[string]bool, len(schema.Fragment))
	for _, u := range schema.Fragment {
		if fragmentNames[u.Name] {
			return nil, fmt.Errorf("%w: fragment %q", ErrDuplicateUniform, u.Name)
		}
		fragmentNames[u.Name] = true
		if vertexNames[u.Name] {
			continue
		}
		if err := add(u); err != nil {
			return nil, err
		}
	}

	if len(all) == 0 {
		return nil, ErrEmptySchema
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Size > all[j].Size
	})

	packed := &PackedSchema{
		Layout:     make(map[string]LayoutEntry, len(all)),
		FetchStage: fetch,
	}

	var slots []int
	for _, p := range all {
		e := p.LayoutEntry
		e.Offset, slots = packOffset(e.Size, slots)
		packed.Layout[e.Name] = e
		packed.TotalSize += e.Size
	}

	// Equals ceil(TotalSize/4) unless first-fit left gaps (e.g. four vec3),
	// in which case every opened slot still has to be addressable.
	packed.PixelsPerInstance = len(slots)
	packed.Channels = min(packed.TotalSize, ChannelsPerTexel)
	return packed, nil
}

// packOffset places size channels into the first slot with room, or opens new
// slots at the end. slots holds the used channel count per opened texel.
func packOffset(size int, slots []int) (int, []int) {
	if size < ChannelsPerTexel {
		for i, used := range slots {
			if used+size <= ChannelsPerTexel {
				slots[i] += size
				return i*ChannelsPerTexel + used, slots
			}
		}
	}

	offset := len(slots) * ChannelsPerTexel
	for ; size > 0; size -= ChannelsPerTexel {
		slots = append(slots, min(size, ChannelsPerTexel))
	}
	return offset, slots
}
