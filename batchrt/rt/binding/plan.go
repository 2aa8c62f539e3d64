package binding

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gekko3d/batchext/batchrt/rt/uniforms"
)

var (
	ErrCombineWidthMismatch = errors.New("base and map uniforms differ in width")
	ErrUnboundUniform       = errors.New("uniform is not bound to a shading input")
	ErrIncompatibleBinding  = errors.New("uniform width cannot feed the shading input")
	ErrDrawOutOfRange       = errors.New("draw id out of range")
	ErrInvalidIdentifier    = errors.New("uniform name is not a valid WGSL identifier")
)

// Binding routes one uniform, optionally multiplied by a map uniform, into a
// shading input.
type Binding struct {
	Property Property
	Uniform  string
	Map      string
	Sink     Sink

	entry uniforms.LayoutEntry
}

// Plan is the fixed binding table for one compiled schema. It is built once
// and iterated in uniform-name order by the decoder and the WGSL emitter.
type Plan struct {
	schema   *uniforms.PackedSchema
	bindings []Binding
	unbound  []string
}

func NewPlan(schema *uniforms.PackedSchema) (*Plan, error) {
	byProp := make(map[Property]Binding)
	for _, w := range wellKnownUniforms {
		entry, ok := schema.Layout[w.Uniform]
		if !ok {
			continue
		}
		if _, err := coerceIndices(entry.Size, w.Sink.Width()); err != nil {
			return nil, fmt.Errorf("uniform %q (%s) -> %s: %w", w.Uniform, entry.Type, w.Property, err)
		}
		byProp[w.Property] = Binding{
			Property: w.Property,
			Uniform:  w.Uniform,
			Sink:     w.Sink,
			entry:    entry,
		}
	}

	p := &Plan{schema: schema}
	bound := make(map[string]bool, len(byProp))
	for _, b := range byProp {
		p.bindings = append(p.bindings, b)
		bound[b.Uniform] = true
	}
	sort.Slice(p.bindings, func(i, j int) bool {
		return p.bindings[i].Uniform < p.bindings[j].Uniform
	})

	for _, e := range schema.Entries() {
		if !bound[e.Name] {
			p.unbound = append(p.unbound, e.Name)
		}
	}
	return p, nil
}

func (p *Plan) Schema() *uniforms.PackedSchema {
	return p.schema
}

// Bindings returns the bindings in uniform-name order.
func (p *Plan) Bindings() []Binding {
	return append([]Binding(nil), p.bindings...)
}

// Unbound lists stored uniforms that drive no shading input.
func (p *Plan) Unbound() []string {
	return append([]string(nil), p.unbound...)
}

// Combine multiplies the bound uniform base component-wise by mapName before
// it reaches its shading input.
func (p *Plan) Combine(base, mapName string) error {
	mapEntry, err := p.schema.Entry(mapName)
	if err != nil {
		return err
	}
	baseEntry, err := p.schema.Entry(base)
	if err != nil {
		return err
	}
	if baseEntry.Size != mapEntry.Size {
		return fmt.Errorf("%w: %q has %d, %q has %d", ErrCombineWidthMismatch, base, baseEntry.Size, mapName, mapEntry.Size)
	}
	for i := range p.bindings {
		if p.bindings[i].Uniform == base {
			p.bindings[i].Map = mapName
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnboundUniform, base)
}

// coerceIndices describes how a value of size components feeds a sink of
// width components. Each output slot holds the source component index, or
// -1 for a constant 1.0.
func coerceIndices(size, width int) ([]int, error) {
	out := make([]int, width)
	switch {
	case size == width || size > width:
		for i := range out {
			out[i] = i
		}
	case size == 1:
		// out is already all zeros: splat component 0
	case size == 3 && width == 4:
		out[0], out[1], out[2], out[3] = 0, 1, 2, -1
	default:
		return nil, fmt.Errorf("%w: %d components into %d", ErrIncompatibleBinding, size, width)
	}
	return out, nil
}

// Coerce applies the width rules to a decoded value: a 3-component value
// feeding a 4-component sink gets alpha 1, wider values are truncated, and
// scalars are splatted.
func Coerce(value []float32, sink Sink) ([]float32, error) {
	idx, err := coerceIndices(len(value), sink.Width())
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(idx))
	for i, k := range idx {
		if k < 0 {
			out[i] = 1
		} else {
			out[i] = value[k]
		}
	}
	return out, nil
}
