package binding

import (
	"fmt"
	"strings"

	"github.com/gekko3d/batchext/batchrt/rt/uniforms"
	"github.com/gogpu/naga"
)

// WGSLOptions places the generated bindings.
type WGSLOptions struct {
	Group   uint32
	Binding uint32
	// Indirect adds a texture_2d<u32> at Binding+1 mapping draw ids to instances.
	Indirect bool
}

var swizzle = [4]string{"x", "y", "z", "w"}

// WGSL emits the decode procedure for the plan's schema: the texture
// declarations, an InstanceUniforms struct with every stored uniform, a
// loadInstanceUniforms(drawId) fetch and, when anything is bound, a
// ShadingInputs struct filled by bindShadingInputs.
func (p *Plan) WGSL(opts WGSLOptions) (string, error) {
	entries := p.schema.Entries()
	for _, e := range entries {
		if !isIdent(e.Name) {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, e.Name)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "// batched uniforms: %d px/instance, fetched in the %s stage\n",
		p.schema.PixelsPerInstance, p.schema.FetchStage)
	fmt.Fprintf(&sb, "@group(%d) @binding(%d) var uniformsTexture: texture_2d<f32>;\n", opts.Group, opts.Binding)
	if opts.Indirect {
		fmt.Fprintf(&sb, "@group(%d) @binding(%d) var indirectTexture: texture_2d<u32>;\n", opts.Group, opts.Binding+1)
	}
	fmt.Fprintf(&sb, "\nconst UNIFORMS_PIXELS_PER_INSTANCE: u32 = %du;\n\n", p.schema.PixelsPerInstance)

	sb.WriteString("struct InstanceUniforms {\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "    %s: %s,\n", e.Name, e.Type.WGSL())
	}
	sb.WriteString("}\n\n")

	sb.WriteString("fn uniformsInstanceIndex(drawId: u32) -> u32 {\n")
	if opts.Indirect {
		sb.WriteString("    let w = textureDimensions(indirectTexture).x;\n")
		sb.WriteString("    return textureLoad(indirectTexture, vec2<i32>(i32(drawId % w), i32(drawId / w)), 0).x;\n")
	} else {
		sb.WriteString("    return drawId;\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("fn loadInstanceUniforms(drawId: u32) -> InstanceUniforms {\n")
	sb.WriteString("    let w = textureDimensions(uniformsTexture).x;\n")
	sb.WriteString("    let j = uniformsInstanceIndex(drawId) * UNIFORMS_PIXELS_PER_INSTANCE;\n")
	for t := 0; t < p.schema.PixelsPerInstance; t++ {
		fmt.Fprintf(&sb, "    let t%d = textureLoad(uniformsTexture, vec2<i32>(i32((j + %du) %% w), i32((j + %du) / w)), 0);\n", t, t, t)
	}
	sb.WriteString("    var u: InstanceUniforms;\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "    u.%s = %s;\n", e.Name, construct(e))
	}
	sb.WriteString("    return u;\n}\n")

	if len(p.bindings) == 0 {
		return sb.String(), nil
	}

	sb.WriteString("\nstruct ShadingInputs {\n")
	for _, b := range p.bindings {
		fmt.Fprintf(&sb, "    %s: %s,\n", b.Property, b.Sink.WGSL())
	}
	sb.WriteString("}\n\n")

	sb.WriteString("fn bindShadingInputs(u: InstanceUniforms) -> ShadingInputs {\n")
	sb.WriteString("    var s: ShadingInputs;\n")
	for _, b := range p.bindings {
		src := "u." + b.Uniform
		if b.Map != "" {
			local := "m_" + b.Uniform
			fmt.Fprintf(&sb, "    let %s = %s;\n", local, multiply(b.entry, src, "u."+b.Map))
			src = local
		}
		expr, err := coerceExpr(src, b.entry, b.Sink)
		if err != nil {
			return "", fmt.Errorf("bind %q: %w", b.Uniform, err)
		}
		fmt.Fprintf(&sb, "    s.%s = %s;\n", b.Property, expr)
	}
	sb.WriteString("    return s;\n}\n")
	return sb.String(), nil
}

// CompileWGSL validates generated source by compiling it to SPIR-V.
func CompileWGSL(src string) ([]byte, error) {
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile batched uniforms shader: %w", err)
	}
	return spirv, nil
}

// texelRef names component c of the instance as read from the t* locals.
func texelRef(c int) string {
	return fmt.Sprintf("t%d.%s", c/uniforms.ChannelsPerTexel, swizzle[c%uniforms.ChannelsPerTexel])
}

func construct(e uniforms.LayoutEntry) string {
	comps := make([]string, e.Size)
	for k := range comps {
		comps[k] = texelRef(e.Offset + k)
	}
	switch e.Type {
	case uniforms.TypeFloat:
		return comps[0]
	case uniforms.TypeMat3:
		return fmt.Sprintf("mat3x3<f32>(vec3<f32>(%s), vec3<f32>(%s), vec3<f32>(%s))",
			strings.Join(comps[0:3], ", "), strings.Join(comps[3:6], ", "), strings.Join(comps[6:9], ", "))
	case uniforms.TypeMat4:
		return fmt.Sprintf("mat4x4<f32>(vec4<f32>(%s), vec4<f32>(%s), vec4<f32>(%s), vec4<f32>(%s))",
			strings.Join(comps[0:4], ", "), strings.Join(comps[4:8], ", "),
			strings.Join(comps[8:12], ", "), strings.Join(comps[12:16], ", "))
	default:
		return fmt.Sprintf("%s(%s)", e.Type.WGSL(), strings.Join(comps, ", "))
	}
}

// componentRef names component k of a value expression of the entry's type.
// Matrices are column-major.
func componentRef(src string, e uniforms.LayoutEntry, k int) string {
	switch e.Type {
	case uniforms.TypeFloat:
		return src
	case uniforms.TypeMat3:
		return fmt.Sprintf("%s[%d].%s", src, k/3, swizzle[k%3])
	case uniforms.TypeMat4:
		return fmt.Sprintf("%s[%d].%s", src, k/4, swizzle[k%4])
	default:
		return src + "." + swizzle[k]
	}
}

// multiply is component-wise; WGSL's mat*mat is a matrix product, so
// matrices are multiplied column by column.
func multiply(e uniforms.LayoutEntry, a, b string) string {
	cols := 0
	switch e.Type {
	case uniforms.TypeMat3:
		cols = 3
	case uniforms.TypeMat4:
		cols = 4
	default:
		return a + " * " + b
	}
	parts := make([]string, cols)
	for c := range parts {
		parts[c] = fmt.Sprintf("%s[%d] * %s[%d]", a, c, b, c)
	}
	return fmt.Sprintf("%s(%s)", e.Type.WGSL(), strings.Join(parts, ", "))
}

func coerceExpr(src string, e uniforms.LayoutEntry, sink Sink) (string, error) {
	width := sink.Width()
	if e.Size == width {
		return src, nil
	}
	idx, err := coerceIndices(e.Size, width)
	if err != nil {
		return "", err
	}
	comps := make([]string, len(idx))
	for i, k := range idx {
		if k < 0 {
			comps[i] = "1.0"
		} else {
			comps[i] = componentRef(src, e, k)
		}
	}
	if width == 1 {
		return comps[0], nil
	}
	return fmt.Sprintf("%s(%s)", sink.WGSL(), strings.Join(comps, ", ")), nil
}

func isIdent(s string) bool {
	if s == "" || s == "_" || strings.HasPrefix(s, "__") {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
