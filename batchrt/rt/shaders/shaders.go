package shaders

import (
	_ "embed"
	"strings"
)

//go:embed batched_mesh.wgsl
var BatchedMeshWGSL string

// UniformsMarker is the line a template reserves for the generated decode code.
const UniformsMarker = "// @batched-uniforms"

// Assemble splices generated decode code into template at UniformsMarker.
// Templates without the marker get it prepended.
func Assemble(template, decode string) string {
	if !strings.Contains(template, UniformsMarker) {
		return decode + "\n" + template
	}
	return strings.Replace(template, UniformsMarker, decode, 1)
}
