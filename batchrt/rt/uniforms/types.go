package uniforms

import "fmt"

// UniformType names the shape of a per-instance uniform. The string values
// match the WGSL/GLSL-style names used in schemas.
type UniformType string

const (
	TypeFloat UniformType = "float"
	TypeVec2  UniformType = "vec2"
	TypeVec3  UniformType = "vec3"
	TypeVec4  UniformType = "vec4"
	TypeMat3  UniformType = "mat3"
	TypeMat4  UniformType = "mat4"
)

// Size is the number of float channels the type occupies.
func (t UniformType) Size() (int, error) {
	switch t {
	case TypeFloat:
		return 1, nil
	case TypeVec2:
		return 2, nil
	case TypeVec3:
		return 3, nil
	case TypeVec4:
		return 4, nil
	case TypeMat3:
		return 9, nil
	case TypeMat4:
		return 16, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSchemaType, string(t))
	}
}

// WGSL returns the shader-side type name.
func (t UniformType) WGSL() string {
	switch t {
	case TypeVec2:
		return "vec2<f32>"
	case TypeVec3:
		return "vec3<f32>"
	case TypeVec4:
		return "vec4<f32>"
	case TypeMat3:
		return "mat3x3<f32>"
	case TypeMat4:
		return "mat4x4<f32>"
	default:
		return "f32"
	}
}

func ParseUniformType(s string) (UniformType, error) {
	t := UniformType(s)
	if _, err := t.Size(); err != nil {
		return "", err
	}
	return t, nil
}
