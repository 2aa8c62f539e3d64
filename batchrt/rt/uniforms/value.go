package uniforms

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Value is the set of Go types a uniform can be read back as.
type Value interface {
	float32 | mgl32.Vec2 | mgl32.Vec3 | mgl32.Vec4 | mgl32.Mat3 | mgl32.Mat4
}

// components flattens a write value. Matrices are column-major, as in mgl32.
func components(value any) ([]float32, error) {
	switch v := value.(type) {
	case float32:
		return []float32{v}, nil
	case float64:
		return []float32{float32(v)}, nil
	case int:
		return []float32{float32(v)}, nil
	case mgl32.Vec2:
		return v[:], nil
	case mgl32.Vec3:
		return v[:], nil
	case mgl32.Vec4:
		return v[:], nil
	case mgl32.Mat3:
		return v[:], nil
	case mgl32.Mat4:
		return v[:], nil
	case []float32:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", ErrValueSize, value)
	}
}

// fromComponents builds the natural Go value for t.
func fromComponents(t UniformType, c []float32) any {
	switch t {
	case TypeVec2:
		return mgl32.Vec2{c[0], c[1]}
	case TypeVec3:
		return mgl32.Vec3{c[0], c[1], c[2]}
	case TypeVec4:
		return mgl32.Vec4{c[0], c[1], c[2], c[3]}
	case TypeMat3:
		var m mgl32.Mat3
		copy(m[:], c)
		return m
	case TypeMat4:
		var m mgl32.Mat4
		copy(m[:], c)
		return m
	default:
		return c[0]
	}
}

// UniformAt reads a uniform into a typed value. T must match the declared type.
func UniformAt[T Value](s *Store, id int, name string) (T, error) {
	var zero T
	v, err := s.GetUniformAt(id, name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T, requested %T", ErrValueSize, name, v, zero)
	}
	return typed, nil
}
