package uniforms

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pbrSchema() SchemaShader {
	return SchemaShader{
		Fragment: Schema{
			{Name: "color", Type: TypeVec3},
			{Name: "metalness", Type: TypeFloat},
			{Name: "roughness", Type: TypeFloat},
			{Name: "opacity", Type: TypeFloat},
		},
	}
}

func newPBRStore(t *testing.T, capacity int) *Store {
	t.Helper()
	s := NewStore(nil)
	require.NoError(t, s.Init(pbrSchema(), capacity))
	return s
}

func TestTextureSize(t *testing.T) {
	cases := []struct {
		capacity, ppi, want int
	}{
		{64, 2, 12},  // sqrt(128)=11.3 -> 12, already a multiple of 2
		{64, 1, 8},   // sqrt(64)=8
		{10, 3, 6},   // sqrt(30)=5.5 -> 6
		{1, 7, 7},    // sqrt(7)=2.6 -> 3 -> raised to 7
		{0, 1, 1},
	}
	for _, tc := range cases {
		side := TextureSize(tc.capacity, tc.ppi)
		assert.Equal(t, tc.want, side, "capacity=%d ppi=%d", tc.capacity, tc.ppi)
		assert.Zero(t, side%tc.ppi)
		assert.GreaterOrEqual(t, side*side, tc.capacity*tc.ppi)
	}
}

func TestStoreBeforeInit(t *testing.T) {
	s := NewStore(nil)

	err := s.SetUniformAt(0, "color", mgl32.Vec3{1, 0, 0})
	assert.ErrorIs(t, err, ErrStoreNotInitialized)
	_, err = s.GetUniformAt(0, "color")
	assert.ErrorIs(t, err, ErrStoreNotInitialized)
	_, err = s.ReadUniformAt(0, "color", nil)
	assert.ErrorIs(t, err, ErrStoreNotInitialized)
	_, err = s.Flush()
	assert.ErrorIs(t, err, ErrStoreNotInitialized)
	assert.False(t, s.Initialized())
}

func TestStoreInitOnce(t *testing.T) {
	s := newPBRStore(t, 4)
	before, err := s.Texture()
	require.NoError(t, err)

	err = s.Init(SchemaShader{Vertex: Schema{{Name: "x", Type: TypeMat4}}}, 8)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	after, err := s.Texture()
	require.NoError(t, err)
	assert.Same(t, before, after)
	assert.Equal(t, 2, after.PixelsPerInstance)
}

func TestStoreInitBadSchemaLeavesStoreEmpty(t *testing.T) {
	s := NewStore(nil)
	err := s.Init(SchemaShader{Fragment: Schema{{Name: "x", Type: "vec9"}}}, 4)
	assert.ErrorIs(t, err, ErrInvalidSchemaType)
	assert.False(t, s.Initialized())
	require.NoError(t, s.Init(pbrSchema(), 4))
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newPBRStore(t, 16)

	require.NoError(t, s.SetUniformAt(5, "color", mgl32.Vec3{0.1, 0.2, 0.3}))
	require.NoError(t, s.SetUniformAt(5, "metalness", float32(0.75)))
	require.NoError(t, s.SetUniformAt(5, "roughness", 0.5))
	require.NoError(t, s.SetUniformAt(5, "opacity", []float32{0.25}))

	color, err := UniformAt[mgl32.Vec3](s, 5, "color")
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 0.3}, color)

	metal, err := UniformAt[float32](s, 5, "metalness")
	require.NoError(t, err)
	assert.Equal(t, float32(0.75), metal)

	v, err := s.GetUniformAt(5, "roughness")
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), v)

	buf := make([]float32, 0, 8)
	out, err := s.ReadUniformAt(5, "opacity", buf)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25}, out)

	_, err = UniformAt[mgl32.Vec4](s, 5, "color")
	assert.ErrorIs(t, err, ErrValueSize)
}

func TestChannelPlacement(t *testing.T) {
	s := newPBRStore(t, 4)
	require.NoError(t, s.SetUniformAt(1, "color", mgl32.Vec3{1, 2, 3}))
	require.NoError(t, s.SetUniformAt(1, "metalness", float32(4)))
	require.NoError(t, s.SetUniformAt(1, "roughness", float32(5)))
	require.NoError(t, s.SetUniformAt(1, "opacity", float32(6)))

	tex, err := s.Texture()
	require.NoError(t, err)
	// instance 1 starts at texel 2; texel 3 holds roughness and opacity in r and g
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 0, 0}, tex.InstanceTexels(1))
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0, 0, 0}, tex.InstanceTexels(0))
}

func TestSetErrors(t *testing.T) {
	s := newPBRStore(t, 4)

	assert.ErrorIs(t, s.SetUniformAt(0, "emissive", mgl32.Vec3{}), ErrUnknownAttribute)
	assert.ErrorIs(t, s.SetUniformAt(4, "color", mgl32.Vec3{}), ErrInstanceOutOfRange)
	assert.ErrorIs(t, s.SetUniformAt(-1, "color", mgl32.Vec3{}), ErrInstanceOutOfRange)
	assert.ErrorIs(t, s.SetUniformAt(0, "color", mgl32.Vec4{}), ErrValueSize)
	assert.ErrorIs(t, s.SetUniformAt(0, "opacity", "opaque"), ErrValueSize)

	_, err := s.GetUniformAt(0, "emissive")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func randomValue(r *rand.Rand, size int) []float32 {
	v := make([]float32, size)
	for i := range v {
		v[i] = r.Float32()*200 - 100
	}
	return v
}

func TestRoundTripAndIsolation(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for iter := 0; iter < 50; iter++ {
		s := NewStore(nil)
		require.NoError(t, s.Init(randomSchema(r), 9))
		tex, err := s.Texture()
		require.NoError(t, err)

		entries := tex.Schema.Entries()
		expected := make(map[int]map[string][]float32)
		for id := 0; id < tex.Capacity; id++ {
			expected[id] = make(map[string][]float32)
			for _, e := range entries {
				v := randomValue(r, e.Size)
				require.NoError(t, s.SetUniformAt(id, e.Name, v))
				expected[id][e.Name] = v
			}
		}

		// overwrite one attribute of one instance, everything else must hold
		target := entries[r.Intn(len(entries))]
		victim := r.Intn(tex.Capacity)
		nv := randomValue(r, target.Size)
		require.NoError(t, s.SetUniformAt(victim, target.Name, nv))
		expected[victim][target.Name] = nv

		for id, byName := range expected {
			for name, want := range byName {
				got, err := s.ReadUniformAt(id, name, nil)
				require.NoError(t, err)
				require.Equal(t, want, got, "instance %d uniform %s", id, name)
			}
		}
	}
}

func TestFlushCoalescesAndClears(t *testing.T) {
	s := newPBRStore(t, 16)

	initial, err := s.Flush()
	require.NoError(t, err)
	assert.Equal(t, []UpdateRange{{FirstTexel: 0, TexelCount: 32}}, initial)

	again, err := s.Flush()
	require.NoError(t, err)
	assert.Empty(t, again)

	for _, id := range []int{7, 3, 4, 4, 10} {
		require.NoError(t, s.SetUniformAt(id, "opacity", float32(id)))
	}
	ranges, err := s.Flush()
	require.NoError(t, err)
	assert.Equal(t, []UpdateRange{
		{FirstTexel: 6, TexelCount: 4},
		{FirstTexel: 14, TexelCount: 2},
		{FirstTexel: 20, TexelCount: 2},
	}, ranges)
	assert.Equal(t, 6*4*BytesPerChannel, ranges[0].ByteOffset(4))
	assert.Equal(t, 4*4*BytesPerChannel, ranges[0].ByteSize(4))

	empty, err := s.Flush()
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateRangeRects(t *testing.T) {
	cases := []struct {
		name string
		r    UpdateRange
		want []Rect
	}{
		{"inside one row", UpdateRange{FirstTexel: 2, TexelCount: 3}, []Rect{{X: 2, Y: 0, Width: 3, Height: 1}}},
		{"full rows", UpdateRange{FirstTexel: 8, TexelCount: 16}, []Rect{{X: 0, Y: 1, Width: 8, Height: 2}}},
		{"head body tail", UpdateRange{FirstTexel: 6, TexelCount: 13}, []Rect{
			{X: 6, Y: 0, Width: 2, Height: 1},
			{X: 0, Y: 1, Width: 8, Height: 1},
			{X: 0, Y: 2, Width: 3, Height: 1},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.r.Rects(8))
		})
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.Init(SchemaShader{Vertex: Schema{
		{Name: "model", Type: TypeMat4},
		{Name: "normalMatrix", Type: TypeMat3},
		{Name: "uv", Type: TypeVec2},
	}}, 3))

	model := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
	nm := mgl32.Rotate3DZ(0.5)
	require.NoError(t, s.SetUniformAt(2, "model", model))
	require.NoError(t, s.SetUniformAt(2, "normalMatrix", nm))
	require.NoError(t, s.SetUniformAt(2, "uv", mgl32.Vec2{0.5, 0.25}))

	gotModel, err := UniformAt[mgl32.Mat4](s, 2, "model")
	require.NoError(t, err)
	assert.Equal(t, model, gotModel)

	gotNM, err := UniformAt[mgl32.Mat3](s, 2, "normalMatrix")
	require.NoError(t, err)
	assert.Equal(t, nm, gotNM)

	uv, err := UniformAt[mgl32.Vec2](s, 2, "uv")
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec2{0.5, 0.25}, uv)
}
