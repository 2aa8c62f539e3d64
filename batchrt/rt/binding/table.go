package binding

// Property is a material shading input a uniform can drive.
type Property string

const (
	PropColor                Property = "color"
	PropOpacity              Property = "opacity"
	PropAlphaTest            Property = "alphaTest"
	PropDepth                Property = "depth"
	PropEmissive             Property = "emissive"
	PropMetalness            Property = "metalness"
	PropRoughness            Property = "roughness"
	PropClearcoat            Property = "clearcoat"
	PropClearcoatRoughness   Property = "clearcoatRoughness"
	PropClearcoatNormal      Property = "clearcoatNormal"
	PropSheen                Property = "sheen"
	PropIOR                  Property = "ior"
	PropTransmission         Property = "transmission"
	PropThickness            Property = "thickness"
	PropAttenuationDistance  Property = "attenuationDistance"
	PropAttenuationColor     Property = "attenuationColor"
	PropAnisotropy           Property = "anisotropy"
	PropIridescence          Property = "iridescence"
	PropIridescenceIOR       Property = "iridescenceIOR"
	PropIridescenceThickness Property = "iridescenceThickness"
	PropShininess            Property = "shininess"
	PropSpecular             Property = "specular"
	PropSpecularIntensity    Property = "specularIntensity"
	PropSpecularColor        Property = "specularColor"
	PropNormal               Property = "normal"
	PropAO                   Property = "ao"
)

// Sink is the value shape a property expects.
type Sink int

const (
	SinkFloat Sink = iota
	SinkVec2
	SinkVec3
	SinkVec4
	// SinkColor is an rgb triple; alpha is dropped and scalars are splatted.
	SinkColor
)

// Width is the number of components the sink receives.
func (s Sink) Width() int {
	switch s {
	case SinkVec2:
		return 2
	case SinkVec3, SinkColor:
		return 3
	case SinkVec4:
		return 4
	default:
		return 1
	}
}

func (s Sink) WGSL() string {
	switch s.Width() {
	case 2:
		return "vec2<f32>"
	case 3:
		return "vec3<f32>"
	case 4:
		return "vec4<f32>"
	default:
		return "f32"
	}
}

type wellKnown struct {
	Uniform  string
	Property Property
	Sink     Sink
}

// wellKnownUniforms lists the uniform names with a fixed shading meaning.
// When two names drive one property the later entry wins, so "color"
// overrides "diffuse".
var wellKnownUniforms = []wellKnown{
	{"diffuse", PropColor, SinkVec4},
	{"color", PropColor, SinkVec4},
	{"opacity", PropOpacity, SinkFloat},
	{"alphaTest", PropAlphaTest, SinkFloat},
	{"depth", PropDepth, SinkFloat},

	{"emissive", PropEmissive, SinkColor},
	{"metalness", PropMetalness, SinkFloat},
	{"roughness", PropRoughness, SinkFloat},
	{"clearcoat", PropClearcoat, SinkFloat},
	{"clearcoatRoughness", PropClearcoatRoughness, SinkFloat},
	{"clearcoatNormal", PropClearcoatNormal, SinkVec3},
	{"sheen", PropSheen, SinkColor},
	{"ior", PropIOR, SinkFloat},
	{"transmission", PropTransmission, SinkColor},
	{"thickness", PropThickness, SinkFloat},
	{"attenuationDistance", PropAttenuationDistance, SinkFloat},
	{"attenuationColor", PropAttenuationColor, SinkColor},
	{"anisotropy", PropAnisotropy, SinkVec2},
	{"iridescence", PropIridescence, SinkFloat},
	{"iridescenceIOR", PropIridescenceIOR, SinkFloat},
	{"iridescenceThickness", PropIridescenceThickness, SinkFloat},

	{"shininess", PropShininess, SinkFloat},
	{"specular", PropSpecular, SinkColor},
	{"specularIntensity", PropSpecularIntensity, SinkFloat},
	{"specularColor", PropSpecularColor, SinkColor},

	{"normal", PropNormal, SinkVec3},
	{"ao", PropAO, SinkFloat},
}

// WellKnownUniforms returns the uniform names that bind to a property.
func WellKnownUniforms() []string {
	out := make([]string, len(wellKnownUniforms))
	for i, w := range wellKnownUniforms {
		out[i] = w.Uniform
	}
	return out
}
