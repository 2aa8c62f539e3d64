package uniforms

import (
	"fmt"

	"github.com/gekko3d/batchext/batchrt/rt/core"
)

// Store owns the uniforms texture of one batched mesh. It is initialized once;
// shaders are generated against the compiled schema, so the layout never changes.
type Store struct {
	logger  core.Logger
	texture *SquareDataTexture
}

func NewStore(logger core.Logger) *Store {
	return &Store{logger: core.LoggerOrNop(logger)}
}

// Init compiles schema and allocates a texture for capacity instances.
func (s *Store) Init(schema SchemaShader, capacity int) error {
	if s.texture != nil {
		return ErrAlreadyInitialized
	}
	packed, err := Compile(schema)
	if err != nil {
		return err
	}

	tex := NewSquareDataTexture(packed, capacity)
	tex.EnqueueAll()
	s.texture = tex

	for _, e := range packed.Entries() {
		s.logger.Debugf("uniform %s: %s offset=%d size=%d", e.Name, e.Type, e.Offset, e.Size)
	}
	s.logger.Infof("uniforms texture %dx%d, %d channels, %d px/instance, fetch in %s stage",
		tex.Width, tex.Height, tex.Channels, tex.PixelsPerInstance, packed.FetchStage)
	return nil
}

func (s *Store) Initialized() bool {
	return s.texture != nil
}

func (s *Store) Texture() (*SquareDataTexture, error) {
	if s.texture == nil {
		return nil, ErrStoreNotInitialized
	}
	return s.texture, nil
}

func (s *Store) Schema() (*PackedSchema, error) {
	if s.texture == nil {
		return nil, ErrStoreNotInitialized
	}
	return s.texture.Schema, nil
}

func (s *Store) SetUniformAt(id int, name string, value any) error {
	if s.texture == nil {
		return fmt.Errorf("set %q: %w", name, ErrStoreNotInitialized)
	}
	return s.texture.SetUniformAt(id, name, value)
}

func (s *Store) GetUniformAt(id int, name string) (any, error) {
	if s.texture == nil {
		return nil, fmt.Errorf("get %q: %w", name, ErrStoreNotInitialized)
	}
	return s.texture.GetUniformAt(id, name)
}

func (s *Store) ReadUniformAt(id int, name string, target []float32) ([]float32, error) {
	if s.texture == nil {
		return nil, fmt.Errorf("read %q: %w", name, ErrStoreNotInitialized)
	}
	return s.texture.ReadUniformAt(id, name, target)
}

// Flush drains the dirty queue. The caller uploads the returned ranges.
func (s *Store) Flush() ([]UpdateRange, error) {
	if s.texture == nil {
		return nil, ErrStoreNotInitialized
	}
	ranges := s.texture.Flush()
	if len(ranges) > 0 {
		s.logger.Debugf("uniforms flush: %d ranges", len(ranges))
	}
	return ranges, nil
}
