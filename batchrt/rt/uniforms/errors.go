package uniforms

import "errors"

var (
	ErrInvalidSchemaType   = errors.New("invalid uniform type")
	ErrEmptySchema         = errors.New("uniform schema declares no uniforms")
	ErrDuplicateUniform    = errors.New("uniform declared twice in the same stage")
	ErrStoreNotInitialized = errors.New("uniforms per instance are not initialized")
	ErrAlreadyInitialized  = errors.New("uniforms per instance are already initialized")
	ErrUnknownAttribute    = errors.New("unknown uniform")
	ErrInstanceOutOfRange  = errors.New("instance index out of range")
	ErrValueSize           = errors.New("uniform value has the wrong number of components")
)
