package runtime

import (
	"fmt"

	"sigs.k8s.io/yaml"
)

// TypeExtractor determines the type name of a document.
type TypeExtractor func(data []byte) (string, error)

type accessorPointer[P any] interface {
	TypeAccessor
	*P
}

// TypeExtractorFor provides a type extractor decoding the document
// into the meta type O.
func TypeExtractorFor[O any, P accessorPointer[O]]() TypeExtractor {
	return func(data []byte) (string, error) {
		var meta O

		err := yaml.Unmarshal(data, &meta)
		if err != nil {
			return "", err
		}
		return P(&meta).GetType(), nil
	}
}

// Scheme is a type scheme decoding YAML or JSON documents
// into the registered type selected by the type field.
// Fields not declared by the selected type are rejected.
type Scheme[E Object] interface {
	TypeScheme[E]

	Decode(data []byte) (E, error)
}

type scheme[E Object] struct {
	*types[E]
	typeExtractor TypeExtractor
}

var _ Scheme[Object] = (*scheme[Object])(nil)

// NewYAMLScheme creates a scheme. Without extractor the type is
// taken from the field type.
func NewYAMLScheme[E Object](e ...TypeExtractor) Scheme[E] {
	s := &scheme[E]{types: newTypes[E]()}
	if len(e) > 0 && e[0] != nil {
		s.typeExtractor = e[0]
	} else {
		s.typeExtractor = TypeExtractorFor[ObjectMeta]()
	}
	return s
}

func (s *scheme[E]) Decode(data []byte) (E, error) {
	var _nil E

	ty, err := s.typeExtractor(data)
	if err != nil {
		return _nil, fmt.Errorf("field %q: %w", TypeField, err)
	}

	v, err := s.CreateObject(ty)
	if err != nil {
		return _nil, err
	}

	err = yaml.UnmarshalStrict(data, v)
	if err != nil {
		return _nil, err
	}
	return v, nil
}
