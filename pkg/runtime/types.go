package runtime

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

type Initializer[T Object] func(o T)

// SchemeTypes maps type names to Go types and creates
// objects by type name.
type SchemeTypes[T Object] interface {
	TypeNames() []string
	HasType(t string) bool
	CreateObject(typ string, init ...Initializer[T]) (T, error)
}

// TypeScheme is a set of types with a registration possibility.
type TypeScheme[T Object] interface {
	SchemeTypes[T]

	Register(name string, proto T) error
	MustRegister(name string, proto T)
}

// UnknownTypeError is returned for type names without registration.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("field %q missing", TypeField)
	}
	return fmt.Sprintf("unknown type %q", e.Type)
}

type types[E Object] struct {
	lock  sync.RWMutex
	types map[string]reflect.Type
}

var _ TypeScheme[Object] = (*types[Object])(nil)

func NewTypeScheme[E Object]() TypeScheme[E] {
	return newTypes[E]()
}

func newTypes[E Object]() *types[E] {
	return &types[E]{types: map[string]reflect.Type{}}
}

// Register registers the struct type of the pointer proto for
// the given type name. Objects are always created empty.
func (s *types[E]) Register(name string, proto E) error {
	t := reflect.TypeOf(proto)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("proto type for %q must be pointer to struct", name)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if old := s.types[name]; old != nil && old != t.Elem() {
		return fmt.Errorf("type %q already registered for %s", name, old)
	}
	s.types[name] = t.Elem()
	return nil
}

func (s *types[E]) MustRegister(name string, proto E) {
	if err := s.Register(name, proto); err != nil {
		panic(err)
	}
}

func (s *types[E]) HasType(t string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.types[t] != nil
}

func (s *types[E]) CreateObject(typ string, init ...Initializer[E]) (E, error) {
	var _nil E

	s.lock.RLock()
	t := s.types[typ]
	s.lock.RUnlock()
	if t == nil {
		return _nil, &UnknownTypeError{typ}
	}

	o := reflect.New(t).Interface().(E)
	o.SetType(typ)
	for _, i := range init {
		i(o)
	}
	return o, nil
}

func (s *types[E]) TypeNames() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	names := make([]string, 0, len(s.types))
	for n := range s.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
