package runtime

// TypeField is the field of a document naming its type.
const TypeField = "type"

type TypeAccessor interface {
	GetType() string
}

// Object is a document type of a scheme. The type name is kept
// in the object, so that it survives serialization.
type Object interface {
	TypeAccessor
	SetType(string)
}

// ObjectMeta is embedded into scheme types to carry the type field.
type ObjectMeta struct {
	Type string `json:"type"`
}

var _ Object = (*ObjectMeta)(nil)

func (o *ObjectMeta) GetType() string {
	return o.Type
}

func (o *ObjectMeta) SetType(t string) {
	o.Type = t
}
