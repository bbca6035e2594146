package nodes

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mandelsoft/goutils/sliceutils"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/runtime"
)

// Config is the configuration of a node. The set of implementations
// is closed, every kind has its own config type.
type Config interface {
	runtime.Object
	Kind() Kind
	Validate() error

	newNode(tag common.Tag) Node
}

var scheme = runtime.NewYAMLScheme[Config]()

func init() {
	scheme.MustRegister(KindValue.String(), &ValueConfig{})
	scheme.MustRegister(KindProps.String(), &PropsConfig{})
	scheme.MustRegister(KindStyle.String(), &StyleConfig{})
	scheme.MustRegister(KindTransform.String(), &TransformConfig{})
	scheme.MustRegister(KindInterpolation.String(), &InterpolationConfig{})
	for _, op := range []Kind{KindAddition, KindSubtraction, KindMultiplication, KindDivision} {
		scheme.MustRegister(op.String(), &OperatorConfig{})
	}
	scheme.MustRegister(KindModulus.String(), &ModulusConfig{})
	scheme.MustRegister(KindDiffClamp.String(), &DiffClampConfig{})
	scheme.MustRegister(KindTracking.String(), &TrackingConfig{})
	scheme.MustRegister(KindColor.String(), &ColorConfig{})
}

// Kinds lists the supported node kinds.
func Kinds() []Kind {
	return sliceutils.Transform(scheme.TypeNames(), func(n string) Kind { return Kind(n) })
}

// Typed sets the type field of a configuration to its kind.
func Typed[C Config](c C) C {
	c.SetType(c.Kind().String())
	return c
}

// DecodeConfig decodes a YAML or JSON node configuration carrying
// its kind in the field type. Unknown fields are rejected and the
// result is validated.
func DecodeConfig(data []byte) (Config, error) {
	cfg, err := scheme.Decode(data)
	if err != nil {
		var terr *runtime.UnknownTypeError
		if errors.As(err, &terr) {
			if terr.Type == "" {
				return nil, common.NewInvalidConfigError("node", runtime.TypeField, "missing")
			}
			return nil, common.NewInvalidConfigError("node", runtime.TypeField, "unknown node kind %q", terr.Type)
		}
		return nil, common.NewInvalidConfigError("node", "", "%s", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Spec is the serializable form of a node configuration.
type Spec struct {
	Config
}

func (s Spec) MarshalJSON() ([]byte, error) {
	if s.Config == nil {
		return []byte("null"), nil
	}
	return json.Marshal(Typed(s.Config))
}

func (s *Spec) UnmarshalJSON(data []byte) error {
	cfg, err := DecodeConfig(data)
	if err != nil {
		return err
	}
	s.Config = cfg
	return nil
}

// New creates a node for a validated configuration.
func New(tag common.Tag, cfg Config) (Node, error) {
	if cfg == nil {
		return nil, common.NewInvalidConfigError("node", "", "configuration missing")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.newNode(tag)
	log.Trace("created node {{node}}", "node", Describe(n))
	return n, nil
}

// Describe provides a short description of a node for log output.
func Describe(n Node) string {
	if n == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s(%s)", n.Kind(), n.Tag())
}

func requireTags(kind Kind, field string, tags map[string]common.Tag) error {
	if len(tags) == 0 {
		return common.NewInvalidConfigError(kind.String(), field, "at least one entry required")
	}
	for name := range tags {
		if name == "" {
			return common.NewInvalidConfigError(kind.String(), field, "empty property name")
		}
	}
	return nil
}
