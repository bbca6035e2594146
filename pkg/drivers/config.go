package drivers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/runtime"
)

// Type is the driver type discriminator used in configuration documents.
type Type string

const (
	TypeFrames Type = "frames"
	TypeTiming Type = "timing"
	TypeSpring Type = "spring"
	TypeDecay  Type = "decay"
)

// Config is the configuration of a driver. The set of implementations
// is closed: FramesConfig, TimingConfig, SpringConfig and DecayConfig.
type Config interface {
	runtime.Object
	Kind() Type
	Validate() error
	// Loops provides the effective number of iterations, Infinite for
	// endless loops.
	Loops() int

	newAnimation() animation
}

// TargetConfig is implemented by configurations animating toward
// a target value. It is required for tracking templates.
type TargetConfig interface {
	Config
	GetToValue() float64
	WithToValue(v float64) Config
}

var scheme = runtime.NewYAMLScheme[Config]()

func init() {
	scheme.MustRegister(string(TypeFrames), &FramesConfig{})
	scheme.MustRegister(string(TypeTiming), &TimingConfig{})
	scheme.MustRegister(string(TypeSpring), &SpringConfig{})
	scheme.MustRegister(string(TypeDecay), &DecayConfig{})
}

// Typed sets the type field of a configuration to its driver type.
func Typed[C Config](c C) C {
	c.SetType(string(c.Kind()))
	return c
}

// DecodeConfig decodes a YAML or JSON driver configuration with a
// type field. Unknown fields are rejected. The configuration is
// validated.
func DecodeConfig(data []byte) (Config, error) {
	cfg, err := scheme.Decode(data)
	if err != nil {
		var terr *runtime.UnknownTypeError
		if errors.As(err, &terr) {
			if terr.Type == "" {
				return nil, common.NewInvalidConfigError("animation", runtime.TypeField, "missing")
			}
			return nil, common.NewInvalidConfigError("animation", runtime.TypeField, "unknown animation type %q", terr.Type)
		}
		return nil, common.NewInvalidConfigError("animation", "", "%s", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Spec is the serializable form of a driver configuration.
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

func loops(iterations int) int {
	if iterations == 0 {
		return 1
	}
	return iterations
}

func validateIterations(typ Type, iterations int) error {
	if iterations < Infinite {
		return common.NewInvalidConfigError(string(typ), "iterations", "must be positive or %d for infinite, found %d", Infinite, iterations)
	}
	return nil
}

func validateFinite(typ Type, field string, v float64) error {
	if common.IsInvalid(v) {
		return common.NewInvalidConfigError(string(typ), field, "not a number")
	}
	if math.IsInf(v, 0) {
		return common.NewInvalidConfigError(string(typ), field, "must be finite")
	}
	return nil
}

func describe(cfg Config) string {
	return fmt.Sprintf("%s(%d)", cfg.Kind(), cfg.Loops())
}
