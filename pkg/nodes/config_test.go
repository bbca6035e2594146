package nodes_test

import (
	"encoding/json"

	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/drivers"
	me "github.com/mandelsoft/animated/pkg/nodes"
)

var _ = Describe("config", func() {
	It("decodes all kinds", func() {
		Expect(me.Kinds()).To(HaveLen(13))

		cfg := Must(me.DecodeConfig([]byte(`{"type":"value","value":1,"offset":2}`)))
		Expect(cfg).To(Equal(me.Typed(&me.ValueConfig{Value: 1, Offset: 2})))

		cfg = Must(me.DecodeConfig([]byte(`{"type":"addition","input":[1,2]}`)))
		Expect(cfg).To(Equal(me.NewOperatorConfig(me.KindAddition, 1, 2)))
		Expect(cfg.Kind()).To(Equal(me.KindAddition))

		cfg = Must(me.DecodeConfig([]byte(`{"type":"props","props":{"opacity":3}}`)))
		Expect(cfg).To(Equal(me.Typed(&me.PropsConfig{Props: map[string]common.Tag{"opacity": 3}})))

		cfg = Must(me.DecodeConfig([]byte(`{"type":"tracking","animationId":7,"toValue":1,"value":2,"animationConfig":{"type":"timing","duration":100,"toValue":0}}`)))
		Expect(cfg).To(Equal(me.Typed(&me.TrackingConfig{
			AnimationID:     7,
			ToValue:         1,
			Value:           2,
			AnimationConfig: drivers.Spec{Config: drivers.Typed(&drivers.TimingConfig{Duration: 100})},
		})))

		cfg = Must(me.DecodeConfig([]byte("type: modulus\ninput: 4\nmodulus: 3\n")))
		Expect(cfg).To(Equal(me.Typed(&me.ModulusConfig{Input: 4, Modulus: 3})))
	})

	It("rejects unknown fields", func() {
		_, err := me.DecodeConfig([]byte(`{"type":"value","value":1,"color":"red"}`))
		Expect(err).To(MatchError(common.ErrInvalidConfig))
		Expect(err.Error()).To(ContainSubstring(`unknown field "color"`))
		var cerr *common.InvalidConfigError
		Expect(err).To(BeAssignableToTypeOf(cerr))

		_, err = me.DecodeConfig([]byte(`{"type":"tracking","animationId":1,"toValue":1,"value":2,"animationConfig":{"type":"timing","duration":1,"bounce":1}}`))
		Expect(err).To(MatchError(common.ErrInvalidConfig))
		Expect(err.Error()).To(ContainSubstring(`unknown field "bounce"`))
	})

	It("rejects malformed configs", func() {
		for _, doc := range []string{
			`{"type":"blob"}`,
			`{"type":"addition","input":[1]}`,
			`{"type":"props","props":{}}`,
			`{"type":"interpolation","inputRange":[0,1],"outputRange":[0]}`,
			`{"type":"interpolation","inputRange":[1,0],"outputRange":[0,1]}`,
			`{"type":"interpolation","inputRange":[0,1],"outputRange":[0,1],"extrapolateLeft":"wrap"}`,
			`{"type":"interpolation","inputRange":[0,1],"outputType":"color","outputColors":[1]}`,
			`{"type":"transform","transforms":[{"type":"animated","property":"warp","nodeTag":1}]}`,
			`{"type":"transform","transforms":[{"type":"moving","property":"rotate","nodeTag":1}]}`,
			`{"type":"diffclamp","input":1,"min":5,"max":1}`,
			`{"type":"tracking","animationId":1,"toValue":1,"value":2,"animationConfig":{"type":"decay","velocity":1}}`,
			`{"type":"tracking","animationId":1,"toValue":1,"value":2}`,
		} {
			_, err := me.DecodeConfig([]byte(doc))
			Expect(err).To(MatchError(common.ErrInvalidConfig), doc)
		}
	})

	It("keeps the kind in serialized specs", func() {
		data := Must(json.Marshal(me.Spec{Config: me.NewOperatorConfig(me.KindDivision, 4, 5)}))
		var spec me.Spec
		MustBeSuccessful(json.Unmarshal(data, &spec))
		Expect(spec.Config).To(Equal(me.NewOperatorConfig(me.KindDivision, 4, 5)))

		data = Must(json.Marshal(me.Spec{Config: &me.ValueConfig{Value: 3}}))
		Expect(string(data)).To(Equal(`{"type":"value","value":3}`))
	})

	It("reports unknown kinds on the type field", func() {
		_, err := me.DecodeConfig([]byte(`{"type":"blob"}`))
		Expect(err).To(MatchError(`invalid node config: field "type": unknown node kind "blob"`))
		_, err = me.DecodeConfig([]byte(`{"value":1}`))
		Expect(err).To(MatchError(`invalid node config: field "type": missing`))
	})
})
