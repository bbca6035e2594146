package nodes_test

import (
	"math"

	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/drivers"
	me "github.com/mandelsoft/animated/pkg/nodes"
)

var _ = Describe("nodes", func() {
	var l *lookup

	BeforeEach(func() {
		l = newLookup()
	})

	Context("value", func() {
		It("handles offsets", func() {
			v := l.value(1, 5)
			v.SetOffset(3)
			Expect(v.Value()).To(Equal(8.0))
			Expect(v.Base()).To(Equal(5.0))

			v.ExtractOffset()
			Expect(v.Value()).To(Equal(8.0))
			Expect(v.Base()).To(Equal(0.0))
			Expect(v.Offset()).To(Equal(8.0))

			v.SetValue(2)
			Expect(v.Value()).To(Equal(10.0))

			v.FlattenOffset()
			Expect(v.Value()).To(Equal(10.0))
			Expect(v.Offset()).To(Equal(0.0))
		})

		It("keeps the observed value on extract and flatten", func() {
			v := l.value(1, 0.7)
			v.SetOffset(-0.2)
			before := v.Value()
			v.ExtractOffset()
			v.FlattenOffset()
			Expect(v.Value()).To(BeNumerically("~", before, 1e-12))
		})

		It("restores the configured value", func() {
			v := l.add(1, &me.ValueConfig{Value: 1, Offset: 2}).(*me.ValueNode)
			v.SetValue(10)
			v.ExtractOffset()
			Expect(v.RestoreDefaults()).To(BeNil())
			Expect(v.Base()).To(Equal(1.0))
			Expect(v.Offset()).To(Equal(2.0))
		})
	})

	Context("arithmetic", func() {
		BeforeEach(func() {
			l.value(1, 6)
			l.value(2, 4)
			l.value(3, 0)
		})

		DescribeTable("reduces in list order",
			func(op me.Kind, exp float64) {
				n := l.add(10, me.NewOperatorConfig(op, 1, 2)).(me.Scalar)
				MustBeSuccessful(n.Update(l))
				Expect(n.Value()).To(Equal(exp))
			},
			Entry("addition", me.KindAddition, 10.0),
			Entry("subtraction", me.KindSubtraction, 2.0),
			Entry("multiplication", me.KindMultiplication, 24.0),
			Entry("division", me.KindDivision, 1.5),
		)

		It("marks division by zero invalid", func() {
			n := l.add(10, me.NewOperatorConfig(me.KindDivision, 1, 3)).(me.Scalar)
			err := n.Update(l)
			Expect(err).To(MatchError(common.ErrArithmetic))
			Expect(math.IsNaN(n.Value())).To(BeTrue())
		})

		It("reports unknown inputs", func() {
			n := l.add(10, me.NewOperatorConfig(me.KindAddition, 1, 99)).(me.Scalar)
			Expect(n.Update(l)).To(MatchError(common.ErrUnknownNode))
			Expect(math.IsNaN(n.Value())).To(BeTrue())
		})

		It("computes a floored modulus", func() {
			v := l.value(4, -7)
			n := l.add(10, &me.ModulusConfig{Input: 4, Modulus: 3}).(me.Scalar)
			MustBeSuccessful(n.Update(l))
			Expect(n.Value()).To(Equal(2.0))

			v.SetValue(7)
			MustBeSuccessful(n.Update(l))
			Expect(n.Value()).To(Equal(1.0))

			z := l.add(11, &me.ModulusConfig{Input: 4}).(me.Scalar)
			Expect(z.Update(l)).To(MatchError(common.ErrArithmetic))
			Expect(math.IsNaN(z.Value())).To(BeTrue())
		})

		It("clamps accumulated differences", func() {
			v := l.value(4, 0)
			n := l.add(10, &me.DiffClampConfig{Input: 4, Min: 0, Max: 10}).(me.Scalar)
			for _, step := range []struct{ in, exp float64 }{
				{5, 5}, {20, 10}, {15, 5}, {-10, 0}, {-5, 5},
			} {
				v.SetValue(step.in)
				MustBeSuccessful(n.Update(l))
				Expect(n.Value()).To(Equal(step.exp), "input %g", step.in)
			}
		})
	})

	Context("interpolation", func() {
		var in *me.ValueNode

		BeforeEach(func() {
			in = l.value(1, 0)
		})

		It("maps through the ranges", func() {
			n := l.add(2, &me.InterpolationConfig{InputRange: []float64{0, 1}, OutputRange: []float64{0, 100}, ExtrapolateRight: me.ExtrapolateClamp}, 1).(me.Scalar)
			for _, c := range []struct{ in, out float64 }{{0, 0}, {0.5, 50}, {1, 100}, {2, 100}, {-1, -100}} {
				in.SetValue(c.in)
				MustBeSuccessful(n.Update(l))
				Expect(n.Value()).To(Equal(c.out), "input %g", c.in)
			}
		})

		It("handles multiple segments and identity extrapolation", func() {
			n := l.add(2, &me.InterpolationConfig{
				InputRange:       []float64{0, 10, 20},
				OutputRange:      []float64{0, 1, 0},
				ExtrapolateLeft:  me.ExtrapolateIdentity,
				ExtrapolateRight: me.ExtrapolateIdentity,
			}, 1).(me.Scalar)
			for _, c := range []struct{ in, out float64 }{{5, 0.5}, {10, 1}, {15, 0.5}, {-3, -3}, {30, 30}} {
				in.SetValue(c.in)
				MustBeSuccessful(n.Update(l))
				Expect(n.Value()).To(BeNumerically("~", c.out, 1e-12), "input %g", c.in)
			}
		})

		It("interpolates colors", func() {
			n := l.add(2, &me.InterpolationConfig{
				InputRange:   []float64{0, 1},
				OutputColors: []uint32{0xff0000ff, 0x0000ffff},
				OutputType:   me.OutputColor,
			}, 1)
			Expect(n.Output()).To(Equal(uint32(0xff0000ff)))
			in.SetValue(0.5)
			MustBeSuccessful(n.Update(l))
			Expect(n.Output()).To(Equal(uint32(0x800080ff)))
		})

		It("ignores missing parents", func() {
			n := l.add(2, &me.InterpolationConfig{InputRange: []float64{0, 1}, OutputRange: []float64{5, 6}}).(me.Scalar)
			MustBeSuccessful(n.Update(l))
			Expect(n.Value()).To(Equal(0.0))
		})
	})

	Context("records", func() {
		It("keeps the last good value for invalid inputs", func() {
			l.value(1, 6)
			z := l.value(2, 0)
			l.add(3, me.NewOperatorConfig(me.KindDivision, 1, 2))
			p := l.add(4, &me.PropsConfig{Props: map[string]common.Tag{"opacity": 3}}).(*me.PropsNode)

			z.SetValue(3)
			MustBeSuccessful(l.nodes[3].Update(l))
			MustBeSuccessful(p.Update(l))
			Expect(p.Output()).To(Equal(common.Props{"opacity": 2.0}))

			z.SetValue(0)
			Expect(l.nodes[3].Update(l)).To(MatchError(common.ErrArithmetic))
			MustBeSuccessful(p.Update(l))
			Expect(p.Output()).To(Equal(common.Props{"opacity": 2.0}))
		})

		It("merges styles and transforms", func() {
			l.value(1, 10)
			l.value(2, math.Pi)
			l.add(3, &me.TransformConfig{Transforms: []me.TransformEntry{
				{Type: me.TransformAnimated, Property: "translateX", NodeTag: 1},
				{Type: me.TransformAnimated, Property: "rotate", NodeTag: 2, Unit: me.UnitRad},
				{Type: me.TransformStatic, Property: "scale", Value: 2},
			}})
			l.value(5, 1)
			l.add(6, &me.ColorConfig{R: 5, G: 5, B: 5, A: 5})
			s := l.add(7, &me.StyleConfig{Style: map[string]common.Tag{"transform": 3, "backgroundColor": 6}})
			p := l.add(8, &me.PropsConfig{Props: map[string]common.Tag{"style": 7, "opacity": 5}})
			for _, t := range []common.Tag{3, 6, 7, 8} {
				MustBeSuccessful(l.nodes[t].Update(l))
			}
			Expect(s.Output()).To(HaveKey("transform"))
			Expect(p.Output()).To(Equal(common.Props{
				"opacity":         1.0,
				"backgroundColor": uint32(0x010101ff),
				"transform": []map[string]any{
					{"translateX": 10.0},
					{"rotate": "3.141592653589793rad"},
					{"scale": 2.0},
				},
			}))
		})

		It("restores defaults for all emitted properties", func() {
			l.value(1, 0.5)
			p := l.add(2, &me.PropsConfig{Props: map[string]common.Tag{"opacity": 1}}).(*me.PropsNode)
			Expect(p.RestoreDefaults()).To(BeNil())
			MustBeSuccessful(p.Update(l))
			Expect(p.RestoreDefaults()).To(Equal(common.Props{"opacity": nil}))
			Expect(p.Output()).To(Equal(common.Props{}))
		})

		It("manages views", func() {
			l.value(1, 0.5)
			p := l.add(2, &me.PropsConfig{Props: map[string]common.Tag{"opacity": 1}}).(*me.PropsNode)
			p.ConnectView(20, "b")
			p.ConnectView(10, "a")
			Expect(p.Views()).To(Equal([]common.ViewTag{10, 20}))
			Expect(p.ViewName(20)).To(Equal("b"))
			Expect(p.DisconnectView(10)).To(BeTrue())
			Expect(p.DisconnectView(10)).To(BeFalse())
			Expect(p.Views()).To(Equal([]common.ViewTag{20}))
		})
	})

	Context("color", func() {
		It("packs and clamps channels", func() {
			Expect(me.PackColor(255, 128, 0, 1)).To(Equal(uint32(0xff8000ff)))
			Expect(me.PackColor(300, -5, 0, 0.5)).To(Equal(uint32(0xff000080)))
			r, g, b, a := me.UnpackColor(0xff800080)
			Expect([]float64{r, g, b}).To(Equal([]float64{255, 128, 0}))
			Expect(a).To(BeNumerically("~", 0.5, 0.01))
		})
	})

	Context("tracking", func() {
		It("requests an animation when the target value changes", func() {
			to := l.value(1, 5)
			l.value(2, 0)
			n := l.add(3, &me.TrackingConfig{
				AnimationID:     9,
				ToValue:         1,
				Value:           2,
				AnimationConfig: drivers.Spec{Config: &drivers.TimingConfig{Duration: 100}},
			}).(*me.TrackingNode)

			MustBeSuccessful(n.Update(l))
			a, ok := n.Triggered()
			Expect(ok).To(BeTrue())
			Expect(a).To(Equal(me.Animation{ID: 9, Target: 2, Config: &drivers.TimingConfig{Duration: 100, ToValue: 5}}))
			_, ok = n.Triggered()
			Expect(ok).To(BeFalse())

			MustBeSuccessful(n.Update(l))
			_, ok = n.Triggered()
			Expect(ok).To(BeFalse())

			to.SetValue(8)
			MustBeSuccessful(n.Update(l))
			a, ok = n.Triggered()
			Expect(ok).To(BeTrue())
			Expect(a.Config.(drivers.TargetConfig).GetToValue()).To(Equal(8.0))
		})
	})
})
