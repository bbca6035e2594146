package graph_test

import (
	"math/rand"
	"slices"

	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-test/deep"

	"github.com/mandelsoft/animated/pkg/common"
	me "github.com/mandelsoft/animated/pkg/graph"
	"github.com/mandelsoft/animated/pkg/nodes"
)

func value(tag common.Tag) nodes.Node {
	return Must(nodes.New(tag, &nodes.ValueConfig{}))
}

func newGraph(tags ...common.Tag) *me.Graph {
	g := me.New()
	for _, t := range tags {
		MustBeSuccessful(g.Add(value(t)))
	}
	return g
}

func reachability(g *me.Graph) map[common.Tag][]common.Tag {
	r := map[common.Tag][]common.Tag{}
	for _, t := range g.Tags() {
		tags := g.Reachable(t).UnsortedList()
		slices.Sort(tags)
		r[t] = tags
	}
	return r
}

var _ = Describe("graph", func() {
	Context("structure", func() {
		It("rejects duplicate tags", func() {
			g := newGraph(1)
			Expect(g.Add(value(1))).To(MatchError(common.ErrDuplicateTag))
			Expect(g.Len()).To(Equal(1))
		})

		It("connects nodes", func() {
			g := newGraph(1, 2, 3)
			Expect(Must(g.Connect(1, 2))).To(BeTrue())
			Expect(Must(g.Connect(1, 2))).To(BeFalse())
			Expect(Must(g.Connect(1, 3))).To(BeTrue())
			Expect(g.Children(1)).To(Equal([]common.Tag{2, 3}))
			Expect(g.Parents(2)).To(Equal([]common.Tag{1}))
			MustBeSuccessful(g.Validate())
		})

		It("rejects unknown nodes", func() {
			g := newGraph(1)
			_, err := g.Connect(1, 2)
			Expect(err).To(MatchError(common.ErrUnknownNode))
			_, err = g.Connect(2, 1)
			Expect(err).To(MatchError(common.ErrUnknownNode))
			Expect(g.Children(1)).To(BeEmpty())
		})

		It("rejects cycles", func() {
			g := newGraph(1, 2, 3)
			Must(g.Connect(1, 2))
			Must(g.Connect(2, 3))
			_, err := g.Connect(3, 1)
			Expect(err).To(MatchError("dependency cycle 1->2->3->1"))
			Expect(err).To(MatchError(common.ErrCycle))
			_, err = g.Connect(2, 2)
			Expect(err).To(MatchError("dependency cycle 2->2"))
			Expect(g.Children(3)).To(BeEmpty())
			MustBeSuccessful(g.Validate())
		})

		It("disconnects nodes", func() {
			g := newGraph(1, 2)
			Expect(g.Disconnect(1, 2)).To(MatchError(common.ErrEdgeNotFound))
			Must(g.Connect(1, 2))
			MustBeSuccessful(g.Disconnect(1, 2))
			Expect(g.Children(1)).To(BeEmpty())
			Expect(g.Parents(2)).To(BeEmpty())
		})

		It("removes only unconnected nodes", func() {
			g := newGraph(1, 2)
			Must(g.Connect(1, 2))
			_, err := g.Remove(1)
			Expect(err).To(MatchError(common.ErrNodeInUse))
			_, err = g.Remove(3)
			Expect(err).To(MatchError(common.ErrUnknownNode))
			MustBeSuccessful(g.Disconnect(1, 2))
			n := Must(g.Remove(1))
			Expect(n.Tag()).To(Equal(common.Tag(1)))
			Expect(g.Tags()).To(Equal([]common.Tag{2}))
		})
	})

	Context("properties", func() {
		It("restores reachability after connect and disconnect", func() {
			g := newGraph(1, 2, 3, 4, 5)
			Must(g.Connect(1, 2))
			Must(g.Connect(2, 3))
			Must(g.Connect(4, 5))
			before := reachability(g)

			for _, e := range [][2]common.Tag{{3, 4}, {1, 5}, {5, 3}} {
				Expect(Must(g.Connect(e[0], e[1]))).To(BeTrue())
				MustBeSuccessful(g.Disconnect(e[0], e[1]))
				Expect(deep.Equal(reachability(g), before)).To(BeNil())
			}
		})

		It("never creates cycles for random edge sequences", func() {
			r := rand.New(rand.NewSource(4711))
			const size = 12
			for round := 0; round < 20; round++ {
				tags := make([]common.Tag, size)
				for i := range tags {
					tags[i] = common.Tag(i + 1)
				}
				g := newGraph(tags...)
				for i := 0; i < 60; i++ {
					p := common.Tag(r.Intn(size) + 1)
					c := common.Tag(r.Intn(size) + 1)
					before := reachability(g)
					added, err := g.Connect(p, c)
					if err != nil {
						Expect(err).To(MatchError(common.ErrCycle))
						Expect(added).To(BeFalse())
						Expect(deep.Equal(reachability(g), before)).To(BeNil())
					}
					MustBeSuccessful(g.Validate())
					Expect(g.Reachable(c).Has(c)).To(BeFalse())
				}
			}
		})
	})

	Context("order", func() {
		It("orders a diamond", func() {
			g := newGraph(5, 4, 3, 2, 1)
			Must(g.Connect(5, 3))
			Must(g.Connect(4, 3))
			Must(g.Connect(3, 2))
			Must(g.Connect(5, 1))
			Must(g.Connect(1, 2))

			Expect(g.Order(5, 4)).To(Equal([]common.Tag{5, 4, 3, 1, 2}))
			Expect(g.Order(4)).To(Equal([]common.Tag{4, 3, 2}))
			Expect(g.Order()).To(BeEmpty())
		})

		It("visits nodes once", func() {
			g := newGraph(1, 2, 3, 4)
			Must(g.Connect(1, 2))
			Must(g.Connect(1, 3))
			Must(g.Connect(2, 4))
			Must(g.Connect(3, 4))
			order := g.Order(1, 2, 3, 4, 1)
			Expect(order).To(Equal([]common.Tag{1, 2, 3, 4}))
			Expect(g.Dirty(2).UnsortedList()).To(ConsistOf(common.Tag(2), common.Tag(4)))
		})
	})
})
