package graph

import (
	"github.com/mandelsoft/animated/pkg/common"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Dirty provides the given seeds together with all their descendants.
// Every node is visited once.
func (g *Graph) Dirty(seeds ...common.Tag) sets.Set[common.Tag] {
	dirty := sets.New[common.Tag]()
	g.closure(dirty, seeds...)
	return dirty
}

// Order provides the evaluation order for the dirty closure of the
// given seeds. A node is placed after all of its dirty parents, ties
// are broken by creation order.
func (g *Graph) Order(seeds ...common.Tag) []common.Tag {
	dirty := g.Dirty(seeds...)
	if dirty.Len() == 0 {
		return nil
	}

	pending := map[common.Tag]int{}
	var ready []common.Tag
	for t := range dirty {
		n := 0
		for _, p := range g.entries[t].parents {
			if dirty.Has(p) {
				n++
			}
		}
		pending[t] = n
		if n == 0 {
			ready = append(ready, t)
		}
	}

	order := make([]common.Tag, 0, dirty.Len())
	for len(ready) > 0 {
		g.sortByCreation(ready)
		t := ready[0]
		ready = ready[1:]
		order = append(order, t)
		for _, c := range g.entries[t].children {
			if !dirty.Has(c) {
				continue
			}
			pending[c]--
			if pending[c] == 0 {
				ready = append(ready, c)
			}
		}
	}
	if len(order) != dirty.Len() {
		// unreachable for an acyclic graph
		log.Error("incomplete evaluation order", "dirty", dirty.Len(), "ordered", len(order))
	}
	return order
}
