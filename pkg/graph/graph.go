// Package graph provides the node table of an animated graph.
//
// Nodes are kept in a flat table keyed by their tag. Edges are held
// as ordered tag lists on both ends, the parent and child relations
// are always mutual inverses. The graph is kept acyclic: a connect
// closing a cycle is rejected without modifying the graph.
package graph

import (
	"fmt"
	"slices"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/animated/pkg/common"
	"github.com/mandelsoft/animated/pkg/nodes"
)

type entry struct {
	node     nodes.Node
	seq      uint64
	parents  []common.Tag
	children []common.Tag
}

// Graph is the node table. It is not synchronized.
type Graph struct {
	entries map[common.Tag]*entry
	seq     uint64
}

var _ nodes.Lookup = (*Graph)(nil)

func New() *Graph {
	return &Graph{entries: map[common.Tag]*entry{}}
}

// Add registers a node under its tag.
func (g *Graph) Add(n nodes.Node) error {
	if _, ok := g.entries[n.Tag()]; ok {
		return &common.DuplicateTagError{Tag: n.Tag()}
	}
	g.seq++
	g.entries[n.Tag()] = &entry{node: n, seq: g.seq}
	log.Trace("added {{node}}", "node", nodes.Describe(n))
	return nil
}

// Get provides the node for a tag or nil.
func (g *Graph) Get(tag common.Tag) nodes.Node {
	e := g.entries[tag]
	if e == nil {
		return nil
	}
	return e.node
}

func (g *Graph) Has(tag common.Tag) bool {
	return g.entries[tag] != nil
}

func (g *Graph) Len() int {
	return len(g.entries)
}

// Tags provides all tags in creation order.
func (g *Graph) Tags() []common.Tag {
	tags := make([]common.Tag, 0, len(g.entries))
	for t := range g.entries {
		tags = append(tags, t)
	}
	g.sortByCreation(tags)
	return tags
}

func (g *Graph) Parents(tag common.Tag) []common.Tag {
	e := g.entries[tag]
	if e == nil {
		return nil
	}
	return slices.Clone(e.parents)
}

func (g *Graph) Children(tag common.Tag) []common.Tag {
	e := g.entries[tag]
	if e == nil {
		return nil
	}
	return slices.Clone(e.children)
}

// Connect adds an edge from parent to child. It reports whether the
// edge has been added, an already existing edge is kept.
func (g *Graph) Connect(parent, child common.Tag) (bool, error) {
	p, c, err := g.lookup(parent, child)
	if err != nil {
		return false, err
	}
	if slices.Contains(p.children, child) {
		return false, nil
	}
	if path := g.path(child, parent); path != nil {
		return false, &common.CycleError{Parent: parent, Child: child, Path: path}
	}
	p.children = append(p.children, child)
	c.parents = append(c.parents, parent)
	log.Trace("connected {{parent}} -> {{child}}", "parent", parent, "child", child)
	return true, nil
}

// Disconnect removes the edge from parent to child.
func (g *Graph) Disconnect(parent, child common.Tag) error {
	p, c, err := g.lookup(parent, child)
	if err != nil {
		return err
	}
	if !slices.Contains(p.children, child) {
		return &common.EdgeNotFoundError{Parent: parent, Child: child}
	}
	p.children = slices.DeleteFunc(p.children, func(t common.Tag) bool { return t == child })
	c.parents = slices.DeleteFunc(c.parents, func(t common.Tag) bool { return t == parent })
	log.Trace("disconnected {{parent}} -> {{child}}", "parent", parent, "child", child)
	return nil
}

// Remove removes a node without remaining edges.
func (g *Graph) Remove(tag common.Tag) (nodes.Node, error) {
	e := g.entries[tag]
	if e == nil {
		return nil, &common.UnknownNodeError{Tag: tag}
	}
	if len(e.parents) > 0 || len(e.children) > 0 {
		return nil, &common.NodeInUseError{Tag: tag, Parents: len(e.parents), Children: len(e.children)}
	}
	delete(g.entries, tag)
	log.Trace("removed {{node}}", "node", nodes.Describe(e.node))
	return e.node, nil
}

// Reachable provides the transitive descendants of a node.
func (g *Graph) Reachable(tag common.Tag) sets.Set[common.Tag] {
	found := sets.New[common.Tag]()
	g.closure(found, g.Children(tag)...)
	return found
}

func (g *Graph) closure(found sets.Set[common.Tag], tags ...common.Tag) {
	for _, t := range tags {
		if found.Has(t) || g.entries[t] == nil {
			continue
		}
		found.Insert(t)
		g.closure(found, g.entries[t].children...)
	}
}

func (g *Graph) lookup(parent, child common.Tag) (*entry, *entry, error) {
	p := g.entries[parent]
	if p == nil {
		return nil, nil, &common.UnknownNodeError{Tag: parent}
	}
	c := g.entries[child]
	if c == nil {
		return nil, nil, &common.UnknownNodeError{Tag: child}
	}
	return p, c, nil
}

// path provides a child path from one node to another, or nil.
func (g *Graph) path(from, to common.Tag) []common.Tag {
	visited := sets.New[common.Tag]()
	var walk func(t common.Tag, path []common.Tag) []common.Tag
	walk = func(t common.Tag, path []common.Tag) []common.Tag {
		path = append(path, t)
		if t == to {
			return path
		}
		if visited.Has(t) {
			return nil
		}
		visited.Insert(t)
		for _, c := range g.entries[t].children {
			if r := walk(c, path); r != nil {
				return r
			}
		}
		return nil
	}
	return walk(from, nil)
}

func (g *Graph) sortByCreation(tags []common.Tag) {
	slices.SortFunc(tags, func(a, b common.Tag) int {
		sa, sb := g.entries[a].seq, g.entries[b].seq
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	})
}

// Validate checks the mutual inverse relation of parents and children
// and the absence of cycles.
func (g *Graph) Validate() error {
	for _, t := range g.Tags() {
		e := g.entries[t]
		for _, c := range e.children {
			ce := g.entries[c]
			if ce == nil {
				return fmt.Errorf("node %s: child %s: %w", t, c, &common.UnknownNodeError{Tag: c})
			}
			if !slices.Contains(ce.parents, t) {
				return fmt.Errorf("node %s: child %s does not list it as parent", t, c)
			}
		}
		for _, p := range e.parents {
			pe := g.entries[p]
			if pe == nil {
				return fmt.Errorf("node %s: parent %s: %w", t, p, &common.UnknownNodeError{Tag: p})
			}
			if !slices.Contains(pe.children, t) {
				return fmt.Errorf("node %s: parent %s does not list it as child", t, p)
			}
		}
	}
	return g.checkCycles()
}

const (
	white = iota
	grey
	black
)

func (g *Graph) checkCycles() error {
	color := map[common.Tag]int{}
	var visit func(t common.Tag, path []common.Tag) error
	visit = func(t common.Tag, path []common.Tag) error {
		switch color[t] {
		case grey:
			i := slices.Index(path, t)
			return &common.CycleError{Parent: path[len(path)-1], Child: t, Path: slices.Clone(path[i:])}
		case black:
			return nil
		}
		color[t] = grey
		path = append(path, t)
		for _, c := range g.entries[t].children {
			if err := visit(c, path); err != nil {
				return err
			}
		}
		color[t] = black
		return nil
	}
	for _, t := range g.Tags() {
		if err := visit(t, nil); err != nil {
			return err
		}
	}
	return nil
}
