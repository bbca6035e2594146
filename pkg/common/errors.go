package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateTag  = errors.New("duplicate tag")
	ErrUnknownNode   = errors.New("unknown node")
	ErrInvalidConfig = errors.New("invalid config")
	ErrCycle         = errors.New("dependency cycle")
	ErrEdgeNotFound  = errors.New("edge not found")
	ErrNodeInUse     = errors.New("node in use")
	ErrArithmetic    = errors.New("arithmetic error")
	ErrEventPath     = errors.New("invalid event path")
)

// DuplicateTagError is returned when a node is created for a tag
// already in use.
type DuplicateTagError struct {
	Tag Tag
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("node %s already exists", e.Tag)
}

func (e *DuplicateTagError) Unwrap() error {
	return ErrDuplicateTag
}

// UnknownNodeError is returned for operations on absent nodes.
type UnknownNodeError struct {
	Tag Tag
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("node %s not found", e.Tag)
}

func (e *UnknownNodeError) Unwrap() error {
	return ErrUnknownNode
}

// InvalidConfigError describes a missing or malformed configuration field
// of a node or driver configuration.
type InvalidConfigError struct {
	Kind    string
	Field   string
	Message string
}

func NewInvalidConfigError(kind, field, msg string, args ...any) *InvalidConfigError {
	return &InvalidConfigError{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(msg, args...),
	}
}

func (e *InvalidConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s config: field %q: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s config: %s", e.Kind, e.Message)
}

func (e *InvalidConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// CycleError is returned by a connect that would close a cycle.
// Path lists the existing route from the child back to the parent.
type CycleError struct {
	Parent Tag
	Child  Tag
	Path   []Tag
}

func (e *CycleError) Error() string {
	path := make([]string, 0, len(e.Path)+1)
	for _, t := range e.Path {
		path = append(path, t.String())
	}
	path = append(path, e.Child.String())
	return fmt.Sprintf("dependency cycle %s", strings.Join(path, "->"))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// EdgeNotFoundError is returned when disconnecting an absent edge.
type EdgeNotFoundError struct {
	Parent Tag
	Child  Tag
}

func (e *EdgeNotFoundError) Error() string {
	return fmt.Sprintf("no edge from node %s to node %s", e.Parent, e.Child)
}

func (e *EdgeNotFoundError) Unwrap() error {
	return ErrEdgeNotFound
}

// NodeInUseError is returned when dropping a node with remaining edges.
type NodeInUseError struct {
	Tag      Tag
	Parents  int
	Children int
}

func (e *NodeInUseError) Error() string {
	return fmt.Sprintf("node %s still has %d parent and %d child edges", e.Tag, e.Parents, e.Children)
}

func (e *NodeInUseError) Unwrap() error {
	return ErrNodeInUse
}

// ArithmeticError reports an evaluation that produced the invalid marker.
type ArithmeticError struct {
	Tag     Tag
	Kind    string
	Message string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("%s node %s: %s", e.Kind, e.Tag, e.Message)
}

func (e *ArithmeticError) Unwrap() error {
	return ErrArithmetic
}

// EventPathError reports an event payload path that is absent or does
// not denote a number.
type EventPathError struct {
	Path    string
	Message string
}

func (e *EventPathError) Error() string {
	return fmt.Sprintf("event path %q: %s", e.Path, e.Message)
}

func (e *EventPathError) Unwrap() error {
	return ErrEventPath
}
