// Package query implements the custom-field query tree: atoms and
// AND/OR/NOT expressions, their wire format and the query model used by the
// filter editor.
package query

import (
	"strconv"

	"github.com/rebeliceyang/docfilter/internal/models"
)

const (
	// MaxDepth is the deepest level any node may sit at (root expression = 0)
	MaxDepth = 4
	// MaxAtoms is the maximum number of atoms in one tree
	MaxAtoms = 5
)

// ChangeKind tells listeners what kind of edit caused a change event
type ChangeKind int

const (
	// ChangeStructure covers added/removed nodes and field or operator edits
	ChangeStructure ChangeKind = iota
	// ChangeValue is an edit of an atom value, typically typed by a user
	ChangeValue
)

// Node is either an *Atom or an *Expression
type Node interface {
	ID() string
	Depth() int
	Parent() *Expression
	Serialize() []any
	IsValid() bool

	attach(parent *Expression, depth int)
	notifier() *notifier
}

type listenerEntry struct {
	id int
	fn func(ChangeKind)
}

// notifier is a synchronous listener list shared by all node types
type notifier struct {
	listeners []listenerEntry
	nextID    int
	muted     int
	closed    bool
}

func (n *notifier) subscribe(fn func(ChangeKind)) func() {
	if n.closed {
		return func() {}
	}
	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		for i, l := range n.listeners {
			if l.id == id {
				n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
				return
			}
		}
	}
}

func (n *notifier) emit(kind ChangeKind) {
	if n.closed || n.muted > 0 {
		return
	}
	listeners := append([]listenerEntry(nil), n.listeners...)
	for _, l := range listeners {
		l.fn(kind)
	}
}

func (n *notifier) mute() func() {
	n.muted++
	done := false
	return func() {
		if !done {
			done = true
			n.muted--
		}
	}
}

func (n *notifier) close() {
	n.closed = true
	n.listeners = nil
}

// countAtoms returns the number of atoms in the subtree rooted at node
func countAtoms(node Node) int {
	switch n := node.(type) {
	case *Atom:
		return 1
	case *Expression:
		total := 0
		for _, child := range n.children {
			total += countAtoms(child)
		}
		return total
	}
	return 0
}

// expressionHeight is the number of expression levels below e
func expressionHeight(e *Expression) int {
	height := 0
	for _, child := range e.children {
		if sub, ok := child.(*Expression); ok {
			height = max(height, expressionHeight(sub)+1)
		}
	}
	return height
}

// valueKindOf classifies a held value
func valueKindOf(value any) (models.QueryValueKind, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case []any:
		return models.QueryValueList, true
	case bool:
		return models.QueryValueBoolean, true
	case string:
		if v == "true" || v == "false" {
			return models.QueryValueBoolean, true
		}
		return models.QueryValueString, true
	case Number:
		return models.QueryValueNumber, true
	}
	return models.QueryValueString, true
}

// fitsKind reports whether value is a valid representation of kind. A nil
// value fits every kind.
func fitsKind(value any, kind models.QueryValueKind) bool {
	switch v := value.(type) {
	case nil:
		return true
	case []any:
		return kind == models.QueryValueList
	case bool:
		return kind == models.QueryValueBoolean
	case Number:
		return kind == models.QueryValueNumber
	case string:
		switch kind {
		case models.QueryValueString:
			return true
		case models.QueryValueBoolean:
			return v == "true" || v == "false"
		case models.QueryValueNumber:
			_, err := strconv.ParseFloat(v, 64)
			return err == nil
		}
	}
	return false
}
