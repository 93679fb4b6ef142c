package query

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/rebeliceyang/docfilter/internal/models"
)

// Number is a JSON number kept in its literal form
type Number = gojson.Number

// ErrInvalidWire is returned for values that are neither an atom triple nor an expression tuple
var ErrInvalidWire = errors.New("invalid custom field query")

// Marshal encodes a serialized node the way JSON.stringify does: compact,
// no HTML escaping.
func Marshal(serialized []any) (string, error) {
	var buf bytes.Buffer
	enc := gojson.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(serialized); err != nil {
		return "", fmt.Errorf("failed to encode query: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Unmarshal decodes a wire string keeping numbers as Number
func Unmarshal(data string) ([]any, error) {
	dec := gojson.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWire, err)
	}
	tuple, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: not an array", ErrInvalidWire)
	}
	return tuple, nil
}

// Parse decodes a custom-field query rule value. A bare atom triple is
// wrapped into an AND expression so the result is always a root expression.
// Nodes beyond MaxDepth or MaxAtoms are dropped.
func Parse(data string) (*Expression, error) {
	root, _, err := ParseWithDropped(data)
	return root, err
}

// ParseWithDropped is Parse that also reports how many children were
// dropped at the depth and atom ceilings. A dropped subtree counts once.
func ParseWithDropped(data string) (*Expression, int, error) {
	tuple, err := Unmarshal(data)
	if err != nil {
		return nil, 0, err
	}

	switch len(tuple) {
	case 3:
		root := NewExpression(models.QueryAnd)
		root.AddAtom(AtomFromTuple(tuple))
		return root, 0, nil
	case 2:
		b := &treeBuilder{}
		root := b.expression(tuple, 0)
		return root, b.dropped, nil
	default:
		return nil, 0, fmt.Errorf("%w: expected 2 or 3 elements, got %d", ErrInvalidWire, len(tuple))
	}
}

// AtomFromTuple builds an atom from [field, operator, value]. Unparseable
// parts fall back to "unset".
func AtomFromTuple(tuple []any) *Atom {
	var field int
	var operator models.QueryOperator
	var value any
	if len(tuple) > 0 {
		field = parseField(tuple[0])
	}
	if len(tuple) > 1 {
		if s, ok := tuple[1].(string); ok {
			operator = models.QueryOperator(s)
		}
	}
	if len(tuple) > 2 {
		value = tuple[2]
	}
	return NewAtom(field, operator, value)
}

type treeBuilder struct {
	atoms   int
	dropped int
}

func (b *treeBuilder) expression(tuple []any, depth int) *Expression {
	var operator models.QueryLogicalOperator
	var children any
	if len(tuple) > 0 {
		if s, ok := tuple[0].(string); ok {
			operator = models.QueryLogicalOperator(s)
		}
	}
	if len(tuple) > 1 {
		children = tuple[1]
	}

	e := NewExpression(operator)
	e.depth = depth

	list, ok := children.([]any)
	if !ok || len(list) == 0 {
		return e
	}

	if _, nested := list[0].([]any); !nested {
		// a single child stored unwrapped, as under NOT
		b.child(e, list)
		return e
	}
	for _, entry := range list {
		if child, ok := entry.([]any); ok {
			b.child(e, child)
		}
	}
	return e
}

func (b *treeBuilder) child(parent *Expression, tuple []any) {
	if len(tuple) == 3 {
		if b.atoms >= MaxAtoms || parent.depth+1 > MaxDepth {
			b.dropped++
			return
		}
		b.atoms++
		parent.appendChild(AtomFromTuple(tuple))
		return
	}
	if parent.depth+1 >= MaxDepth {
		b.dropped++
		return
	}
	parent.appendChild(b.expression(tuple, parent.depth+1))
}

func parseField(v any) int {
	switch f := v.(type) {
	case Number:
		n, err := strconv.Atoi(f.String())
		if err == nil {
			return n
		}
	case string:
		n, err := strconv.Atoi(f)
		if err == nil {
			return n
		}
	case float64:
		return int(f)
	}
	return 0
}
