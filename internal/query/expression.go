package query

import (
	"slices"

	"github.com/google/uuid"

	"github.com/rebeliceyang/docfilter/internal/models"
)

// Expression combines child atoms and expressions with AND, OR or NOT
type Expression struct {
	id       string
	depth    int
	parent   *Expression
	operator models.QueryLogicalOperator
	children []Node
	unsubs   map[string]func()
	events   notifier
}

// NewExpression creates an empty expression
func NewExpression(operator models.QueryLogicalOperator) *Expression {
	return &Expression{
		id:       uuid.NewString(),
		operator: operator,
		unsubs:   make(map[string]func()),
	}
}

// ID returns the node's generated id
func (e *Expression) ID() string { return e.id }

// Depth returns the node's level in its tree
func (e *Expression) Depth() int { return e.depth }

// Parent returns the enclosing expression, nil for a root
func (e *Expression) Parent() *Expression { return e.parent }

func (e *Expression) attach(parent *Expression, depth int) {
	e.parent = parent
	e.depth = depth
	for _, child := range e.children {
		child.attach(e, depth+1)
	}
}

func (e *Expression) notifier() *notifier { return &e.events }

// Operator returns the logical operator
func (e *Expression) Operator() models.QueryLogicalOperator { return e.operator }

// SetOperator changes the logical operator
func (e *Expression) SetOperator(operator models.QueryLogicalOperator) {
	if e.operator == operator {
		return
	}
	e.operator = operator
	e.events.emit(ChangeStructure)
}

// Children returns a copy of the child list
func (e *Expression) Children() []Node {
	return slices.Clone(e.children)
}

// Negatable reports whether the expression can sit under a NOT: exactly one
// child, and that child an expression.
func (e *Expression) Negatable() bool {
	if len(e.children) != 1 {
		return false
	}
	_, ok := e.children[0].(*Expression)
	return ok
}

// Root walks up to the top of the tree
func (e *Expression) Root() *Expression {
	root := e
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// AddAtom appends an atom (the default exists=true atom when nil). It is a
// no-op returning false when the tree would exceed MaxDepth or MaxAtoms.
func (e *Expression) AddAtom(atom *Atom) bool {
	if atom == nil {
		atom = NewDefaultAtom()
	}
	if atom.parent != nil {
		return false
	}
	if e.depth+1 > MaxDepth || countAtoms(e.Root())+1 > MaxAtoms {
		return false
	}
	e.appendChild(atom)
	return true
}

// AddExpression appends an expression (an empty OR expression when nil),
// subject to the same ceilings as AddAtom.
func (e *Expression) AddExpression(expression *Expression) bool {
	if expression == nil {
		expression = NewExpression(models.QueryOr)
	}
	if expression == e || expression.parent != nil || expression.isAncestorOf(e) {
		return false
	}
	// expressions need room below them for their own atoms
	if e.depth+1+expressionHeight(expression) >= MaxDepth {
		return false
	}
	if countAtoms(e.Root())+countAtoms(expression) > MaxAtoms {
		return false
	}
	e.appendChild(expression)
	return true
}

func (e *Expression) isAncestorOf(other *Expression) bool {
	for current := other.parent; current != nil; current = current.parent {
		if current == e {
			return true
		}
	}
	return false
}

func (e *Expression) appendChild(child Node) {
	child.attach(e, e.depth+1)
	e.children = append(e.children, child)
	e.unsubs[child.ID()] = child.notifier().subscribe(func(kind ChangeKind) {
		e.events.emit(kind)
	})
	e.events.emit(ChangeStructure)
}

// removeChild detaches a direct child, closing its event stream
func (e *Expression) removeChild(child Node) bool {
	index := slices.IndexFunc(e.children, func(n Node) bool { return n == child })
	if index < 0 {
		return false
	}
	e.children = slices.Delete(e.children, index, index+1)
	if unsub, ok := e.unsubs[child.ID()]; ok {
		unsub()
		delete(e.unsubs, child.ID())
	}
	child.attach(nil, 0)
	child.notifier().close()
	return true
}

// find returns the expression directly holding node, searching depth-first
func (e *Expression) find(node Node) *Expression {
	for _, child := range e.children {
		if child == node {
			return e
		}
		if sub, ok := child.(*Expression); ok {
			if holder := sub.find(node); holder != nil {
				return holder
			}
		}
	}
	return nil
}

// Subscribe registers a listener receiving this subtree's changes
func (e *Expression) Subscribe(fn func(ChangeKind)) func() {
	return e.events.subscribe(fn)
}

// Serialize returns [operator, children]. A NOT with a single child stores
// that child unwrapped.
func (e *Expression) Serialize() []any {
	var operator any
	if e.operator != "" {
		operator = string(e.operator)
	}

	if e.operator == models.QueryNot && len(e.children) == 1 {
		return []any{operator, e.children[0].Serialize()}
	}

	children := make([]any, 0, len(e.children))
	for _, child := range e.children {
		children = append(children, child.Serialize())
	}
	return []any{operator, children}
}

// IsValid reports whether the expression has a known operator, at least one
// child, and only valid children. A NOT must wrap exactly one expression.
func (e *Expression) IsValid() bool {
	if !e.operator.Valid() || len(e.children) == 0 {
		return false
	}
	if e.operator == models.QueryNot && !e.Negatable() {
		return false
	}
	for _, child := range e.children {
		if !child.IsValid() {
			return false
		}
	}
	return true
}

// AtomCount returns the number of atoms below this expression
func (e *Expression) AtomCount() int {
	return countAtoms(e)
}
