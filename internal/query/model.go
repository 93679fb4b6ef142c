package query

import "github.com/rebeliceyang/docfilter/internal/models"

// Model holds the custom-field query being edited. In practice it has at
// most one top-level expression, the root.
type Model struct {
	queries []*Expression
	unsubs  []func()
	events  notifier
}

// NewModel creates an empty query model
func NewModel() *Model {
	return &Model{}
}

// Queries returns the top-level expressions
func (m *Model) Queries() []*Expression {
	return append([]*Expression(nil), m.queries...)
}

// Root returns the first top-level expression, nil when there is none
func (m *Model) Root() *Expression {
	if len(m.queries) == 0 {
		return nil
	}
	return m.queries[0]
}

// AddExpression makes expression the root when the model is empty, and
// otherwise appends it to the root. Ceilings apply as in Expression.AddExpression.
func (m *Model) AddExpression(expression *Expression) bool {
	if expression == nil {
		expression = NewExpression(models.QueryOr)
	}
	if root := m.Root(); root != nil {
		return root.AddExpression(expression)
	}
	if expression.parent != nil || expressionHeight(expression) >= MaxDepth || countAtoms(expression) > MaxAtoms {
		return false
	}

	expression.attach(nil, 0)
	m.queries = append(m.queries, expression)
	m.unsubs = append(m.unsubs, expression.Subscribe(m.events.emit))
	m.events.emit(ChangeStructure)
	return true
}

// AddAtom appends an atom to the root, creating an AND root when the model is empty
func (m *Model) AddAtom(atom *Atom) bool {
	if m.Root() == nil {
		restore := m.events.mute()
		m.AddExpression(NewExpression(models.QueryAnd))
		restore()
	}
	return m.Root().AddAtom(atom)
}

// Load replaces the content of the model with expression without firing
// an event for the intermediate empty state.
func (m *Model) Load(expression *Expression) bool {
	restore := m.events.mute()
	m.reset()
	restore()
	return m.AddExpression(expression)
}

// RemoveElement finds node anywhere in the tree and removes it. When the
// model ends up empty it is cleared completely. Absent nodes are ignored.
func (m *Model) RemoveElement(node Node) bool {
	if node == nil {
		return false
	}

	removed := false
	for i, root := range m.queries {
		if Node(root) == node {
			m.unsubs[i]()
			m.queries = append(m.queries[:i:i], m.queries[i+1:]...)
			m.unsubs = append(m.unsubs[:i:i], m.unsubs[i+1:]...)
			root.events.close()
			removed = true
			break
		}
		if holder := root.find(node); holder != nil {
			removed = holder.removeChild(node)
			break
		}
	}
	if !removed {
		return false
	}

	if m.IsEmpty() {
		m.reset()
	}
	m.events.emit(ChangeStructure)
	return true
}

// Clear drops every expression
func (m *Model) Clear() {
	m.reset()
	m.events.emit(ChangeStructure)
}

func (m *Model) reset() {
	for i, root := range m.queries {
		m.unsubs[i]()
		root.events.close()
	}
	m.queries = nil
	m.unsubs = nil
}

// IsEmpty reports whether there is no expression, or the single one has no children
func (m *Model) IsEmpty() bool {
	return len(m.queries) == 0 || (len(m.queries) == 1 && len(m.queries[0].children) == 0)
}

// IsValid reports whether the root expression and everything below it is valid
func (m *Model) IsValid() bool {
	root := m.Root()
	return root != nil && root.IsValid()
}

// AtomCount returns the number of atoms in the model
func (m *Model) AtomCount() int {
	total := 0
	for _, q := range m.queries {
		total += countAtoms(q)
	}
	return total
}

// CanAddAtom reports whether one more atom fits under MaxAtoms
func (m *Model) CanAddAtom() bool {
	return m.AtomCount() < MaxAtoms
}

// Serialize returns the root's wire form, nil when the model is empty
func (m *Model) Serialize() []any {
	if m.IsEmpty() {
		return nil
	}
	return m.Root().Serialize()
}

// Subscribe registers a listener for changes anywhere in the model
func (m *Model) Subscribe(fn func(ChangeKind)) func() {
	return m.events.subscribe(fn)
}

// Mute suppresses change events until the returned function is called
func (m *Model) Mute() func() {
	return m.events.mute()
}

// Close drops all listeners; a closed model never emits again
func (m *Model) Close() {
	m.events.close()
}
