package query

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/rebeliceyang/docfilter/internal/models"
)

// Atom is a leaf condition over one custom field
type Atom struct {
	id       string
	depth    int
	parent   *Expression
	field    int // 0 until a field is chosen
	operator models.QueryOperator
	value    any // nil, string, bool, Number or []any
	events   notifier
}

// NewAtom creates an atom. A zero field or empty operator stands for "not chosen yet".
func NewAtom(field int, operator models.QueryOperator, value any) *Atom {
	return &Atom{
		id:       uuid.NewString(),
		field:    field,
		operator: operator,
		value:    normalizeValue(value),
	}
}

// NewDefaultAtom creates the atom the editor adds by default: exists = true
func NewDefaultAtom() *Atom {
	return NewAtom(0, models.QueryOpExists, "true")
}

// ID returns the node's generated id
func (a *Atom) ID() string { return a.id }

// Depth returns the node's level in its tree
func (a *Atom) Depth() int { return a.depth }

// Parent returns the enclosing expression, nil for a detached atom
func (a *Atom) Parent() *Expression { return a.parent }

func (a *Atom) attach(parent *Expression, depth int) {
	a.parent = parent
	a.depth = depth
}

func (a *Atom) notifier() *notifier { return &a.events }

// Field returns the custom-field id, 0 when unset
func (a *Atom) Field() int { return a.field }

// SetField chooses the custom field the atom tests
func (a *Atom) SetField(field int) {
	if a.field == field {
		return
	}
	a.field = field
	a.events.emit(ChangeStructure)
}

// Operator returns the atom operator
func (a *Atom) Operator() models.QueryOperator { return a.operator }

// SetOperator records the operator and re-types the value when the new
// operator expects a different kind of value.
func (a *Atom) SetOperator(operator models.QueryOperator) {
	if a.operator == operator {
		return
	}

	newKind, known := models.QueryValueKinds[operator]
	if known {
		oldKind, ok := a.heldKind()
		if !ok || oldKind != newKind {
			a.value = retype(a.value, newKind)
		}
	}

	a.operator = operator
	a.events.emit(ChangeStructure)
}

// heldKind classifies the held value. Strings are ambiguous, so the
// operator's kind is used when the value fits it; otherwise the value's own
// shape decides.
func (a *Atom) heldKind() (models.QueryValueKind, bool) {
	if kind, ok := models.QueryValueKinds[a.operator]; ok && fitsKind(a.value, kind) {
		return kind, true
	}
	return valueKindOf(a.value)
}

// Value returns the held value: nil, string, bool, Number or []any
func (a *Atom) Value() any { return a.value }

// SetValue replaces the value. Go slices and numbers are normalized to
// their wire representation.
func (a *Atom) SetValue(value any) {
	a.value = normalizeValue(value)
	a.events.emit(ChangeValue)
}

// Subscribe registers a change listener on this atom
func (a *Atom) Subscribe(fn func(ChangeKind)) func() {
	return a.events.subscribe(fn)
}

// Serialize returns the wire triple [field, operator, value]
func (a *Atom) Serialize() []any {
	var field, operator any
	if a.field != 0 {
		field = a.field
	}
	if a.operator != "" {
		operator = string(a.operator)
	}
	return []any{field, operator, a.value}
}

// IsValid reports whether field, operator and value are all usable
func (a *Atom) IsValid() bool {
	if a.field == 0 || a.value == nil {
		return false
	}
	kind, ok := models.QueryValueKinds[a.operator]
	if !ok {
		return false
	}
	if kind != models.QueryValueList {
		return true
	}

	list, ok := a.value.([]any)
	if !ok || len(list) == 0 {
		return false
	}
	if a.operator == models.QueryOpRange {
		return len(list) == 2
	}
	return true
}

// retype converts value into the default of kind, reparsing numbers
func retype(value any, kind models.QueryValueKind) any {
	switch kind {
	case models.QueryValueList:
		if list, ok := value.([]any); ok {
			return list
		}
		return []any{}
	case models.QueryValueBoolean:
		return "true"
	case models.QueryValueNumber:
		var raw string
		switch v := value.(type) {
		case string:
			raw = v
		case Number:
			raw = v.String()
		default:
			return nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return ""
	}
}

// normalizeValue maps Go values onto the wire representation
func normalizeValue(value any) any {
	switch v := value.(type) {
	case []string:
		list := make([]any, len(v))
		for i, s := range v {
			list[i] = s
		}
		return list
	case []int:
		list := make([]any, len(v))
		for i, n := range v {
			list[i] = Number(strconv.Itoa(n))
		}
		return list
	case int:
		return Number(strconv.Itoa(v))
	case int64:
		return Number(strconv.FormatInt(v, 10))
	case float64:
		return Number(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return value
}
