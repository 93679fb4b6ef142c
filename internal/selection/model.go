package selection

import (
	"maps"

	"github.com/rebeliceyang/docfilter/internal/models"
)

// DefaultSentinelName is the display name of the two synthetic items
const DefaultSentinelName = "Not assigned"

// ChangeEvent carries the full derived selection after a mutation
type ChangeEvent struct {
	Selected        []models.Item
	Excluded        []models.Item
	LogicalOperator models.LogicalOperator
	Intersection    models.Intersection
}

// Listener receives change events synchronously
type Listener func(ChangeEvent)

// EditToken identifies an open editing session
type EditToken uint64

// selectionState is one tier of selection state
type selectionState struct {
	items           map[models.ItemID]models.ToggleableItemState
	logicalOperator models.LogicalOperator
	intersection    models.Intersection
}

func newSelectionState() selectionState {
	return selectionState{
		items:           make(map[models.ItemID]models.ToggleableItemState),
		logicalOperator: models.LogicalAnd,
		intersection:    models.IntersectionInclude,
	}
}

func (s selectionState) clone() selectionState {
	c := s
	c.items = maps.Clone(s.items)
	return c
}

func (s selectionState) equal(other selectionState) bool {
	return s.logicalOperator == other.logicalOperator &&
		s.intersection == other.intersection &&
		maps.Equal(s.items, other.items)
}

type listenerEntry struct {
	id int
	fn Listener
}

// Model is a tri-state (plus excluded) selection over a flat item list
// whose items may form a hierarchy through their parent ids.
type Model struct {
	manyToOne            bool
	documentCountSorting bool
	sentinelName         string

	items          []models.Item // source order, no sentinels
	view           []models.Item // sorted, both sentinels at the head
	documentCounts map[models.ItemID]int

	committed selectionState
	baseline  selectionState

	// editing session; temporary is nil until the first write
	token     EditToken
	editing   bool
	temporary *selectionState

	listeners []listenerEntry
	nextID    int
	muted     int
	closed    bool
}

// Option configures a Model
type Option func(*Model)

// WithDocumentCountSorting re-sorts the item list whenever document counts are assigned
func WithDocumentCountSorting(enabled bool) Option {
	return func(m *Model) {
		m.documentCountSorting = enabled
	}
}

// WithSentinelName sets the display name of the "unassigned" items
func WithSentinelName(name string) Option {
	return func(m *Model) {
		m.sentinelName = name
	}
}

// New creates a selection model. When manyToOne is false the model is single-select.
func New(manyToOne bool, opts ...Option) *Model {
	m := &Model{
		manyToOne:      manyToOne,
		sentinelName:   DefaultSentinelName,
		documentCounts: make(map[models.ItemID]int),
		committed:      newSelectionState(),
		baseline:       newSelectionState(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.view = m.sortedItems()
	return m
}

// ManyToOne reports whether several items may be selected at once
func (m *Model) ManyToOne() bool {
	return m.manyToOne
}

// SingleSelect reports whether selecting an item clears the previous selection
func (m *Model) SingleSelect() bool {
	return !m.manyToOne
}

// SetItems replaces the item set and re-derives the sorted view
func (m *Model) SetItems(items []models.Item) {
	m.items = make([]models.Item, 0, len(items))
	for _, item := range items {
		if item.ID.IsSentinel() {
			continue
		}
		m.items = append(m.items, item)
	}
	m.view = m.sortedItems()
}

// Items returns the sorted item list with the sentinel matching the current intersection
func (m *Model) Items() []models.Item {
	hidden := models.NegativeNullID
	if m.current().intersection == models.IntersectionExclude {
		hidden = models.NullID
	}

	items := make([]models.Item, 0, len(m.view))
	for _, item := range m.view {
		if item.ID != hidden {
			items = append(items, item)
		}
	}
	return items
}

// Item looks an item up by id, sentinels included
func (m *Model) Item(id models.ItemID) (models.Item, bool) {
	for _, item := range m.view {
		if item.ID == id {
			return item, true
		}
	}
	return models.Item{}, false
}

// SetDocumentCounts assigns server-reported counts for the current selection
// context. With document count sorting the list is re-sorted; the dirty
// baseline is left alone.
func (m *Model) SetDocumentCounts(counts []models.SelectionDataItem) {
	m.documentCounts = make(map[models.ItemID]int, len(counts))
	for _, c := range counts {
		m.documentCounts[c.ID] = c.DocumentCount
	}
	if m.documentCountSorting {
		m.view = m.sortedItems()
	}
}

// DocumentCount returns the reported count for an item
func (m *Model) DocumentCount(id models.ItemID) (int, bool) {
	count, ok := m.documentCounts[id]
	return count, ok
}

// Apply re-derives the sorted item list and records the committed state as the clean baseline
func (m *Model) Apply() {
	m.view = m.sortedItems()
	m.baseline = m.committed.clone()
}

// Get returns the state of an item, reading the session state while editing
func (m *Model) Get(id models.ItemID) models.ToggleableItemState {
	return m.current().items[id]
}

// Set writes a state directly. Unlike Toggle it accepts ids that are not
// (yet) in the item list, so rule lists can be loaded before items arrive.
func (m *Model) Set(id models.ItemID, state models.ToggleableItemState) {
	m.setState(m.mutable(), id, state)
	m.emit()
}

func (m *Model) setState(s *selectionState, id models.ItemID, state models.ToggleableItemState) {
	if state == models.NotSelected {
		delete(s.items, id)
		return
	}
	s.items[id] = state
}

// Toggle cycles an item between not selected and selected (excluded under
// the Exclude intersection). Unknown ids are ignored.
func (m *Model) Toggle(id models.ItemID) {
	if !m.known(id) {
		return
	}

	s := m.mutable()
	switch s.items[id] {
	case models.Selected, models.Excluded:
		delete(s.items, id)
	default:
		next := models.Selected
		if s.intersection == models.IntersectionExclude {
			next = models.Excluded
		}
		if m.SingleSelect() {
			clear(s.items)
		}
		s.items[id] = next
	}
	m.emit()
}

// Exclude sets an item to excluded. On a single-select model this clears the
// other items and forces the logical operator to And.
func (m *Model) Exclude(id models.ItemID) {
	if !m.known(id) {
		return
	}

	s := m.mutable()
	if m.SingleSelect() {
		clear(s.items)
		s.logicalOperator = models.LogicalAnd
	}
	s.items[id] = models.Excluded
	m.emit()
}

// ToggleIntersection swaps Include and Exclude and carries the selection
// over: selected items become excluded (and back), and the null sentinel
// trades places with the negative-null sentinel.
func (m *Model) ToggleIntersection() {
	s := m.mutable()
	if s.intersection == models.IntersectionInclude {
		s.intersection = models.IntersectionExclude
	} else {
		s.intersection = models.IntersectionInclude
	}

	target := models.Selected
	if s.intersection == models.IntersectionExclude {
		target = models.Excluded
	}

	remapped := make(map[models.ItemID]models.ToggleableItemState, len(s.items))
	for id, state := range s.items {
		if state == models.Selected || state == models.Excluded {
			state = target
		}
		switch id {
		case models.NullID:
			id = models.NegativeNullID
		case models.NegativeNullID:
			id = models.NullID
		}
		remapped[id] = state
	}
	s.items = remapped
	m.emit()
}

// LogicalOperator returns the operator joining selected items
func (m *Model) LogicalOperator() models.LogicalOperator {
	return m.current().logicalOperator
}

// SetLogicalOperator changes the operator joining selected items
func (m *Model) SetLogicalOperator(op models.LogicalOperator) {
	s := m.mutable()
	if s.logicalOperator == op {
		return
	}
	s.logicalOperator = op
	m.emit()
}

// Intersection returns whether the selection includes or excludes
func (m *Model) Intersection() models.Intersection {
	return m.current().intersection
}

// SetIntersection changes the intersection without remapping the selection
func (m *Model) SetIntersection(in models.Intersection) {
	s := m.mutable()
	if s.intersection == in {
		return
	}
	s.intersection = in
	m.emit()
}

// Init seeds the committed state from a server-reported id→state map.
// It is the only entry point that accepts PartiallySelected.
func (m *Model) Init(states map[models.ItemID]models.ToggleableItemState) {
	m.committed.items = make(map[models.ItemID]models.ToggleableItemState, len(states))
	for id, state := range states {
		m.setState(&m.committed, id, state)
	}
	m.Apply()
}

// StatesFromSelectionData derives bulk-edit states: items present on every
// selected document are selected, items present on some are partially selected.
func StatesFromSelectionData(data []models.SelectionDataItem, selectedDocuments int) map[models.ItemID]models.ToggleableItemState {
	states := make(map[models.ItemID]models.ToggleableItemState)
	for _, d := range data {
		switch {
		case d.DocumentCount <= 0:
		case d.DocumentCount >= selectedDocuments:
			states[d.ID] = models.Selected
		default:
			states[d.ID] = models.PartiallySelected
		}
	}
	return states
}

// Clear resets the committed selection, operator and intersection. The
// editing session, if any, is left alone.
func (m *Model) Clear() {
	m.committed = newSelectionState()
	m.baseline = newSelectionState()
	m.emit()
}

// IsDirty reports whether the visible selection differs from the last clear/apply baseline
func (m *Model) IsDirty() bool {
	return !m.current().equal(m.baseline)
}

// SelectionSize returns the number of items that are not NotSelected
func (m *Model) SelectionSize() int {
	return len(m.current().items)
}

// IsNoneSelected reports whether the only selection is the "unassigned" sentinel
func (m *Model) IsNoneSelected() bool {
	s := m.current()
	return len(s.items) == 1 && s.items[models.NullID] == models.Selected
}

// SelectedItems returns the selected items in sorted order
func (m *Model) SelectedItems() []models.Item {
	return m.itemsIn(models.Selected)
}

// ExcludedItems returns the excluded items in sorted order
func (m *Model) ExcludedItems() []models.Item {
	return m.itemsIn(models.Excluded)
}

// SelectedIDs returns selected ids, including ids not present in the item list
func (m *Model) SelectedIDs() []models.ItemID {
	return m.idsIn(models.Selected)
}

// ExcludedIDs returns excluded ids, including ids not present in the item list
func (m *Model) ExcludedIDs() []models.ItemID {
	return m.idsIn(models.Excluded)
}

func (m *Model) itemsIn(state models.ToggleableItemState) []models.Item {
	s := m.current()
	var items []models.Item
	for _, item := range m.view {
		if s.items[item.ID] == state {
			items = append(items, item)
		}
	}
	return items
}

// idsIn lists ids in view order, then unknown ids in ascending order
func (m *Model) idsIn(state models.ToggleableItemState) []models.ItemID {
	s := m.current()
	var ids []models.ItemID
	seen := make(map[models.ItemID]bool)
	for _, item := range m.view {
		if s.items[item.ID] == state {
			ids = append(ids, item.ID)
			seen[item.ID] = true
		}
	}

	var unknown []models.ItemID
	for id, st := range s.items {
		if st == state && !seen[id] {
			unknown = append(unknown, id)
		}
	}
	sortIDs(unknown)
	return append(ids, unknown...)
}

func (m *Model) known(id models.ItemID) bool {
	_, ok := m.Item(id)
	return ok
}

// BeginEdit opens an editing session. Writes go to a temporary state that
// is seeded from the committed state on the first write. Opening a new
// session invalidates the token of any previous one.
func (m *Model) BeginEdit() EditToken {
	m.token++
	m.editing = true
	m.temporary = nil
	return m.token
}

// Editing reports whether an editing session is open
func (m *Model) Editing() bool {
	return m.editing
}

// Commit makes the session state the committed state. It returns false
// for a stale token.
func (m *Model) Commit(token EditToken) bool {
	if !m.editing || token != m.token {
		return false
	}
	temporary := m.temporary
	m.editing = false
	m.temporary = nil
	if temporary != nil {
		m.committed = *temporary
		m.view = m.sortedItems()
	}
	return true
}

// Discard closes the session without touching the committed state
func (m *Model) Discard(token EditToken) bool {
	if !m.editing || token != m.token {
		return false
	}
	written := m.temporary != nil
	m.editing = false
	m.temporary = nil
	if written {
		m.emit()
	}
	return true
}

func (m *Model) current() *selectionState {
	if m.temporary != nil {
		return m.temporary
	}
	return &m.committed
}

func (m *Model) mutable() *selectionState {
	if !m.editing {
		return &m.committed
	}
	if m.temporary == nil {
		t := m.committed.clone()
		m.temporary = &t
	}
	return m.temporary
}

// Subscribe registers a listener and returns a function removing it
func (m *Model) Subscribe(fn Listener) func() {
	if m.closed {
		return func() {}
	}
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Mute suppresses change events until the returned function is called
func (m *Model) Mute() func() {
	m.muted++
	done := false
	return func() {
		if !done {
			done = true
			m.muted--
		}
	}
}

// Close drops all listeners; a closed model never emits again
func (m *Model) Close() {
	m.closed = true
	m.listeners = nil
}

func (m *Model) emit() {
	if m.closed || m.muted > 0 || len(m.listeners) == 0 {
		return
	}
	ev := ChangeEvent{
		Selected:        m.SelectedItems(),
		Excluded:        m.ExcludedItems(),
		LogicalOperator: m.LogicalOperator(),
		Intersection:    m.Intersection(),
	}
	listeners := append([]listenerEntry(nil), m.listeners...)
	for _, l := range listeners {
		l.fn(ev)
	}
}
