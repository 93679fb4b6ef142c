package editor

import (
	"fmt"

	"github.com/rebeliceyang/docfilter/internal/filter"
	"github.com/rebeliceyang/docfilter/internal/models"
	"github.com/rebeliceyang/docfilter/internal/query"
)

// SelectionSnapshot is the committed state of one selection model
type SelectionSnapshot struct {
	LogicalOperator models.LogicalOperator `json:"logical_operator" yaml:"logical_operator"`
	Intersection    models.Intersection    `json:"intersection" yaml:"intersection"`
	Selected        []models.ItemID        `json:"selected,omitempty" yaml:"selected,omitempty"`
	Excluded        []models.ItemID        `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

// Snapshot is a serializable copy of the whole editor state
type Snapshot struct {
	State      filter.State                           `json:"state" yaml:"state"`
	Selections map[models.Dimension]SelectionSnapshot `json:"selections,omitempty" yaml:"selections,omitempty"`
	// Query is the custom-field query in wire form
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
}

var snapshotDimensions = []models.Dimension{
	models.DimensionTags,
	models.DimensionCorrespondents,
	models.DimensionDocumentTypes,
	models.DimensionStoragePaths,
}

// Snapshot captures the current state. Empty selections are left out.
func (c *Controller) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{State: c.state.Clone()}
	for _, d := range snapshotDimensions {
		m := c.selectionFor(d)
		if m.SelectionSize() == 0 {
			continue
		}
		if snap.Selections == nil {
			snap.Selections = make(map[models.Dimension]SelectionSnapshot)
		}
		snap.Selections[d] = SelectionSnapshot{
			LogicalOperator: m.LogicalOperator(),
			Intersection:    m.Intersection(),
			Selected:        m.SelectedIDs(),
			Excluded:        m.ExcludedIDs(),
		}
	}

	if !c.query.IsEmpty() {
		wire, err := query.Marshal(c.query.Serialize())
		if err != nil {
			return Snapshot{}, err
		}
		snap.Query = wire
	}
	return snap, nil
}

// Restore replaces the editor state with snap and emits once
func (c *Controller) Restore(snap Snapshot) error {
	for d := range snap.Selections {
		if c.selectionFor(d) == nil {
			return fmt.Errorf("unknown selection dimension: %q", d)
		}
	}
	var root *query.Expression
	if snap.Query != "" {
		var err error
		if root, err = query.Parse(snap.Query); err != nil {
			return err
		}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.text.Cancel()
	c.value.Cancel()
	c.codec.Decode(nil)

	for d, sel := range snap.Selections {
		m := c.selectionFor(d)
		restore := m.Mute()
		if sel.Intersection != "" {
			m.SetIntersection(sel.Intersection)
		}
		if sel.LogicalOperator != "" {
			m.SetLogicalOperator(sel.LogicalOperator)
		}
		for _, id := range sel.Selected {
			m.Set(id, models.Selected)
		}
		for _, id := range sel.Excluded {
			m.Set(id, models.Excluded)
		}
		m.Apply()
		restore()
	}

	if root != nil {
		restore := c.query.Mute()
		c.query.Load(root)
		restore()
	}

	c.state = snap.State.Clone()
	if c.state.TextTarget == "" {
		c.state.TextTarget = filter.TargetTitleContent
	}
	if c.state.TextModifier == "" {
		c.state.TextModifier = filter.ModifierEquals
	}
	c.pendingText = c.state.TextFilter
	c.mu.Unlock()

	c.emit()
	return nil
}
