package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/docfilter/internal/models"
)

func tagItems() []models.Item {
	return []models.Item{
		{ID: 2, Name: "Tag2"},
		{ID: 3, Name: "Tag3"},
		{ID: 4, Name: "Tag4"},
	}
}

func ids(items []models.Item) []models.ItemID {
	out := make([]models.ItemID, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestToggle_CyclesBetweenNotSelectedAndSelected(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())

	m.Toggle(2)
	assert.Equal(t, models.Selected, m.Get(2))

	m.Toggle(2)
	assert.Equal(t, models.NotSelected, m.Get(2))
}

func TestToggle_PartiallySelectedBecomesSelected(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())
	m.Init(map[models.ItemID]models.ToggleableItemState{3: models.PartiallySelected})

	m.Toggle(3)
	assert.Equal(t, models.Selected, m.Get(3))
}

func TestToggle_UnknownIDIsNoop(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())

	events := 0
	m.Subscribe(func(ChangeEvent) { events++ })

	m.Toggle(99)
	assert.Equal(t, models.NotSelected, m.Get(99))
	assert.Zero(t, events)
}

func TestToggle_SingleSelectKeepsOnlyLatest(t *testing.T) {
	m := New(false)
	m.SetItems(tagItems())

	m.Toggle(2)
	m.Toggle(3)

	assert.Equal(t, []models.ItemID{3}, ids(m.SelectedItems()))
}

func TestToggle_ManyToOneAccumulates(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())

	m.Toggle(2)
	m.Toggle(4)

	assert.Equal(t, []models.ItemID{2, 4}, ids(m.SelectedItems()))
}

func TestToggle_UnderExcludeIntersectionExcludes(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())
	m.SetIntersection(models.IntersectionExclude)

	m.Toggle(2)
	assert.Equal(t, models.Excluded, m.Get(2))
}

func TestToggle_EmitsFullSelection(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())

	var last ChangeEvent
	m.Subscribe(func(ev ChangeEvent) { last = ev })

	m.Toggle(2)
	m.Toggle(3)

	assert.Equal(t, []models.ItemID{2, 3}, ids(last.Selected))
	assert.Equal(t, models.LogicalAnd, last.LogicalOperator)
}

func TestExclude_SingleSelectForcesAnd(t *testing.T) {
	m := New(false)
	m.SetItems(tagItems())
	m.SetLogicalOperator(models.LogicalOr)
	m.Toggle(2)

	m.Exclude(3)

	assert.Equal(t, models.LogicalAnd, m.LogicalOperator())
	assert.Empty(t, m.SelectedItems())
	assert.Equal(t, []models.ItemID{3}, ids(m.ExcludedItems()))
}

func TestToggle_SingleSelectDoesNotForceOperator(t *testing.T) {
	m := New(false)
	m.SetItems(tagItems())
	m.SetLogicalOperator(models.LogicalOr)

	m.Toggle(2)

	assert.Equal(t, models.LogicalOr, m.LogicalOperator())
}

func TestExclude_ManyToOneKeepsSelection(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())
	m.SetLogicalOperator(models.LogicalOr)
	m.Toggle(2)

	m.Exclude(3)

	assert.Equal(t, models.LogicalOr, m.LogicalOperator())
	assert.Equal(t, []models.ItemID{2}, ids(m.SelectedItems()))
	assert.Equal(t, []models.ItemID{3}, ids(m.ExcludedItems()))
}

func TestToggleIntersection_SwapsSentinel(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())
	m.Exclude(models.NullID)

	m.ToggleIntersection()

	assert.Equal(t, models.IntersectionExclude, m.Intersection())
	require.Len(t, m.ExcludedItems(), 1)
	assert.Equal(t, models.NegativeNullID, m.ExcludedItems()[0].ID)
	assert.Equal(t, models.NotSelected, m.Get(models.NullID))
}

func TestToggleIntersection_SelectedBecomesExcludedAndBack(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())
	m.Toggle(2)
	m.Toggle(models.NullID)

	m.ToggleIntersection()
	assert.Equal(t, []models.ItemID{models.NegativeNullID, 2}, ids(m.ExcludedItems()))
	assert.Empty(t, m.SelectedItems())

	m.ToggleIntersection()
	assert.Equal(t, []models.ItemID{models.NullID, 2}, ids(m.SelectedItems()))
	assert.Empty(t, m.ExcludedItems())
}

func TestItems_ShowsOneSentinelPerIntersection(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())

	assert.Equal(t, []models.ItemID{models.NullID, 2, 3, 4}, ids(m.Items()))

	m.SetIntersection(models.IntersectionExclude)
	assert.Equal(t, []models.ItemID{models.NegativeNullID, 2, 3, 4}, ids(m.Items()))
}

func TestClear_ResetsOperatorIntersectionAndDirty(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())
	m.SetLogicalOperator(models.LogicalOr)
	m.SetIntersection(models.IntersectionExclude)
	m.Toggle(2)
	require.True(t, m.IsDirty())

	m.Clear()

	assert.Equal(t, models.LogicalAnd, m.LogicalOperator())
	assert.Equal(t, models.IntersectionInclude, m.Intersection())
	assert.Zero(t, m.SelectionSize())
	assert.False(t, m.IsDirty())
}

func TestIsDirty_SurvivesDocumentCountRefresh(t *testing.T) {
	m := New(true, WithDocumentCountSorting(true))
	m.SetItems(tagItems())
	m.Toggle(2)
	require.True(t, m.IsDirty())

	m.SetDocumentCounts([]models.SelectionDataItem{{ID: 2, DocumentCount: 5}})

	assert.True(t, m.IsDirty())
	assert.Equal(t, models.ItemID(2), m.Items()[1].ID)
}

func TestIsDirty_FalseAfterApply(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())
	m.Toggle(2)
	require.True(t, m.IsDirty())

	m.Apply()
	assert.False(t, m.IsDirty())

	m.Toggle(2)
	m.Toggle(2)
	assert.False(t, m.IsDirty())
}

func TestIsNoneSelected(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())
	assert.False(t, m.IsNoneSelected())

	m.Toggle(models.NullID)
	assert.True(t, m.IsNoneSelected())

	m.Toggle(2)
	assert.False(t, m.IsNoneSelected())
}

func TestSelectedIDs_IncludesUnknownIDs(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())
	m.Set(42, models.Selected)
	m.Set(3, models.Selected)
	m.Set(7, models.Selected)

	assert.Equal(t, []models.ItemID{3, 7, 42}, m.SelectedIDs())
	assert.Equal(t, []models.ItemID{3}, ids(m.SelectedItems()))
}

func TestEditSession_CommitAppliesTemporaryState(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())
	m.Toggle(2)

	token := m.BeginEdit()
	m.Toggle(3)
	assert.Equal(t, []models.ItemID{2, 3}, ids(m.SelectedItems()))
	assert.Equal(t, models.NotSelected, m.committed.items[3])

	require.True(t, m.Commit(token))
	assert.False(t, m.Editing())
	assert.Equal(t, models.Selected, m.committed.items[3])
}

func TestEditSession_DiscardRestoresCommittedState(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())
	m.Toggle(2)

	var last ChangeEvent
	m.Subscribe(func(ev ChangeEvent) { last = ev })

	token := m.BeginEdit()
	m.Toggle(2)
	m.SetLogicalOperator(models.LogicalOr)
	assert.Empty(t, m.SelectedItems())

	require.True(t, m.Discard(token))
	assert.Equal(t, []models.ItemID{2}, ids(m.SelectedItems()))
	assert.Equal(t, models.LogicalAnd, m.LogicalOperator())
	assert.Equal(t, []models.ItemID{2}, ids(last.Selected))
}

func TestEditSession_StaleTokenRejected(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())

	first := m.BeginEdit()
	second := m.BeginEdit()
	m.Toggle(2)

	assert.False(t, m.Commit(first))
	assert.True(t, m.Editing())
	assert.True(t, m.Commit(second))
	assert.False(t, m.Discard(second))
	assert.Equal(t, models.Selected, m.Get(2))
}

func TestEditSession_SeededLazily(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())

	token := m.BeginEdit()
	assert.Nil(t, m.temporary)

	m.Toggle(2)
	require.NotNil(t, m.temporary)
	require.True(t, m.Commit(token))
	assert.Nil(t, m.temporary)
}

func TestEditSession_ClearLeavesTemporaryAlone(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())
	m.Toggle(2)

	token := m.BeginEdit()
	m.Toggle(3)
	m.Clear()

	assert.Equal(t, []models.ItemID{2, 3}, ids(m.SelectedItems()))
	require.True(t, m.Discard(token))
	assert.Empty(t, m.SelectedItems())
}

func TestStatesFromSelectionData(t *testing.T) {
	states := StatesFromSelectionData([]models.SelectionDataItem{
		{ID: 2, DocumentCount: 3},
		{ID: 3, DocumentCount: 1},
		{ID: 4, DocumentCount: 0},
	}, 3)

	assert.Equal(t, map[models.ItemID]models.ToggleableItemState{
		2: models.Selected,
		3: models.PartiallySelected,
	}, states)
}

func TestMute_SuppressesEvents(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())

	events := 0
	m.Subscribe(func(ChangeEvent) { events++ })

	unmute := m.Mute()
	m.Set(2, models.Selected)
	m.Set(3, models.Selected)
	unmute()
	unmute()
	assert.Zero(t, events)

	m.Toggle(4)
	assert.Equal(t, 1, events)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())

	a, b := 0, 0
	stopA := m.Subscribe(func(ChangeEvent) { a++ })
	m.Subscribe(func(ChangeEvent) { b++ })

	m.Toggle(2)
	stopA()
	m.Toggle(3)

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestClose_StopsEmitting(t *testing.T) {
	m := New(true)
	m.SetItems(tagItems())

	events := 0
	m.Subscribe(func(ChangeEvent) { events++ })
	m.Close()

	m.Toggle(2)
	m.Subscribe(func(ChangeEvent) { events++ })
	m.Toggle(3)

	assert.Zero(t, events)
	assert.Equal(t, []models.ItemID{2, 3}, ids(m.SelectedItems()))
}
