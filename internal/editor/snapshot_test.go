package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/docfilter/internal/filter"
	"github.com/rebeliceyang/docfilter/internal/models"
	"github.com/rebeliceyang/docfilter/internal/query"
)

func TestSnapshot_RoundTripThroughYAML(t *testing.T) {
	src, _ := newTestController(t, Options{})
	rules := []models.FilterRule{
		models.NewRule(models.FilterTitle, "invoice"),
		models.NewRule(models.FilterHasTagsAny, "4"),
		models.NewRule(models.FilterDoesNotHaveTag, "9"),
		models.NewNullRule(models.FilterDocumentType),
		models.NewRule(models.FilterCustomFieldsQuery, `["OR",[[3,"gt",10],[4,"in",["a"]]]]`),
		models.NewRule(models.FilterOwnerAny, "2"),
	}
	src.SetFilterRules(rules)

	snap, err := src.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Selections, 2)
	assert.Equal(t, `["OR",[[3,"gt",10],[4,"in",["a"]]]]`, snap.Query)

	data, err := yaml.Marshal(snap)
	require.NoError(t, err)
	var decoded Snapshot
	require.NoError(t, yaml.Unmarshal(data, &decoded))

	dst, rec := newTestController(t, Options{})
	require.NoError(t, dst.Restore(decoded))

	require.Equal(t, 1, rec.count())
	assert.True(t, filter.RulesEqual(rules, rec.last()), "got %v", rec.last())
}

func TestRestore_RejectsBadInput(t *testing.T) {
	c, rec := newTestController(t, Options{})

	err := c.Restore(Snapshot{Query: `{"x":1}`})
	assert.ErrorIs(t, err, query.ErrInvalidWire)

	err = c.Restore(Snapshot{Selections: map[models.Dimension]SelectionSnapshot{
		models.DimensionOwner: {Selected: []models.ItemID{1}},
	}})
	assert.Error(t, err)
	assert.Zero(t, rec.count())
}

func TestRestore_FillsTextDefaults(t *testing.T) {
	c, _ := newTestController(t, Options{})
	require.NoError(t, c.Restore(Snapshot{State: filter.State{TextFilter: "abc"}}))

	assert.Equal(t, filter.TargetTitleContent, c.State().TextTarget)
	assert.Equal(t, []models.FilterRule{models.NewRule(models.FilterTitleContent, "abc")}, c.Rules())
}
