package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/rebeliceyang/docfilter/internal/models"
	"github.com/rebeliceyang/docfilter/internal/query"
	"github.com/rebeliceyang/docfilter/internal/selection"
)

func newTestCodec(opts ...Option) *Codec {
	return NewCodec(Models{}, opts...)
}

func ptr(s string) *string { return &s }

func TestDecode_HasTagsAllSelectsItemsWithAnd(t *testing.T) {
	c := newTestCodec()
	tags := c.Models().Tags
	tags.SetItems([]models.Item{{ID: 2, Name: "Tag2"}, {ID: 3, Name: "Tag3"}})

	c.Decode([]models.FilterRule{
		models.NewRule(models.FilterHasTagsAll, "2"),
		models.NewRule(models.FilterHasTagsAll, "3"),
	})

	assert.Equal(t, models.LogicalAnd, tags.LogicalOperator())
	assert.Equal(t, []models.Item{{ID: 2, Name: "Tag2"}, {ID: 3, Name: "Tag3"}}, tags.SelectedItems())
	assert.False(t, tags.IsDirty())
}

func TestDecode_HasTagsAnyUsesOr(t *testing.T) {
	c := newTestCodec()
	c.Decode([]models.FilterRule{models.NewRule(models.FilterHasTagsAny, "7")})

	assert.Equal(t, models.LogicalOr, c.Models().Tags.LogicalOperator())
	assert.Equal(t, []models.ItemID{7}, c.Models().Tags.SelectedIDs())
}

func TestDecode_ResetsPreviousState(t *testing.T) {
	c := newTestCodec()
	c.Decode([]models.FilterRule{
		models.NewRule(models.FilterHasTagsAll, "1"),
		models.NewRule(models.FilterHasCorrespondentAny, "4"),
		models.NewRule(models.FilterCustomFieldsQuery, `["AND",[[1,"exists","true"]]]`),
	})
	state := c.Decode([]models.FilterRule{models.NewRule(models.FilterTitle, "x")})

	assert.Zero(t, c.Models().Tags.SelectionSize())
	assert.Zero(t, c.Models().Correspondents.SelectionSize())
	assert.True(t, c.Models().Query.IsEmpty())
	assert.Equal(t, "x", state.TextFilter)
	assert.Equal(t, TargetTitle, state.TextTarget)
}

func TestDecode_DoesNotEmit(t *testing.T) {
	c := newTestCodec()
	m := c.Models()

	events := 0
	m.Tags.Subscribe(func(selection.ChangeEvent) { events++ })
	m.Correspondents.Subscribe(func(selection.ChangeEvent) { events++ })
	m.Query.Subscribe(func(query.ChangeKind) { events++ })

	c.Decode([]models.FilterRule{
		models.NewRule(models.FilterHasTagsAll, "1"),
		models.NewNullRule(models.FilterCorrespondent),
		models.NewRule(models.FilterCustomFieldsQuery, `[5,"exists","true"]`),
	})

	assert.Zero(t, events)

	m.Tags.Set(2, models.Selected)
	assert.Equal(t, 1, events)
}

func TestDecode_IgnoresUnusableRules(t *testing.T) {
	c := newTestCodec()
	state := c.Decode([]models.FilterRule{
		{RuleType: models.RuleType(99), Value: ptr("1")},
		models.NewNullRule(models.FilterHasTagsAll),
		models.NewRule(models.FilterHasTagsAll, "abc"),
		models.NewRule(models.FilterDoesNotHaveTag, "-4"),
		models.NewRule(models.FilterCreatedBefore, "yesterday"),
		models.NewRule(models.FilterCustomFieldsQuery, `{"not":"a tuple"}`),
		models.NewRule(models.FilterASNIsNull, "maybe"),
		models.NewNullRule(models.FilterTitle),
	})

	assert.Zero(t, c.Models().Tags.SelectionSize())
	assert.True(t, c.Models().Query.IsEmpty())
	assert.Equal(t, NewState(), state)
	assert.Empty(t, c.Encode(state))
}

func TestDecode_NullDimensionSelectsUnassigned(t *testing.T) {
	c := newTestCodec()
	c.Decode([]models.FilterRule{
		models.NewNullRule(models.FilterCorrespondent),
		models.NewRule(models.FilterHasAnyTag, "false"),
	})

	assert.True(t, c.Models().Correspondents.IsNoneSelected())
	assert.True(t, c.Models().Tags.IsNoneSelected())
}

func TestDecode_ExcludedDimension(t *testing.T) {
	c := newTestCodec()
	c.Decode([]models.FilterRule{
		models.NewRule(models.FilterDoesNotHaveDocumentType, "3"),
		models.NewRule(models.FilterDoesNotHaveDocumentType, "4"),
	})

	dt := c.Models().DocumentTypes
	assert.Equal(t, models.IntersectionExclude, dt.Intersection())
	assert.Equal(t, []models.ItemID{3, 4}, dt.ExcludedIDs())
}

func TestDecode_LegacyCustomFieldsBecomeExistsAtoms(t *testing.T) {
	c := newTestCodec()
	state := c.Decode([]models.FilterRule{
		models.NewRule(models.FilterHasCustomFieldsAll, "4"),
		models.NewRule(models.FilterHasCustomFieldsAll, "5"),
	})

	q := c.Models().Query
	require.False(t, q.IsEmpty())
	out, err := query.Marshal(q.Serialize())
	require.NoError(t, err)
	assert.Equal(t, `["AND",[[4,"exists","true"],[5,"exists","true"]]]`, out)

	rules := c.Encode(state)
	assert.Equal(t, []models.FilterRule{models.NewRule(models.FilterCustomFieldsQuery, out)}, rules)
}

func TestEncode_QueryByteForByte(t *testing.T) {
	const wire = `["AND", [[42,"exists","true"],[43,"exists","true"]]]`
	c := newTestCodec()
	state := c.Decode([]models.FilterRule{models.NewRule(models.FilterCustomFieldsQuery, wire)})

	rules := c.Encode(state)
	require.Len(t, rules, 1)
	assert.Equal(t, `["AND",[[42,"exists","true"],[43,"exists","true"]]]`, rules[0].ValueOrEmpty())
}

func TestEncode_SkipsInvalidQuery(t *testing.T) {
	c := newTestCodec()
	c.Models().Query.AddAtom(query.NewAtom(0, models.QueryOpExists, "true"))

	assert.Empty(t, c.Encode(NewState()))
}

func TestEncode_TagRules(t *testing.T) {
	c := newTestCodec()
	tags := c.Models().Tags
	tags.Set(1, models.Selected)
	tags.Set(2, models.Selected)
	tags.Set(5, models.Excluded)
	tags.Set(models.NegativeNullID, models.Excluded)
	tags.SetLogicalOperator(models.LogicalOr)

	assert.Equal(t, []models.FilterRule{
		models.NewRule(models.FilterHasTagsAny, "1"),
		models.NewRule(models.FilterHasTagsAny, "2"),
		models.NewRule(models.FilterDoesNotHaveTag, "5"),
		models.NewRule(models.FilterHasAnyTag, "true"),
	}, c.Encode(NewState()))
}

func TestEncode_NoneSelected(t *testing.T) {
	c := newTestCodec()
	c.Models().Tags.Set(models.NullID, models.Selected)
	c.Models().StoragePaths.Set(models.NullID, models.Selected)

	assert.Equal(t, []models.FilterRule{
		models.NewRule(models.FilterHasAnyTag, "false"),
		models.NewNullRule(models.FilterStoragePath),
	}, c.Encode(NewState()))
}

func TestEncode_TextTargets(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  []models.FilterRule
	}{
		{
			name:  "title content",
			state: State{TextFilter: "bill", TextTarget: TargetTitleContent},
			want:  []models.FilterRule{models.NewRule(models.FilterTitleContent, "bill")},
		},
		{
			name:  "empty text",
			state: State{TextTarget: TargetTitle},
			want:  nil,
		},
		{
			name:  "asn greater",
			state: State{TextFilter: "100", TextTarget: TargetASN, TextModifier: ModifierGreater},
			want:  []models.FilterRule{models.NewRule(models.FilterASNGreaterThan, "100")},
		},
		{
			name:  "asn not null ignores text",
			state: State{TextFilter: "100", TextTarget: TargetASN, TextModifier: ModifierNotNull},
			want:  []models.FilterRule{models.NewRule(models.FilterASNIsNull, "false")},
		},
		{
			name:  "more like",
			state: State{TextTarget: TargetFulltextMoreLike, MoreLikeID: 12},
			want:  []models.FilterRule{models.NewRule(models.FilterFulltextMoreLike, "12")},
		},
		{
			name:  "fulltext with relative dates",
			state: State{TextFilter: "invoice", TextTarget: TargetFulltextQuery, CreatedRelative: RelativeLastWeek, AddedRelative: RelativeLastYear},
			want:  []models.FilterRule{models.NewRule(models.FilterFulltextQuery, "invoice,created:[-1 week to now],added:[-1 year to now]")},
		},
		{
			name:  "title with relative date",
			state: State{TextFilter: "memo", TextTarget: TargetTitle, AddedRelative: RelativeLast3Months},
			want: []models.FilterRule{
				models.NewRule(models.FilterTitle, "memo"),
				models.NewRule(models.FilterFulltextQuery, "added:[-3 month to now]"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newTestCodec().Encode(tt.state))
		})
	}
}

func TestDecode_FulltextSplitsRelativeDates(t *testing.T) {
	state := newTestCodec().Decode([]models.FilterRule{
		models.NewRule(models.FilterFulltextQuery, "invoice,created:[-1 month to now]"),
	})

	assert.Equal(t, "invoice", state.TextFilter)
	assert.Equal(t, TargetFulltextQuery, state.TextTarget)
	assert.Equal(t, RelativeLastMonth, state.CreatedRelative)
	assert.Equal(t, RelativeNone, state.AddedRelative)

	state = newTestCodec().Decode([]models.FilterRule{
		models.NewRule(models.FilterFulltextQuery, "added:[-1 year to now]"),
	})
	assert.Empty(t, state.TextFilter)
	assert.Equal(t, TargetTitleContent, state.TextTarget)
	assert.Equal(t, RelativeLastYear, state.AddedRelative)
}

func TestEncode_Owner(t *testing.T) {
	tests := []struct {
		name  string
		owner OwnerFilter
		want  []models.FilterRule
	}{
		{"self", OwnerFilter{Type: OwnerSelf, UserID: 3}, []models.FilterRule{models.NewRule(models.FilterOwner, "3")}},
		{"not self", OwnerFilter{Type: OwnerNotSelf, UserID: 3}, []models.FilterRule{models.NewRule(models.FilterOwnerDoesNotInclude, "3")}},
		{"shared", OwnerFilter{Type: OwnerSharedByMe, UserID: 3}, []models.FilterRule{models.NewRule(models.FilterSharedByUser, "3")}},
		{"unowned", OwnerFilter{Type: OwnerUnowned, HideUnowned: true}, []models.FilterRule{models.NewRule(models.FilterOwnerIsNull, "true")}},
		{"others", OwnerFilter{Type: OwnerOthers, IncludeUsers: []int{4, 5}, ExcludeUsers: []int{6}, HideUnowned: true}, []models.FilterRule{
			models.NewRule(models.FilterOwnerAny, "4"),
			models.NewRule(models.FilterOwnerAny, "5"),
			models.NewRule(models.FilterOwnerDoesNotInclude, "6"),
			models.NewRule(models.FilterOwnerIsNull, "false"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState()
			state.Owner = tt.owner
			assert.Equal(t, tt.want, newTestCodec().Encode(state))
		})
	}
}

func TestDecode_OwnerNotSelfVersusOthers(t *testing.T) {
	c := newTestCodec(WithCurrentUser(3))

	state := c.Decode([]models.FilterRule{models.NewRule(models.FilterOwnerDoesNotInclude, "3")})
	assert.Equal(t, OwnerFilter{Type: OwnerNotSelf, UserID: 3}, state.Owner)

	state = c.Decode([]models.FilterRule{models.NewRule(models.FilterOwnerDoesNotInclude, "8")})
	assert.Equal(t, OwnerFilter{Type: OwnerOthers, UserID: 3, ExcludeUsers: []int{8}}, state.Owner)
}

func TestDecode_KeepsUneditableRules(t *testing.T) {
	rules := []models.FilterRule{
		models.NewRule(models.FilterIsInInbox, "true"),
		models.NewRule(models.FilterContent, "abc"),
	}
	c := newTestCodec()
	state := c.Decode(rules)

	assert.Equal(t, rules, c.Encode(state))
}

func TestRulesEqual(t *testing.T) {
	a := []models.FilterRule{
		models.NewRule(models.FilterHasTagsAll, "1"),
		models.NewNullRule(models.FilterCorrespondent),
	}
	b := []models.FilterRule{
		models.NewNullRule(models.FilterCorrespondent),
		models.NewRule(models.FilterHasTagsAll, "1"),
		models.NewRule(models.FilterHasTagsAll, "1"),
	}
	assert.True(t, RulesEqual(a, b))
	assert.True(t, RulesEqual(nil, []models.FilterRule{}))
	assert.False(t, RulesEqual(a, a[:1]))
	assert.False(t, RulesEqual(
		[]models.FilterRule{models.NewNullRule(models.FilterCorrespondent)},
		[]models.FilterRule{models.NewRule(models.FilterCorrespondent, "")},
	))
}

func drawCodecState(t *rapid.T, c *Codec) State {
	m := c.Models()
	states := []models.ToggleableItemState{models.NotSelected, models.Selected, models.Excluded}
	for id := models.ItemID(1); id <= 4; id++ {
		m.Tags.Set(id, rapid.SampledFrom(states).Draw(t, "tag"))
		m.Correspondents.Set(id, rapid.SampledFrom(states).Draw(t, "correspondent"))
	}
	if rapid.Bool().Draw(t, "or") {
		m.Tags.SetLogicalOperator(models.LogicalOr)
	}
	if rapid.Bool().Draw(t, "docTypeNone") {
		m.DocumentTypes.Set(models.NullID, models.Selected)
	}
	if rapid.Bool().Draw(t, "query") {
		m.Query.AddAtom(query.NewAtom(rapid.IntRange(1, 9).Draw(t, "field"), models.QueryOpExists, "true"))
	}

	state := NewState()
	state.TextTarget = rapid.SampledFrom([]TextFilterTarget{
		TargetTitle, TargetTitleContent, TargetCustomFields, TargetFulltextQuery,
	}).Draw(t, "target")
	state.TextFilter = rapid.StringMatching(`[a-z]{0,5}`).Draw(t, "text")
	state.CreatedRelative = rapid.SampledFrom(append([]RelativeDate{RelativeNone}, RelativeDates...)).Draw(t, "created")
	if rapid.Bool().Draw(t, "createdAfter") {
		state.Created.After = "2024-01-31"
	}
	state.Owner = rapid.SampledFrom([]OwnerFilter{
		{},
		{Type: OwnerSelf, UserID: 2},
		{Type: OwnerNotSelf, UserID: 2},
		{Type: OwnerOthers, IncludeUsers: []int{5}, ExcludeUsers: []int{6}},
		{Type: OwnerUnowned},
		{HideUnowned: true},
	}).Draw(t, "owner")
	return state
}

func TestEncode_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := newTestCodec()
		state := drawCodecState(t, c)

		first := c.Encode(state)
		second := c.Encode(state)
		if !assert.ObjectsAreEqual(first, second) {
			t.Fatalf("encode not idempotent:\n%v\n%v", first, second)
		}
	})
}

func TestDecode_EncodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := newTestCodec()
		rules := c.Encode(drawCodecState(t, c))

		other := newTestCodec()
		again := other.Encode(other.Decode(rules))
		if !RulesEqual(rules, again) {
			t.Fatalf("round trip changed rules:\n%v\n%v", rules, again)
		}
	})
}
