package filter

import (
	"slices"
	"time"

	"github.com/rebeliceyang/docfilter/internal/models"
)

// TextFilterTarget selects which rule type the free-text input becomes
type TextFilterTarget string

const (
	TargetTitle            TextFilterTarget = "title"
	TargetTitleContent     TextFilterTarget = "title-content"
	TargetASN              TextFilterTarget = "asn"
	TargetCustomFields     TextFilterTarget = "custom-fields"
	TargetFulltextQuery    TextFilterTarget = "fulltext-query"
	TargetFulltextMoreLike TextFilterTarget = "fulltext-morelike"
)

// TextFilterModifier refines an ASN text filter
type TextFilterModifier string

const (
	ModifierEquals  TextFilterModifier = "equals"
	ModifierGreater TextFilterModifier = "greater"
	ModifierLess    TextFilterModifier = "less"
	ModifierIsNull  TextFilterModifier = "is null"
	ModifierNotNull TextFilterModifier = "not null"
)

// DateLayout is the wire format of date rule values
const DateLayout = "2006-01-02"

// DateRange is an optional before/after pair in DateLayout; "" means unset
type DateRange struct {
	Before string `json:"before,omitempty" yaml:"before,omitempty"`
	After  string `json:"after,omitempty" yaml:"after,omitempty"`
}

// IsZero reports whether neither bound is set
func (r DateRange) IsZero() bool {
	return r.Before == "" && r.After == ""
}

// ValidDate reports whether s is a date in DateLayout
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// OwnerFilterType is the choice made in the permissions dropdown
type OwnerFilterType string

const (
	OwnerNone       OwnerFilterType = ""
	OwnerSelf       OwnerFilterType = "self"
	OwnerNotSelf    OwnerFilterType = "not-self"
	OwnerOthers     OwnerFilterType = "others"
	OwnerSharedByMe OwnerFilterType = "shared-by-me"
	OwnerUnowned    OwnerFilterType = "unowned"
)

// OwnerFilter is the ownership part of the filter
type OwnerFilter struct {
	Type         OwnerFilterType `json:"type,omitempty" yaml:"type,omitempty"`
	UserID       int             `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	IncludeUsers []int           `json:"include_users,omitempty" yaml:"include_users,omitempty"`
	ExcludeUsers []int           `json:"exclude_users,omitempty" yaml:"exclude_users,omitempty"`
	HideUnowned  bool            `json:"hide_unowned,omitempty" yaml:"hide_unowned,omitempty"`
}

// IsZero reports whether no ownership filtering is requested
func (o OwnerFilter) IsZero() bool {
	return o.Type == OwnerNone && !o.HideUnowned && len(o.IncludeUsers) == 0 && len(o.ExcludeUsers) == 0
}

// State is the scalar (non-selection) part of the filter editor
type State struct {
	TextFilter      string             `json:"text_filter,omitempty" yaml:"text_filter,omitempty"`
	TextTarget      TextFilterTarget   `json:"text_target" yaml:"text_target"`
	TextModifier    TextFilterModifier `json:"text_modifier" yaml:"text_modifier"`
	MoreLikeID      int                `json:"more_like_id,omitempty" yaml:"more_like_id,omitempty"`
	Created         DateRange          `json:"created" yaml:"created"`
	Added           DateRange          `json:"added" yaml:"added"`
	Modified        DateRange          `json:"modified" yaml:"modified"`
	CreatedRelative RelativeDate       `json:"created_relative,omitempty" yaml:"created_relative,omitempty"`
	AddedRelative   RelativeDate       `json:"added_relative,omitempty" yaml:"added_relative,omitempty"`
	Owner           OwnerFilter        `json:"owner" yaml:"owner"`

	// Extra holds rules the editor has no control for; they are re-emitted verbatim
	Extra []models.FilterRule `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// NewState returns the editor's default state
func NewState() State {
	return State{
		TextTarget:   TargetTitleContent,
		TextModifier: ModifierEquals,
	}
}

// Clone returns a deep copy
func (s State) Clone() State {
	c := s
	c.Owner.IncludeUsers = slices.Clone(s.Owner.IncludeUsers)
	c.Owner.ExcludeUsers = slices.Clone(s.Owner.ExcludeUsers)
	c.Extra = slices.Clone(s.Extra)
	return c
}
