package models

// ItemID identifies a selectable entity. Backend ids are positive, so the
// two sentinel values below never collide with a real entity.
type ItemID int64

const (
	// NullID is the "unassigned" sentinel (has none of this attribute)
	NullID ItemID = 0
	// NegativeNullID is the "negative unassigned" sentinel used under Exclude
	NegativeNullID ItemID = -1
)

// IsSentinel reports whether the id is one of the two synthetic ids
func (id ItemID) IsSentinel() bool {
	return id == NullID || id == NegativeNullID
}

// Item is a selectable entity: tag, correspondent, document type or storage path
type Item struct {
	ID     ItemID `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Parent ItemID `json:"parent,omitempty" yaml:"parent,omitempty"` // NullID for roots
}

// HasParent reports whether the item is nested below another item
func (i Item) HasParent() bool {
	return i.Parent != NullID
}

// ToggleableItemState is the selection state of one item
type ToggleableItemState int

const (
	NotSelected ToggleableItemState = iota
	Selected
	PartiallySelected
	Excluded
)

func (s ToggleableItemState) String() string {
	switch s {
	case Selected:
		return "selected"
	case PartiallySelected:
		return "partially_selected"
	case Excluded:
		return "excluded"
	default:
		return "not_selected"
	}
}

// LogicalOperator combines the selected items of one dimension
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and"
	LogicalOr  LogicalOperator = "or"
)

// Intersection decides whether the selection means "has one of" or "has none of"
type Intersection string

const (
	IntersectionInclude Intersection = "include"
	IntersectionExclude Intersection = "exclude"
)

// SelectionDataItem is a server-reported document count for one item
type SelectionDataItem struct {
	ID            ItemID `json:"id" yaml:"id"`
	DocumentCount int    `json:"document_count" yaml:"document_count"`
}

// Dimension names one filterable attribute backed by a selection model
type Dimension string

const (
	DimensionTags           Dimension = "tags"
	DimensionCorrespondents Dimension = "correspondents"
	DimensionDocumentTypes  Dimension = "document_types"
	DimensionStoragePaths   Dimension = "storage_paths"
	DimensionCustomFields   Dimension = "custom_fields"
	DimensionOwner          Dimension = "owner"
)
