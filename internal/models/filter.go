package models

import "strconv"

// RuleType identifies a filter rule understood by the search backend
type RuleType int

const (
	FilterTitle                     RuleType = 0
	FilterContent                   RuleType = 1
	FilterASN                       RuleType = 2
	FilterCorrespondent             RuleType = 3
	FilterDocumentType              RuleType = 4
	FilterIsInInbox                 RuleType = 5
	FilterHasTagsAll                RuleType = 6
	FilterHasAnyTag                 RuleType = 7
	FilterCreatedBefore             RuleType = 8
	FilterCreatedAfter              RuleType = 9
	FilterAddedBefore               RuleType = 13
	FilterAddedAfter                RuleType = 14
	FilterModifiedBefore            RuleType = 15
	FilterModifiedAfter             RuleType = 16
	FilterDoesNotHaveTag            RuleType = 17
	FilterASNIsNull                 RuleType = 18
	FilterTitleContent              RuleType = 19
	FilterFulltextQuery             RuleType = 20
	FilterFulltextMoreLike          RuleType = 21
	FilterHasTagsAny                RuleType = 22
	FilterASNGreaterThan            RuleType = 23
	FilterASNLessThan               RuleType = 24
	FilterStoragePath               RuleType = 25
	FilterHasCorrespondentAny       RuleType = 26
	FilterDoesNotHaveCorrespondent  RuleType = 27
	FilterHasDocumentTypeAny        RuleType = 28
	FilterDoesNotHaveDocumentType   RuleType = 29
	FilterHasStoragePathAny         RuleType = 30
	FilterDoesNotHaveStoragePath    RuleType = 31
	FilterOwner                     RuleType = 32
	FilterOwnerAny                  RuleType = 33
	FilterOwnerIsNull               RuleType = 34
	FilterOwnerDoesNotInclude       RuleType = 35
	FilterCustomFieldsText          RuleType = 36
	FilterSharedByUser              RuleType = 37
	FilterHasCustomFieldsAll        RuleType = 38
	FilterHasCustomFieldsAny        RuleType = 39
	FilterCustomFieldsQuery         RuleType = 42
)

// RuleValueKind describes how a rule's value string is interpreted
type RuleValueKind string

const (
	RuleValueString  RuleValueKind = "string"
	RuleValueNumber  RuleValueKind = "number"
	RuleValueBoolean RuleValueKind = "boolean"
	RuleValueDate    RuleValueKind = "date"
	RuleValueQuery   RuleValueKind = "query"
)

// RuleTypeInfo describes one entry of the rule-type table
type RuleTypeInfo struct {
	ID        RuleType
	Name      string
	ValueKind RuleValueKind
	Nullable  bool // null value is meaningful (e.g. "no correspondent")
	Multi     bool // several rules of this type may appear in one list
}

// RuleTypes is the closed rule-type table, ordered by id
var RuleTypes = []RuleTypeInfo{
	{FilterTitle, "title", RuleValueString, false, false},
	{FilterContent, "content", RuleValueString, false, false},
	{FilterASN, "asn", RuleValueNumber, false, false},
	{FilterCorrespondent, "correspondent", RuleValueNumber, true, false},
	{FilterDocumentType, "document_type", RuleValueNumber, true, false},
	{FilterIsInInbox, "is_in_inbox", RuleValueBoolean, false, false},
	{FilterHasTagsAll, "has_tags_all", RuleValueNumber, false, true},
	{FilterHasAnyTag, "has_any_tag", RuleValueBoolean, false, false},
	{FilterCreatedBefore, "created_before", RuleValueDate, false, false},
	{FilterCreatedAfter, "created_after", RuleValueDate, false, false},
	{FilterAddedBefore, "added_before", RuleValueDate, false, false},
	{FilterAddedAfter, "added_after", RuleValueDate, false, false},
	{FilterModifiedBefore, "modified_before", RuleValueDate, false, false},
	{FilterModifiedAfter, "modified_after", RuleValueDate, false, false},
	{FilterDoesNotHaveTag, "does_not_have_tag", RuleValueNumber, false, true},
	{FilterASNIsNull, "asn_isnull", RuleValueBoolean, false, false},
	{FilterTitleContent, "title_content", RuleValueString, false, false},
	{FilterFulltextQuery, "fulltext_query", RuleValueString, false, false},
	{FilterFulltextMoreLike, "fulltext_morelike", RuleValueNumber, false, false},
	{FilterHasTagsAny, "has_tags_any", RuleValueNumber, false, true},
	{FilterASNGreaterThan, "asn_gt", RuleValueNumber, false, false},
	{FilterASNLessThan, "asn_lt", RuleValueNumber, false, false},
	{FilterStoragePath, "storage_path", RuleValueNumber, true, false},
	{FilterHasCorrespondentAny, "has_correspondent_any", RuleValueNumber, false, true},
	{FilterDoesNotHaveCorrespondent, "does_not_have_correspondent", RuleValueNumber, false, true},
	{FilterHasDocumentTypeAny, "has_document_type_any", RuleValueNumber, false, true},
	{FilterDoesNotHaveDocumentType, "does_not_have_document_type", RuleValueNumber, false, true},
	{FilterHasStoragePathAny, "has_storage_path_any", RuleValueNumber, false, true},
	{FilterDoesNotHaveStoragePath, "does_not_have_storage_path", RuleValueNumber, false, true},
	{FilterOwner, "owner", RuleValueNumber, false, false},
	{FilterOwnerAny, "owner_any", RuleValueNumber, false, true},
	{FilterOwnerIsNull, "owner_isnull", RuleValueBoolean, false, false},
	{FilterOwnerDoesNotInclude, "owner_does_not_include", RuleValueNumber, false, true},
	{FilterCustomFieldsText, "custom_fields_text", RuleValueString, false, false},
	{FilterSharedByUser, "shared_by_user", RuleValueNumber, false, false},
	{FilterHasCustomFieldsAll, "has_custom_fields_all", RuleValueNumber, false, true},
	{FilterHasCustomFieldsAny, "has_custom_fields_any", RuleValueNumber, false, true},
	{FilterCustomFieldsQuery, "custom_fields_query", RuleValueQuery, false, false},
}

// RuleTypeByID returns the table entry for a rule type
func RuleTypeByID(id RuleType) (RuleTypeInfo, bool) {
	for _, info := range RuleTypes {
		if info.ID == id {
			return info, true
		}
	}
	return RuleTypeInfo{}, false
}

// String returns the rule type's table name, or its number when unknown
func (r RuleType) String() string {
	if info, ok := RuleTypeByID(r); ok {
		return info.Name
	}
	return strconv.Itoa(int(r))
}

// FilterRule is one element of the flat rule list sent to the backend
type FilterRule struct {
	RuleType RuleType `json:"rule_type" yaml:"rule_type"`
	Value    *string  `json:"value" yaml:"value"`
}

// NewRule creates a rule with a non-null value
func NewRule(ruleType RuleType, value string) FilterRule {
	return FilterRule{RuleType: ruleType, Value: &value}
}

// NewNullRule creates a rule whose value is null
func NewNullRule(ruleType RuleType) FilterRule {
	return FilterRule{RuleType: ruleType}
}

// ValueOrEmpty returns the rule value, or "" when it is null
func (r FilterRule) ValueOrEmpty() string {
	if r.Value == nil {
		return ""
	}
	return *r.Value
}

// Key returns a comparable representation of the rule, distinguishing a
// null value from an empty string
func (r FilterRule) Key() string {
	if r.Value == nil {
		return strconv.Itoa(int(r.RuleType)) + ":null"
	}
	return strconv.Itoa(int(r.RuleType)) + ":" + strconv.Quote(*r.Value)
}
