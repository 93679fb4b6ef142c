package filter

import (
	"slices"

	"github.com/rebeliceyang/docfilter/internal/models"
)

// OperatorGroup is a named set of query operators offered together
type OperatorGroup string

const (
	GroupBasic       OperatorGroup = "basic"
	GroupExact       OperatorGroup = "exact"
	GroupString      OperatorGroup = "string"
	GroupArithmetic  OperatorGroup = "arithmetic"
	GroupContainment OperatorGroup = "containment"
	GroupSubset      OperatorGroup = "subset"
	GroupDate        OperatorGroup = "date"
)

// GroupOperators lists the operators of each group
var GroupOperators = map[OperatorGroup][]models.QueryOperator{
	GroupBasic:       {models.QueryOpExists, models.QueryOpIsNull},
	GroupExact:       {models.QueryOpExact, models.QueryOpIn},
	GroupString:      {models.QueryOpIContains, models.QueryOpIStartsWith, models.QueryOpIEndsWith},
	GroupArithmetic:  {models.QueryOpGreaterThan, models.QueryOpGreaterThanOrEqual, models.QueryOpLessThan, models.QueryOpLessThanOrEqual},
	GroupContainment: {models.QueryOpContains},
	GroupSubset:      {models.QueryOpIn},
	GroupDate:        {models.QueryOpGreaterThanOrEqual, models.QueryOpLessThanOrEqual},
}

// GroupsForType returns the operator groups offered for a custom field data type
func GroupsForType(dataType models.CustomFieldDataType) []OperatorGroup {
	switch dataType {
	case models.CustomFieldString, models.CustomFieldURL:
		return []OperatorGroup{GroupBasic, GroupExact, GroupString}
	case models.CustomFieldDate:
		return []OperatorGroup{GroupBasic, GroupDate}
	case models.CustomFieldBoolean:
		return []OperatorGroup{GroupBasic, GroupExact}
	case models.CustomFieldInteger, models.CustomFieldFloat:
		return []OperatorGroup{GroupBasic, GroupExact, GroupArithmetic}
	case models.CustomFieldMonetary:
		return []OperatorGroup{GroupBasic, GroupExact, GroupString, GroupArithmetic}
	case models.CustomFieldDocumentLink:
		return []OperatorGroup{GroupBasic, GroupContainment}
	case models.CustomFieldSelect:
		return []OperatorGroup{GroupBasic, GroupSubset}
	default:
		return []OperatorGroup{GroupBasic}
	}
}

// GetOperatorsForType returns the operators offered for a data type, in
// group order without duplicates
func GetOperatorsForType(dataType models.CustomFieldDataType) []models.QueryOperator {
	var ops []models.QueryOperator
	for _, group := range GroupsForType(dataType) {
		for _, op := range GroupOperators[group] {
			if !slices.Contains(ops, op) {
				ops = append(ops, op)
			}
		}
	}
	return ops
}

// OperatorAllowed reports whether op may be used on field
func OperatorAllowed(field models.CustomField, op models.QueryOperator) bool {
	return slices.Contains(GetOperatorsForType(field.DataType), op)
}
