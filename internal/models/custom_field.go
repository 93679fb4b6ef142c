package models

// CustomFieldDataType is the data type of a custom field definition
type CustomFieldDataType string

const (
	CustomFieldString       CustomFieldDataType = "string"
	CustomFieldURL          CustomFieldDataType = "url"
	CustomFieldDate         CustomFieldDataType = "date"
	CustomFieldBoolean      CustomFieldDataType = "boolean"
	CustomFieldInteger      CustomFieldDataType = "integer"
	CustomFieldFloat        CustomFieldDataType = "float"
	CustomFieldMonetary     CustomFieldDataType = "monetary"
	CustomFieldDocumentLink CustomFieldDataType = "documentlink"
	CustomFieldSelect       CustomFieldDataType = "select"
)

// CustomField is a custom-field definition reported by the server
type CustomField struct {
	ID        int                    `json:"id" yaml:"id"`
	Name      string                 `json:"name" yaml:"name"`
	DataType  CustomFieldDataType    `json:"data_type" yaml:"data_type"`
	ExtraData map[string]interface{} `json:"extra_data,omitempty" yaml:"extra_data,omitempty"`
}

// QueryOperator is an operator of a custom-field query atom
type QueryOperator string

const (
	QueryOpExists             QueryOperator = "exists"
	QueryOpIsNull             QueryOperator = "isnull"
	QueryOpExact              QueryOperator = "exact"
	QueryOpIn                 QueryOperator = "in"
	QueryOpIContains          QueryOperator = "icontains"
	QueryOpIStartsWith        QueryOperator = "istartswith"
	QueryOpIEndsWith          QueryOperator = "iendswith"
	QueryOpGreaterThan        QueryOperator = "gt"
	QueryOpGreaterThanOrEqual QueryOperator = "gte"
	QueryOpLessThan           QueryOperator = "lt"
	QueryOpLessThanOrEqual    QueryOperator = "lte"
	QueryOpContains           QueryOperator = "contains"
	QueryOpRange              QueryOperator = "range"
)

// QueryValueKind is the kind of value an operator expects
type QueryValueKind string

const (
	QueryValueString  QueryValueKind = "string"
	QueryValueBoolean QueryValueKind = "boolean"
	QueryValueList    QueryValueKind = "list"
	QueryValueNumber  QueryValueKind = "number"
)

// QueryValueKinds maps every operator to the value kind it expects
var QueryValueKinds = map[QueryOperator]QueryValueKind{
	QueryOpExists:             QueryValueBoolean,
	QueryOpIsNull:             QueryValueBoolean,
	QueryOpExact:              QueryValueString,
	QueryOpIn:                 QueryValueList,
	QueryOpIContains:          QueryValueString,
	QueryOpIStartsWith:        QueryValueString,
	QueryOpIEndsWith:          QueryValueString,
	QueryOpGreaterThan:        QueryValueNumber,
	QueryOpGreaterThanOrEqual: QueryValueNumber,
	QueryOpLessThan:           QueryValueNumber,
	QueryOpLessThanOrEqual:    QueryValueNumber,
	QueryOpContains:           QueryValueList,
	QueryOpRange:              QueryValueList,
}

// QueryLogicalOperator joins the children of a query expression
type QueryLogicalOperator string

const (
	QueryAnd QueryLogicalOperator = "AND"
	QueryOr  QueryLogicalOperator = "OR"
	QueryNot QueryLogicalOperator = "NOT"
)

// Valid reports whether the operator is one of AND, OR, NOT
func (op QueryLogicalOperator) Valid() bool {
	return op == QueryAnd || op == QueryOr || op == QueryNot
}
