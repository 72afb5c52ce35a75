package rules

// RuleField identifies a filterable book attribute. The string values are
// the persisted wire values and must never change for existing shelves.
type RuleField string

const (
	FieldTitle      RuleField = "TITLE"
	FieldAuthor     RuleField = "AUTHOR"
	FieldTag        RuleField = "TAG"
	FieldSeries     RuleField = "SERIES"
	FieldPublisher  RuleField = "PUBLISHER"
	FieldLanguage   RuleField = "LANGUAGE"
	FieldRating     RuleField = "RATING"
	FieldPubdate    RuleField = "PUBDATE"
	FieldIdentifier RuleField = "IDENTIFIER"
	FieldISBN       RuleField = "ISBN"
)

// Fields returns every known RuleField value.
func Fields() []RuleField {
	return []RuleField{
		FieldTitle,
		FieldAuthor,
		FieldTag,
		FieldSeries,
		FieldPublisher,
		FieldLanguage,
		FieldRating,
		FieldPubdate,
		FieldIdentifier,
		FieldISBN,
	}
}

func (f RuleField) IsValid() bool {
	for _, known := range Fields() {
		if f == known {
			return true
		}
	}
	return false
}

// RuleOperator identifies a comparison applied to a single column.
type RuleOperator string

const (
	OperatorEquals              RuleOperator = "EQUALS"
	OperatorNotEquals           RuleOperator = "NOT_EQUALS"
	OperatorContains            RuleOperator = "CONTAINS"
	OperatorNotContains         RuleOperator = "NOT_CONTAINS"
	OperatorStartsWith          RuleOperator = "STARTS_WITH"
	OperatorEndsWith            RuleOperator = "ENDS_WITH"
	OperatorGreaterThan         RuleOperator = "GREATER_THAN"
	OperatorLessThan            RuleOperator = "LESS_THAN"
	OperatorGreaterThanOrEquals RuleOperator = "GREATER_THAN_OR_EQUALS"
	OperatorLessThanOrEquals    RuleOperator = "LESS_THAN_OR_EQUALS"
	OperatorIn                  RuleOperator = "IN"
	OperatorNotIn               RuleOperator = "NOT_IN"
	OperatorIsEmpty             RuleOperator = "IS_EMPTY"
	OperatorIsNotEmpty          RuleOperator = "IS_NOT_EMPTY"
)

// Operators returns every known RuleOperator value.
func Operators() []RuleOperator {
	return []RuleOperator{
		OperatorEquals,
		OperatorNotEquals,
		OperatorContains,
		OperatorNotContains,
		OperatorStartsWith,
		OperatorEndsWith,
		OperatorGreaterThan,
		OperatorLessThan,
		OperatorGreaterThanOrEquals,
		OperatorLessThanOrEquals,
		OperatorIn,
		OperatorNotIn,
		OperatorIsEmpty,
		OperatorIsNotEmpty,
	}
}

func (o RuleOperator) IsValid() bool {
	for _, known := range Operators() {
		if o == known {
			return true
		}
	}
	return false
}

// JoinType combines the children of one GroupRule.
type JoinType string

const (
	JoinAnd JoinType = "AND"
	JoinOr  JoinType = "OR"
)

func (j JoinType) IsValid() bool {
	return j == JoinAnd || j == JoinOr
}

// Node is either a leaf Rule or a nested GroupRule.
type Node interface {
	isNode()
}

// Rule is one leaf condition: field, operator and a value whose shape
// depends on the operator (scalar, list, or absent for the empty checks).
type Rule struct {
	Field    RuleField    `json:"field"`
	Operator RuleOperator `json:"operator"`
	Value    any          `json:"value"`
}

func (*Rule) isNode() {}

// GroupRule is a boolean combination of child nodes. A group with no
// children matches every record; that is the persisted "no filter" state.
type GroupRule struct {
	JoinType JoinType
	Rules    []Node
}

func (*GroupRule) isNode() {}

// NewGroup builds a group over the given children.
func NewGroup(join JoinType, children ...Node) *GroupRule {
	return &GroupRule{JoinType: join, Rules: children}
}

// NewRule builds a leaf condition.
func NewRule(field RuleField, operator RuleOperator, value any) *Rule {
	return &Rule{Field: field, Operator: operator, Value: value}
}
