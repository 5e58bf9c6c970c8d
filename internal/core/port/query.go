package port

import (
	"fmt"
	"slices"
)

type Operator string

const (
	OperatorIsNull    Operator = "IS NULL"
	OperatorIsNotNull Operator = "IS NOT NULL"
	OperatorEquals    Operator = "="
)

type Predicate struct {
	Attribute string
	Operator  Operator
	Value     any
}

func (p Predicate) String() string {
	if p.Operator == OperatorEquals {
		return fmt.Sprintf("%s = %v", p.Attribute, p.Value)
	}

	return fmt.Sprintf("%s %s", p.Attribute, p.Operator)
}

func IsNull(attr string) Predicate {
	return Predicate{Attribute: attr, Operator: OperatorIsNull}
}

func IsNotNull(attr string) Predicate {
	return Predicate{Attribute: attr, Operator: OperatorIsNotNull}
}

func Equals(attr string, value any) Predicate {
	return Predicate{Attribute: attr, Operator: OperatorEquals, Value: value}
}

type Order struct {
	Attribute string
	Desc      bool
}

// Query is an immutable description of a record selection. Default
// predicates are attached explicitly and can be dropped with Unscoped.
type Query struct {
	defaults   []Predicate
	predicates []Predicate
	unscoped   bool
	orders     []Order
	limit      *int
	offset     *int
}

func NewQuery() *Query {
	return &Query{}
}

func (q *Query) clone() *Query {
	if q == nil {
		return NewQuery()
	}

	clone := &Query{
		defaults:   slices.Clone(q.defaults),
		predicates: slices.Clone(q.predicates),
		unscoped:   q.unscoped,
		orders:     slices.Clone(q.orders),
	}

	if q.limit != nil {
		limit := *q.limit
		clone.limit = &limit
	}

	if q.offset != nil {
		offset := *q.offset
		clone.offset = &offset
	}

	return clone
}

// Where returns a copy of the query with the given predicates added.
func (q *Query) Where(predicates ...Predicate) *Query {
	clone := q.clone()
	clone.predicates = append(clone.predicates, predicates...)
	return clone
}

// WithDefaults returns a copy of the query with the given default predicates added.
func (q *Query) WithDefaults(predicates ...Predicate) *Query {
	clone := q.clone()
	clone.defaults = append(clone.defaults, predicates...)
	return clone
}

// Unscoped returns a copy of the query ignoring its default predicates.
func (q *Query) Unscoped() *Query {
	clone := q.clone()
	clone.unscoped = true
	return clone
}

func (q *Query) OrderBy(attr string, desc bool) *Query {
	clone := q.clone()
	clone.orders = append(clone.orders, Order{Attribute: attr, Desc: desc})
	return clone
}

func (q *Query) Limit(limit int) *Query {
	clone := q.clone()
	clone.limit = &limit
	return clone
}

func (q *Query) Offset(offset int) *Query {
	clone := q.clone()
	clone.offset = &offset
	return clone
}

func (q *Query) IsUnscoped() bool {
	return q != nil && q.unscoped
}

// Predicates returns the effective predicates of the query, default ones first.
func (q *Query) Predicates() []Predicate {
	if q == nil {
		return nil
	}

	predicates := make([]Predicate, 0, len(q.defaults)+len(q.predicates))
	if !q.unscoped {
		predicates = append(predicates, q.defaults...)
	}

	return append(predicates, q.predicates...)
}

func (q *Query) Orders() []Order {
	if q == nil {
		return nil
	}

	return slices.Clone(q.orders)
}

func (q *Query) Pagination() (limit *int, offset *int) {
	if q == nil {
		return nil, nil
	}

	return q.limit, q.offset
}
