package repository

import (
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// QueryOptions controls ordering and paging of list reads.
type QueryOptions struct {
	Order  []exp.OrderedExpression
	Limit  uint
	Offset uint
}

type QueryOption func(*QueryOptions)

// DefaultOrder is insertion order. Rows saved together share created_at;
// seq is assigned by the store in flush order.
func DefaultOrder() []exp.OrderedExpression {
	return []exp.OrderedExpression{goqu.C("created_at").Asc(), goqu.C("seq").Asc()}
}

// NewestFirst reverses DefaultOrder.
func NewestFirst() []exp.OrderedExpression {
	return []exp.OrderedExpression{goqu.C("created_at").Desc(), goqu.C("seq").Desc()}
}

func OrderBy(order ...exp.OrderedExpression) QueryOption {
	return func(o *QueryOptions) {
		o.Order = order
	}
}

func Paginate(p model.Page) QueryOption {
	p = p.Normalize()
	return func(o *QueryOptions) {
		o.Limit = uint(p.Size)
		o.Offset = uint(p.Offset())
	}
}

func Limit(n uint) QueryOption {
	return func(o *QueryOptions) {
		o.Limit = n
	}
}

// BuildQueryOptions applies opts over the defaults.
func BuildQueryOptions(opts ...QueryOption) QueryOptions {
	o := QueryOptions{Order: DefaultOrder()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
