package orm

import (
	"context"
)

type Querier[T any] interface {
	// Get 返回一条数据，没有数据的时候返回 ErrNoRows
	Get(ctx context.Context) (*T, error)
	GetMulti(ctx context.Context) ([]*T, error)
}

type Executor interface {
	Exec(ctx context.Context) Result
}

type Query struct {
	SQL  string
	Args []any
}

type QueryBuilder interface {
	Build() (*Query, error)
}
