package orm

import (
	"context"
)

// Counter 构造 SELECT COUNT(1)
type Counter[T any] struct {
	builder
	sess Session

	filter    any
	where     string
	whereArgs []any
}

func NewCounter[T any](sess Session) *Counter[T] {
	return &Counter[T]{
		builder: newBuilder(sess),
		sess:    sess,
	}
}

func (c *Counter[T]) From(table string) *Counter[T] {
	c.table = table
	return c
}

// Where 和 Selector.Where 一样，nil 代表统计全表
func (c *Counter[T]) Where(filter any) *Counter[T] {
	c.filter = filter
	return c
}

func (c *Counter[T]) WhereRaw(conditions string, args ...any) *Counter[T] {
	c.where = conditions
	c.whereArgs = args
	return c
}

func (c *Counter[T]) Build() (*Query, error) {
	c.reset()
	if err := c.resolve(new(T)); err != nil {
		return nil, err
	}
	c.sb.WriteString("SELECT COUNT(1) FROM ")
	c.buildTable()
	if c.where != "" {
		c.buildRawWhere(c.where, c.whereArgs)
	} else if err := c.buildFilterWhere(c.filter); err != nil {
		return nil, err
	}
	return c.query(), nil
}

func (c *Counter[T]) Count(ctx context.Context) (int64, error) {
	if err := c.resolve(new(T)); err != nil {
		return 0, err
	}
	res := scalar(ctx, c.sess, c.core, &QueryContext{
		Type:    "COUNT",
		Builder: c,
		Model:   c.model,
	})
	if res.Err != nil {
		return 0, res.Err
	}
	return res.Result.(int64), nil
}
