package orm

import (
	"context"
	"strings"

	"github.com/coderi421/crudx/orm/internal/errs"
)

// Deleter 构造 DELETE 语句
// 没有任何条件的时候拒绝构造，不会删除整张表
type Deleter[T any] struct {
	builder
	sess Session

	entity    *T
	byID      bool
	id        any
	filter    any
	hasFilter bool
	where     string
	whereArgs []any
	rawWhere  bool
}

func NewDeleter[T any](sess Session) *Deleter[T] {
	return &Deleter[T]{
		builder: newBuilder(sess),
		sess:    sess,
	}
}

// From sets the table for the Deleter and returns a pointer to the Deleter.
func (d *Deleter[T]) From(table string) *Deleter[T] {
	d.table = table
	return d
}

// Entity 按照实体上的主键删除
func (d *Deleter[T]) Entity(t *T) *Deleter[T] {
	d.entity = t
	return d
}

// ByID 按照唯一主键删除
func (d *Deleter[T]) ByID(id any) *Deleter[T] {
	d.byID = true
	d.id = id
	return d
}

// Where 使用过滤条件，条件不能为空
func (d *Deleter[T]) Where(filter any) *Deleter[T] {
	d.filter = filter
	d.hasFilter = true
	return d
}

// WhereRaw 条件里面必须包含 WHERE
func (d *Deleter[T]) WhereRaw(conditions string, args ...any) *Deleter[T] {
	d.where = conditions
	d.whereArgs = args
	d.rawWhere = true
	return d
}

// Build generates a DELETE query based on the provided parameters.
func (d *Deleter[T]) Build() (*Query, error) {
	d.reset()
	if d.rawWhere {
		// 在访问元数据之前就拒绝
		if strings.TrimSpace(d.where) == "" || !strings.Contains(strings.ToLower(d.where), "where") {
			return nil, errs.ErrDeleteWithoutWhere
		}
	}
	if err := d.resolve(new(T)); err != nil {
		return nil, err
	}

	d.sb.WriteString("DELETE FROM ")
	d.buildTable()

	var err error
	switch {
	case d.entity != nil:
		err = d.buildKeyWhere(d.entity)
	case d.byID:
		err = d.buildIDWhere(d.id)
	case d.rawWhere:
		d.buildRawWhere(d.where, d.whereArgs)
	case d.hasFilter:
		err = d.buildFilter()
	default:
		err = errs.ErrDeleteWithoutWhere
	}
	if err != nil {
		return nil, err
	}
	return d.query(), nil
}

func (d *Deleter[T]) buildFilter() error {
	entries, err := filterEntries(d.filter)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errs.ErrNilFilter
	}
	return d.buildEntries(entries)
}

func (d *Deleter[T]) Exec(ctx context.Context) Result {
	if err := d.resolve(new(T)); err != nil {
		return Result{err: err}
	}
	return asResult(exec(ctx, d.sess, d.core, &QueryContext{
		Type:    "DELETE",
		Builder: d,
		Model:   d.model,
	}))
}
