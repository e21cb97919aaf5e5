package orm

import (
	"context"

	"github.com/coderi421/crudx/orm/internal/errs"
	"github.com/coderi421/crudx/orm/model"
)

// Updater 按照主键更新一个实体
type Updater[T any] struct {
	builder
	sess Session

	val     *T       // 更新用的结构体
	columns []string // 只更新指定的字段
}

func NewUpdater[T any](sess Session) *Updater[T] {
	return &Updater[T]{
		builder: newBuilder(sess),
		sess:    sess,
	}
}

func (u *Updater[T]) Table(table string) *Updater[T] {
	u.table = table
	return u
}

func (u *Updater[T]) Update(t *T) *Updater[T] {
	u.val = t
	return u
}

// Columns 只更新指定的字段，使用的是字段名
func (u *Updater[T]) Columns(cols ...string) *Updater[T] {
	u.columns = cols
	return u
}

// Build UPDATE t SET a = @A, b = @B WHERE id = @Id;
func (u *Updater[T]) Build() (*Query, error) {
	u.reset()
	if u.val == nil {
		return nil, errs.ErrNilEntity
	}
	if err := u.resolve(new(T)); err != nil {
		return nil, err
	}
	if len(u.model.Keys) == 0 {
		return nil, errs.ErrNoKeyField
	}
	fields, err := u.updateFields()
	if err != nil {
		return nil, err
	}

	u.sb.WriteString("UPDATE ")
	u.buildTable()
	u.sb.WriteString(" SET ")
	val := u.valCreator(u.val, u.model)
	for i, fd := range fields {
		if i > 0 {
			u.sb.WriteString(", ")
		}
		arg, err := val.Field(fd.GoName)
		if err != nil {
			return nil, err
		}
		u.quote(fd.ColName)
		u.sb.WriteString(" = ")
		u.param(fd.GoName, arg)
	}
	if err = u.buildKeyWhere(u.val); err != nil {
		return nil, err
	}
	return u.query(), nil
}

func (u *Updater[T]) updateFields() ([]*model.Field, error) {
	fields := make([]*model.Field, 0, len(u.model.Fields))
	if len(u.columns) > 0 {
		for _, c := range u.columns {
			fd, err := u.matchField(c)
			if err != nil {
				return nil, err
			}
			if fd.Updatable() {
				fields = append(fields, fd)
			}
		}
	} else {
		for _, fd := range u.model.Fields {
			if fd.Updatable() {
				fields = append(fields, fd)
			}
		}
	}
	if len(fields) == 0 {
		return nil, errs.ErrNoUpdatedColumns
	}
	return fields, nil
}

func (u *Updater[T]) Exec(ctx context.Context) Result {
	if err := u.resolve(new(T)); err != nil {
		return Result{err: err}
	}
	return asResult(exec(ctx, u.sess, u.core, &QueryContext{
		Type:    "UPDATE",
		Builder: u,
		Model:   u.model,
	}))
}
