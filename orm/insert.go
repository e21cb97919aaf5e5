package orm

import (
	"context"
	"errors"
	"reflect"
	"strconv"

	"github.com/coderi421/crudx/orm/internal/errs"
	"github.com/coderi421/crudx/orm/model"
	"github.com/google/uuid"
)

type Inserter[T any] struct {
	builder
	sess Session

	values  []*T     // 缓存要插入的数据
	columns []string // 只插入指定的字段
	// allColumns 插入所有映射的列，包括主键
	allColumns bool
	// identity 插入之后获取自增主键
	identity bool
	// includeKeys 主键由调用者提供
	includeKeys bool
}

func NewInserter[T any](sess Session) *Inserter[T] {
	return &Inserter[T]{
		builder: newBuilder(sess),
		sess:    sess,
	}
}

// Into 指定表名
func (i *Inserter[T]) Into(table string) *Inserter[T] {
	i.table = table
	return i
}

// Values 将插入数据库中的数据
func (i *Inserter[T]) Values(vals ...*T) *Inserter[T] {
	i.values = vals
	return i
}

// Columns 只插入指定的字段，使用的是字段名
func (i *Inserter[T]) Columns(cols ...string) *Inserter[T] {
	i.columns = cols
	return i
}

// AllColumns 插入所有映射的列，主键也由调用者提供
func (i *Inserter[T]) AllColumns() *Inserter[T] {
	i.allColumns = true
	return i
}

// IncludeKeys 主键的值由调用者提供，也要插入
func (i *Inserter[T]) IncludeKeys() *Inserter[T] {
	i.includeKeys = true
	return i
}

// ReturnIdentity 插入之后获取数据库生成的自增主键
// 只支持插入一行
func (i *Inserter[T]) ReturnIdentity() *Inserter[T] {
	i.identity = true
	return i
}

func (i *Inserter[T]) Build() (*Query, error) {
	i.reset()
	if len(i.values) == 0 {
		return nil, errs.ErrInsertZeroRow
	}
	if err := i.resolve(new(T)); err != nil {
		return nil, err
	}
	fields, err := i.insertFields()
	if err != nil {
		return nil, err
	}

	i.sb.WriteString("INSERT INTO ")
	i.buildTable()
	i.sb.WriteString(" (")
	for idx, fd := range fields {
		if idx > 0 {
			i.sb.WriteString(", ")
		}
		i.quote(fd.ColName)
	}
	i.sb.WriteString(") VALUES ")

	i.args = make([]any, 0, len(fields)*len(i.values))
	for vIdx, val := range i.values {
		if val == nil {
			return nil, errs.ErrInsertNilEntity
		}
		if vIdx > 0 {
			i.sb.WriteString(", ")
		}
		fillUUIDKeys(reflect.ValueOf(val).Elem(), fields)
		// 由于是泛型，所以这里通过 valuer 取值
		refVal := i.valCreator(val, i.model)
		i.sb.WriteByte('(')
		for fIdx, fd := range fields {
			if fIdx > 0 {
				i.sb.WriteString(", ")
			}
			arg, err := refVal.Field(fd.GoName)
			if err != nil {
				return nil, err
			}
			name := fd.GoName
			if len(i.values) > 1 {
				// 多行插入的时候，命名参数不能重复
				name = name + "_" + strconv.Itoa(vIdx)
			}
			i.param(name, arg)
		}
		i.sb.WriteByte(')')
	}

	if i.identity {
		switch {
		case i.dialect.UseLastInsertID():
		case i.dialect.UseReturning():
			key, err := i.model.Key()
			if err != nil {
				return nil, err
			}
			i.sb.WriteString(" RETURNING ")
			i.quote(key.ColName)
		default:
			i.sb.WriteByte(';')
			i.sb.WriteString(i.dialect.IdentitySQL())
		}
	}
	return i.query(), nil
}

func (i *Inserter[T]) insertFields() ([]*model.Field, error) {
	var fields []*model.Field
	switch {
	case len(i.columns) > 0:
		fields = make([]*model.Field, 0, len(i.columns))
		for _, c := range i.columns {
			fd, err := i.matchField(c)
			if err != nil {
				return nil, err
			}
			fields = append(fields, fd)
		}
	case i.allColumns:
		for _, fd := range i.model.Fields {
			if !fd.NotMapped {
				fields = append(fields, fd)
			}
		}
	default:
		for _, fd := range i.model.Fields {
			if fd.Insertable() || (i.includeKeys && fd.Key && !fd.NotMapped) {
				fields = append(fields, fd)
			}
		}
	}
	if len(fields) == 0 {
		return nil, errs.ErrNoInsertedColumns
	}
	return fields, nil
}

// fillUUIDKeys 零值的 UUID 主键在构造参数之前生成
// 这样插入的值和返回给调用者的值是同一个
func fillUUIDKeys(val reflect.Value, fields []*model.Field) {
	for _, fd := range fields {
		if !fd.Key || !fd.IsUUID() {
			continue
		}
		fv := val.Field(fd.Index)
		if fv.Interface().(uuid.UUID) == uuid.Nil {
			fv.Set(reflect.ValueOf(SequentialUUID()))
		}
	}
}

func (i *Inserter[T]) Exec(ctx context.Context) Result {
	if err := i.resolve(new(T)); err != nil {
		return Result{err: err}
	}
	qc := &QueryContext{
		Type:    "INSERT",
		Builder: i,
		Model:   i.model,
	}
	if !i.identity || i.dialect.UseLastInsertID() {
		return asResult(exec(ctx, i.sess, i.core, qc))
	}
	if len(i.values) != 1 {
		return Result{err: errs.ErrIdentityMultiRows}
	}
	res := scalar(ctx, i.sess, i.core, qc)
	if res.Err != nil {
		if errors.Is(res.Err, ErrNoRows) {
			return Result{err: errs.ErrNoIdentityReturned}
		}
		return Result{err: res.Err}
	}
	return Result{res: identityResult(res.Result.(int64))}
}
