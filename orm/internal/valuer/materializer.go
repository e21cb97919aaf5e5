package valuer

import (
	"database/sql"
	"reflect"

	"github.com/coderi421/crudx/orm/internal/errs"
	"github.com/coderi421/crudx/orm/model"
)

// materializer 先把每一列读成驱动原始的值，再转换成字段的类型
// 和 reflectValue 不同，它不要求列的类型和字段的类型完全一致，
// NULL 会让字段保持零值，不认识的列会被跳过
type materializer struct {
	val  reflect.Value
	meta *model.Model
}

var _ Creator = NewMaterializer

// NewMaterializer 输入 val 必须是一个指向结构体实例的指针
func NewMaterializer(val any, meta *model.Model) Value {
	return materializer{
		val:  reflect.ValueOf(val).Elem(),
		meta: meta,
	}
}

func (m materializer) Field(name string) (any, error) {
	fd, ok := m.meta.FieldMap[name]
	if !ok {
		return nil, errs.NewErrUnknownField(name)
	}
	return m.val.Field(fd.Index).Interface(), nil
}

func (m materializer) SetColumns(rows *sql.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	holders := make([]any, len(columns))
	for i := range holders {
		holders[i] = new(any)
	}
	if err = rows.Scan(holders...); err != nil {
		return err
	}
	for i, column := range columns {
		fd, ok := m.meta.LookupResultColumn(column)
		if !ok {
			continue
		}
		raw := *(holders[i].(*any))
		if raw == nil {
			continue
		}
		if err = assign(m.val.Field(fd.Index), raw); err != nil {
			return err
		}
	}
	return nil
}
