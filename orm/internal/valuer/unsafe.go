package valuer

import (
	"database/sql"
	"reflect"
	"unsafe"

	"github.com/coderi421/crudx/orm/internal/errs"
	"github.com/coderi421/crudx/orm/model"
)

type unsafeValue struct {
	// 使用 unsafe Pointer 而不是 uintptr 是因为 gc 后 uintptr 会发生变化
	addr unsafe.Pointer
	meta *model.Model
}

var _ Creator = NewUnsafeValue

// NewUnsafeValue 直接按照字段偏移量读写，省掉 FieldByName 之类的反射开销
func NewUnsafeValue(val any, meta *model.Model) Value {
	return unsafeValue{
		addr: reflect.ValueOf(val).UnsafePointer(),
		meta: meta,
	}
}

func (u unsafeValue) Field(name string) (any, error) {
	fd, ok := u.meta.FieldMap[name]
	if !ok {
		return nil, errs.NewErrUnknownField(name)
	}
	ptr := unsafe.Add(u.addr, fd.Offset)
	return reflect.NewAt(fd.Type, ptr).Elem().Interface(), nil
}

func (u unsafeValue) SetColumns(rows *sql.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	colValues := make([]any, len(columns))
	// 需要在 Scan 之后再写回字段的列
	holders := make([]reflect.Value, len(columns))
	for i, column := range columns {
		fd, ok := lookupColumn(u.meta, column)
		if !ok {
			colValues[i] = new(any)
			continue
		}
		holder, wrapped := scanHolder(fd.Type)
		if wrapped {
			colValues[i] = holder.Interface()
			holders[i] = holder.Elem()
			continue
		}
		ptr := unsafe.Add(u.addr, fd.Offset)
		colValues[i] = reflect.NewAt(fd.Type, ptr).Interface()
	}
	if err = rows.Scan(colValues...); err != nil {
		return err
	}
	for i, column := range columns {
		holder := holders[i]
		if !holder.IsValid() || holder.IsNil() {
			continue
		}
		fd, _ := lookupColumn(u.meta, column)
		ptr := unsafe.Add(u.addr, fd.Offset)
		reflect.NewAt(fd.Type, ptr).Elem().Set(holder.Elem())
	}
	return nil
}
