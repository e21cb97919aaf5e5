package valuer

import (
	"database/sql"
	"reflect"

	"github.com/coderi421/crudx/orm/internal/errs"
	"github.com/coderi421/crudx/orm/model"
)

// reflectValue 基于反射的 Value
// 扫描交给驱动完成，列的类型要和字段的类型匹配
type reflectValue struct {
	val  reflect.Value
	meta *model.Model
}

var _ Creator = NewReflectValue

// NewReflectValue 返回一个封装好的，基于反射实现的 Value
// 输入 val 必须是一个指向结构体实例的指针，而不能是任何其它类型
func NewReflectValue(val any, meta *model.Model) Value {
	return reflectValue{
		val:  reflect.ValueOf(val).Elem(),
		meta: meta,
	}
}

func (r reflectValue) Field(name string) (any, error) {
	fd, ok := r.meta.FieldMap[name]
	if !ok {
		return nil, errs.NewErrUnknownField(name)
	}
	return r.val.Field(fd.Index).Interface(), nil
}

// SetColumns 将数据库中的数据设置到对应的 struct 上
func (r reflectValue) SetColumns(rows *sql.Rows) error {
	columnNames, err := rows.Columns()
	if err != nil {
		return err
	}

	// colValues 和 colEleValues 实质上最终都指向同一个对象
	colValues := make([]any, len(columnNames))
	colEleValues := make([]reflect.Value, len(columnNames))
	nullable := make([]bool, len(columnNames))
	for i, name := range columnNames {
		fd, ok := lookupColumn(r.meta, name)
		if !ok {
			// 不认识的列直接丢弃
			colValues[i] = new(any)
			continue
		}
		// 构建出新的 reflect.Value，修改 colValues 的时候
		// colEleValues 也能拿到变化后的值，因为它们指向相同的内存地址
		value, wrapped := scanHolder(fd.Type)
		colValues[i] = value.Interface()
		colEleValues[i] = value.Elem()
		nullable[i] = wrapped
	}

	// scan 方法接收的是 []any 参数 而不是 []reflect.Value
	if err = rows.Scan(colValues...); err != nil {
		return err
	}

	for i, name := range columnNames {
		ele := colEleValues[i]
		if !ele.IsValid() {
			continue
		}
		if nullable[i] {
			// NULL 保持零值
			if ele.IsNil() {
				continue
			}
			ele = ele.Elem()
		}
		fd, _ := lookupColumn(r.meta, name)
		r.val.Field(fd.Index).Set(ele)
	}
	return nil
}

// scanHolder 返回传给 rows.Scan 的容器
// 指针和实现了 sql.Scanner 的类型自己能处理 NULL，
// 其余的类型多包一层指针，wrapped 为 true
func scanHolder(typ reflect.Type) (holder reflect.Value, wrapped bool) {
	if typ.Kind() == reflect.Pointer || reflect.PointerTo(typ).Implements(scannerType) {
		return reflect.New(typ), false
	}
	return reflect.New(reflect.PointerTo(typ)), true
}

// lookupColumn 先按列名找，再按字段名找
// SELECT 的时候重命名的列会 AS 成字段名
func lookupColumn(meta *model.Model, name string) (*model.Field, bool) {
	if fd, ok := meta.ColumnMap[name]; ok {
		return fd, true
	}
	fd, ok := meta.FieldMap[name]
	return fd, ok
}
