package orm

import (
	"reflect"
	"sort"

	"github.com/coderi421/crudx/orm/internal/errs"
)

// filterEntry 过滤条件中的一项，name 是实体的字段名
type filterEntry struct {
	name string
	val  any
}

// filterEntries 把过滤条件展开
// 支持结构体、结构体指针和 map[string]any
// 结构体按照字段声明顺序，map 按照 key 排序，这样生成的 SQL 是稳定的
func filterEntries(filter any) ([]filterEntry, error) {
	if filter == nil {
		return nil, nil
	}
	if m, ok := filter.(map[string]any); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		res := make([]filterEntry, 0, len(keys))
		for _, k := range keys {
			res = append(res, filterEntry{name: k, val: m[k]})
		}
		return res, nil
	}

	val := reflect.ValueOf(filter)
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, errs.ErrUnsupportedFilter
	}
	typ := val.Type()
	numField := typ.NumField()
	res := make([]filterEntry, 0, numField)
	for i := 0; i < numField; i++ {
		fd := typ.Field(i)
		if !fd.IsExported() || fd.Anonymous {
			continue
		}
		res = append(res, filterEntry{name: fd.Name, val: val.Field(i).Interface()})
	}
	return res, nil
}
