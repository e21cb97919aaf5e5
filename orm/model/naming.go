package model

import (
	"database/sql"
	"database/sql/driver"
	"reflect"
	"strings"
	"time"
	"unicode"
)

// TableNameResolver 决定一个实体类型对应的表名
// 返回的名字不带引号，可以是 schema.table 的形式
type TableNameResolver interface {
	ResolveTableName(typ reflect.Type) string
}

// ColumnNameResolver 决定一个字段对应的列名，返回的名字不带引号
type ColumnNameResolver interface {
	ResolveColumnName(fd reflect.StructField) string
}

// TableNameResolverFunc 让普通函数也能作为 TableNameResolver
type TableNameResolverFunc func(typ reflect.Type) string

func (f TableNameResolverFunc) ResolveTableName(typ reflect.Type) string {
	return f(typ)
}

// ColumnNameResolverFunc 让普通函数也能作为 ColumnNameResolver
type ColumnNameResolverFunc func(fd reflect.StructField) string

func (f ColumnNameResolverFunc) ResolveColumnName(fd reflect.StructField) string {
	return f(fd)
}

// defaultTableNameResolver 优先使用 TableName 接口，否则用类型名
type defaultTableNameResolver struct{}

func (defaultTableNameResolver) ResolveTableName(typ reflect.Type) string {
	if tn, ok := reflect.New(typ).Interface().(TableName); ok {
		if name := tn.TableName(); name != "" {
			return name
		}
	}
	return typ.Name()
}

// defaultColumnNameResolver 优先使用 column 标签，否则用字段名
type defaultColumnNameResolver struct{}

func (defaultColumnNameResolver) ResolveColumnName(fd reflect.StructField) string {
	if col := lookupTag(fd.Tag, tagKeyColumn); col != "" {
		return col
	}
	return fd.Name
}

// UnderscoreName 把驼峰名字转成下划线的形式
// 前两个字符直接转小写，之后每个大写字母前面加一个下划线
// UserId -> user_id, ABTest -> ab_test
func UnderscoreName(name string) string {
	var buf []rune
	for i, v := range []rune(name) {
		if i < 2 {
			buf = append(buf, unicode.ToLower(v))
			continue
		}
		if unicode.IsUpper(v) {
			buf = append(buf, '_')
		}
		buf = append(buf, unicode.ToLower(v))
	}
	return string(buf)
}

// underscoreQualified 对 schema.table 的每一段分别转换
func underscoreQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = UnderscoreName(p)
	}
	return strings.Join(parts, ".")
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	bytesType   = reflect.TypeOf([]byte(nil))
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// IsSimpleType 判断一个类型能不能直接作为一列
// 基本类型、string、[]byte、time.Time、uuid.UUID、
// 实现了 sql.Scanner 或 driver.Valuer 的类型，以及它们的指针
func IsSimpleType(typ reflect.Type) bool {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	switch typ {
	case timeType, bytesType, uuidType:
		return true
	}
	if typ.Implements(valuerType) || reflect.PointerTo(typ).Implements(scannerType) {
		return true
	}
	switch typ.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
