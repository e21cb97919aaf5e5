package model

import (
	"reflect"
	"strings"

	"github.com/coderi421/crudx/orm/internal/errs"
	"github.com/google/uuid"
)

// Option is a function type that modifies a Model.
type Option func(model *Model) error

// Model 结构体映射db后的结构
type Model struct {
	// TableName 结构体对应的表名，没有加引号
	// 可以是 schema.table 的形式，引号由方言负责
	TableName string
	// Schema 表所在的 schema，可以为空
	Schema string
	// Fields 按照结构体声明顺序排列的字段
	Fields    []*Field
	FieldMap  map[string]*Field // 结构体 属性名 attr name 为 key  ItemId
	ColumnMap map[string]*Field // DB column name 为 key    item_id
	// Keys 主键字段。带 key 标签的字段优先，否则是名为 Id 的字段
	Keys []*Field

	// resultIndex 结果集的列名到字段的映射，由 registry 在缓存之前建好
	resultIndex map[string]*Field
}

// Field 字段相关的属性
type Field struct {
	ColName string       // 数据库中的字段名
	GoName  string       // go struct 中的名字
	Type    reflect.Type // go 中的数据类型，转换成 reflect.Value 的时候，知道是什么类型，不然那没法转
	// Index 字段在结构体中的下标
	Index int
	// Offset 相对于对象起始地址的字段偏移量
	// uintptr 这个类型的值，只是简单记录一下位置
	Offset uintptr

	Key          bool // orm:"key"
	Required     bool // orm:"required" 主键也要出现在 INSERT 里
	NotMapped    bool // orm:"-"
	IgnoreSelect bool
	IgnoreInsert bool
	IgnoreUpdate bool
	ReadOnly     bool
	// Renamed 通过 column 标签指定了列名
	// SELECT 的时候需要 AS 回字段名
	Renamed bool
}

// Selectable 是否出现在 SELECT 列表里
func (f *Field) Selectable() bool {
	return !f.NotMapped && !f.IgnoreSelect
}

// Insertable 是否出现在 INSERT 的列里
// UUID 类型的主键由我们生成，所以总是插入
func (f *Field) Insertable() bool {
	if f.NotMapped || f.IgnoreInsert || f.ReadOnly {
		return false
	}
	if f.IsUUID() || f.Required {
		return true
	}
	return !f.Key && !f.isIdName()
}

// Updatable 是否出现在 UPDATE 的 SET 里
func (f *Field) Updatable() bool {
	return !f.Key && !f.isIdName() && !f.NotMapped && !f.IgnoreUpdate && !f.ReadOnly
}

// IsUUID 字段类型是不是 uuid.UUID
func (f *Field) IsUUID() bool {
	return f.Type == uuidType
}

func (f *Field) isIdName() bool {
	return strings.EqualFold(f.GoName, "Id")
}

// Key 返回唯一的主键字段
// 没有主键或者有多个主键都是错误
func (m *Model) Key() (*Field, error) {
	switch len(m.Keys) {
	case 0:
		return nil, errs.ErrNoKeyField
	case 1:
		return m.Keys[0], nil
	default:
		return nil, errs.ErrMultipleKeyFields
	}
}

// LookupResultColumn 按照结果集里的列名找字段
// 依次是列名、下划线形式的字段名和字段名，找不到的时候忽略大小写再找一次
func (m *Model) LookupResultColumn(column string) (*Field, bool) {
	idx := m.resultIndex
	if idx == nil {
		idx = newResultIndex(m.Fields)
	}
	if fd, ok := idx[column]; ok {
		return fd, true
	}
	fd, ok := idx[strings.ToLower(column)]
	return fd, ok
}

func (m *Model) buildResultIndex() {
	m.resultIndex = newResultIndex(m.Fields)
}

func newResultIndex(fields []*Field) map[string]*Field {
	idx := make(map[string]*Field, len(fields)*4)
	add := func(name string, fd *Field) {
		if _, ok := idx[name]; !ok {
			idx[name] = fd
		}
		lower := strings.ToLower(name)
		if _, ok := idx[lower]; !ok {
			idx[lower] = fd
		}
	}
	for _, fd := range fields {
		add(fd.ColName, fd)
	}
	for _, fd := range fields {
		add(UnderscoreName(fd.GoName), fd)
	}
	for _, fd := range fields {
		add(fd.GoName, fd)
	}
	return idx
}

// 我们支持的全部标签上的 key 都放在这里
// 方便用户查找，和我们后期维护
const (
	tagORMName = "orm"

	tagKeyColumn       = "column"
	tagKeyKey          = "key"
	tagKeyRequired     = "required"
	tagKeyNotMapped    = "-"
	tagKeyIgnoreSelect = "ignore_select"
	tagKeyIgnoreInsert = "ignore_insert"
	tagKeyIgnoreUpdate = "ignore_update"
	tagKeyReadOnly     = "readonly"
	tagKeyEditable     = "editable"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// TableName 用户实现这个接口来返回自定义的表名
type TableName interface {
	TableName() string
}

// TableSchema 用户实现这个接口来指定表所在的 schema
type TableSchema interface {
	TableSchema() string
}
