package orm

import (
	"database/sql"
	"database/sql/driver"
	"reflect"
	"strconv"
	"strings"

	"github.com/coderi421/crudx/orm/internal/errs"
	"github.com/coderi421/crudx/orm/model"
)

// builder select delete update insert 都需要使用
type builder struct {
	core
	sb    strings.Builder // sb is used to build the SQL query string.
	args  []any           // args holds the arguments for the query.
	model *model.Model    // model is the model associated with the builder.
	// table 用户指定的表名，会按照方言加引号
	table string
}

func newBuilder(sess Session) builder {
	return builder{core: sess.getCore()}
}

// reset 让 Build 可以重复调用
func (b *builder) reset() {
	b.sb.Reset()
	b.args = nil
}

// resolve 获取 T 的元数据
func (b *builder) resolve(val any) error {
	if b.model != nil {
		return nil
	}
	m, err := b.r.Get(val)
	if err != nil {
		return err
	}
	b.model = m
	return nil
}

func (b *builder) quote(name string) {
	b.sb.WriteString(b.dialect.Quote(name))
}

// quotedTable 优先使用用户指定的表名
func (b *builder) quotedTable() string {
	if b.table != "" {
		return b.dialect.Quote(b.table)
	}
	if b.model.Schema != "" {
		return b.dialect.Quote(b.model.Schema) + "." + b.dialect.Quote(b.model.TableName)
	}
	return b.dialect.Quote(b.model.TableName)
}

func (b *builder) buildTable() {
	b.sb.WriteString(b.quotedTable())
}

// selectList 可查询的列，按照声明顺序用 , 连接
// 重命名过的列会 AS 回字段名，这样结果集可以按照字段名映射回来
func (b *builder) selectList() string {
	if b.stmtCache != nil {
		if val, ok := b.stmtCache.Get(b.model); ok {
			return val.(string)
		}
	}
	var sb strings.Builder
	cnt := 0
	for _, fd := range b.model.Fields {
		if !fd.Selectable() {
			continue
		}
		if cnt > 0 {
			sb.WriteByte(',')
		}
		cnt++
		sb.WriteString(b.dialect.Quote(fd.ColName))
		if fd.Renamed {
			sb.WriteString(" AS ")
			sb.WriteString(b.dialect.Quote(fd.GoName))
		}
	}
	res := sb.String()
	if b.stmtCache != nil {
		b.stmtCache.Add(b.model, res)
	}
	return res
}

// param 按照方言的要求写入一个参数
func (b *builder) param(name string, val any) {
	switch b.dialect.BindStyle() {
	case BindNamed:
		b.sb.WriteByte('@')
		b.sb.WriteString(name)
		b.addArgs(sql.Named(name, val))
	case BindDollar:
		b.addArgs(val)
		b.sb.WriteByte('$')
		b.sb.WriteString(strconv.Itoa(len(b.args)))
	default:
		b.sb.WriteByte('?')
		b.addArgs(val)
	}
}

// buildEqual 写入 col = @Name，值为 NULL 的时候写入 col IS NULL
func (b *builder) buildEqual(fd *model.Field, name string, val any) {
	b.quote(fd.ColName)
	if isNull(val) {
		b.sb.WriteString(" IS NULL")
		return
	}
	b.sb.WriteString(" = ")
	b.param(name, val)
}

// buildKeyWhere 用实体上的主键构造 WHERE，多个主键用 AND 连接
func (b *builder) buildKeyWhere(entity any) error {
	if len(b.model.Keys) == 0 {
		return errs.ErrNoKeyField
	}
	val := b.valCreator(entity, b.model)
	b.sb.WriteString(" WHERE ")
	for i, key := range b.model.Keys {
		if i > 0 {
			b.sb.WriteString(" AND ")
		}
		arg, err := val.Field(key.GoName)
		if err != nil {
			return err
		}
		b.buildEqual(key, key.GoName, arg)
	}
	return nil
}

// buildIDWhere 按照唯一主键构造 WHERE
func (b *builder) buildIDWhere(id any) error {
	key, err := b.model.Key()
	if err != nil {
		return err
	}
	b.sb.WriteString(" WHERE ")
	b.buildEqual(key, key.GoName, id)
	return nil
}

// buildFilterWhere 用过滤条件构造 WHERE，没有条件的时候什么都不写
func (b *builder) buildFilterWhere(filter any) error {
	entries, err := filterEntries(filter)
	if err != nil {
		return err
	}
	return b.buildEntries(entries)
}

func (b *builder) buildEntries(entries []filterEntry) error {
	for i, e := range entries {
		fd, err := b.matchField(e.name)
		if err != nil {
			return err
		}
		if i == 0 {
			b.sb.WriteString(" WHERE ")
		} else {
			b.sb.WriteString(" AND ")
		}
		b.buildEqual(fd, fd.GoName, e.val)
	}
	return nil
}

// buildRawWhere 原样拼接用户的条件
func (b *builder) buildRawWhere(conditions string, args []any) {
	conditions = strings.TrimSpace(conditions)
	if conditions == "" {
		return
	}
	b.sb.WriteByte(' ')
	b.sb.WriteString(conditions)
	b.addArgs(args...)
}

// matchField 先按照字段名精确匹配，再忽略大小写匹配
func (b *builder) matchField(name string) (*model.Field, error) {
	if fd, ok := b.model.FieldMap[name]; ok {
		return fd, nil
	}
	for _, fd := range b.model.Fields {
		if strings.EqualFold(fd.GoName, name) {
			return fd, nil
		}
	}
	return nil, errs.NewErrUnknownField(name)
}

func (b *builder) addArgs(args ...any) {
	if len(args) == 0 {
		return
	}
	if b.args == nil {
		b.args = make([]any, 0, 8)
	}
	b.args = append(b.args, args...)
}

func (b *builder) query() *Query {
	b.sb.WriteByte(';')
	return &Query{
		SQL:  b.sb.String(),
		Args: b.args,
	}
}

// isNull nil、nil 指针以及 Value 返回 nil 的 driver.Valuer 都当作 NULL
func isNull(val any) bool {
	if val == nil {
		return true
	}
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return true
		}
	}
	if v, ok := val.(driver.Valuer); ok {
		dv, err := v.Value()
		return err == nil && dv == nil
	}
	return false
}
