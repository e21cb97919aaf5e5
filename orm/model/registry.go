package model

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/coderi421/crudx/orm/internal/errs"
	"github.com/gotomicro/ekit/syncx"
)

type Registry interface {
	Get(val any) (*Model, error)
	Register(val any, opts ...Option) (*Model, error)
}

// RegistryOption 配置命名约定
// 这些配置在创建 Registry 的时候就固定下来，之后不会再变
// 所以缓存的元数据不会和配置不一致
type RegistryOption func(r *registry)

// WithUnderscore 是否把名字转成下划线的形式，默认开启
func WithUnderscore(enabled bool) RegistryOption {
	return func(r *registry) {
		r.underscore = enabled
	}
}

// WithDefaultSchema 没有实现 TableSchema 的实体都放在这个 schema 下
func WithDefaultSchema(schema string) RegistryOption {
	return func(r *registry) {
		r.schema = schema
	}
}

func WithTableNameResolver(resolver TableNameResolver) RegistryOption {
	return func(r *registry) {
		r.tableResolver = resolver
	}
}

func WithColumnNameResolver(resolver ColumnNameResolver) RegistryOption {
	return func(r *registry) {
		r.columnResolver = resolver
	}
}

// registry 每个 DB 有自己的 registry，测试之间互不影响
type registry struct {
	// reflect.Type 可以解决命名冲突的问题
	models syncx.Map[reflect.Type, *Model]

	underscore     bool
	schema         string
	tableResolver  TableNameResolver
	columnResolver ColumnNameResolver
}

func NewRegistry(opts ...RegistryOption) Registry {
	r := &registry{
		underscore:     true,
		tableResolver:  defaultTableNameResolver{},
		columnResolver: defaultColumnNameResolver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get 查找元数据模型
// 并发第一次解析同一个类型的时候，只有一个结果会被缓存下来
func (r *registry) Get(val any) (*Model, error) {
	typ := reflect.TypeOf(val)
	if m, ok := r.models.Load(typ); ok {
		return m, nil
	}
	m, err := r.parseModel(typ)
	if err != nil {
		return nil, err
	}
	m.buildResultIndex()
	m, _ = r.models.LoadOrStore(typ, m)
	return m, nil
}

// Register 解析模型并应用 opts，结果会覆盖已经缓存的模型
func (r *registry) Register(val any, opts ...Option) (*Model, error) {
	typ := reflect.TypeOf(val)
	m, err := r.parseModel(typ)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err = opt(m); err != nil {
			return nil, err
		}
	}
	// 选项可能改了列名，所以在选项之后建
	m.buildResultIndex()
	r.models.Store(typ, m)
	return m, nil
}

// parseModel 解析 *T 的元数据
// orm:"column=first_name,key,required"
func (r *registry) parseModel(typ reflect.Type) (*Model, error) {
	if typ == nil || typ.Kind() != reflect.Pointer || typ.Elem().Kind() != reflect.Struct {
		// 只支持一级指针作为输入，例如 *User，不支持 **User 和 User
		return nil, errs.ErrPointerOnly
	}
	typ = typ.Elem()

	numField := typ.NumField()
	fields := make([]*Field, 0, numField)
	fds := make(map[string]*Field, numField)
	colMap := make(map[string]*Field, numField)
	for i := 0; i < numField; i++ {
		fdStruct := typ.Field(i)
		if !fdStruct.IsExported() || fdStruct.Anonymous {
			continue
		}
		tags, err := r.parseTag(fdStruct.Tag)
		if err != nil {
			return nil, err
		}
		editable, hasEditable := tags[tagKeyEditable]
		if hasEditable {
			ok, err := strconv.ParseBool(editable)
			if err != nil {
				return nil, errs.NewErrInvalidTagContent(tagKeyEditable + "=" + editable)
			}
			// editable=false 的字段完全不参与映射
			if !ok {
				continue
			}
		} else if !IsSimpleType(fdStruct.Type) {
			continue
		}
		readOnly, err := boolTag(tags, tagKeyReadOnly)
		if err != nil {
			return nil, err
		}

		colName := r.columnResolver.ResolveColumnName(fdStruct)
		if r.underscore {
			colName = UnderscoreName(colName)
		}
		_, notMapped := tags[tagKeyNotMapped]
		_, key := tags[tagKeyKey]
		_, required := tags[tagKeyRequired]
		_, ignoreSelect := tags[tagKeyIgnoreSelect]
		_, ignoreInsert := tags[tagKeyIgnoreInsert]
		_, ignoreUpdate := tags[tagKeyIgnoreUpdate]
		f := &Field{
			ColName:      colName,
			GoName:       fdStruct.Name,
			Type:         fdStruct.Type,
			Index:        i,
			Offset:       fdStruct.Offset,
			Key:          key,
			Required:     required,
			NotMapped:    notMapped,
			IgnoreSelect: ignoreSelect,
			IgnoreInsert: ignoreInsert,
			IgnoreUpdate: ignoreUpdate,
			ReadOnly:     readOnly,
			Renamed:      tags[tagKeyColumn] != "",
		}
		fields = append(fields, f)
		fds[f.GoName] = f
		if !notMapped {
			colMap[colName] = f
		}
	}

	tableName := r.tableResolver.ResolveTableName(typ)
	if r.underscore {
		tableName = underscoreQualified(tableName)
	}
	schema := r.schema
	if ts, ok := reflect.New(typ).Interface().(TableSchema); ok && ts.TableSchema() != "" {
		schema = ts.TableSchema()
	}

	return &Model{
		TableName: tableName,
		Schema:    schema,
		Fields:    fields,
		FieldMap:  fds,
		ColumnMap: colMap,
		Keys:      resolveKeys(fields),
	}, nil
}

// resolveKeys 带 key 标签的字段优先，否则使用名为 Id 的字段
func resolveKeys(fields []*Field) []*Field {
	var keys []*Field
	for _, f := range fields {
		if f.Key {
			keys = append(keys, f)
		}
	}
	if len(keys) > 0 {
		return keys
	}
	for _, f := range fields {
		if f.isIdName() {
			f.Key = true
			return []*Field{f}
		}
	}
	return nil
}

// parseTag 解析 orm 标签
// 既支持 key=value 的形式，也支持 key 这种开关形式，开关的值是 "true"
// 不认识的 key 直接忽略
func (r *registry) parseTag(tag reflect.StructTag) (map[string]string, error) {
	ormTag, ok := tag.Lookup(tagORMName)
	if !ok || ormTag == "" {
		// 返回一个空的 map，这样调用者就不需要判断 nil 了
		return map[string]string{}, nil
	}
	pairs := strings.Split(ormTag, ",")
	res := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		kv := strings.SplitN(pair, "=", 2)
		key := strings.TrimSpace(kv[0])
		if key == "" {
			return nil, errs.NewErrInvalidTagContent(pair)
		}
		if len(kv) == 1 {
			// column 必须带值
			if key == tagKeyColumn {
				return nil, errs.NewErrInvalidTagContent(pair)
			}
			res[key] = "true"
			continue
		}
		val := strings.TrimSpace(kv[1])
		if key == tagKeyColumn && val == "" {
			return nil, errs.NewErrInvalidTagContent(pair)
		}
		res[key] = val
	}
	return res, nil
}

func boolTag(tags map[string]string, key string) (bool, error) {
	val, ok := tags[key]
	if !ok {
		return false, nil
	}
	res, err := strconv.ParseBool(val)
	if err != nil {
		return false, errs.NewErrInvalidTagContent(key + "=" + val)
	}
	return res, nil
}

// lookupTag 给默认的 ColumnNameResolver 用
// 标签的合法性已经在 parseTag 里面检查过了
func lookupTag(tag reflect.StructTag, key string) string {
	for _, pair := range strings.Split(tag.Get(tagORMName), ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) == 2 && strings.TrimSpace(kv[0]) == key {
			return strings.TrimSpace(kv[1])
		}
	}
	return ""
}

// WithTableName 直接指定表名，不会再做下划线转换
func WithTableName(tableName string) Option {
	return func(model *Model) error {
		model.TableName = tableName
		return nil
	}
}

// WithColumnName 直接指定某个字段的列名
func WithColumnName(field, columnName string) Option {
	return func(model *Model) error {
		fd, ok := model.FieldMap[field]
		if !ok {
			return errs.NewErrUnknownField(field)
		}
		delete(model.ColumnMap, fd.ColName)
		fd.ColName = columnName
		fd.Renamed = true
		if !fd.NotMapped {
			model.ColumnMap[columnName] = fd
		}
		return nil
	}
}

// WithSchema 指定表所在的 schema
func WithSchema(schema string) Option {
	return func(model *Model) error {
		model.Schema = schema
		return nil
	}
}
