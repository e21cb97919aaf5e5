package model

import (
	"database/sql"
	"reflect"
	"sync"
	"testing"

	"github.com/coderi421/crudx/orm/internal/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTableName(t *testing.T) {
	testCases := []struct {
		name          string
		val           any
		opt           Option
		wantTableName string
		wantErr       error
	}{
		{
			name:          "empty string",
			val:           &TestModel{},
			opt:           WithTableName(""),
			wantTableName: "",
		},
		{
			name:          "table name",
			val:           &TestModel{},
			opt:           WithTableName("TestModelT"),
			wantTableName: "TestModelT",
		},
	}

	r := NewRegistry()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := r.Register(tc.val, tc.opt)
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.wantTableName, m.TableName)
		})
	}
}

type TestModel struct {
	Id        int64
	FirstName string
	Age       int8
	LastName  *sql.NullString
}

func TestWithColumnName(t *testing.T) {
	testCases := []struct {
		name        string
		val         any
		opt         Option
		field       string
		wantColName string
		wantErr     error
	}{
		{
			name:        "new name",
			val:         &TestModel{},
			opt:         WithColumnName("FirstName", "first_name_new"),
			field:       "FirstName",
			wantColName: "first_name_new",
		},
		{
			name:        "empty new name",
			val:         &TestModel{},
			opt:         WithColumnName("FirstName", ""),
			field:       "FirstName",
			wantColName: "",
		},
		{
			// 不存在的字段
			name:    "invalid Field name",
			val:     &TestModel{},
			opt:     WithColumnName("FirstNameXXX", "first_name"),
			field:   "FirstNameXXX",
			wantErr: errs.NewErrUnknownField("FirstNameXXX"),
		},
	}

	r := NewRegistry().(*registry)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := r.Register(tc.val, tc.opt)
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			fd := m.FieldMap[tc.field]
			assert.Equal(t, tc.wantColName, fd.ColName)
			assert.True(t, fd.Renamed)
			assert.Equal(t, fd, m.ColumnMap[tc.wantColName])
			_, ok := m.ColumnMap["first_name"]
			assert.False(t, ok)
		})
	}
}

// newTestModel 按照 parseModel 的规则组装期望的 Model
func newTestModel(tableName string, fields ...*Field) *Model {
	m := &Model{
		TableName: tableName,
		Fields:    fields,
		FieldMap:  make(map[string]*Field, len(fields)),
		ColumnMap: make(map[string]*Field, len(fields)),
	}
	for _, f := range fields {
		m.FieldMap[f.GoName] = f
		if !f.NotMapped {
			m.ColumnMap[f.ColName] = f
		}
		if f.Key {
			m.Keys = append(m.Keys, f)
		}
	}
	m.buildResultIndex()
	return m
}

func TestRegistry_get(t *testing.T) {
	testCases := []struct {
		name      string
		val       any
		wantModel *Model
		wantErr   error
	}{
		{
			name:    "test model",
			val:     TestModel{},
			wantErr: errs.ErrPointerOnly,
		},
		{
			name: "pointer",
			val:  &TestModel{},
			wantModel: newTestModel("test_model",
				&Field{ColName: "id", GoName: "Id", Type: reflect.TypeOf(int64(0)), Key: true},
				&Field{ColName: "first_name", GoName: "FirstName", Type: reflect.TypeOf(""), Index: 1, Offset: 8},
				&Field{ColName: "age", GoName: "Age", Type: reflect.TypeOf(int8(0)), Index: 2, Offset: 24},
				&Field{ColName: "last_name", GoName: "LastName", Type: reflect.TypeOf(&sql.NullString{}), Index: 3, Offset: 32},
			),
		},
		{
			name: "multiple pointer",
			val: func() any {
				val := &TestModel{}
				return &val
			}(),
			wantErr: errs.ErrPointerOnly,
		},
		{
			name:    "map",
			val:     map[string]string{},
			wantErr: errs.ErrPointerOnly,
		},
		{
			name:    "slice",
			val:     []int{},
			wantErr: errs.ErrPointerOnly,
		},
		{
			name:    "basic type",
			val:     0,
			wantErr: errs.ErrPointerOnly,
		},

		// 标签相关测试用例
		{
			name: "column tag",
			val: func() any {
				// 我们把测试结构体定义在方法内部，防止被其它用例访问
				type ColumnTag struct {
					ID uint64 `orm:"column=id"`
				}
				return &ColumnTag{}
			}(),
			wantModel: newTestModel("column_tag",
				&Field{ColName: "id", GoName: "ID", Type: reflect.TypeOf(uint64(0)), Key: true, Renamed: true},
			),
		},
		{
			name: "empty column",
			val: func() any {
				type EmptyColumn struct {
					FirstName string `orm:"column="`
				}
				return &EmptyColumn{}
			}(),
			wantErr: errs.NewErrInvalidTagContent("column="),
		},
		{
			name: "invalid tag",
			val: func() any {
				type InvalidTag struct {
					FirstName string `orm:"column"`
				}
				return &InvalidTag{}
			}(),
			wantErr: errs.NewErrInvalidTagContent("column"),
		},
		{
			name: "invalid readonly",
			val: func() any {
				type InvalidReadOnly struct {
					FirstName string `orm:"readonly=yes"`
				}
				return &InvalidReadOnly{}
			}(),
			wantErr: errs.NewErrInvalidTagContent("readonly=yes"),
		},
		{
			name: "ignore tag",
			val: func() any {
				type IgnoreTag struct {
					FirstName string `orm:"aaa=aaa"`
				}
				return &IgnoreTag{}
			}(),
			wantModel: newTestModel("ignore_tag",
				&Field{ColName: "first_name", GoName: "FirstName", Type: reflect.TypeOf("")},
			),
		},
		{
			name: "flags",
			val: func() any {
				type Flags struct {
					UserKey  string `orm:"key,required"`
					Secret   string `orm:"-"`
					Created  string `orm:"readonly"`
					Updated  string `orm:"readonly=false,ignore_update"`
					Password string `orm:"ignore_select,ignore_insert"`
				}
				return &Flags{}
			}(),
			wantModel: newTestModel("flags",
				&Field{ColName: "user_key", GoName: "UserKey", Type: reflect.TypeOf(""), Key: true, Required: true},
				&Field{ColName: "secret", GoName: "Secret", Type: reflect.TypeOf(""), Index: 1, Offset: 16, NotMapped: true},
				&Field{ColName: "created", GoName: "Created", Type: reflect.TypeOf(""), Index: 2, Offset: 32, ReadOnly: true},
				&Field{ColName: "updated", GoName: "Updated", Type: reflect.TypeOf(""), Index: 3, Offset: 48, IgnoreUpdate: true},
				&Field{ColName: "password", GoName: "Password", Type: reflect.TypeOf(""), Index: 4, Offset: 64,
					IgnoreSelect: true, IgnoreInsert: true},
			),
		},
		{
			name: "editable",
			val: func() any {
				type Editable struct {
					Id      int
					Tags    []string
					Extra   []string `orm:"editable=true"`
					Hidden  string   `orm:"editable=false"`
					private string
				}
				return &Editable{}
			}(),
			wantModel: newTestModel("editable",
				&Field{ColName: "id", GoName: "Id", Type: reflect.TypeOf(0), Key: true},
				&Field{ColName: "extra", GoName: "Extra", Type: reflect.TypeOf([]string{}), Index: 2, Offset: 32},
			),
		},
		// 利用接口自定义模型信息
		{
			name: "table name",
			val:  &CustomTableName{},
			wantModel: newTestModel("custom_table_name_t",
				&Field{ColName: "name", GoName: "Name", Type: reflect.TypeOf("")},
			),
		},
		{
			name: "table name ptr",
			val:  &CustomTableNamePtr{},
			wantModel: newTestModel("custom_table_name_ptr_t",
				&Field{ColName: "name", GoName: "Name", Type: reflect.TypeOf("")},
			),
		},
		{
			name: "empty table name",
			val:  &EmptyTableName{},
			wantModel: newTestModel("empty_table_name",
				&Field{ColName: "name", GoName: "Name", Type: reflect.TypeOf("")},
			),
		},
		{
			name: "table schema",
			val:  &CustomSchema{},
			wantModel: func() *Model {
				m := newTestModel("custom_schema",
					&Field{ColName: "id", GoName: "Id", Type: reflect.TypeOf(uuid.UUID{}), Key: true},
				)
				m.Schema = "dbo"
				return m
			}(),
		},
	}

	r := NewRegistry().(*registry)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := r.Get(tc.val)
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.wantModel, m)
		})
	}
}

func TestRegistry_options(t *testing.T) {
	testCases := []struct {
		name       string
		opts       []RegistryOption
		wantTable  string
		wantSchema string
		wantCols   []string
	}{
		{
			name:      "default",
			wantTable: "test_model",
			wantCols:  []string{"id", "first_name", "age", "last_name"},
		},
		{
			name:      "no underscore",
			opts:      []RegistryOption{WithUnderscore(false)},
			wantTable: "TestModel",
			wantCols:  []string{"Id", "FirstName", "Age", "LastName"},
		},
		{
			name:       "default schema",
			opts:       []RegistryOption{WithDefaultSchema("app")},
			wantTable:  "test_model",
			wantSchema: "app",
			wantCols:   []string{"id", "first_name", "age", "last_name"},
		},
		{
			name: "resolvers",
			opts: []RegistryOption{
				WithUnderscore(false),
				WithTableNameResolver(TableNameResolverFunc(func(typ reflect.Type) string {
					return "tbl_" + typ.Name()
				})),
				WithColumnNameResolver(ColumnNameResolverFunc(func(fd reflect.StructField) string {
					return "col_" + fd.Name
				})),
			},
			wantTable: "tbl_TestModel",
			wantCols:  []string{"col_Id", "col_FirstName", "col_Age", "col_LastName"},
		},
		{
			name: "qualified table name",
			opts: []RegistryOption{
				WithTableNameResolver(TableNameResolverFunc(func(typ reflect.Type) string {
					return "Sales." + typ.Name()
				})),
			},
			wantTable: "sales.test_model",
			wantCols:  []string{"id", "first_name", "age", "last_name"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry(tc.opts...)
			m, err := r.Get(&TestModel{})
			require.NoError(t, err)
			assert.Equal(t, tc.wantTable, m.TableName)
			assert.Equal(t, tc.wantSchema, m.Schema)
			cols := make([]string, 0, len(m.Fields))
			for _, f := range m.Fields {
				cols = append(cols, f.ColName)
			}
			assert.Equal(t, tc.wantCols, cols)
		})
	}
}

func TestRegistry_concurrentGet(t *testing.T) {
	r := NewRegistry()
	const n = 16
	res := make([]*Model, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := r.Get(&TestModel{})
			assert.NoError(t, err)
			res[i] = m
		}(i)
	}
	wg.Wait()
	for _, m := range res {
		// 所有调用者拿到的都是同一个实例
		assert.Same(t, res[0], m)
	}
}

func TestModel_Key(t *testing.T) {
	testCases := []struct {
		name    string
		val     any
		wantKey string
		wantErr error
	}{
		{
			name:    "id",
			val:     &TestModel{},
			wantKey: "Id",
		},
		{
			name: "key tag wins",
			val: func() any {
				type KeyTag struct {
					Id   int
					Code string `orm:"key"`
				}
				return &KeyTag{}
			}(),
			wantKey: "Code",
		},
		{
			name: "no key",
			val: func() any {
				type NoKey struct {
					Name string
				}
				return &NoKey{}
			}(),
			wantErr: errs.ErrNoKeyField,
		},
		{
			name: "multiple keys",
			val: func() any {
				type MultipleKeys struct {
					OrderId int `orm:"key"`
					LineNo  int `orm:"key"`
				}
				return &MultipleKeys{}
			}(),
			wantErr: errs.ErrMultipleKeyFields,
		},
	}
	r := NewRegistry()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := r.Get(tc.val)
			require.NoError(t, err)
			key, err := m.Key()
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.wantKey, key.GoName)
		})
	}
}

func TestField_eligibility(t *testing.T) {
	type Member struct {
		Id        int
		Code      uuid.UUID `orm:"key"`
		Name      string
		Age       int    `orm:"ignore_update"`
		Created   string `orm:"readonly"`
		Nick      string `orm:"ignore_insert"`
		Temp      string `orm:"-"`
		Password  string `orm:"ignore_select"`
		ManagerId int    `orm:"required"`
	}
	m, err := NewRegistry().Get(&Member{})
	require.NoError(t, err)

	var selectable, insertable, updatable []string
	for _, f := range m.Fields {
		if f.Selectable() {
			selectable = append(selectable, f.GoName)
		}
		if f.Insertable() {
			insertable = append(insertable, f.GoName)
		}
		if f.Updatable() {
			updatable = append(updatable, f.GoName)
		}
	}
	assert.Equal(t, []string{"Id", "Code", "Name", "Age", "Created", "Nick", "ManagerId"}, selectable)
	// 名为 Id 的字段不是主键也不会插入；UUID 主键总是插入
	assert.Equal(t, []string{"Code", "Name", "Age", "Password", "ManagerId"}, insertable)
	assert.Equal(t, []string{"Name", "Nick", "Password", "ManagerId"}, updatable)
}

type CustomTableName struct {
	Name string
}

func (c CustomTableName) TableName() string {
	return "custom_table_name_t"
}

type CustomTableNamePtr struct {
	Name string
}

func (c *CustomTableNamePtr) TableName() string {
	return "custom_table_name_ptr_t"
}

type EmptyTableName struct {
	Name string
}

func (c *EmptyTableName) TableName() string {
	return ""
}

type CustomSchema struct {
	Id uuid.UUID
}

func (c *CustomSchema) TableSchema() string {
	return "dbo"
}

func TestModel_LookupResultColumn(t *testing.T) {
	r := NewRegistry()
	m, err := r.Register(&TestModel{}, WithColumnName("FirstName", "given_name"))
	require.NoError(t, err)

	testCases := []struct {
		name      string
		column    string
		wantField string
		wantOk    bool
	}{
		{name: "column name", column: "given_name", wantField: "FirstName", wantOk: true},
		{name: "underscore field name", column: "first_name", wantField: "FirstName", wantOk: true},
		{name: "field name", column: "FirstName", wantField: "FirstName", wantOk: true},
		{name: "case insensitive", column: "LAST_NAME", wantField: "LastName", wantOk: true},
		{name: "unknown", column: "nickname"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fd, ok := m.LookupResultColumn(tc.column)
			assert.Equal(t, tc.wantOk, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.wantField, fd.GoName)
		})
	}

	// 注册之后缓存的是新的模型，索引跟着更新
	got, err := r.Get(&TestModel{})
	require.NoError(t, err)
	assert.Same(t, m, got)
	fd, ok := got.LookupResultColumn("given_name")
	require.True(t, ok)
	assert.Equal(t, "FirstName", fd.GoName)
}
