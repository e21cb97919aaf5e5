package orm

import (
	"context"
	"reflect"
	"strconv"
	"time"

	"github.com/coderi421/crudx/orm/internal/errs"
	"github.com/google/uuid"
)

// Option 单次调用的配置
type Option func(o *callOptions)

type callOptions struct {
	table   string
	timeout time.Duration
}

// WithTable 覆盖模型的表名
func WithTable(table string) Option {
	return func(o *callOptions) {
		o.table = table
	}
}

// WithTimeout 给这次调用加上超时
func WithTimeout(timeout time.Duration) Option {
	return func(o *callOptions) {
		o.timeout = timeout
	}
}

func applyOptions(ctx context.Context, opts []Option) (context.Context, context.CancelFunc, callOptions) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, o.timeout)
		return ctx, cancel, o
	}
	return ctx, func() {}, o
}

// Get 按照唯一主键查询，没有数据的时候返回 ErrNoRows
func Get[T any](ctx context.Context, sess Session, id any, opts ...Option) (*T, error) {
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()
	return NewSelector[T](sess).From(o.table).ByID(id).Get(ctx)
}

// GetList 按照过滤条件查询，filter 为 nil 的时候返回所有数据
func GetList[T any](ctx context.Context, sess Session, filter any, opts ...Option) ([]*T, error) {
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()
	return NewSelector[T](sess).From(o.table).Where(filter).GetMulti(ctx)
}

// GetListWhere conditions 会原样拼接在表名之后
func GetListWhere[T any](ctx context.Context, sess Session, conditions string, args []any, opts ...Option) ([]*T, error) {
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()
	return NewSelector[T](sess).From(o.table).WhereRaw(conditions, args...).GetMulti(ctx)
}

// GetListPaged 分页查询，pageNumber 从 1 开始，orderBy 为空的时候按照主键排序
func GetListPaged[T any](ctx context.Context, sess Session, pageNumber, rowsPerPage int,
	conditions, orderBy string, args []any, opts ...Option) ([]*T, error) {
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()
	return NewSelector[T](sess).From(o.table).
		WhereRaw(conditions, args...).
		Page(pageNumber, rowsPerPage, orderBy).
		GetMulti(ctx)
}

// Insert 插入一个实体并返回主键
// K 只能是 int、int16、int32、int64、uint、uint16、uint32、uint64、string 和 uuid.UUID
//
// 零值的 UUID 主键会先生成再插入；零值的整数主键由数据库生成，
// 插入之后会写回实体；其它情况下主键由调用者提供，直接返回
func Insert[K any, T any](ctx context.Context, sess Session, entity *T, opts ...Option) (K, error) {
	var zero K
	kType := reflect.TypeOf(zero)
	if !supportedKeyType(kType) {
		return zero, errs.NewErrUnsupportedKeyType(zero)
	}
	if entity == nil {
		return zero, errs.ErrInsertNilEntity
	}
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()

	m, err := sess.getCore().r.Get(entity)
	if err != nil {
		return zero, err
	}
	key, err := m.Key()
	if err != nil {
		return zero, err
	}
	if !supportedKeyType(key.Type) {
		return zero, errs.NewErrUnsupportedKeyType(reflect.Zero(key.Type).Interface())
	}
	keyVal := reflect.ValueOf(entity).Elem().Field(key.Index)
	if !compatibleKeyType(key.Type, kType) {
		return zero, errs.NewErrKeyTypeMismatch(key.GoName, zero, key.Type)
	}

	ins := NewInserter[T](sess).Into(o.table).Values(entity)
	if isIntegerKind(key.Type.Kind()) && keyVal.IsZero() {
		id, err := ins.ReturnIdentity().Exec(ctx).LastInsertId()
		if err != nil {
			return zero, err
		}
		// 先写返回值，两者都不溢出才修改实体
		res := reflect.New(kType).Elem()
		if err = setInteger(res, id); err != nil {
			return zero, err
		}
		if err = setInteger(keyVal, id); err != nil {
			return zero, err
		}
		return res.Interface().(K), nil
	}
	// UUID 主键总是会插入，其它主键由调用者提供，也要插入
	if err = ins.IncludeKeys().Exec(ctx).Err(); err != nil {
		return zero, err
	}
	return keyVal.Convert(kType).Interface().(K), nil
}

// InsertEntity 插入所有映射的列，包括主键
func InsertEntity[T any](ctx context.Context, sess Session, entity *T, opts ...Option) error {
	if entity == nil {
		return errs.ErrInsertNilEntity
	}
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()
	return NewInserter[T](sess).Into(o.table).Values(entity).AllColumns().Exec(ctx).Err()
}

// Update 按照主键更新，返回受影响的行数
func Update[T any](ctx context.Context, sess Session, entity *T, opts ...Option) (int64, error) {
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()
	return NewUpdater[T](sess).Table(o.table).Update(entity).Exec(ctx).RowsAffected()
}

// Delete 按照实体上的主键删除
func Delete[T any](ctx context.Context, sess Session, entity *T, opts ...Option) (int64, error) {
	if entity == nil {
		return 0, errs.ErrNilEntity
	}
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()
	return NewDeleter[T](sess).From(o.table).Entity(entity).Exec(ctx).RowsAffected()
}

// DeleteByID 按照唯一主键删除
func DeleteByID[T any](ctx context.Context, sess Session, id any, opts ...Option) (int64, error) {
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()
	return NewDeleter[T](sess).From(o.table).ByID(id).Exec(ctx).RowsAffected()
}

// DeleteList 按照过滤条件删除，过滤条件不能为空
func DeleteList[T any](ctx context.Context, sess Session, filter any, opts ...Option) (int64, error) {
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()
	return NewDeleter[T](sess).From(o.table).Where(filter).Exec(ctx).RowsAffected()
}

// DeleteListWhere conditions 必须包含 WHERE
func DeleteListWhere[T any](ctx context.Context, sess Session, conditions string, args []any, opts ...Option) (int64, error) {
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()
	return NewDeleter[T](sess).From(o.table).WhereRaw(conditions, args...).Exec(ctx).RowsAffected()
}

// RecordCount 按照过滤条件统计，filter 为 nil 的时候统计全表
func RecordCount[T any](ctx context.Context, sess Session, filter any, opts ...Option) (int64, error) {
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()
	return NewCounter[T](sess).From(o.table).Where(filter).Count(ctx)
}

func RecordCountWhere[T any](ctx context.Context, sess Session, conditions string, args []any, opts ...Option) (int64, error) {
	ctx, cancel, o := applyOptions(ctx, opts)
	defer cancel()
	return NewCounter[T](sess).From(o.table).WhereRaw(conditions, args...).Count(ctx)
}

var uuidType = reflect.TypeOf(uuid.UUID{})

func supportedKeyType(typ reflect.Type) bool {
	if typ == nil {
		return false
	}
	if typ == uuidType {
		return true
	}
	switch typ.Kind() {
	case reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.String:
		return true
	default:
		return false
	}
}

// compatibleKeyType 主键字段的类型能不能作为 K 返回
func compatibleKeyType(field, k reflect.Type) bool {
	switch {
	case field == uuidType || k == uuidType:
		return field == k
	case isIntegerKind(field.Kind()):
		return isIntegerKind(k.Kind())
	default:
		return field.Kind() == reflect.String && k.Kind() == reflect.String
	}
}

func isIntegerKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// setInteger 数据库生成的主键可能超出 int16 之类的范围
func setInteger(val reflect.Value, id int64) error {
	switch val.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if id < 0 || val.OverflowUint(uint64(id)) {
			return errs.NewErrConvertValue(id, val.Type().String(), strconv.ErrRange)
		}
		val.SetUint(uint64(id))
	default:
		if val.OverflowInt(id) {
			return errs.NewErrConvertValue(id, val.Type().String(), strconv.ErrRange)
		}
		val.SetInt(id)
	}
	return nil
}
