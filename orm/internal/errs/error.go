package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrPointerOnly 只支持一级指针作为输入
	// 看到这个 error 说明你输入了其它的东西
	// 我们并不希望用户能够直接使用 err == ErrPointerOnly
	// 所以放在我们的 internal 包里
	ErrPointerOnly = errors.New("orm: 只支持指向结构体的一级指针")
	ErrNoRows      = errors.New("orm: 未找到数据")

	// ErrNoKeyField 实体没有 key 标签，也没有名为 Id 的字段
	ErrNoKeyField = errors.New("orm: 实体必须含有带 key 标签或者名为 Id 的字段")
	// ErrMultipleKeyFields 按主键操作时只支持唯一主键
	ErrMultipleKeyFields = errors.New("orm: 只支持唯一主键")

	ErrDeleteWithoutWhere = errors.New("orm: DELETE 必须带有 WHERE 条件")
	ErrInvalidPageNumber  = errors.New("orm: 页码从 1 开始")
	ErrInvalidRowsPerPage = errors.New("orm: 每页行数必须大于 0")
	ErrPagingUnsupported  = errors.New("orm: 当前方言不支持分页查询")
	ErrUnsupportedKeyType = errors.New("orm: 不支持的主键返回类型")
	ErrNoIdentityReturned = errors.New("orm: 插入后没有返回自增主键")
	ErrInsertZeroRow      = errors.New("orm: 插入 0 行")
	ErrInsertNilEntity    = errors.New("orm: 插入的实体不能为 nil")
	ErrNilEntity          = errors.New("orm: 实体不能为 nil")
	ErrNoUpdatedColumns   = errors.New("orm: 没有可更新的列")
	ErrNoInsertedColumns  = errors.New("orm: 没有可插入的列")
	ErrNilFilter          = errors.New("orm: 过滤条件不能为空")
	ErrUnsupportedFilter  = errors.New("orm: 过滤条件只支持结构体、结构体指针或 map[string]any")
	ErrIdentityMultiRows  = errors.New("orm: 获取自增主键时只能插入一行")
)

// NewErrUnknownField 返回代表未知字段的错误
// 一般意味着你可能输入的是列名，或者输入了错误的字段名
func NewErrUnknownField(name string) error {
	return fmt.Errorf("orm: 未知字段 %s", name)
}

// NewErrInvalidTagContent 标签内容不合法
func NewErrInvalidTagContent(pair string) error {
	return fmt.Errorf("orm: 错误的标签设置: %s", pair)
}

// NewErrUnsupportedKeyType 主键返回类型不在支持的范围内
// 支持 int, int16, int32, int64, uint, uint16, uint32, uint64, uuid.UUID 和 string
func NewErrUnsupportedKeyType(typ any) error {
	return fmt.Errorf("%w: %T", ErrUnsupportedKeyType, typ)
}

// NewErrKeyTypeMismatch 主键字段的类型和期望的返回类型不一致
func NewErrKeyTypeMismatch(field string, want, got any) error {
	return fmt.Errorf("orm: 主键字段 %s 的类型是 %v，无法作为 %T 返回", field, got, want)
}

// NewErrUnsupportedConversion 数据库返回的值无法转换成字段的类型
func NewErrUnsupportedConversion(src any, dst string) error {
	return fmt.Errorf("orm: 不支持把 %T 类型的值转换为 %s", src, dst)
}

// NewErrConvertValue 转换过程中出错，例如解析字符串失败
func NewErrConvertValue(src any, dst string, err error) error {
	return fmt.Errorf("orm: 转换 %T (%v) 为 %s 失败: %w", src, src, dst, err)
}
