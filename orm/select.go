package orm

import (
	"context"
	"strconv"
	"strings"

	"github.com/coderi421/crudx/orm/internal/errs"
)

// Selector 用于构造 SELECT 语句
// 条件可以是主键、过滤条件或者原生的 WHERE 片段，三者只有一个会生效
type Selector[T any] struct {
	builder
	sess Session

	filter    any
	where     string
	whereArgs []any
	byID      bool
	id        any

	paged       bool
	pageNumber  int
	rowsPerPage int
	orderBy     string
}

// NewSelector creates a new instance of Selector.
func NewSelector[T any](sess Session) *Selector[T] {
	return &Selector[T]{
		builder: newBuilder(sess),
		sess:    sess,
	}
}

// From 指定表名，为空的时候使用模型的表名
func (s *Selector[T]) From(table string) *Selector[T] {
	s.table = table
	return s
}

// Where 使用过滤条件，每一个字段都会变成 col = @Name
// filter 可以是结构体、结构体指针或者 map[string]any，nil 代表所有数据
func (s *Selector[T]) Where(filter any) *Selector[T] {
	s.filter = filter
	return s
}

// WhereRaw 直接拼接在表名之后，例如 "WHERE age > @Age ORDER BY id"
func (s *Selector[T]) WhereRaw(conditions string, args ...any) *Selector[T] {
	s.where = conditions
	s.whereArgs = args
	return s
}

// ByID 按照唯一主键查询
func (s *Selector[T]) ByID(id any) *Selector[T] {
	s.byID = true
	s.id = id
	return s
}

// Page 分页查询，pageNumber 从 1 开始，orderBy 为空的时候按照主键排序
// 条件来自 WhereRaw，没有的时候使用 Where 的过滤条件
func (s *Selector[T]) Page(pageNumber, rowsPerPage int, orderBy string) *Selector[T] {
	s.paged = true
	s.pageNumber = pageNumber
	s.rowsPerPage = rowsPerPage
	s.orderBy = orderBy
	return s
}

// Build generates a SQL query for selecting all columns from a table.
func (s *Selector[T]) Build() (*Query, error) {
	s.reset()
	if err := s.resolve(new(T)); err != nil {
		return nil, err
	}
	if s.paged {
		return s.buildPaged()
	}

	s.sb.WriteString("SELECT ")
	s.sb.WriteString(s.selectList())
	s.sb.WriteString(" FROM ")
	s.buildTable()

	var err error
	switch {
	case s.byID:
		err = s.buildIDWhere(s.id)
	case s.where != "":
		s.buildRawWhere(s.where, s.whereArgs)
	default:
		err = s.buildFilterWhere(s.filter)
	}
	if err != nil {
		return nil, err
	}
	return s.query(), nil
}

func (s *Selector[T]) buildPaged() (*Query, error) {
	tpl := s.dialect.PagedTemplate()
	if tpl == "" {
		return nil, errs.ErrPagingUnsupported
	}
	if s.pageNumber < 1 {
		return nil, errs.ErrInvalidPageNumber
	}
	if s.rowsPerPage < 1 {
		return nil, errs.ErrInvalidRowsPerPage
	}
	orderBy := strings.TrimSpace(s.orderBy)
	if orderBy == "" {
		key, err := s.model.Key()
		if err != nil {
			return nil, err
		}
		orderBy = s.dialect.Quote(key.ColName)
	}
	where := strings.TrimSpace(s.where)
	switch {
	case where != "":
		s.addArgs(s.whereArgs...)
	case s.filter != nil:
		// 过滤条件先写到 sb 里，再取出来放进模板
		if err := s.buildFilterWhere(s.filter); err != nil {
			return nil, err
		}
		where = strings.TrimSpace(s.sb.String())
		s.sb.Reset()
	}
	r := strings.NewReplacer(
		"{SelectColumns}", s.selectList(),
		"{TableName}", s.quotedTable(),
		"{WhereClause}", where,
		"{OrderBy}", orderBy,
		"{PageNumber}", strconv.Itoa(s.pageNumber),
		"{RowsPerPage}", strconv.Itoa(s.rowsPerPage),
		"{Offset}", strconv.Itoa((s.pageNumber-1)*s.rowsPerPage),
	)
	s.sb.WriteString(r.Replace(tpl))
	return s.query(), nil
}

// Get 返回第一条数据，没有数据的时候返回 ErrNoRows
func (s *Selector[T]) Get(ctx context.Context) (*T, error) {
	if err := s.resolve(new(T)); err != nil {
		return nil, err
	}
	res := get[T](ctx, s.sess, s.core, &QueryContext{
		Type:    "SELECT",
		Builder: s,
		Model:   s.model,
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.(*T), nil
}

func (s *Selector[T]) GetMulti(ctx context.Context) ([]*T, error) {
	if err := s.resolve(new(T)); err != nil {
		return nil, err
	}
	res := getMulti[T](ctx, s.sess, s.core, &QueryContext{
		Type:    "SELECT",
		Builder: s,
		Model:   s.model,
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.([]*T), nil
}
