package orm

import (
	"strings"
)

// BindStyle 生成的参数在 SQL 里的写法
type BindStyle uint8

const (
	// BindNamed @Name，参数是 sql.Named
	BindNamed BindStyle = iota
	// BindQuestion ?，按位置传参
	BindQuestion
	// BindDollar $1 $2，按位置传参
	BindDollar
)

var (
	SQLServer Dialect = &dialect{
		name:          "sqlserver",
		prefix:        "[",
		suffix:        "]",
		identitySQL:   "SELECT CAST(SCOPE_IDENTITY() AS BIGINT) AS [id]",
		pagedTemplate: "SELECT * FROM (SELECT ROW_NUMBER() OVER(ORDER BY {OrderBy}) AS PagedNumber, {SelectColumns} FROM {TableName} {WhereClause}) AS u WHERE PagedNumber BETWEEN (({PageNumber}-1) * {RowsPerPage} + 1) AND ({PageNumber} * {RowsPerPage})",
		bind:          BindNamed,
	}
	PostgreSQL Dialect = &dialect{
		name:          "postgres",
		prefix:        `"`,
		suffix:        `"`,
		identitySQL:   "SELECT LASTVAL() AS id",
		pagedTemplate: "SELECT {SelectColumns} FROM {TableName} {WhereClause} ORDER BY {OrderBy} LIMIT {RowsPerPage} OFFSET (({PageNumber}-1) * {RowsPerPage})",
		bind:          BindDollar,
		returning:     true,
	}
	SQLite3 Dialect = &dialect{
		name:          "sqlite3",
		prefix:        `"`,
		suffix:        `"`,
		identitySQL:   "SELECT LAST_INSERT_ROWID() AS id",
		pagedTemplate: "SELECT {SelectColumns} FROM {TableName} {WhereClause} ORDER BY {OrderBy} LIMIT {RowsPerPage} OFFSET (({PageNumber}-1) * {RowsPerPage})",
		bind:          BindNamed,
		lastInsertID:  true,
	}
	MySQL Dialect = &dialect{
		name:          "mysql",
		prefix:        "`",
		suffix:        "`",
		identitySQL:   "SELECT LAST_INSERT_ID() AS id",
		pagedTemplate: "SELECT {SelectColumns} FROM {TableName} {WhereClause} ORDER BY {OrderBy} LIMIT {Offset},{RowsPerPage}",
		bind:          BindQuestion,
		lastInsertID:  true,
	}
)

// Dialect 方言描述了不同数据库之间的差异
// 引号、自增主键的获取方式、分页模板和参数写法
type Dialect interface {
	Name() string
	// Quote 给标识符加上引号，schema.table 的每一段分别加
	Quote(name string) string
	// IdentitySQL 插入之后获取自增主键的语句
	IdentitySQL() string
	// PagedTemplate 分页模板，为空代表不支持分页
	PagedTemplate() string
	BindStyle() BindStyle
	// UseLastInsertID 驱动能通过 sql.Result 返回自增主键的时候为 true
	// 这时候不再拼接 IdentitySQL
	UseLastInsertID() bool
	// UseReturning 在 INSERT 末尾加上 RETURNING 主键列来获取自增主键
	// lib/pq 不接受带参数的多条语句，所以 PostgreSQL 只能这么做
	UseReturning() bool
}

// DialectOption 自定义方言的配置
type DialectOption func(d *dialect)

func DialectWithQuote(prefix, suffix string) DialectOption {
	return func(d *dialect) {
		d.prefix = prefix
		d.suffix = suffix
	}
}

func DialectWithIdentitySQL(query string) DialectOption {
	return func(d *dialect) {
		d.identitySQL = query
	}
}

func DialectWithPagedTemplate(tpl string) DialectOption {
	return func(d *dialect) {
		d.pagedTemplate = tpl
	}
}

func DialectWithBindStyle(bind BindStyle) DialectOption {
	return func(d *dialect) {
		d.bind = bind
	}
}

func DialectWithLastInsertID(enabled bool) DialectOption {
	return func(d *dialect) {
		d.lastInsertID = enabled
	}
}

func DialectWithReturning(enabled bool) DialectOption {
	return func(d *dialect) {
		d.returning = enabled
	}
}

// NewDialect 创建一个自定义的方言，默认和 SQLServer 一样
func NewDialect(name string, opts ...DialectOption) Dialect {
	d := *(SQLServer.(*dialect))
	d.name = name
	for _, opt := range opts {
		opt(&d)
	}
	return &d
}

// DialectByName 按照配置里的名字找方言
func DialectByName(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case "", "sqlserver", "mssql":
		return SQLServer, true
	case "postgres", "postgresql", "pg":
		return PostgreSQL, true
	case "sqlite", "sqlite3":
		return SQLite3, true
	case "mysql":
		return MySQL, true
	default:
		return nil, false
	}
}

type dialect struct {
	name          string
	prefix        string
	suffix        string
	identitySQL   string
	pagedTemplate string
	bind          BindStyle
	lastInsertID  bool
	returning     bool
}

func (d *dialect) Name() string {
	return d.name
}

func (d *dialect) Quote(name string) string {
	var sb strings.Builder
	for i, part := range strings.Split(name, ".") {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(d.prefix)
		sb.WriteString(part)
		sb.WriteString(d.suffix)
	}
	return sb.String()
}

func (d *dialect) IdentitySQL() string {
	return d.identitySQL
}

func (d *dialect) PagedTemplate() string {
	return d.pagedTemplate
}

func (d *dialect) BindStyle() BindStyle {
	return d.bind
}

func (d *dialect) UseLastInsertID() bool {
	return d.lastInsertID
}

func (d *dialect) UseReturning() bool {
	return d.returning
}
