package orm

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coderi421/crudx/orm/internal/valuer"
	"github.com/coderi421/crudx/orm/model"
	lru "github.com/hashicorp/golang-lru"
)

const defaultStatementCacheSize = 128

type DBOption func(*DB)

// DB 是 sql.DB 的装饰器
// 方言、命名约定、结果集映射方式在创建的时候就固定了，
// 想换配置就重新创建一个 DB，它会带着一个新的 registry
type DB struct {
	core
	db *sql.DB

	regOpts   []model.RegistryOption
	cacheSize int
}

// Open 创建一个 DB 实例。
// 默认情况下，该 DB 使用 SQL Server 作为方言
// 结果集映射使用 materializer
func Open(driver string, dsn string, opts ...DBOption) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return OpenDB(db, opts...)
}

// OpenDB 使用已经打开的 sql.DB，方便接入 sqlmock 或者已有的连接池
func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	res := &DB{
		core: core{
			dialect:    SQLServer,
			valCreator: valuer.NewMaterializer,
		},
		db:        db,
		cacheSize: defaultStatementCacheSize,
	}
	for _, opt := range opts {
		opt(res)
	}
	res.r = model.NewRegistry(res.regOpts...)
	if res.cacheSize > 0 {
		cache, err := lru.New(res.cacheSize)
		if err != nil {
			return nil, err
		}
		res.stmtCache = cache
	}
	return res, nil
}

// MustOpen 创建 DB，出错的时候 panic
func MustOpen(driver string, dsn string, opts ...DBOption) *DB {
	db, err := Open(driver, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

func DBWithDialect(dialect Dialect) DBOption {
	return func(db *DB) {
		db.dialect = dialect
	}
}

// DBWithRegistryOptions 配置命名约定，例如是否转下划线、默认 schema、自定义的命名解析
func DBWithRegistryOptions(opts ...model.RegistryOption) DBOption {
	return func(db *DB) {
		db.regOpts = append(db.regOpts, opts...)
	}
}

// DBUseReflectValuer 让驱动按照字段类型扫描结果集
func DBUseReflectValuer() DBOption {
	return func(db *DB) {
		db.valCreator = valuer.NewReflectValue
	}
}

// DBUseUnsafeValuer 和 DBUseReflectValuer 一样由驱动扫描，直接写字段地址
func DBUseUnsafeValuer() DBOption {
	return func(db *DB) {
		db.valCreator = valuer.NewUnsafeValue
	}
}

// DBUseMaterializer 读出原始值再做类型转换，这是默认的方式
func DBUseMaterializer() DBOption {
	return func(db *DB) {
		db.valCreator = valuer.NewMaterializer
	}
}

func DBWithMiddlewares(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = append(db.mdls, mdls...)
	}
}

// DBWithStatementCacheSize 缓存多少个类型的 SELECT 列，0 代表不缓存
func DBWithStatementCacheSize(size int) DBOption {
	return func(db *DB) {
		db.cacheSize = size
	}
}

// Dialect 返回当前使用的方言
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Registry 返回元数据注册中心，可以提前 Register 模型
func (db *DB) Registry() model.Registry {
	return db.r
}

func (db *DB) getCore() core {
	return db.core
}

func (db *DB) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, db: db}, nil
}

// DoTx 将会开启事务执行 fn。如果 fn 返回错误或者发生 panic，事务将会回滚，
// 否则提交事务
func (db *DB) DoTx(ctx context.Context,
	fn func(ctx context.Context, tx *Tx) error,
	opts *sql.TxOptions) (err error) {
	var tx *Tx
	tx, err = db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		if panicked || err != nil {
			e := tx.Rollback()
			if e != nil {
				err = fmt.Errorf("orm: 事务回滚失败: %w, 业务错误: %v, 是否 panic: %t", e, err, panicked)
			}
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(ctx, tx)
	panicked = false
	return err
}

// Close 关闭底层的 sql.DB
// 增删改查的方法都不会关闭调用者传进来的 DB 或者 Tx
func (db *DB) Close() error {
	return db.db.Close()
}
