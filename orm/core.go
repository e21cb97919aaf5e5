package orm

import (
	"context"
	"database/sql"

	"github.com/coderi421/crudx/orm/internal/valuer"
	"github.com/coderi421/crudx/orm/model"
	lru "github.com/hashicorp/golang-lru"
)

type core struct {
	dialect    Dialect
	r          model.Registry // 存储数据库表和 struct 映射关系的实例
	valCreator valuer.Creator // 与DB交互映射的实现
	mdls       []Middleware
	// stmtCache 缓存每个模型的 SELECT 列
	stmtCache *lru.Cache
}

// chain 把中间件套在 root 外面，第一个中间件在最外层
func (c core) chain(root Handler) Handler {
	for i := len(c.mdls) - 1; i >= 0; i-- {
		root = c.mdls[i](root)
	}
	return root
}

func get[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	var root Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getHandler[T](ctx, sess, c, qc)
	}
	return c.chain(root)(ctx, qc)
}

func getHandler[T any](ctx context.Context, sess Session, c core, qc *QueryContext) (res *QueryResult) {
	q, err := qc.Query()
	if err != nil {
		return &QueryResult{Err: err}
	}
	rows, err := sess.queryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return &QueryResult{Err: err}
	}
	res = &QueryResult{}
	defer closeRows(rows, res)

	if !rows.Next() {
		res.Err = rows.Err()
		if res.Err == nil {
			res.Err = ErrNoRows
		}
		return res
	}
	tp := new(T)
	if res.Err = c.valCreator(tp, qc.Model).SetColumns(rows); res.Err != nil {
		return res
	}
	res.Result = tp
	return res
}

func getMulti[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	var root Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getMultiHandler[T](ctx, sess, c, qc)
	}
	return c.chain(root)(ctx, qc)
}

func getMultiHandler[T any](ctx context.Context, sess Session, c core, qc *QueryContext) (res *QueryResult) {
	q, err := qc.Query()
	if err != nil {
		return &QueryResult{Err: err}
	}
	rows, err := sess.queryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return &QueryResult{Err: err}
	}
	res = &QueryResult{}
	defer closeRows(rows, res)

	list := make([]*T, 0, 8)
	for rows.Next() {
		tp := new(T)
		if res.Err = c.valCreator(tp, qc.Model).SetColumns(rows); res.Err != nil {
			return res
		}
		list = append(list, tp)
	}
	if res.Err = rows.Err(); res.Err != nil {
		return res
	}
	res.Result = list
	return res
}

func exec(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	var root Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		q, err := qc.Query()
		if err != nil {
			return &QueryResult{Err: err}
		}
		res, err := sess.execContext(ctx, q.SQL, q.Args...)
		return &QueryResult{Result: res, Err: err}
	}
	return c.chain(root)(ctx, qc)
}

// scalar 执行只返回一行一列的查询，例如 COUNT 和获取自增主键
func scalar(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	var root Handler = func(ctx context.Context, qc *QueryContext) (res *QueryResult) {
		q, err := qc.Query()
		if err != nil {
			return &QueryResult{Err: err}
		}
		rows, err := sess.queryContext(ctx, q.SQL, q.Args...)
		if err != nil {
			return &QueryResult{Err: err}
		}
		res = &QueryResult{}
		defer closeRows(rows, res)

		// INSERT 和 SELECT 一起执行的时候，有的驱动会把 INSERT 当成第一个结果集
		for !rows.Next() {
			if rows.Err() != nil || !rows.NextResultSet() {
				res.Err = rows.Err()
				if res.Err == nil {
					res.Err = ErrNoRows
				}
				return res
			}
		}
		var val sql.NullInt64
		if res.Err = rows.Scan(&val); res.Err != nil {
			return res
		}
		res.Result = val.Int64
		return res
	}
	return c.chain(root)(ctx, qc)
}

// closeRows 总是关闭结果集
// 只有调用本身成功的时候，才会返回关闭时的错误
func closeRows(rows *sql.Rows, res *QueryResult) {
	if err := rows.Close(); err != nil && res.Err == nil {
		res.Err = err
	}
}

// asResult 把 QueryResult 转换成 Result
func asResult(qr *QueryResult) Result {
	var res sql.Result
	if qr.Result != nil {
		res, _ = qr.Result.(sql.Result)
	}
	return Result{err: qr.Err, res: res}
}

// identityResult 通过查询拿到的自增主键，伪装成 sql.Result
type identityResult int64

func (r identityResult) LastInsertId() (int64, error) {
	return int64(r), nil
}

func (r identityResult) RowsAffected() (int64, error) {
	return 1, nil
}
