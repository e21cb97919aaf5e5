package orm

import (
	"context"
)

// RawQuerier 执行手写的 SQL，结果集和其它查询一样映射到 T
type RawQuerier[T any] struct {
	builder
	sess    Session
	sql     string
	rawArgs []any
}

// RawQuery 创建一个 RawQuerier 实例
// 泛型参数 T 是目标类型。
// 例如，如果查询 User 的数据，那么 T 就是 User
func RawQuery[T any](sess Session, query string, args ...any) *RawQuerier[T] {
	return &RawQuerier[T]{
		builder: newBuilder(sess),
		sess:    sess,
		sql:     query,
		rawArgs: args,
	}
}

func (r *RawQuerier[T]) Build() (*Query, error) {
	return &Query{
		SQL:  r.sql,
		Args: r.rawArgs,
	}, nil
}

func (r *RawQuerier[T]) qc() (*QueryContext, error) {
	// 获取 model 在中间件中使用
	if err := r.resolve(new(T)); err != nil {
		return nil, err
	}
	return &QueryContext{
		Type:    "RAW",
		Builder: r,
		Model:   r.model,
	}, nil
}

func (r *RawQuerier[T]) Exec(ctx context.Context) Result {
	qc, err := r.qc()
	if err != nil {
		return Result{err: err}
	}
	return asResult(exec(ctx, r.sess, r.core, qc))
}

func (r *RawQuerier[T]) Get(ctx context.Context) (*T, error) {
	qc, err := r.qc()
	if err != nil {
		return nil, err
	}
	res := get[T](ctx, r.sess, r.core, qc)
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.(*T), nil
}

func (r *RawQuerier[T]) GetMulti(ctx context.Context) ([]*T, error) {
	qc, err := r.qc()
	if err != nil {
		return nil, err
	}
	res := getMulti[T](ctx, r.sess, r.core, qc)
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.([]*T), nil
}
