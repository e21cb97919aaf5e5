package recover

import (
	"context"
	"fmt"

	"github.com/coderi421/crudx/orm"
)

// MiddlewareBuilder 把后续处理中的 panic 转换成错误
// 例如自定义的 valuer 或者 sql.Scanner 实现里面的 panic
type MiddlewareBuilder struct {
	LogFunc func(ctx context.Context, qc *orm.QueryContext, err any)
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) (res *orm.QueryResult) {
			defer func() {
				if err := recover(); err != nil {
					res = &orm.QueryResult{Err: fmt.Errorf("orm: 执行 %s 时发生 panic: %v", qc.Type, err)}
					// 万一 LogFunc 也panic，那我们也无能为力了
					if m.LogFunc != nil {
						m.LogFunc(ctx, qc, err)
					}
				}
			}()
			return next(ctx, qc)
		}
	}
}
