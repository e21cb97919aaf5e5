package querylog

import (
	"context"
	"errors"
	"time"

	"github.com/coderi421/crudx/orm"
	"go.uber.org/zap"
)

// MiddlewareBuilder 记录每一条执行的 SQL
// 零值可以直接使用，这时候使用 zap 的全局 logger
type MiddlewareBuilder struct {
	logger        *zap.Logger
	logFunc       func(query string, args []any)
	slowThreshold time.Duration
}

func NewBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{}
}

func (m *MiddlewareBuilder) Logger(logger *zap.Logger) *MiddlewareBuilder {
	m.logger = logger
	return m
}

// LogFunc 除了 logger 之外，再把 SQL 和参数交给 fn
func (m *MiddlewareBuilder) LogFunc(fn func(query string, args []any)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

// SlowThreshold 执行时间超过 threshold 的语句用 Warn 级别输出，0 代表不区分
func (m *MiddlewareBuilder) SlowThreshold(threshold time.Duration) *MiddlewareBuilder {
	m.slowThreshold = threshold
	return m
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	logger := m.logger
	if logger == nil {
		logger = zap.L()
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			q, err := qc.Query()
			if err != nil {
				logger.Error("orm: 构造 SQL 失败",
					zap.String("type", qc.Type), zap.String("table", tableName(qc)), zap.Error(err))
				return &orm.QueryResult{Err: err}
			}
			if m.logFunc != nil {
				m.logFunc(q.SQL, q.Args)
			}

			start := time.Now()
			res := next(ctx, qc)
			duration := time.Since(start)

			fields := []zap.Field{
				zap.String("type", qc.Type),
				zap.String("table", tableName(qc)),
				zap.String("sql", q.SQL),
				zap.Any("args", q.Args),
				zap.Duration("duration", duration),
			}
			switch {
			case res.Err != nil && !errors.Is(res.Err, orm.ErrNoRows):
				logger.Error("orm: 执行失败", append(fields, zap.Error(res.Err))...)
			case m.slowThreshold > 0 && duration >= m.slowThreshold:
				logger.Warn("orm: 慢查询", fields...)
			default:
				logger.Debug("orm: 执行", fields...)
			}
			return res
		}
	}
}

func tableName(qc *orm.QueryContext) string {
	if qc.Model == nil {
		return ""
	}
	return qc.Model.TableName
}
