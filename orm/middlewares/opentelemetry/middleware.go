package opentelemetry

import (
	"context"
	"errors"

	"github.com/coderi421/crudx/orm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/coderi421/crudx/orm/middlewares/opentelemetry"

type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

func (m MiddlewareBuilder) Build() orm.Middleware {
	if m.Tracer == nil {
		m.Tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			table := ""
			if qc.Model != nil {
				table = qc.Model.TableName
			}
			spanCtx, span := m.Tracer.Start(ctx, "orm "+qc.Type+" "+table,
				trace.WithSpanKind(trace.SpanKindClient))
			defer span.End()

			span.SetAttributes(
				attribute.String("db.operation", qc.Type),
				attribute.String("db.sql.table", table),
			)
			q, err := qc.Query()
			if err == nil {
				span.SetAttributes(attribute.String("db.statement", q.SQL))
			}

			res := next(spanCtx, qc)
			if res.Err != nil && !errors.Is(res.Err, orm.ErrNoRows) {
				span.RecordError(res.Err)
				span.SetStatus(codes.Error, res.Err.Error())
			}
			return res
		}
	}
}
