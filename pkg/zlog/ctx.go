package zlog

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithContext 把带了请求字段的 logger 放进上下文
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext 取出上下文里的 logger，没有则回落到全局实例
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.L()
	}
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.L()
}

// C 是 FromContext 的简写，业务层常用
func C(ctx context.Context) *zap.Logger { return FromContext(ctx) }
