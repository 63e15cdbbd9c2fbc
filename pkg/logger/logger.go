package logger

import (
	"context"

	"go.uber.org/zap"

	"mailtriage/pkg/trace"
)

// NewLogger 创建生产环境 logger，debug 为 true 时使用开发配置
func NewLogger(debug bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return l
}

// WithTrace 从 context 中提取 trace_id 并添加到 logger
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := trace.FromContext(ctx)
	if traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
