// Package zaplog backs internal/logging.Logger with go.uber.org/zap,
// grounded on jordigilh/kubernaut's zap/zapr dependency pair — the only
// structured logging stack present anywhere in the retrieval pack.
package zaplog

import (
	"go.uber.org/zap"

	"github.com/hashmap-kz/govreg/internal/logging"
)

type zapLogger struct {
	l *zap.SugaredLogger
}

var _ logging.Logger = (*zapLogger)(nil)

// New builds a production zap logger (JSON, info level) wrapped as a
// logging.Logger.
func New() (logging.Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &zapLogger{l: l.Sugar()}, nil
}

func (z *zapLogger) Debug(msg string, kv ...any) { z.l.Debugw(msg, kv...) }
func (z *zapLogger) Info(msg string, kv ...any)  { z.l.Infow(msg, kv...) }
func (z *zapLogger) Warn(msg string, kv ...any)  { z.l.Warnw(msg, kv...) }
func (z *zapLogger) Error(msg string, kv ...any) { z.l.Errorw(msg, kv...) }

func (z *zapLogger) With(kv ...any) logging.Logger {
	return &zapLogger{l: z.l.With(kv...)}
}
