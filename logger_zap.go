package simcore

import "go.uber.org/zap"

// ZapLogger adapts a *zap.SugaredLogger to the Logger interface. A
// Simulation uses it only when installed with WithLogger or SetLogger; the
// default is a no-op logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a ZapLogger around a production zap configuration.
// Callers who already run zap elsewhere should instead wrap their own
// *zap.Logger with NewZapLoggerFrom to share sinks and levels.
func NewZapLogger() (*ZapLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewZapLoggerFrom(l), nil
}

// NewZapLoggerFrom wraps an existing *zap.Logger.
func NewZapLoggerFrom(l *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: l.Sugar()}
}

func (z *ZapLogger) Info(msg string, args ...any) {
	z.sugar.Infow(msg, args...)
}

func (z *ZapLogger) Warn(msg string, args ...any) {
	z.sugar.Warnw(msg, args...)
}

func (z *ZapLogger) Error(msg string, args ...any) {
	z.sugar.Errorw(msg, args...)
}

func (z *ZapLogger) Debug(msg string, args ...any) {
	z.sugar.Debugw(msg, args...)
}
