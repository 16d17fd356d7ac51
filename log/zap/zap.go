// Package zap adapts a *zap.Logger to cacheproxy.Logger.
package zap

import (
	"github.com/unkn0wn-root/cacheproxy"
	"go.uber.org/zap"
)

var _ cacheproxy.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New tags every record with component=cacheproxy.
func New(l *zap.Logger) Logger {
	return Logger{L: l.With(zap.String("component", "cacheproxy"))}
}

func (z Logger) Debug(msg string, f cacheproxy.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f cacheproxy.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f cacheproxy.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f cacheproxy.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f cacheproxy.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
