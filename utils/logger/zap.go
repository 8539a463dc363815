package logger

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultLogger atomic.Pointer[zap.Logger]

// Initialize 初始化全局日志
func Initialize(level string, isDebug bool) error {
	l, err := New(level, isDebug)
	if err != nil {
		return err
	}

	defaultLogger.Store(l)
	return nil
}

// New 创建 zap 日志实例
func New(level string, isDebug bool) (*zap.Logger, error) {
	var config zap.Config

	if isDebug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	config.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	return config.Build()
}

// ParseLevel 将配置中的字符串转为日志级别，未知值按 INFO 处理
func ParseLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE", "DEBUG":
		return zap.DebugLevel
	case "WARN", "WARNING":
		return zap.WarnLevel
	case "ERROR":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// DefaultLogger 未初始化时返回 Nop logger
func DefaultLogger() *zap.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// Sync 刷新缓冲区
func Sync() {
	_ = DefaultLogger().Sync()
}

func Debug(msg string, fields ...zap.Field) {
	DefaultLogger().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	DefaultLogger().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	DefaultLogger().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	DefaultLogger().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	DefaultLogger().WithOptions(zap.AddCallerSkip(1)).Fatal(msg, fields...)
}

// Sugar printf 风格日志
func Sugar() *zap.SugaredLogger {
	return DefaultLogger().WithOptions(zap.AddCallerSkip(1)).Sugar()
}
