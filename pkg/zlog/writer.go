package zlog

import (
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"go.uber.org/zap/zapcore"
)

// newWriteSyncer 根据配置组装输出目标，文件输出走 lumberjack 轮转
func newWriteSyncer(cfg Config) zapcore.WriteSyncer {
	var syncers []zapcore.WriteSyncer

	if cfg.Stdout {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}

	if p := cfg.File.Path; p != "" {
		lj := &lumberjack.Logger{
			Filename:   p,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxAge:     cfg.File.MaxAgeDay,
			MaxBackups: cfg.File.MaxBackups,
			Compress:   cfg.File.Compress,
		}
		syncers = append(syncers, zapcore.AddSync(lj))
	}

	if len(syncers) == 0 {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}

	return zapcore.NewMultiWriteSyncer(syncers...)
}
