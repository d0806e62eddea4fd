package logger

import (
	"fmt"
	"os"

	"mutapa-lotto/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log   *zap.Logger
	sugar *zap.SugaredLogger
)

func init() {
	log, _ = zap.NewDevelopment()
	sugar = log.Sugar()

	config.GlobalConfigCallback.AddCallback(func(cfg config.GlobalConfig) {
		BuildLogger(cfg.LoggerConfig())
	})
}

// BuildLogger replaces the default development logger with one built from
// the config: console and/or rotated file output at the configured level.
func BuildLogger(cfg config.LoggerConfig) {
	level := zapcore.InfoLevel
	if len(cfg.Level) > 0 {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			panic(fmt.Errorf("invalid logger level %s", cfg.Level))
		}
		level = parsed
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := make([]zapcore.Core, 0, 2)
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(os.Stderr),
			level,
		))
	}
	if len(cfg.File) > 0 {
		fileWriter := &lumberjack.Logger{
			Filename: cfg.File,
			MaxSize:  cfg.MaxFileSize,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(fileWriter),
			level,
		))
	}

	log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	sugar = log.Sugar()
}

func Debug(msg string, args ...interface{}) {
	sugar.Debugf(msg, args...)
}

func Info(msg string, args ...interface{}) {
	sugar.Infof(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	sugar.Warnf(msg, args...)
}

func Error(msg string, args ...interface{}) {
	sugar.Errorf(msg, args...)
}

func Fatal(msg string, args ...interface{}) {
	sugar.Fatalf(msg, args...)
}
