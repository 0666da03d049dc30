// Package logger provides the process-wide structured logger. It also
// doubles as the tracing sink: pkg/tracing's Span emits OTel-conventioned
// log scopes through the Log variable this package owns, since no
// component in this codebase's lineage wires a live OpenTelemetry SDK
// exporter.
package logger

import (
	"os"
	"sync"

	"github.com/turahe/mediacore/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log *zap.Logger
var m sync.Mutex

// Init builds the process logger from the given log config and stores it
// in the package-level Log variable.
func Init(cfg config.Log) {
	m.Lock()
	defer m.Unlock()

	Log = newZapLogger(cfg)

	Log.Info("logger initialized",
		zap.String("level", cfg.Level),
		zap.Bool("file_enabled", cfg.FileEnabled),
	)
}

func newZapLogger(cfg config.Log) *zap.Logger {
	level := zapcore.InfoLevel
	_ = level.UnmarshalText([]byte(cfg.Level))

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.Lock(zapcore.AddSync(os.Stdout)),
			level,
		),
	}

	if cfg.FileEnabled && cfg.FilePath != "" {
		rotate := &lumberjack.Logger{
			Filename: cfg.FilePath,
			MaxSize:  orDefault(cfg.FileSize, 100),
			MaxAge:   orDefault(cfg.MaxAge, 28),
			Compress: cfg.FileCompress,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(rotate),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
