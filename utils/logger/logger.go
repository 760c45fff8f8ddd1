package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/octabyte/pharmacy-session/enums"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level    string
	Env      string
	AppName  string
	Encoding string
	// OutputPaths defaults to stderr so command output on stdout stays clean.
	OutputPaths []string
}

// Init builds the process-wide zap logger and installs it as the global one.
func Init(cfg *Config) error {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	encoding := strings.ToLower(strings.TrimSpace(cfg.Encoding))
	if encoding != enums.LogEncodingConsole {
		encoding = enums.LogEncodingJSON
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zcfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(getLogLevelFromString(cfg.Level)),
		Development:       false,
		DisableCaller:     false,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid": os.Getpid(),
			"env": cfg.Env,
			"app": cfg.AppName,
		},
	}

	l, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(l.WithOptions(zap.AddCallerSkip(1)))
	return nil
}

func LogDebug(msg string, fields ...zap.Field) {
	zap.L().Debug(msg, fields...)
}

func LogInfo(msg string, fields ...zap.Field) {
	zap.L().Info(msg, fields...)
}

func LogInfof(msg string, args ...interface{}) {
	zap.L().Info(sprintf(msg, args...))
}

func LogWarn(msg string, fields ...zap.Field) {
	zap.L().Warn(msg, fields...)
}

func LogWarnf(msg string, args ...interface{}) {
	zap.L().Warn(sprintf(msg, args...))
}

func LogError(msg string, fields ...zap.Field) {
	zap.L().Error(msg, fields...)
}

func LogErrorf(msg string, args ...interface{}) {
	zap.L().Error(sprintf(msg, args...))
}

func Sync() {
	_ = zap.L().Sync()
}

func sprintf(msg string, args ...interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

func getLogLevelFromString(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case enums.LogLevelDebug, "dbg":
		return zapcore.DebugLevel
	case enums.LogLevelWarn, "warning":
		return zapcore.WarnLevel
	case enums.LogLevelError, "err":
		return zapcore.ErrorLevel
	case enums.LogLevelFatal:
		return zapcore.FatalLevel
	case enums.LogLevelPanic:
		return zapcore.PanicLevel
	default:
		return zapcore.InfoLevel
	}
}
