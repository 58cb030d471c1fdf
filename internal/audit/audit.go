// Package audit appends operational audit records (logins, chat
// lifecycle, sales) to a rotating JSON log. Writes are fire-and-forget:
// a failed or slow audit write must never block or fail a client reply.
package audit

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Recorder struct {
	log *zap.Logger
}

// New creates a Recorder writing to path with rotation, teeing warnings
// and errors to stderr.
func New(path string) *Recorder {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.MessageKey = "message"

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(rotator),
		zap.InfoLevel,
	)
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zap.WarnLevel,
	)

	return &Recorder{log: zap.New(zapcore.NewTee(fileCore, consoleCore))}
}

// Nop returns a Recorder that discards everything. Used in tests.
func Nop() *Recorder {
	return &Recorder{log: zap.NewNop()}
}

func (r *Recorder) Event(action, detail string, fields ...zap.Field) {
	r.log.Info(detail, append([]zap.Field{zap.String("action", action)}, fields...)...)
}

func (r *Recorder) ChatEvent(chatID, action, detail string, fields ...zap.Field) {
	r.Event(action, detail, append([]zap.Field{zap.String("chatId", chatID)}, fields...)...)
}

func (r *Recorder) Close() {
	_ = r.log.Sync()
}
