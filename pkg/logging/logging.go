package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mediamind-ai/mediamind/pkg/config"
)

// Channels
const (
	ChannelConsole = "console"
	ChannelFile    = "file"
)

// New builds a zap logger for the logging settings. The console channel
// writes to stderr; the file channel writes to a rotated file.
func New(s config.LogSettings) (*zap.Logger, error) {
	var out io.Writer
	switch s.Channel {
	case "", ChannelConsole:
		out = os.Stderr
	case ChannelFile:
		if s.Path == "" {
			return nil, fmt.Errorf("log channel %q requires a path", s.Channel)
		}
		out = &lumberjack.Logger{
			Filename:   s.Path,
			MaxSize:    s.MaxSize,
			MaxBackups: s.MaxBackups,
			MaxAge:     s.MaxAge,
			Compress:   true,
		}
	default:
		return nil, fmt.Errorf("unknown log channel %q", s.Channel)
	}
	return NewWithWriter(s, out)
}

// NewWithWriter builds a logger for s writing to w
func NewWithWriter(s config.LogSettings, w io.Writer) (*zap.Logger, error) {
	level, err := ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch s.Format {
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", s.Format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// ParseLevel accepts debug, info, warn and error. Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
}

// Writer adapts a logger to io.Writer, logging each line written at info.
// It is used for access logs and other line oriented output.
type Writer struct {
	Logger *zap.Logger
	Msg    string
}

func (w Writer) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		w.Logger.Info(w.Msg, zap.String("line", line))
	}
	return len(p), nil
}
