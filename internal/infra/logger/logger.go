package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// Logger is a printf-style leveled logger. Every message goes to the file
// sink; the console sink only receives Info and above so debug output does
// not interleave with CLI output.
type Logger struct {
	file    zerolog.Logger
	console *zerolog.Logger
	level   Level
	closer  io.Closer
}

func New(filePath string, level Level, includeStdout bool) (*Logger, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	l := NewWithWriter(f, level)
	l.closer = f

	if includeStdout {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}
		console := zerolog.New(out).Level(toZerolog(max(level, LevelInfo))).With().Timestamp().Logger()
		l.console = &console
	}

	return l, nil
}

// NewWithWriter logs JSON lines to w only.
func NewWithWriter(w io.Writer, level Level) *Logger {
	return &Logger{
		file:  zerolog.New(w).Level(toZerolog(level)).With().Timestamp().Logger(),
		level: level,
	}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{file: zerolog.Nop(), level: LevelFatal}
}

func (l *Logger) log(lvl Level, format string, v ...any) {
	if l == nil || lvl < l.level {
		return
	}

	msg := fmt.Sprintf(format, v...)

	l.file.WithLevel(toZerolog(lvl)).Msg(msg)
	if l.console != nil {
		l.console.WithLevel(toZerolog(lvl)).Msg(msg)
	}
}

func ParseLevel(lvl string) Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func toZerolog(lvl Level) zerolog.Level {
	switch lvl {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(f string, v ...any) { l.log(LevelDebug, f, v...) }
func (l *Logger) Info(f string, v ...any)  { l.log(LevelInfo, f, v...) }
func (l *Logger) Warn(f string, v ...any)  { l.log(LevelWarn, f, v...) }
func (l *Logger) Error(f string, v ...any) { l.log(LevelError, f, v...) }
func (l *Logger) Fatal(f string, v ...any) { l.log(LevelFatal, f, v...); os.Exit(1) }

func (l *Logger) Write(p []byte) (n int, err error) {
	// echo and other libraries often include a newline at the end
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		l.Info("%s", msg)
	}
	return len(p), nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
