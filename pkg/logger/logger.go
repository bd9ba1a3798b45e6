package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// LogLevel определяет уровень логирования
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// ParseLevel разбирает уровень из строки (LOG_LEVEL)
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger представляет структурированный логгер
type Logger struct {
	mu     sync.RWMutex
	level  LogLevel
	logger *log.Logger
}

// New создает новый логгер, пишущий в stdout
func New(level LogLevel) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter создает логгер с произвольным приемником
func NewWithWriter(level LogLevel, w io.Writer) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(w, "", 0),
	}
}

// Discard возвращает логгер, который ничего не пишет
func Discard() *Logger {
	return NewWithWriter(LevelFatal+1, io.Discard)
}

// SetLevel устанавливает уровень логирования
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Debug записывает debug сообщение
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields...)
}

// Info записывает info сообщение
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

// Warn записывает warning сообщение
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

// Error записывает error сообщение
func (l *Logger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

// Fatal записывает fatal сообщение и завершает программу
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.log(LevelFatal, msg, fields...)
	os.Exit(1)
}

// WithContext возвращает логгер, добавляющий trace_id активного span
func (l *Logger) WithContext(ctx context.Context) *FieldLogger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return l.WithFields()
	}
	return l.WithFields(String("trace_id", sc.TraceID().String()))
}

// WithFields возвращает логгер с предустановленными полями
func (l *Logger) WithFields(fields ...Field) *FieldLogger {
	return &FieldLogger{
		logger: l,
		fields: fields,
	}
}

// log выполняет фактическое логирование
func (l *Logger) log(level LogLevel, msg string, fields ...Field) {
	l.mu.RLock()
	threshold := l.level
	l.mu.RUnlock()
	if level < threshold {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	levelName := levelNames[level]

	// Получить информацию о вызывающем коде
	_, file, line, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		caller = fmt.Sprintf("%s:%d", getShortFileName(file), line)
	}

	fieldsStr := ""
	if len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			parts = append(parts, field.String())
		}
		fieldsStr = " " + strings.Join(parts, " ")
	}

	l.logger.Println(fmt.Sprintf("[%s] %s %s %s%s", timestamp, levelName, caller, msg, fieldsStr))
}

// getShortFileName возвращает короткое имя файла
func getShortFileName(file string) string {
	parts := strings.Split(file, "/")
	if len(parts) >= 2 {
		return strings.Join(parts[len(parts)-2:], "/")
	}
	return file
}

// FieldLogger оборачивает логгер с предустановленными полями
type FieldLogger struct {
	logger *Logger
	fields []Field
}

func (fl *FieldLogger) merge(fields []Field) []Field {
	all := make([]Field, 0, len(fl.fields)+len(fields))
	all = append(all, fl.fields...)
	return append(all, fields...)
}

// With добавляет поля к уже существующим
func (fl *FieldLogger) With(fields ...Field) *FieldLogger {
	return &FieldLogger{logger: fl.logger, fields: fl.merge(fields)}
}

func (fl *FieldLogger) Debug(msg string, fields ...Field) {
	fl.logger.log(LevelDebug, msg, fl.merge(fields)...)
}

func (fl *FieldLogger) Info(msg string, fields ...Field) {
	fl.logger.log(LevelInfo, msg, fl.merge(fields)...)
}

func (fl *FieldLogger) Warn(msg string, fields ...Field) {
	fl.logger.log(LevelWarn, msg, fl.merge(fields)...)
}

func (fl *FieldLogger) Error(msg string, fields ...Field) {
	fl.logger.log(LevelError, msg, fl.merge(fields)...)
}

// Field представляет поле логирования
type Field struct {
	Key   string
	Value interface{}
}

// String возвращает строковое представление поля
func (f Field) String() string {
	return fmt.Sprintf("%s=%v", f.Key, f.Value)
}

// Вспомогательные функции для создания полей
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
