package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
)

// LogLevel уровень важности сообщения
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// Color codes for console output
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	purple = "\033[35m"
)

// Logger кастомная структура логгера
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	output   io.Writer
	tracking bool
}

// New создает новый экземпляр Logger
func New(level LogLevel) *Logger {
	return &Logger{
		level:    level,
		output:   os.Stdout,
		tracking: true,
	}
}

// SetOutput переключает вывод логгера (используется в тестах)
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// getCallerInfo получает файл и строку вызова
func getCallerInfo(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "???", 0
	}

	// Оставляем только последние компоненты пути
	parts := strings.Split(file, "/")
	if len(parts) > 3 {
		file = strings.Join(parts[len(parts)-3:], "/")
	}

	return file, line
}

// colorForLevel возвращает цвет для уровня логирования
func colorForLevel(level LogLevel) string {
	switch level {
	case DEBUG:
		return blue
	case INFO:
		return green
	case WARN:
		return yellow
	case ERROR:
		return red
	case FATAL:
		return purple
	default:
		return reset
	}
}

// log пишет отформатированное сообщение в вывод
func (l *Logger) log(level LogLevel, msg string) {
	if level < l.level {
		return
	}

	// Пропускаем 3 фрейма стека, чтобы получить реального вызывающего
	file, line := getCallerInfo(3)

	color := colorForLevel(level)

	logEntry := fmt.Sprintf("%s[%s]%s %s:%d - %s\n",
		color,
		[]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}[level],
		reset,
		file,
		line,
		msg,
	)

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprint(l.output, logEntry)

	if level == FATAL {
		os.Exit(1)
	}
}

// formatKeyvals приводит пары ключ-значение к виду key=value
func formatKeyvals(msg string, keysAndValues ...interface{}) string {
	if len(keysAndValues) == 0 {
		return msg
	}

	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			// Непарный ключ, фиксируем как есть
			fmt.Fprintf(&b, " %v=?", keysAndValues[i])
		}
	}
	return b.String()
}

// Debug логирует отладочное сообщение в printf-стиле
func (l *Logger) Debug(format string, v ...interface{}) {
	l.log(DEBUG, fmt.Sprintf(format, v...))
}

// Info логирует информационное сообщение в printf-стиле
func (l *Logger) Info(format string, v ...interface{}) {
	l.log(INFO, fmt.Sprintf(format, v...))
}

// Warn логирует предупреждение в printf-стиле
func (l *Logger) Warn(format string, v ...interface{}) {
	l.log(WARN, fmt.Sprintf(format, v...))
}

// Error логирует ошибку в printf-стиле
func (l *Logger) Error(format string, v ...interface{}) {
	l.log(ERROR, fmt.Sprintf(format, v...))
}

// Fatal логирует фатальную ошибку и завершает процесс
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.log(FATAL, fmt.Sprintf(format, v...))
}

// Debugw логирует отладочное сообщение с парами ключ-значение
func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.log(DEBUG, formatKeyvals(msg, keysAndValues...))
}

// Infow логирует информационное сообщение с парами ключ-значение
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.log(INFO, formatKeyvals(msg, keysAndValues...))
}

// Warnw логирует предупреждение с парами ключ-значение
func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.log(WARN, formatKeyvals(msg, keysAndValues...))
}

// Errorw логирует ошибку с парами ключ-значение
func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.log(ERROR, formatKeyvals(msg, keysAndValues...))
}

// Fatalw логирует фатальную ошибку с парами ключ-значение и завершает процесс
func (l *Logger) Fatalw(msg string, keysAndValues ...interface{}) {
	l.log(FATAL, formatKeyvals(msg, keysAndValues...))
}
