package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// ********************************************************
// ********* LOGGING **************************************
// ********************************************************

// DefaultLogFile is used by SetLogOutput when no path is given
const DefaultLogFile = "/tmp/footstats.log"

type LogLevel int

const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorOrange  = "\033[38;5;208m"
)

const (
	DEBUG LogLevel = iota
	INFO
	INFORM
	HIGHLIGHT
	WARN
	ERROR
	FATAL
)

type Logger struct {
	mu          sync.Mutex
	infoLogger  *log.Logger
	errorLogger *log.Logger
	level       LogLevel
	dateTime    bool
	file        *os.File
}

var defaultLogger = NewLogger(INFO, os.Stdout, os.Stderr)

// NewLogger creates a logger writing info level output to out and errors to errOut
func NewLogger(level LogLevel, out io.Writer, errOut io.Writer) *Logger {
	return &Logger{
		infoLogger:  log.New(out, "", 0),
		errorLogger: log.New(errOut, "", 0),
		level:       level,
	}
}

func (l *Logger) flags() int {
	if l.dateTime {
		return log.Ldate | log.Ltime
	}
	return 0
}

// SetLevel changes the minimum level that will be written
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetShowDateTime toggles the date/time prefix
func (l *Logger) SetShowDateTime(value bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dateTime = value
	l.infoLogger.SetFlags(l.flags())
	l.errorLogger.SetFlags(l.flags())
}

// SetOutput points the logger at new writers, closing any log file previously opened
func (l *Logger) SetOutput(out io.Writer, errOut io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closeFile()
	l.infoLogger = log.New(out, "", l.flags())
	l.errorLogger = log.New(errOut, "", l.flags())
}

func (l *Logger) closeFile() {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

// SetLogOutput sets the output destination for logs
// 'c' for console, 'f' for file, 'b' for both
func (l *Logger) SetLogOutput(outputType rune, path string) error {
	if path == "" {
		path = DefaultLogFile
	}
	openFile := func() (*os.File, error) {
		return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var out, errOut io.Writer
	var file *os.File
	switch outputType {
	case 'c':
		out, errOut = os.Stdout, os.Stderr
	case 'f':
		f, err := openFile()
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		out, errOut = f, f
	case 'b':
		f, err := openFile()
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
		errOut = io.MultiWriter(os.Stderr, f)
	default:
		return fmt.Errorf("invalid log output type: %c", outputType)
	}

	l.closeFile()
	l.file = file
	l.infoLogger = log.New(out, "", l.flags())
	l.errorLogger = log.New(errOut, "", l.flags())
	return nil
}

func (l *Logger) log(level LogLevel, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	// skip log and the package level convenience function
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
		line = 0
	}
	file = filepath.Base(file)

	msg := format
	var jsonObjects []string
	if len(v) > 0 {
		var primitives []string
		primitives, jsonObjects = processArgs(v...)
		if len(primitives) > 0 {
			msg = format + " " + strings.Join(primitives, " ")
		}
	}

	colorCode := level.color()
	out := l.infoLogger
	if level >= ERROR {
		out = l.errorLogger
	}
	out.Println(fmt.Sprintf("[%s] %s:%d: %s%s%s", level, file, line, colorCode, msg, colorReset))
	for _, obj := range jsonObjects {
		out.Println(fmt.Sprintf("[%s] %s:%d: %s%s%s", level, file, line, colorCode, obj, colorReset))
	}
}

func (l LogLevel) color() string {
	switch l {
	case DEBUG:
		return colorBlue
	case INFO:
		return colorGreen
	case INFORM:
		return colorMagenta
	case HIGHLIGHT:
		return colorCyan
	case WARN:
		return colorYellow
	case ERROR:
		return colorOrange
	case FATAL:
		return colorRed
	default:
		return colorReset
	}
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case INFORM:
		return "INFORM"
	case HIGHLIGHT:
		return "HIGHLIGHT"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name such as "debug" or "WARN" to a LogLevel
func ParseLevel(name string) (LogLevel, error) {
	for l := DEBUG; l <= FATAL; l++ {
		if strings.EqualFold(l.String(), strings.TrimSpace(name)) {
			return l, nil
		}
	}
	return INFO, fmt.Errorf("unknown log level: %s", name)
}

// processArgs splits arguments into printable primitives and indented JSON dumps of
// anything more complicated
func processArgs(args ...any) ([]string, []string) {
	var primitives []string
	var jsonObjects []string

	for _, arg := range args {
		if isPrimitive(arg) {
			switch v := arg.(type) {
			case float32:
				primitives = append(primitives, fmt.Sprintf("%.2f", v))
			case float64:
				primitives = append(primitives, fmt.Sprintf("%.2f", v))
			case string:
				primitives = append(primitives, v)
			case error:
				primitives = append(primitives, v.Error())
			case nil:
				primitives = append(primitives, "nil")
			default:
				primitives = append(primitives, fmt.Sprintf("%v", v))
			}
			continue
		}
		jsonBytes, err := json.MarshalIndent(arg, "", "  ")
		if err != nil {
			primitives = append(primitives, fmt.Sprintf("%v", arg))
			continue
		}
		primitives = append(primitives, fmt.Sprintf("[Object of type %s]", reflect.TypeOf(arg)))
		jsonObjects = append(jsonObjects, string(jsonBytes))
	}
	return primitives, jsonObjects
}

func isPrimitive(v any) bool {
	if v == nil {
		return true
	}
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, error:
		return true
	default:
		return false
	}
}

// Default returns the package level logger
func Default() *Logger {
	return defaultLogger
}

func SetLevel(level LogLevel) {
	defaultLogger.SetLevel(level)
}

func SetShowDateTime(value bool) {
	defaultLogger.SetShowDateTime(value)
}

func SetLogOutput(outputType rune, path string) error {
	return defaultLogger.SetLogOutput(outputType, path)
}

// Convenience methods using the default logger
func Debug(format string, v ...any) {
	defaultLogger.log(DEBUG, format, v...)
}

func Info(format string, v ...any) {
	defaultLogger.log(INFO, format, v...)
}

func Inform(format string, v ...any) {
	defaultLogger.log(INFORM, format, v...)
}

func Highlight(format string, v ...any) {
	defaultLogger.log(HIGHLIGHT, format, v...)
}

func Warn(format string, v ...any) {
	defaultLogger.log(WARN, format, v...)
}

func Error(format string, v ...any) {
	defaultLogger.log(ERROR, format, v...)
}

func Fatal(format string, v ...any) {
	defaultLogger.log(FATAL, format, v...)
	os.Exit(1)
}
