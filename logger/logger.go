package logger

import (
	"fmt"
	"sort"
	"strings"
)

// Level type
type Level uint32

const (
	// ErrorLevel level. Used for errors that should definitely be noted.
	ErrorLevel Level = iota
	// WarnLevel level. Non-critical entries that deserve eyes.
	WarnLevel
	// InfoLevel level. General operational entries about what's going on
	// inside the client.
	InfoLevel
	// DebugLevel level. Usually only enabled when debugging. Very verbose.
	DebugLevel
	// TraceLevel level. Finer-grained informational events than Debug.
	TraceLevel
)

var LevelMap = map[Level]string{
	ErrorLevel: "error",
	WarnLevel:  "warn",
	InfoLevel:  "info",
	DebugLevel: "debug",
	TraceLevel: "trace",
}

type LogPayload struct {
	Level   Level
	Fields  map[string]interface{}
	Error   error
	Message string
}

type LogFunc func(payload LogPayload)

func NoopLogFunc(payload LogPayload) {}

func NewNoopLogger() *LogWrapper {
	return NewLogWrapper(NoopLogFunc, nil)
}

// NewSimpleLogFunc returns a logging func that writes key=value pairs
// to stdout for payloads at or below the given level
func NewSimpleLogFunc(level Level) LogFunc {
	return func(payload LogPayload) {
		if level < payload.Level {
			return
		}

		m := map[string]interface{}{
			"msg":   payload.Message,
			"level": LevelMap[payload.Level],
		}

		if payload.Error != nil {
			m["error"] = payload.Error
		}

		for k, v := range payload.Fields {
			if _, ok := m[k]; !ok {
				m[k] = v
			}
		}

		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%q", k, m[k]))
		}

		fmt.Println(strings.Join(pairs, " "))
	}
}

// LogWrapper wraps a log func with accumulated fields
type LogWrapper struct {
	LogFunc LogFunc
	Fields  map[string]interface{}
	Error   error
}

// NewLogWrapper returns a new log wrapper
func NewLogWrapper(logFunc LogFunc, fields map[string]interface{}) *LogWrapper {
	if fields == nil {
		fields = map[string]interface{}{}
	}

	return &LogWrapper{
		LogFunc: logFunc,
		Fields:  fields,
	}
}

// clone clones a log wrapper to iteratively build the log
func (l *LogWrapper) clone() *LogWrapper {
	newWrapper := &LogWrapper{
		LogFunc: l.LogFunc,
		Error:   l.Error,
		Fields:  map[string]interface{}{},
	}

	for k, v := range l.Fields {
		newWrapper.Fields[k] = v
	}

	return newWrapper
}

func (l *LogWrapper) WithError(err error) *LogWrapper {
	newWrapper := l.clone()
	newWrapper.Error = err
	return newWrapper
}

func (l *LogWrapper) WithField(key string, value interface{}) *LogWrapper {
	newWrapper := l.clone()
	newWrapper.Fields[key] = value
	return newWrapper
}

func (l *LogWrapper) logf(level Level, format string, v ...interface{}) {
	l.LogFunc(LogPayload{
		Level:   level,
		Fields:  l.Fields,
		Error:   l.Error,
		Message: fmt.Sprintf(format, v...),
	})
}

func (l *LogWrapper) Tracef(format string, v ...interface{}) {
	l.logf(TraceLevel, format, v...)
}

func (l *LogWrapper) Debugf(format string, v ...interface{}) {
	l.logf(DebugLevel, format, v...)
}

func (l *LogWrapper) Infof(format string, v ...interface{}) {
	l.logf(InfoLevel, format, v...)
}

func (l *LogWrapper) Warnf(format string, v ...interface{}) {
	l.logf(WarnLevel, format, v...)
}

func (l *LogWrapper) Errorf(format string, v ...interface{}) {
	l.logf(ErrorLevel, format, v...)
}
