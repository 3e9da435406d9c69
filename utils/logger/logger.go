// Package logger is a thin leveled wrapper over logrus. Every message is
// prefixed with a fixed-width column naming the object that logged it.
package logger

import (
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"
)

type stringer interface {
	String() string
}

const objWidth = 20

func objToString(obj any) string {
	switch v := obj.(type) {
	case nil:
		return "NIL"
	case stringer:
		return v.String()
	case string:
		return v
	default:
		t := reflect.TypeOf(obj)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		return t.Name()
	}
}

func format(obj any, msg string) string {
	objStr := objToString(obj)
	if len(objStr) > objWidth {
		objStr = objStr[:objWidth]
	}
	return fmt.Sprintf("|%20s|%s", objStr, msg)
}

// Init sets the global level and the text formatter used by all packages.
func Init(lvl logrus.Level) {
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		PadLevelText:    true,
		TimestampFormat: "2006/01/02 15:04:05",
	})
}

// InitFromString is Init for a level name such as "debug"; unknown names fall back to info.
func InitFromString(lvl string) {
	level, err := logrus.ParseLevel(lvl)
	if err != nil {
		level = logrus.InfoLevel
	}
	Init(level)
}

func emit(lvl logrus.Level, obj any, msg string) {
	if !logrus.IsLevelEnabled(lvl) {
		return
	}
	logrus.StandardLogger().Log(lvl, format(obj, msg))
}

func Trace(obj any, msg string) { emit(logrus.TraceLevel, obj, msg) }

func Tracef(obj any, msg string, args ...any) {
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		emit(logrus.TraceLevel, obj, fmt.Sprintf(msg, args...))
	}
}

func Debug(obj any, msg string) { emit(logrus.DebugLevel, obj, msg) }

func Debugf(obj any, msg string, args ...any) {
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		emit(logrus.DebugLevel, obj, fmt.Sprintf(msg, args...))
	}
}

func Info(obj any, msg string) { emit(logrus.InfoLevel, obj, msg) }

func Infof(obj any, msg string, args ...any) {
	emit(logrus.InfoLevel, obj, fmt.Sprintf(msg, args...))
}

func Warning(obj any, msg string) { emit(logrus.WarnLevel, obj, msg) }

func Warningf(obj any, msg string, args ...any) {
	emit(logrus.WarnLevel, obj, fmt.Sprintf(msg, args...))
}

func Error(obj any, msg string) { emit(logrus.ErrorLevel, obj, msg) }

func Errorf(obj any, msg string, args ...any) {
	emit(logrus.ErrorLevel, obj, fmt.Sprintf(msg, args...))
}

func Fatal(obj any, msg string) {
	logrus.Fatal(format(obj, msg))
}

func Fatalf(obj any, msg string, args ...any) {
	logrus.Fatal(format(obj, fmt.Sprintf(msg, args...)))
}
