package soapinvoker

import "log"

// Logger receives the diagnostic output of the client and the invoker. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// NopLogger discards everything
var NopLogger Logger = nopLogger{}

func loggerOrDefault(l Logger) Logger {
	if l == nil {
		return log.Default()
	}
	return l
}
