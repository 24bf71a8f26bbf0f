package ilqr

import (
	"fmt"
	"io"
	"os"
)

// LogLevel controls the frequency and detail of solver log output.
type LogLevel int

const (
	// LogNoop: no output.
	LogNoop LogLevel = -1
	// LogLast: print only a single line when Solve returns.
	LogLast LogLevel = 0
	// LogEval: also print one line per accepted outer iteration (iter,
	// alpha, ratio, new cost, old cost, mu).
	LogEval LogLevel = 1
	// LogTrace: print line-search detail within each outer iteration.
	LogTrace LogLevel = 99
)

// Logger handles solver progress output. The writers must be thread-safe
// if a single Logger is shared across hindsight branch goroutines.
type Logger struct {
	Level LogLevel
	Out   io.Writer
}

func (l *Logger) enable(level LogLevel) bool {
	return l != nil && l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	if l.Out == nil {
		return
	}
	_, _ = fmt.Fprintf(l.Out, format, a...)
}

func defaultLogger(l *Logger) *Logger {
	if l == nil {
		l = &Logger{Level: LogNoop}
	}
	if l.Out == nil {
		l.Out = os.Stderr
	}
	return l
}
