// Package logging configures the process-wide leveled logger and hands out
// per-component sub-loggers.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.Mutex
	level             = log.InfoLevel
	output  io.Writer = os.Stderr
	loggers           = map[string]*log.Logger{}
)

// New returns the logger for component, creating it on first use.
// Level and output changes apply to loggers already handed out.
func New(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[component]; ok {
		return l
	}
	l := log.NewWithOptions(output, log.Options{
		ReportTimestamp: true,
		Prefix:          component,
		Level:           level,
	})
	loggers[component] = l
	return l
}

// SetLevel parses a level name (debug, info, warn, error) and applies it.
func SetLevel(name string) error {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	for _, l := range loggers {
		l.SetLevel(lvl)
	}
	return nil
}

func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	for _, l := range loggers {
		l.SetOutput(w)
	}
}
