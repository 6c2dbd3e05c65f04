package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/webguardai/webguard/internal/interfaces"
)

// StdoutLogger is a small structured logger that prints JSON lines.
// It implements interfaces.Logger.
type StdoutLogger struct {
	component string
	fields    []interfaces.Field
	out       io.Writer
	mu        *sync.Mutex
}

// NewStdoutLogger creates a StdoutLogger. component is optional and is
// included on every entry.
func NewStdoutLogger(component string) *StdoutLogger {
	return &StdoutLogger{
		component: component,
		out:       os.Stdout,
		mu:        &sync.Mutex{},
	}
}

func (s *StdoutLogger) log(level, msg string, fields ...interfaces.Field) {
	type outEntry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component,omitempty"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields,omitempty"`
	}
	m := make(map[string]any, len(s.fields)+len(fields))
	for _, f := range s.fields {
		m[f.Key] = f.Value
	}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	entry := outEntry{
		Level:     level,
		Msg:       msg,
		Component: s.component,
		Time:      time.Now().UTC().Format(time.RFC3339),
		Fields:    m,
	}
	enc, err := json.Marshal(entry)
	if err != nil {
		s.mu.Lock()
		fmt.Fprintf(s.out, "%s %s %v\n", level, msg, m)
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	fmt.Fprintln(s.out, string(enc))
	s.mu.Unlock()
}

func (s *StdoutLogger) Debug(msg string, fields ...interfaces.Field) { s.log("debug", msg, fields...) }
func (s *StdoutLogger) Info(msg string, fields ...interfaces.Field)  { s.log("info", msg, fields...) }
func (s *StdoutLogger) Warn(msg string, fields ...interfaces.Field)  { s.log("warn", msg, fields...) }
func (s *StdoutLogger) Error(msg string, fields ...interfaces.Field) { s.log("error", msg, fields...) }

// With returns a child logger carrying persistent fields. A "component"
// field overrides the component name instead of being repeated per entry.
func (s *StdoutLogger) With(fields ...interfaces.Field) interfaces.Logger {
	child := &StdoutLogger{
		component: s.component,
		fields:    append([]interfaces.Field(nil), s.fields...),
		out:       s.out,
		mu:        s.mu,
	}
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
				continue
			}
		}
		child.fields = append(child.fields, f)
	}
	return child
}

// Nop is a logger that discards everything. Handy default for tests and
// optional constructor arguments.
type Nop struct{}

func (Nop) Debug(string, ...interfaces.Field)           {}
func (Nop) Info(string, ...interfaces.Field)            {}
func (Nop) Warn(string, ...interfaces.Field)            {}
func (Nop) Error(string, ...interfaces.Field)           {}
func (n Nop) With(...interfaces.Field) interfaces.Logger { return n }
